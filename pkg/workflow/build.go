package workflow

import "fmt"

// OnTask is called exactly once for every Task created while building a
// workflow, in creation order. Build uses it to populate a FunctionIndex as
// the tree is constructed; the Propagator uses it again when expanding a Map
// state's iterations for a concrete input.
type OnTask func(*Task)

// OnFunctionSeen is called the first time a given function name is
// encountered while building, across repeated Build calls sharing the same
// tracker (see NewFunctionTracker). Used to prime a function's cloud memory
// configuration before any live invocation happens against it.
type OnFunctionSeen func(functionName string)

// Build walks a Definition's StartAt/Next chain and constructs the
// corresponding Workflow tree. onTask, if non-nil, is invoked for every Task
// state created, including those nested inside Parallel branches.
func Build(def *Definition, onTask OnTask) (*Workflow, error) {
	if def == nil {
		return nil, &Error{Kind: KindDefinition, Err: ErrNilDefinition}
	}
	if def.StartAt == "" {
		return nil, &Error{Kind: KindDefinition, Err: ErrMissingStartAt}
	}

	wf := &Workflow{}
	name := def.StartAt
	// A malformed definition could point Next back at an earlier state and
	// loop forever; bound the walk by the number of declared states, which
	// is the most any acyclic chain can visit.
	limit := len(def.States) + 1

	for step := 0; ; step++ {
		if step > limit {
			return nil, &Error{Kind: KindDefinition, Err: fmt.Errorf("%w: Next chain does not terminate", ErrInvalidState)}
		}
		stateDef, ok := def.States[name]
		if !ok {
			return nil, &Error{Kind: KindDefinition, Err: fmt.Errorf("%w: %s", ErrStateNotFound, name)}
		}
		state, err := buildState(name, stateDef, onTask)
		if err != nil {
			return nil, err
		}
		wf.States = append(wf.States, state)
		if stateDef.Next == "" {
			break
		}
		name = stateDef.Next
	}

	return wf, nil
}

func buildState(name string, d StateDef, onTask OnTask) (State, error) {
	switch d.Type {
	case string(StateTypeTask):
		if d.Parameters == nil || d.Parameters.FunctionName == "" {
			return nil, &Error{Kind: KindDefinition, State: name, Err: fmt.Errorf("%w: task missing Parameters.FunctionName", ErrInvalidState)}
		}
		t := &Task{Name: name, FunctionName: d.Parameters.FunctionName}
		if onTask != nil {
			onTask(t)
		}
		return t, nil

	case string(StateTypeParallel):
		// An empty Branches list is a valid boundary case (spec.md §8): the
		// Parallel state has time 0 and cost 0, same as the original
		// implementation, which loops over Branches without rejecting zero.
		p := &Parallel{Name: name}
		for i, branchDef := range d.Branches {
			branch, err := Build(branchDef, onTask)
			if err != nil {
				return nil, fmt.Errorf("branch %d of %s: %w", i, name, err)
			}
			p.Branches = append(p.Branches, branch)
		}
		return p, nil

	case string(StateTypeMap):
		if d.Iterator == nil {
			return nil, &Error{Kind: KindDefinition, State: name, Err: fmt.Errorf("%w: map missing Iterator", ErrInvalidState)}
		}
		if d.ItemsPath == "" {
			return nil, &Error{Kind: KindDefinition, State: name, Err: fmt.Errorf("%w: map missing ItemsPath", ErrInvalidState)}
		}
		return &Map{Name: name, IteratorDef: d.Iterator, ItemsPath: d.ItemsPath}, nil

	default:
		return nil, &Error{Kind: KindDefinition, State: name, Err: fmt.Errorf("%w: %s", ErrUnsupportedStateType, d.Type)}
	}
}
