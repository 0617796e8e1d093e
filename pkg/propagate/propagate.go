// Package propagate implements the Payload Propagator (spec.md §4.B): it
// threads a concrete JSON input through a Workflow, invoking each Task via
// an invoke.Invoker, fanning out across Parallel branches and Map
// iterations, and expanding Map states against the items their ItemsPath
// resolves to.
package propagate

import (
	"context"
	"fmt"
	"sync"

	"github.com/parrotfish-oss/flowcost/pkg/invoke"
	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// DefaultConcurrency is the worker pool size for Parallel branches and Map
// iterations (spec.md §5).
const DefaultConcurrency = 10

// Propagator drives a single payload through a workflow tree.
type Propagator struct {
	invoker     invoke.Invoker
	concurrency int
}

// New builds a Propagator invoking functions through invoker, using the
// default worker pool size.
func New(invoker invoke.Invoker) *Propagator {
	return &Propagator{invoker: invoker, concurrency: DefaultConcurrency}
}

// WithConcurrency overrides the worker pool size; mainly useful in tests
// that want deterministic, serial execution (concurrency 1).
func (p *Propagator) WithConcurrency(n int) *Propagator {
	if n <= 0 {
		n = DefaultConcurrency
	}
	return &Propagator{invoker: p.invoker, concurrency: n}
}

// Propagate threads input through wf's states in order, returning the final
// output. onTask, if non-nil, is called for every Task created while
// expanding a Map's iterations, so callers can keep a FunctionIndex (or a
// FunctionTracker) current for this payload; Tasks already present in wf
// when Propagate is called are not reported to it.
func (p *Propagator) Propagate(ctx context.Context, wf *workflow.Workflow, input string, onTask workflow.OnTask) (string, error) {
	payload := input
	for _, state := range wf.States {
		out, err := p.propagateState(ctx, state, payload, onTask)
		if err != nil {
			return "", err
		}
		payload = out
	}
	return payload, nil
}

func (p *Propagator) propagateState(ctx context.Context, state workflow.State, input string, onTask workflow.OnTask) (string, error) {
	switch s := state.(type) {
	case *workflow.Task:
		return p.propagateTask(ctx, s, input)
	case *workflow.Parallel:
		return p.propagateParallel(ctx, s, input, onTask)
	case *workflow.Map:
		return p.propagateMap(ctx, s, input, onTask)
	default:
		return "", &workflow.Error{Kind: workflow.KindPropagation, Err: fmt.Errorf("unsupported state type %T", state)}
	}
}

func (p *Propagator) propagateTask(ctx context.Context, t *workflow.Task, input string) (string, error) {
	t.Input = input
	out, err := p.invoker.Invoke(ctx, t.FunctionName, input)
	if err != nil {
		return "", &workflow.Error{Kind: workflow.KindPropagation, State: t.Name, Err: err}
	}
	return out, nil
}

// propagateParallel runs every branch against the same input concurrently,
// capped at p.concurrency, and returns a JSON array of the branches' outputs
// in branch order (grounded on the teacher's executeWave semaphore +
// WaitGroup + error-channel idiom).
func (p *Propagator) propagateParallel(ctx context.Context, s *workflow.Parallel, input string, onTask workflow.OnTask) (string, error) {
	outputs := make([]string, len(s.Branches))
	if err := p.runPool(ctx, len(s.Branches), func(ctx context.Context, i int) error {
		out, err := p.Propagate(ctx, s.Branches[i], input, onTask)
		if err != nil {
			return fmt.Errorf("branch %d: %w", i, err)
		}
		outputs[i] = out
		return nil
	}); err != nil {
		return "", &workflow.Error{Kind: workflow.KindPropagation, State: s.Name, Err: err}
	}
	return joinJSONArray(outputs), nil
}

// propagateMap evaluates s.ItemsPath against input, builds one iteration
// workflow per item from s.IteratorDef, runs them concurrently capped at
// p.concurrency, and stores the built iterations on s for later use by the
// critical-path engine.
func (p *Propagator) propagateMap(ctx context.Context, s *workflow.Map, input string, onTask workflow.OnTask) (string, error) {
	items, err := ExtractItems(input, s.ItemsPath)
	if err != nil {
		return "", &workflow.Error{Kind: workflow.KindPropagation, State: s.Name, Err: err}
	}

	iterations := make([]*workflow.Workflow, len(items))
	outputs := make([]string, len(items))

	// workflow.Build only reads the shared, immutable IteratorDef and
	// constructs a fresh tree per call, so it is safe to call concurrently
	// here; onTask itself is made safe for concurrent invocation by its
	// owner (orchestrator.runOne), not by this loop.
	if err := p.runPool(ctx, len(items), func(ctx context.Context, i int) error {
		iterWf, err := workflow.Build(s.IteratorDef, onTask)
		if err != nil {
			return fmt.Errorf("iteration %d: build: %w", i, err)
		}
		iterations[i] = iterWf

		out, err := p.Propagate(ctx, iterWf, items[i], onTask)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		outputs[i] = out
		return nil
	}); err != nil {
		return "", &workflow.Error{Kind: workflow.KindPropagation, State: s.Name, Err: err}
	}

	s.Iterations = iterations
	return joinJSONArray(outputs), nil
}

// runPool runs fn(ctx, i) for i in [0, n) across a worker pool capped at
// p.concurrency, cancelling remaining work and returning the first error
// encountered.
func (p *Propagator) runPool(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}

	limit := p.concurrency
	if limit <= 0 || limit > n {
		limit = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	sem := make(chan struct{}, limit)
	errCh := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			if err := fn(ctx, i); err != nil {
				errCh <- err
				cancel()
			}
		}(i)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}
