package workflow

// FunctionIndex groups every Task sharing a function name, rebuilt once per
// top-level payload since Map expansion is input-dependent and the set of
// tasks behind a function can change between payloads.
//
// Add is not safe for concurrent use by itself: propagation can call the
// OnTask callback from multiple goroutines at once (concurrent Parallel
// branches or Map iterations, including nested Map states, each expand
// against this same index). Callers that hand Add to Build/Propagate as
// part of an OnTask closure must serialize calls into it themselves, e.g.
// behind a single mutex owned by the call site that created the index (see
// orchestrator.runOne).
type FunctionIndex map[string][]*Task

// Add records t under its function name. Pass FunctionIndex.Add as the
// OnTask callback to Build/propagation to populate the index as the tree
// (and any Map expansions) are constructed.
func (idx FunctionIndex) Add(t *Task) {
	idx[t.FunctionName] = append(idx[t.FunctionName], t)
}

// FunctionTracker invokes its hook exactly once per distinct function name
// passed to Seen across its lifetime, used to drive the one-time memory-priming hook described in
// SUPPLEMENTED FEATURES. Like FunctionIndex, it is not internally
// synchronized; Seen/OnTask must be serialized by the caller when used as an
// OnTask callback alongside concurrent propagation.
type FunctionTracker struct {
	seen map[string]bool
	hook OnFunctionSeen
}

// NewFunctionTracker returns a tracker that invokes hook the first time each
// function name passes through Seen. hook may be nil, in which case Seen is
// a no-op beyond bookkeeping.
func NewFunctionTracker(hook OnFunctionSeen) *FunctionTracker {
	return &FunctionTracker{seen: make(map[string]bool), hook: hook}
}

// Seen marks functionName as encountered, invoking the tracker's hook the
// first time a given name is passed in.
func (f *FunctionTracker) Seen(functionName string) {
	if f.seen[functionName] {
		return
	}
	f.seen[functionName] = true
	if f.hook != nil {
		f.hook(functionName)
	}
}

// OnTask adapts the tracker into an OnTask callback, marking each task's
// function as seen.
func (f *FunctionTracker) OnTask(t *Task) {
	f.Seen(t.FunctionName)
}
