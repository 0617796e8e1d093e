// Package invoke defines the Invocation contract (spec.md §6): a function
// name plus a string input, producing a string output, and the concrete
// collaborators the Propagator drives it through.
package invoke

import "context"

// Invoker is the external invocation contract. Implementations do not
// interpret input/output beyond passing them through; JSON (de)serialization
// of task payloads happens in pkg/propagate.
type Invoker interface {
	Invoke(ctx context.Context, functionName string, input string) (string, error)
}

// Primer is implemented by Invokers that can set a function's memory
// configuration ahead of any invocation, used to prime newly-discovered
// functions to their maximum memory size before sampling (see
// SUPPLEMENTED FEATURES in SPEC_FULL.md).
type Primer interface {
	Prime(ctx context.Context, functionName string) error
}
