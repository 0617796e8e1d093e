// Package sampler defines the Sampler contract (spec.md §6): an external
// collaborator that fits a memory->duration curve for a function from
// sampled invocations, and a deterministic reference implementation used by
// tests and as a local/offline default.
package sampler

import "context"

// WeightedPayload is one task's representative input, weighted by
// 1/len(tasks) so that every task sharing a function contributes equally to
// that function's collective cost curve regardless of how many tasks invoke
// it.
type WeightedPayload struct {
	Payload string
	Weight  float64
}

// CurveFunc maps a candidate memory size (MB) to a fitted execution time
// (ms). It is only ever called with values drawn from the same function's
// memory space.
type CurveFunc func(memoryMB int) float64

// Sampler is the external performance-sampling contract. Implementations may
// invoke the live function at several memory sizes, or look up cached
// measurements; callers never invoke functions themselves on this path.
type Sampler interface {
	// MemorySpace returns the discrete, ascending memory sizes (MB) a
	// function may be configured at.
	MemorySpace(ctx context.Context, functionName string) ([]int, error)

	// FitPayload samples functionName against payload, adds the weighted
	// per-memory cost contribution of this payload into collectiveCost (one
	// entry per MemorySpace index, mutated in place so repeated calls for
	// different tasks of the same function accumulate), and returns the
	// memory size that minimizes payload's own cost in isolation plus a
	// curve function usable for further what-if evaluation.
	FitPayload(ctx context.Context, functionName string, payload WeightedPayload, collectiveCost []float64) (minMemoryMB int, paramFunction CurveFunc, err error)
}
