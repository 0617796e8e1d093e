// Package optimize implements the Per-Function Optimizer (spec.md §4.C),
// the Critical-Path Engine (§4.D) and the Constrained Escalator (§4.E).
package optimize

import (
	"context"
	"fmt"
	"sync"

	"github.com/parrotfish-oss/flowcost/pkg/sampler"
	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// DefaultConcurrency is the per-function curve-fitting worker pool size
// (spec.md §5).
const DefaultConcurrency = 10

// FunctionOptimizer picks, for every function in a FunctionIndex, the memory
// size that minimizes the combined cost across all of that function's
// tasks, weighting each task equally.
type FunctionOptimizer struct {
	sampler     sampler.Sampler
	concurrency int
}

// NewFunctionOptimizer builds a FunctionOptimizer sampling through s.
func NewFunctionOptimizer(s sampler.Sampler) *FunctionOptimizer {
	return &FunctionOptimizer{sampler: s, concurrency: DefaultConcurrency}
}

// Optimize fits and assigns MemorySize, InitialMemorySize and MaxMemorySize
// on every task in index, one function at a time, across a worker pool
// capped at fo.concurrency.
func (fo *FunctionOptimizer) Optimize(ctx context.Context, index workflow.FunctionIndex) error {
	limit := fo.concurrency
	if limit <= 0 || limit > len(index) {
		limit = len(index)
	}
	if limit == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	sem := make(chan struct{}, limit)
	errCh := make(chan error, len(index))

	for functionName, tasks := range index {
		wg.Add(1)
		go func(functionName string, tasks []*workflow.Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := fo.optimizeOne(ctx, functionName, tasks); err != nil {
				errCh <- fmt.Errorf("function %s: %w", functionName, err)
				cancel()
			}
		}(functionName, tasks)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return &workflow.Error{Kind: workflow.KindOptimization, Err: err}
		}
	}
	return nil
}

func (fo *FunctionOptimizer) optimizeOne(ctx context.Context, functionName string, tasks []*workflow.Task) error {
	memorySpace, err := fo.sampler.MemorySpace(ctx, functionName)
	if err != nil {
		return fmt.Errorf("memory space: %w", err)
	}
	if len(memorySpace) == 0 {
		return workflow.ErrEmptyMemorySpace
	}

	collectiveCost := make([]float64, len(memorySpace))
	weight := 1.0 / float64(len(tasks))

	for _, t := range tasks {
		_, paramFn, err := fo.sampler.FitPayload(ctx, functionName, sampler.WeightedPayload{Payload: t.Input, Weight: weight}, collectiveCost)
		if err != nil {
			return fmt.Errorf("fit payload for task %s: %w", t.Name, err)
		}
		t.ParamFunction = paramFn
	}

	minIdx := argmin(collectiveCost)
	minMemory := memorySpace[minIdx]
	maxMemory := memorySpace[len(memorySpace)-1]

	for _, t := range tasks {
		t.MemorySize = minMemory
		t.InitialMemorySize = minMemory
		t.MaxMemorySize = maxMemory
	}

	return nil
}

// argmin returns the index of the smallest value, ties broken by the
// smallest index (spec.md §4.C).
func argmin(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] < values[best] {
			best = i
		}
	}
	return best
}
