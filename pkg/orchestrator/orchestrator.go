// Package orchestrator implements the Orchestrator (spec.md §4.F): it
// drives the workflow model, propagator, per-function optimizer and
// constrained escalator across a list of representative top-level payloads.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/parrotfish-oss/flowcost/pkg/invoke"
	"github.com/parrotfish-oss/flowcost/pkg/optimize"
	"github.com/parrotfish-oss/flowcost/pkg/propagate"
	"github.com/parrotfish-oss/flowcost/pkg/sampler"
	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// FailurePolicy decides what happens when one payload's run fails.
type FailurePolicy string

const (
	// FailurePolicyAbort stops the whole run on the first payload failure
	// (spec.md §7 default).
	FailurePolicyAbort FailurePolicy = "abort"
	// FailurePolicySkip records the error for that payload and continues.
	FailurePolicySkip FailurePolicy = "skip"
)

// PayloadResult is one payload's outcome.
type PayloadResult struct {
	Payload            string
	FunctionMemory     map[string]int
	CriticalPathTimeMs float64
	Cost               float64
	ConstraintMet      bool
	Err                error
}

// Orchestrator wires the four pipeline stages together.
type Orchestrator struct {
	Invoker           invoke.Invoker
	Sampler           sampler.Sampler
	MemoryIncrement   int
	TargetMs          float64
	FailurePolicy     FailurePolicy
	AggregationPolicy AggregationPolicy

	// OnFunctionSeen, if set, fires the first time a distinct function name
	// is encountered while building the workflow for any payload (see
	// SUPPLEMENTED FEATURES: priming a function's memory before sampling).
	OnFunctionSeen workflow.OnFunctionSeen
}

// New builds an Orchestrator with the spec's default failure and
// aggregation policies (abort, independent).
func New(invoker invoke.Invoker, samp sampler.Sampler, memoryIncrement int, targetMs float64) *Orchestrator {
	return &Orchestrator{
		Invoker:           invoker,
		Sampler:           samp,
		MemoryIncrement:   memoryIncrement,
		TargetMs:          targetMs,
		FailurePolicy:     FailurePolicyAbort,
		AggregationPolicy: IndependentPolicy{},
	}
}

// Run executes the full A->B->C->D/E pipeline once per payload and applies
// the configured aggregation policy across results.
func (o *Orchestrator) Run(ctx context.Context, def *workflow.Definition, payloads []string) (Summary, error) {
	tracker := workflow.NewFunctionTracker(o.OnFunctionSeen)
	propagator := propagate.New(o.Invoker)
	functionOptimizer := optimize.NewFunctionOptimizer(o.Sampler)
	escalator := optimize.NewEscalator(o.MemoryIncrement)

	results := make([]PayloadResult, 0, len(payloads))

	for _, payload := range payloads {
		result, err := o.runOne(ctx, def, payload, tracker, propagator, functionOptimizer, escalator)
		if err != nil {
			if o.FailurePolicy == FailurePolicySkip {
				results = append(results, PayloadResult{Payload: payload, Err: err})
				continue
			}
			return Summary{}, fmt.Errorf("orchestrator: payload failed: %w", err)
		}
		results = append(results, result)
	}

	policy := o.AggregationPolicy
	if policy == nil {
		policy = IndependentPolicy{}
	}
	return policy.Combine(results)
}

func (o *Orchestrator) runOne(
	ctx context.Context,
	def *workflow.Definition,
	payload string,
	tracker *workflow.FunctionTracker,
	propagator *propagate.Propagator,
	functionOptimizer *optimize.FunctionOptimizer,
	escalator *optimize.Escalator,
) (PayloadResult, error) {
	index := workflow.FunctionIndex{}
	var onTaskMu sync.Mutex
	onTask := func(t *workflow.Task) {
		onTaskMu.Lock()
		defer onTaskMu.Unlock()
		index.Add(t)
		tracker.OnTask(t)
	}

	wf, err := workflow.Build(def, onTask)
	if err != nil {
		return PayloadResult{}, err
	}

	if _, err := propagator.Propagate(ctx, wf, payload, onTask); err != nil {
		return PayloadResult{}, err
	}

	if err := functionOptimizer.Optimize(ctx, index); err != nil {
		return PayloadResult{}, err
	}

	escResult, err := escalator.Escalate(wf, index, o.TargetMs)
	if err != nil {
		return PayloadResult{}, err
	}

	functionMemory := make(map[string]int, len(index))
	for fn, tasks := range index {
		if len(tasks) == 0 {
			continue
		}
		functionMemory[fn] = tasks[0].MemorySize
	}

	constraintMet := o.TargetMs <= 0 || escResult.CriticalPathTime <= o.TargetMs

	return PayloadResult{
		Payload:            payload,
		FunctionMemory:     functionMemory,
		CriticalPathTimeMs: escResult.CriticalPathTime,
		Cost:               escResult.Cost,
		ConstraintMet:      constraintMet,
	}, nil
}
