package optimize

import (
	"fmt"
	"math"

	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// Result is the outcome of escalating a workflow against a time threshold.
type Result struct {
	CriticalPathTasks []*workflow.Task
	CriticalPathTime  float64
	Cost              float64
	Iterations        int
}

// Escalator greedily raises memory on the function with the best
// cost/time-reduction ratio along the current critical path until the
// workflow's time is at or below the threshold, or every critical-path task
// is already at its memory cap (spec.md §4.E).
type Escalator struct {
	Increment int
}

// NewEscalator builds an Escalator bumping memory by increment MB per step.
func NewEscalator(increment int) *Escalator {
	return &Escalator{Increment: increment}
}

// Escalate mutates task memory sizes in index/wf in place. A targetMs of
// zero or less means no constraint: the escalator is a no-op and the
// function-optimizer's cost-minimal assignment stands.
func (e *Escalator) Escalate(wf *workflow.Workflow, index workflow.FunctionIndex, targetMs float64) (*Result, error) {
	criticalTasks, criticalTime := CriticalPath(wf)

	if targetMs <= 0 {
		return &Result{CriticalPathTasks: criticalTasks, CriticalPathTime: criticalTime, Cost: wf.Cost()}, nil
	}

	costIncrease := make(map[string]float64, len(index))
	for fn, tasks := range index {
		costIncrease[fn] = costIncreaseForFunction(tasks, e.Increment)
	}

	iterations := 0
	for criticalTime > targetMs {
		chosen, ok := e.selectFunction(criticalTasks, costIncrease)
		if !ok {
			return nil, &workflow.Error{
				Kind: workflow.KindInfeasibility,
				Err:  fmt.Errorf("%w: %.2fms threshold, every critical-path task is at its memory cap", workflow.ErrInfeasible, targetMs),
			}
		}

		for _, t := range index[chosen] {
			if t.MemorySize+e.Increment <= t.MaxMemorySize {
				t.MemorySize += e.Increment
			}
		}
		costIncrease[chosen] = costIncreaseForFunction(index[chosen], e.Increment)

		criticalTasks, criticalTime = CriticalPath(wf)
		iterations++
	}

	return &Result{
		CriticalPathTasks: criticalTasks,
		CriticalPathTime:  criticalTime,
		Cost:              wf.Cost(),
		Iterations:        iterations,
	}, nil
}

// selectFunction picks the function along criticalTasks with the lowest
// cost_increase/time_reduction ratio, considering only tasks with headroom
// below their memory cap. Ties in the ratio are resolved by first-seen
// function order, matching spec.md's deterministic tie-break.
func (e *Escalator) selectFunction(criticalTasks []*workflow.Task, costIncrease map[string]float64) (string, bool) {
	timeReduction := map[string]float64{}
	var order []string

	for _, t := range criticalTasks {
		if t.MemorySize+e.Increment > t.MaxMemorySize {
			continue
		}
		if _, seen := timeReduction[t.FunctionName]; !seen {
			order = append(order, t.FunctionName)
		}
		timeReduction[t.FunctionName] += t.Time() - t.ExecutionTime(t.MemorySize+e.Increment)
	}

	chosen := ""
	lowestRatio := math.Inf(1)
	for _, fn := range order {
		reduction := timeReduction[fn]
		if reduction <= 0 {
			continue
		}
		ratio := costIncrease[fn] / reduction
		if ratio < lowestRatio {
			lowestRatio = ratio
			chosen = fn
		}
	}

	return chosen, chosen != ""
}

func costIncreaseForFunction(tasks []*workflow.Task, increment int) float64 {
	var sum float64
	for _, t := range tasks {
		sum += t.CostAt(t.MemorySize+increment) - t.CostAt(t.MemorySize)
	}
	return sum
}
