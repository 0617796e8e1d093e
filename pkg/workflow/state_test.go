package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func constCurve(d float64) func(int) float64 {
	return func(int) float64 { return d }
}

func TestWorkflow_TimeIsSumOfStates(t *testing.T) {
	a := &Task{Name: "A", ParamFunction: constCurve(10), MemorySize: 128}
	b := &Task{Name: "B", ParamFunction: constCurve(20), MemorySize: 128}
	wf := &Workflow{States: []State{a, b}}

	assert.Equal(t, 30.0, wf.Time())
	assert.Equal(t, float64(10*128+20*128), wf.Cost())
}

func TestParallel_TimeIsMaxCostIsSum(t *testing.T) {
	a := &Task{Name: "A", ParamFunction: constCurve(5), MemorySize: 100}
	b := &Task{Name: "B", ParamFunction: constCurve(9), MemorySize: 100}
	p := &Parallel{
		Name: "P",
		Branches: []*Workflow{
			{States: []State{a}},
			{States: []State{b}},
		},
	}

	assert.Equal(t, 9.0, p.Time())
	assert.Equal(t, 5.0*100+9.0*100, p.Cost())
}

func TestParallel_EmptyBranches(t *testing.T) {
	p := &Parallel{Name: "P"}
	assert.Equal(t, 0.0, p.Time())
	assert.Equal(t, 0.0, p.Cost())
}

func TestMap_NoIterations(t *testing.T) {
	m := &Map{Name: "M"}
	assert.Equal(t, 0.0, m.Time())
	assert.Equal(t, 0.0, m.Cost())
}

func TestMap_TimeIsMaxOverIterations(t *testing.T) {
	it1 := &Workflow{States: []State{&Task{Name: "A", ParamFunction: constCurve(3), MemorySize: 128}}}
	it2 := &Workflow{States: []State{&Task{Name: "A", ParamFunction: constCurve(7), MemorySize: 128}}}
	m := &Map{Name: "M", Iterations: []*Workflow{it1, it2}}

	assert.Equal(t, 7.0, m.Time())
}

func TestTask_ResetMemorySize(t *testing.T) {
	task := &Task{Name: "A", InitialMemorySize: 128, MemorySize: 384}
	task.ResetMemorySize()
	assert.Equal(t, 128, task.MemorySize)
}

func TestWorkflow_ResetMemorySizes_Nested(t *testing.T) {
	leaf := &Task{Name: "A", InitialMemorySize: 128, MemorySize: 512}
	p := &Parallel{Name: "P", Branches: []*Workflow{{States: []State{leaf}}}}
	wf := &Workflow{States: []State{p}}

	wf.ResetMemorySizes()

	assert.Equal(t, 128, leaf.MemorySize)
}

func TestSingleTaskWorkflow_TimeIsThatTasksTime(t *testing.T) {
	a := &Task{Name: "A", ParamFunction: constCurve(42), MemorySize: 128}
	wf := &Workflow{States: []State{a}}
	assert.Equal(t, 42.0, wf.Time())
}
