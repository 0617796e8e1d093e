package propagate

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parrotfish-oss/flowcost/pkg/workflow"
)

// echoInvoker is a hand-written fake Invoker, mirroring the teacher's
// testutil fakes: it returns input unchanged, or the error configured in fail
// for that function name, and records every call it received.
type echoInvoker struct {
	calls []call
	fail  map[string]error
}

type call struct {
	function string
	input    string
}

func (e *echoInvoker) Invoke(_ context.Context, functionName string, input string) (string, error) {
	e.calls = append(e.calls, call{functionName, input})
	if err := e.fail[functionName]; err != nil {
		return "", err
	}
	return input, nil
}

func TestPropagate_LinearChain(t *testing.T) {
	a := &workflow.Task{Name: "A", FunctionName: "F"}
	b := &workflow.Task{Name: "B", FunctionName: "G"}
	wf := &workflow.Workflow{States: []workflow.State{a, b}}

	inv := &echoInvoker{}
	p := New(inv)

	out, err := p.Propagate(context.Background(), wf, `"hello"`, nil)
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, out)
	assert.Equal(t, `"hello"`, a.Input)
	assert.Equal(t, `"hello"`, b.Input)
}

func TestPropagate_Parallel_PreservesBranchOrder(t *testing.T) {
	a := &workflow.Task{Name: "A", FunctionName: "F"}
	b := &workflow.Task{Name: "B", FunctionName: "G"}
	p := &workflow.Parallel{
		Name: "P",
		Branches: []*workflow.Workflow{
			{States: []workflow.State{a}},
			{States: []workflow.State{b}},
		},
	}
	wf := &workflow.Workflow{States: []workflow.State{p}}

	inv := &echoInvoker{}
	prop := New(inv)

	out, err := prop.Propagate(context.Background(), wf, `"x"`, nil)
	require.NoError(t, err)
	assert.Equal(t, `["x","x"]`, out)
}

func TestPropagate_Parallel_AbortsOnBranchError(t *testing.T) {
	a := &workflow.Task{Name: "A", FunctionName: "F"}
	b := &workflow.Task{Name: "B", FunctionName: "G"}
	p := &workflow.Parallel{
		Name: "P",
		Branches: []*workflow.Workflow{
			{States: []workflow.State{a}},
			{States: []workflow.State{b}},
		},
	}
	wf := &workflow.Workflow{States: []workflow.State{p}}

	inv := &echoInvoker{fail: map[string]error{"G": fmt.Errorf("boom")}}
	prop := New(inv)

	_, err := prop.Propagate(context.Background(), wf, `"x"`, nil)
	require.Error(t, err)
	var werr *workflow.Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, workflow.KindPropagation, werr.Kind)
}

// Scenario 3: Map expansion over {"items":[1,2,3]}.
func TestPropagate_MapExpansion(t *testing.T) {
	iterDef := &workflow.Definition{
		StartAt: "Item",
		States:  map[string]workflow.StateDef{"Item": {Type: "Task", Parameters: &workflow.TaskParameters{FunctionName: "A"}, End: true}},
	}
	m := &workflow.Map{Name: "M", IteratorDef: iterDef, ItemsPath: "$.items"}
	wf := &workflow.Workflow{States: []workflow.State{m}}

	inv := &echoInvoker{}
	prop := New(inv)

	// Map iterations run concurrently, and FunctionIndex.Add must be
	// serialized by its caller.
	index := workflow.FunctionIndex{}
	var indexMu sync.Mutex
	onTask := func(t *workflow.Task) {
		indexMu.Lock()
		defer indexMu.Unlock()
		index.Add(t)
	}
	out, err := prop.Propagate(context.Background(), wf, `{"items":[1,2,3]}`, onTask)
	require.NoError(t, err)

	assert.Equal(t, "[1,2,3]", out)
	require.Len(t, m.Iterations, 3)
	require.Len(t, index["A"], 3)

	inputs := map[string]bool{}
	for _, task := range index["A"] {
		inputs[task.Input] = true
	}
	assert.True(t, inputs["1"])
	assert.True(t, inputs["2"])
	assert.True(t, inputs["3"])
}

func TestPropagate_MapEmptyItems_NoIterations(t *testing.T) {
	iterDef := &workflow.Definition{
		StartAt: "Item",
		States:  map[string]workflow.StateDef{"Item": {Type: "Task", Parameters: &workflow.TaskParameters{FunctionName: "A"}, End: true}},
	}
	m := &workflow.Map{Name: "M", IteratorDef: iterDef, ItemsPath: "$.items"}
	wf := &workflow.Workflow{States: []workflow.State{m}}

	inv := &echoInvoker{}
	prop := New(inv)

	out, err := prop.Propagate(context.Background(), wf, `{"items":[]}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Empty(t, m.Iterations)
}

func TestExtractItems_AmbiguousOrMissing(t *testing.T) {
	_, err := ExtractItems(`{"other": 1}`, "$.items")
	require.Error(t, err)

	_, err = ExtractItems(`{"items": 5}`, "$.items")
	require.Error(t, err)
}
