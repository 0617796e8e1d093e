package orchestrator

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// AggregationPolicy decides whether per-payload results are combined or
// reported independently (spec.md §4.F: "this specification leaves the
// across-payload aggregation policy as a pluggable strategy").
type AggregationPolicy interface {
	Combine(results []PayloadResult) (Summary, error)
}

// Summary is an AggregationPolicy's output: the per-payload results are
// always carried through, and FunctionMemory is populated only by policies
// that actually combine across payloads.
type Summary struct {
	PerPayload     []PayloadResult
	FunctionMemory map[string]int
}

// IndependentPolicy is the spec's default: report every payload's result on
// its own, with no cross-payload combination.
type IndependentPolicy struct{}

func (IndependentPolicy) Combine(results []PayloadResult) (Summary, error) {
	return Summary{PerPayload: results}, nil
}

// MaxPerFunctionPolicy combines results by taking, for each function, the
// maximum memory size any payload required.
type MaxPerFunctionPolicy struct{}

func (MaxPerFunctionPolicy) Combine(results []PayloadResult) (Summary, error) {
	combined := map[string]int{}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for fn, mem := range r.FunctionMemory {
			if mem > combined[fn] {
				combined[fn] = mem
			}
		}
	}
	return Summary{PerPayload: results, FunctionMemory: combined}, nil
}

// ExprPolicy combines per-function memory sizes across payloads by
// evaluating a user-supplied expr-lang expression over the slice of values
// observed for that function (e.g. "max(values)", or "values[0]" to mimic
// "first payload wins"). Compiled programs are cached by expression source.
type ExprPolicy struct {
	Expression string
	cache      *exprCache
}

// NewExprPolicy builds an ExprPolicy evaluating expression once per
// function, given the slice of per-payload memory sizes bound as `values`.
func NewExprPolicy(expression string) *ExprPolicy {
	return &ExprPolicy{Expression: expression, cache: newExprCache(8)}
}

type exprEnv struct {
	Values []int `expr:"values"`
}

func (p *ExprPolicy) Combine(results []PayloadResult) (Summary, error) {
	perFunction := map[string][]int{}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for fn, mem := range r.FunctionMemory {
			perFunction[fn] = append(perFunction[fn], mem)
		}
	}

	program, err := p.cache.compile(p.Expression, exprEnv{})
	if err != nil {
		return Summary{}, fmt.Errorf("orchestrator: compile aggregation expression %q: %w", p.Expression, err)
	}

	combined := map[string]int{}
	for fn, values := range perFunction {
		out, err := expr.Run(program, exprEnv{Values: values})
		if err != nil {
			return Summary{}, fmt.Errorf("orchestrator: evaluate aggregation expression for %s: %w", fn, err)
		}
		mem, err := toInt(out)
		if err != nil {
			return Summary{}, fmt.Errorf("orchestrator: aggregation expression for %s: %w", fn, err)
		}
		combined[fn] = mem
	}

	return Summary{PerPayload: results, FunctionMemory: combined}, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
