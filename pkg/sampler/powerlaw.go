package sampler

import (
	"context"
	"fmt"
	"sync"
)

// PowerLawSampler is a deterministic reference Sampler: every function's
// duration curve is duration(m) = Coefficient/m, the same inverse-memory
// shape used throughout spec.md's worked examples (e.g. param_function(m) =
// 2000/m). It requires no network access, which makes it suitable both as
// test fixture and as a default for local/offline runs.
type PowerLawSampler struct {
	mu sync.Mutex

	// Space is the memory axis (MB) returned for every function, ascending.
	Space []int

	// Coefficients maps function name to its power-law coefficient. A
	// function absent from the map uses DefaultCoefficient.
	Coefficients map[string]float64

	// DefaultCoefficient is used for any function not present in
	// Coefficients.
	DefaultCoefficient float64
}

// NewPowerLawSampler builds a PowerLawSampler over the given memory space
// with the given per-function coefficients.
func NewPowerLawSampler(space []int, coefficients map[string]float64) *PowerLawSampler {
	if coefficients == nil {
		coefficients = map[string]float64{}
	}
	return &PowerLawSampler{Space: space, Coefficients: coefficients, DefaultCoefficient: 2000}
}

func (s *PowerLawSampler) MemorySpace(_ context.Context, functionName string) ([]int, error) {
	if len(s.Space) == 0 {
		return nil, fmt.Errorf("power law sampler: no memory space configured for %s", functionName)
	}
	out := make([]int, len(s.Space))
	copy(out, s.Space)
	return out, nil
}

func (s *PowerLawSampler) coefficient(functionName string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.Coefficients[functionName]; ok {
		return c
	}
	return s.DefaultCoefficient
}

func (s *PowerLawSampler) FitPayload(_ context.Context, functionName string, payload WeightedPayload, collectiveCost []float64) (int, CurveFunc, error) {
	if len(s.Space) != len(collectiveCost) {
		return 0, nil, fmt.Errorf("power law sampler: collective cost length %d does not match memory space length %d", len(collectiveCost), len(s.Space))
	}
	coeff := s.coefficient(functionName)
	curve := func(memoryMB int) float64 {
		if memoryMB <= 0 {
			return 0
		}
		return coeff / float64(memoryMB)
	}

	minIdx := 0
	var minCost float64
	for i, m := range s.Space {
		duration := curve(m)
		cost := duration * float64(m)
		collectiveCost[i] += payload.Weight * cost
		if i == 0 || cost < minCost {
			minCost = cost
			minIdx = i
		}
	}

	return s.Space[minIdx], curve, nil
}
