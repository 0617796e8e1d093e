package sampler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerLawSampler_MemorySpace(t *testing.T) {
	s := NewPowerLawSampler([]int{128, 256, 512}, nil)
	space, err := s.MemorySpace(context.Background(), "F")
	require.NoError(t, err)
	assert.Equal(t, []int{128, 256, 512}, space)
}

func TestPowerLawSampler_FitPayload_AccumulatesCollectiveCost(t *testing.T) {
	s := NewPowerLawSampler([]int{128, 256}, map[string]float64{"F": 2000})
	collective := make([]float64, 2)

	minMemory, curve, err := s.FitPayload(context.Background(), "F", WeightedPayload{Payload: "p", Weight: 1}, collective)
	require.NoError(t, err)
	assert.Equal(t, 15.625, curve(128))
	assert.Equal(t, 7.8125, curve(256))
	// cost(m) = (2000/m)*m = 2000 at every memory size for this curve shape.
	assert.InDelta(t, 2000, collective[0], 1e-9)
	assert.InDelta(t, 2000, collective[1], 1e-9)
	assert.Equal(t, 128, minMemory)
}

func TestPowerLawSampler_FitPayload_MismatchedCollectiveLength(t *testing.T) {
	s := NewPowerLawSampler([]int{128, 256}, nil)
	_, _, err := s.FitPayload(context.Background(), "F", WeightedPayload{Payload: "p", Weight: 1}, make([]float64, 1))
	require.Error(t, err)
}
