package sampler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// CurveCache is the subset of internal/infrastructure/cache.RedisCache used
// here, narrowed to an interface so tests can fake it without a live Redis.
type CurveCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type cachedCurve struct {
	MemorySpace []int     `json:"memory_space"`
	Durations   []float64 `json:"durations"`
	MinMemoryMB int       `json:"min_memory_mb"`
}

// CachingSampler wraps another Sampler and caches its fitted curves keyed by
// function name and payload, since a fitted curve is pure and, per
// spec.md §9, safe to cache across runs. A cache hit still folds the
// payload's weighted cost contribution into collectiveCost, exactly as a
// live FitPayload call would.
type CachingSampler struct {
	Inner Sampler
	Cache CurveCache
	TTL   time.Duration
}

// NewCachingSampler wraps inner with a Redis-backed curve cache. ttl of zero
// means the cache entry never expires.
func NewCachingSampler(inner Sampler, cache CurveCache, ttl time.Duration) *CachingSampler {
	return &CachingSampler{Inner: inner, Cache: cache, TTL: ttl}
}

func (c *CachingSampler) MemorySpace(ctx context.Context, functionName string) ([]int, error) {
	return c.Inner.MemorySpace(ctx, functionName)
}

func (c *CachingSampler) FitPayload(ctx context.Context, functionName string, payload WeightedPayload, collectiveCost []float64) (int, CurveFunc, error) {
	key := curveCacheKey(functionName, payload.Payload)

	if raw, err := c.Cache.Get(ctx, key); err == nil {
		var cc cachedCurve
		if err := json.Unmarshal([]byte(raw), &cc); err == nil && len(cc.Durations) == len(collectiveCost) {
			applyCachedCurve(cc, payload.Weight, collectiveCost)
			return cc.MinMemoryMB, curveFromCache(cc), nil
		}
	}

	minMemory, curve, err := c.Inner.FitPayload(ctx, functionName, payload, collectiveCost)
	if err != nil {
		return 0, nil, err
	}

	space, err := c.Inner.MemorySpace(ctx, functionName)
	if err == nil {
		durations := make([]float64, len(space))
		for i, m := range space {
			durations[i] = curve(m)
		}
		cc := cachedCurve{MemorySpace: space, Durations: durations, MinMemoryMB: minMemory}
		if raw, err := json.Marshal(cc); err == nil {
			_ = c.Cache.Set(ctx, key, raw, c.TTL)
		}
	}

	return minMemory, curve, nil
}

func applyCachedCurve(cc cachedCurve, weight float64, collectiveCost []float64) {
	for i, duration := range cc.Durations {
		memoryMB := cc.MemorySpace[i]
		collectiveCost[i] += weight * duration * float64(memoryMB)
	}
}

func curveFromCache(cc cachedCurve) CurveFunc {
	byMemory := make(map[int]float64, len(cc.MemorySpace))
	for i, m := range cc.MemorySpace {
		byMemory[m] = cc.Durations[i]
	}
	return func(memoryMB int) float64 {
		return byMemory[memoryMB]
	}
}

func curveCacheKey(functionName, payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("flowcost:curve:%s:%s", functionName, hex.EncodeToString(sum[:]))
}
