package invoke

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// BackoffStrategy selects how RetryingInvoker spaces out repeated attempts.
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy configures RetryingInvoker. Sampling (spec.md §6) treats a
// single invocation's duration as noisy; a function that errors on a cold
// start or a transient Lambda throttle should not poison a whole sample.
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffStrategy BackoffStrategy
}

// DefaultRetryPolicy returns exponential backoff starting at 200ms, capped
// at 5s.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffStrategy: BackoffExponential,
	}
}

func (rp RetryPolicy) delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	var d time.Duration
	switch rp.BackoffStrategy {
	case BackoffConstant:
		d = rp.InitialDelay
	case BackoffLinear:
		d = rp.InitialDelay * time.Duration(attempt)
	default:
		d = time.Duration(float64(rp.InitialDelay) * math.Pow(2, float64(attempt-1)))
	}
	if rp.MaxDelay > 0 && d > rp.MaxDelay {
		d = rp.MaxDelay
	}
	return d
}

// RetryingInvoker wraps an Invoker, retrying a failed invocation with
// backoff until Policy.MaxAttempts attempts in total (the first call
// included) have been made, then giving up. It also
// implements Primer, delegating unmodified, when the wrapped Invoker does.
type RetryingInvoker struct {
	Invoker Invoker
	Policy  RetryPolicy
}

// NewRetryingInvoker wraps inv with policy.
func NewRetryingInvoker(inv Invoker, policy RetryPolicy) *RetryingInvoker {
	return &RetryingInvoker{Invoker: inv, Policy: policy}
}

func (r *RetryingInvoker) Invoke(ctx context.Context, functionName string, input string) (string, error) {
	maxAttempts := r.Policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := r.Invoker.Invoke(ctx, functionName, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt >= maxAttempts {
			break
		}

		delay := r.Policy.delay(attempt)
		if delay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return "", fmt.Errorf("invoke %s: all %d attempts failed: %w", functionName, maxAttempts, lastErr)
}

// Prime delegates to the wrapped Invoker if it implements Primer, so
// RetryingInvoker can transparently wrap a LambdaInvoker.
func (r *RetryingInvoker) Prime(ctx context.Context, functionName string) error {
	p, ok := r.Invoker.(Primer)
	if !ok {
		return errors.New("invoke: wrapped invoker does not support priming")
	}
	return p.Prime(ctx, functionName)
}
