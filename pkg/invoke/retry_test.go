package invoke

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyInvoker struct {
	failuresBeforeSuccess int
	calls                 int
}

func (f *flakyInvoker) Invoke(ctx context.Context, functionName string, input string) (string, error) {
	f.calls++
	if f.calls <= f.failuresBeforeSuccess {
		return "", errors.New("transient failure")
	}
	return "ok", nil
}

func TestRetryingInvoker_SucceedsAfterRetries(t *testing.T) {
	inv := &flakyInvoker{failuresBeforeSuccess: 2}
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffStrategy: BackoffConstant}
	r := NewRetryingInvoker(inv, policy)

	out, err := r.Invoke(context.Background(), "fn", "payload")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inv.calls)
}

func TestRetryingInvoker_ExhaustsAttempts(t *testing.T) {
	inv := &flakyInvoker{failuresBeforeSuccess: 10}
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffStrategy: BackoffConstant}
	r := NewRetryingInvoker(inv, policy)

	_, err := r.Invoke(context.Background(), "fn", "payload")
	require.Error(t, err)
	assert.Equal(t, 3, inv.calls)
}

func TestRetryingInvoker_ContextCancelled(t *testing.T) {
	inv := &flakyInvoker{failuresBeforeSuccess: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetryingInvoker(inv, DefaultRetryPolicy(3))
	_, err := r.Invoke(ctx, "fn", "payload")
	require.Error(t, err)
}

type primingInvoker struct {
	*flakyInvoker
	primed string
}

func (p *primingInvoker) Prime(ctx context.Context, functionName string) error {
	p.primed = functionName
	return nil
}

func TestRetryingInvoker_PrimeDelegates(t *testing.T) {
	inner := &primingInvoker{flakyInvoker: &flakyInvoker{}}
	r := NewRetryingInvoker(inner, DefaultRetryPolicy(1))

	err := r.Prime(context.Background(), "fn")
	require.NoError(t, err)
	assert.Equal(t, "fn", inner.primed)
}

func TestRetryingInvoker_PrimeUnsupported(t *testing.T) {
	inner := &flakyInvoker{}
	r := NewRetryingInvoker(inner, DefaultRetryPolicy(1))

	err := r.Prime(context.Background(), "fn")
	require.Error(t, err)
}
