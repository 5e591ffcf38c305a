package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shillcollin/reportgate/core"
)

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	var retried []int
	p := Policy{MaxAttempts: 3, OnRetry: func(attempt int, err error, wait time.Duration) {
		retried = append(retried, attempt)
	}}
	calls := 0
	attempts, err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt != calls {
			t.Fatalf("attempt = %d, want %d", attempt, calls)
		}
		return core.NewError(core.ErrProviderError, "boom")
	})
	if !core.IsProviderError(err) {
		t.Fatalf("expected last provider error, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Fatalf("attempts = %d calls = %d, want 3", attempts, calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Fatalf("unexpected retry notifications %v", retried)
	}
}

func TestDoReturnsOnSuccess(t *testing.T) {
	attempts, err := Constant(3, 0).Do(context.Background(), func(ctx context.Context, attempt int) error {
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || attempts != 2 {
		t.Fatalf("attempts = %d err = %v", attempts, err)
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	attempts, err := Constant(5, 0).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return core.NewError(core.ErrBadRequest, "invalid model")
	})
	if calls != 1 || attempts != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
	if !core.IsBadRequest(err) {
		t.Fatalf("expected bad request error to surface unwrapped, got %v", err)
	}
}

func TestDoHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	attempts, err := Constant(3, time.Second).Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	if calls != 0 || attempts != 0 {
		t.Fatalf("operation should not run on a canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDoWaitsBetweenAttempts(t *testing.T) {
	start := time.Now()
	_, _ = Constant(3, 20*time.Millisecond).Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("fail")
	})
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("expected two waits, elapsed %s", elapsed)
	}
}

func TestAttemptsNormalized(t *testing.T) {
	if got := (Policy{}).Attempts(); got != 1 {
		t.Fatalf("zero policy should allow one attempt, got %d", got)
	}
	if got := Once.Attempts(); got != 1 {
		t.Fatalf("Once = %d", got)
	}
}
