package netutil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryExhaustsBudget(t *testing.T) {
	boom := errors.New("always fails")
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 4, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return boom
	})
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the last underlying failure", err)
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryLinearSchedule(t *testing.T) {
	base := 10 * time.Millisecond
	start := time.Now()
	_ = Retry(context.Background(), RetryConfig{MaxAttempts: 3, BaseDelay: base}, func(ctx context.Context) error {
		return errors.New("fail")
	})
	elapsed := time.Since(start)
	// Waits after attempts 1 and 2: base*1 + base*2 = 30ms.
	want := 3 * base
	if elapsed < want {
		t.Fatalf("elapsed = %v, want >= %v", elapsed, want)
	}
	if elapsed > want+200*time.Millisecond {
		t.Fatalf("elapsed = %v, schedule overshoot", elapsed)
	}
}

func TestRetryIfStopsPermanentFailure(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		RetryIf:     func(err error) bool { return false },
	}, func(ctx context.Context) error {
		calls++
		return permanent
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v", err)
	}
}

func TestRetryContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("fail")
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := Retry(ctx, RetryConfig{MaxAttempts: 10, BaseDelay: 50 * time.Millisecond}, func(ctx context.Context) error {
		calls++
		return boom
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want last failure unchanged", err)
	}
}

func TestRetryValue(t *testing.T) {
	calls := 0
	v, err := RetryValue(context.Background(), RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("not yet")
		}
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("v=%d err=%v", v, err)
	}
}
