package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestConversionLimiter_AcquireRelease(t *testing.T) {
	l := NewConversionLimiter(2, time.Second)
	ctx := context.Background()

	if got := l.Status(); got != (LimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}) {
		t.Errorf("initial Status = %+v", got)
	}

	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
	if got := l.Status(); got != (LimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}) {
		t.Errorf("full Status = %+v", got)
	}

	l.Release()
	if got := l.ActiveCount(); got != 1 {
		t.Errorf("after Release, ActiveCount = %d, want 1", got)
	}
	l.Release()
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("after second Release, ActiveCount = %d, want 0", got)
	}
}

func TestConversionLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewConversionLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	start := time.Now()
	err := l.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTooManyConversions) {
		t.Errorf("Acquire on full limiter = %v, want ErrTooManyConversions", err)
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("gave up after %v, want about 50ms", elapsed)
	}
}

func TestConversionLimiter_ContextCancellation(t *testing.T) {
	l := NewConversionLimiter(1, 5*time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestConversionLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	l := NewConversionLimiter(maxConcurrent, time.Second)

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		maxObserved int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer l.Release()

			mu.Lock()
			maxObserved = max(maxObserved, l.ActiveCount())
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("observed %d active, max %d", maxObserved, maxConcurrent)
	}
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestConversionLimiter_TryAcquire(t *testing.T) {
	l := NewConversionLimiter(1, time.Second)

	if !l.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if l.TryAcquire() {
		t.Error("second TryAcquire should fail")
		l.Release()
	}
	l.Release()
	if !l.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	l.Release()
}

func TestConversionLimiter_WaitForDrain(t *testing.T) {
	l := NewConversionLimiter(2, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain = %v, want nil", err)
	}

	// A stuck conversion makes the drain give up with the context error.
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	if err := l.WaitForDrain(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain with busy slot = %v, want DeadlineExceeded", err)
	}
}
