package core

// limiter.go bounds how many conversions run at once.
//
// Each conversion holds one slot of a buffered channel for its lifetime.
// When every slot is taken a caller waits up to maxWait and then fails with
// ErrTooManyConversions. WaitForDrain lets shutdown wait for running work.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyConversions is returned when no conversion slot frees up within
// the configured wait time.
var ErrTooManyConversions = errors.New("too many concurrent conversions, please try again later")

// Limiter defaults used when the configured values are not positive.
const (
	DefaultMaxConcurrent = 8
	DefaultMaxWait       = 10 * time.Second
)

// ConversionLimiter is a counting semaphore over conversion work.
type ConversionLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewConversionLimiter allows maxConcurrent simultaneous conversions and
// makes callers wait at most maxWait for a slot.
func NewConversionLimiter(maxConcurrent int, maxWait time.Duration) *ConversionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &ConversionLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's wait time.
// A nil return must be paired with exactly one Release.
func (l *ConversionLimiter) Acquire(ctx context.Context) error {
	// Fast path: no timer when a slot is free.
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	default:
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyConversions
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ConversionLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ConversionLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of slots in use.
func (l *ConversionLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no conversion holds a slot or ctx ends.
func (l *ConversionLimiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// LimiterStatus is a point-in-time view of a ConversionLimiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current slot usage.
func (l *ConversionLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
