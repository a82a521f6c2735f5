package utils

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

// Sleeper pauses the caller. Implementations return early with the context
// error when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

func (s SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockClock returns a fixed time and records requested sleeps without waiting.
type MockClock struct {
	FixedNow time.Time
	Slept    []time.Duration
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}

func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	m.Slept = append(m.Slept, d)
	return ctx.Err()
}
