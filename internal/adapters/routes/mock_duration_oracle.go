package routes

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DurationFunc computes a duration in minutes for one request.
type DurationFunc func(origin, destination string, departAt time.Time) (float64, error)

// Call records one request received by a MockDurationOracle.
type Call struct {
	Origin      string
	Destination string
	DepartAt    time.Time
}

// MockDurationOracle serves durations from a function and records every call.
// It backs offline runs and tests.
type MockDurationOracle struct {
	fn DurationFunc

	mu    sync.Mutex
	calls []Call
}

func NewMockDurationOracle(fn DurationFunc) *MockDurationOracle {
	return &MockDurationOracle{fn: fn}
}

// ConstantOracle always answers minutes.
func ConstantOracle(minutes float64) *MockDurationOracle {
	return NewMockDurationOracle(func(string, string, time.Time) (float64, error) {
		return minutes, nil
	})
}

func (p *MockDurationOracle) Duration(ctx context.Context, origin, destination string, departAt time.Time) (float64, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Origin: origin, Destination: destination, DepartAt: departAt})
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if p.fn == nil {
		return 0, fmt.Errorf("no duration for %q -> %q", origin, destination)
	}

	return p.fn(origin, destination, departAt)
}

func (p *MockDurationOracle) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *MockDurationOracle) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
