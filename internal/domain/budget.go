package domain

import "fmt"

// CallBudget bounds the number of oracle calls attempted in one run.
// The counter only grows; Used never exceeds Max.
type CallBudget struct {
	max  int
	used int
}

func NewCallBudget(max int) *CallBudget {
	if max < 0 {
		max = 0
	}
	return &CallBudget{max: max}
}

// Acquire reserves one call, failing with ErrBudgetExceeded when none is left.
func (b *CallBudget) Acquire() error {
	if b.used >= b.max {
		return fmt.Errorf("%w: %d of %d calls used", ErrBudgetExceeded, b.used, b.max)
	}
	b.used++
	return nil
}

func (b *CallBudget) Used() int { return b.used }

func (b *CallBudget) Max() int { return b.max }

func (b *CallBudget) Remaining() int { return b.max - b.used }
