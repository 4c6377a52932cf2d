package domain

import "fmt"

// Timebank is the accrued minutes allowance that can finance leaving early.
// Within a run it only ever decreases.
type Timebank struct {
	balance int
	cap     int
}

// NewTimebank clamps balance into [0, cap].
func NewTimebank(balance, cap int) *Timebank {
	if cap < 0 {
		cap = 0
	}
	if balance < 0 {
		balance = 0
	}
	if balance > cap {
		balance = cap
	}
	return &Timebank{balance: balance, cap: cap}
}

func (t *Timebank) Balance() int { return t.balance }

func (t *Timebank) Cap() int { return t.cap }

// Spend debits minutes for an accepted decision.
func (t *Timebank) Spend(minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("timebank spend: negative amount %d", minutes)
	}
	if minutes > t.balance {
		return fmt.Errorf("timebank spend: %d minutes requested, %d available", minutes, t.balance)
	}
	t.balance -= minutes
	return nil
}
