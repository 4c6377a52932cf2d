package domain

import (
	"errors"
	"fmt"
)

// Error kinds produced by the planner. Callers match them with errors.Is.
var (
	ErrOracleFailure       = errors.New("duration oracle failure")
	ErrNoFeasibleDeparture = errors.New("no feasible departure")
	ErrNoFeasibleReturn    = errors.New("no feasible return")
	ErrBudgetExceeded      = errors.New("oracle call budget exceeded")
	ErrDeadlinePassed      = errors.New("arrival deadline already passed")
	ErrConfig              = errors.New("invalid configuration")
)

// ScanError reports a grid scan that produced no usable candidate.
// LastFailure holds the message of the last oracle failure seen during the scan, if any.
type ScanError struct {
	Kind        error
	Detail      string
	LastFailure string
}

func (e *ScanError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.LastFailure != "" {
		msg += " (last oracle failure: " + e.LastFailure + ")"
	}
	return msg
}

func (e *ScanError) Unwrap() error { return e.Kind }

// ConfigErrorf builds an error wrapping ErrConfig.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
