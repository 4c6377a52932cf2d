package domain

import "time"

// LatePenalty charges PerMinute for every minute a departure leaves after After
// on its own calendar day. A nil After or zero PerMinute charges nothing.
type LatePenalty struct {
	After     *ClockTime
	PerMinute float64
}

// Minutes returns the penalty, in minutes, for departing at dep.
func (p LatePenalty) Minutes(dep time.Time, loc *time.Location) float64 {
	if p.After == nil || p.PerMinute <= 0 {
		return 0
	}
	threshold := p.After.On(dep, loc)
	if !dep.After(threshold) {
		return 0
	}
	return dep.Sub(threshold).Minutes() * p.PerMinute
}

// Func binds the penalty to a zone.
func (p LatePenalty) Func(loc *time.Location) func(time.Time) float64 {
	return func(dep time.Time) float64 { return p.Minutes(dep, loc) }
}
