package domain

import "time"

// Represents a single drive between home and office.
// A CommuteLeg is immutable once produced: Arrival is always
// Departure plus the predicted duration.
type CommuteLeg struct {
	Departure       time.Time
	Arrival         time.Time
	DurationMinutes float64
}

func NewCommuteLeg(departure time.Time, durationMinutes float64) CommuteLeg {
	return CommuteLeg{
		Departure:       departure,
		Arrival:         departure.Add(Minutes(durationMinutes)),
		DurationMinutes: durationMinutes,
	}
}

// Minutes converts fractional minutes into a time.Duration.
func Minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

// Route is the fixed home/office pair every plan is computed for.
type Route struct {
	Home   string
	Office string
}
