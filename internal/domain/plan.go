package domain

import "time"

// DayStatus tells whether a DayPlan was computed, skipped or failed.
type DayStatus string

const (
	StatusPlanned DayStatus = "planned"
	StatusPast    DayStatus = "past"
	StatusError   DayStatus = "error"
)

// Represents the stay-longer alternative to the baseline return.
// ExtendMinutes is the offset of the later departure from the baseline one.
type Extension struct {
	Leg              CommuteLeg
	ExtendMinutes    int
	NetSavingMinutes float64
}

// Represents the chosen return trip and the lunch length that produced it.
// Extension is set only when staying longer saves at least the target.
type EveningPlan struct {
	LunchMinutes int
	Base         CommuteLeg
	Extension    *Extension
}

// Chosen returns the extended leg when one was adopted, otherwise the base leg.
func (e EveningPlan) Chosen() CommuteLeg {
	if e.Extension != nil {
		return e.Extension.Leg
	}
	return e.Base
}

// DayOptimization is a jointly re-optimized day that beats the baseline plan.
type DayOptimization struct {
	Morning       CommuteLeg
	Evening       EveningPlan
	TotalScore    float64
	BaselineScore float64
}

// GymOption is a detour office -> gym -> home.
type GymOption struct {
	Location         string
	TrainingMinutes  int
	SpendMinutes     int
	Leave            time.Time
	ToGym            CommuteLeg
	ToHome           CommuteLeg
	NetSavingMinutes float64
}

// TravelMinutes is the drive time of both detour legs, training excluded.
func (g GymOption) TravelMinutes() float64 {
	return g.ToGym.DurationMinutes + g.ToHome.DurationMinutes
}

// GymResult collects the outcome of one timebank/gym search.
type GymResult struct {
	EarliestLeave time.Time
	Direct        CommuteLeg
	Spend         *GymOption
	BestAny       *GymOption
	Evaluated     int
	Truncated     bool
}

// Represents the planned commute for one weekday.
// Outbound/Inbound are nil for days without an office visit.
type DayPlan struct {
	Date         time.Time
	Mode         Mode
	Status       DayStatus
	Outbound     *CommuteLeg
	Inbound      *CommuteLeg
	LunchMinutes int
	WorkMinutes  int
	Err          string
	Improvement  *DayOptimization
	Extension    *Extension
}

// Label renders the mode the way week reports show it, e.g. PAST-OFFICE or ERROR-HOME_AM.
func (p DayPlan) Label() string {
	switch p.Status {
	case StatusPast:
		return "PAST-" + string(p.Mode)
	case StatusError:
		return "ERROR-" + string(p.Mode)
	}
	return string(p.Mode)
}

// TravelMinutes sums both legs of the day.
func (p DayPlan) TravelMinutes() float64 {
	total := 0.0
	if p.Outbound != nil {
		total += p.Outbound.DurationMinutes
	}
	if p.Inbound != nil {
		total += p.Inbound.DurationMinutes
	}
	return total
}

// WeekPlan is the allocated week: final blocks plus one DayPlan per weekday.
type WeekPlan struct {
	Start       time.Time
	Initial     WeekBlocks
	Blocks      WeekBlocks
	TargetHours int
	Days        []DayPlan
}

// TravelMinutes sums the legs of every planned day.
func (w WeekPlan) TravelMinutes() float64 {
	total := 0.0
	for _, d := range w.Days {
		total += d.TravelMinutes()
	}
	return total
}
