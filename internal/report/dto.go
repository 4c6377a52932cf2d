package report

import (
	"commute-planner/internal/domain"
	"time"
)

type LegResponse struct {
	Departure       time.Time `json:"departure"`
	Arrival         time.Time `json:"arrival"`
	DurationMinutes float64   `json:"duration_minutes"`
}

type ExtensionResponse struct {
	Leg              LegResponse `json:"leg"`
	ExtendMinutes    int         `json:"extend_minutes"`
	NetSavingMinutes float64     `json:"net_saving_minutes"`
}

type ImprovementResponse struct {
	Morning       LegResponse        `json:"morning"`
	Evening       LegResponse        `json:"evening"`
	LunchMinutes  int                `json:"lunch_minutes"`
	Extension     *ExtensionResponse `json:"extension,omitempty"`
	TotalScore    float64            `json:"total_score"`
	BaselineScore float64            `json:"baseline_score"`
	SavingMinutes float64            `json:"saving_minutes"`
}

type DayResponse struct {
	Date               string               `json:"date"`
	Mode               string               `json:"mode"`
	Status             string               `json:"status"`
	Outbound           *LegResponse         `json:"outbound,omitempty"`
	Inbound            *LegResponse         `json:"inbound,omitempty"`
	LunchMinutes       int                  `json:"lunch_minutes,omitempty"`
	WorkMinutes        int                  `json:"work_minutes,omitempty"`
	FlexBreakMinutes   float64              `json:"flex_break_minutes,omitempty"`
	TotalTravelMinutes float64              `json:"total_travel_minutes"`
	Extension          *ExtensionResponse   `json:"extension,omitempty"`
	Improvement        *ImprovementResponse `json:"improvement,omitempty"`
	Error              string               `json:"error,omitempty"`
}

type WeekResponse struct {
	Start           string        `json:"start"`
	InitialBlocks   []string      `json:"initial_blocks"`
	Blocks          []string      `json:"blocks"`
	TargetHomeHours int           `json:"target_home_hours"`
	HomeHours       int           `json:"home_hours"`
	Days            []DayResponse `json:"days"`
	Summary         Summary       `json:"summary"`
}

type GymOptionResponse struct {
	Location         string      `json:"location"`
	TrainingMinutes  int         `json:"training_minutes"`
	SpendMinutes     int         `json:"spend_minutes"`
	Leave            time.Time   `json:"leave"`
	ToGym            LegResponse `json:"to_gym"`
	ToHome           LegResponse `json:"to_home"`
	TravelMinutes    float64     `json:"travel_minutes"`
	NetSavingMinutes float64     `json:"net_saving_minutes"`
}

type GymResponse struct {
	EarliestLeave   time.Time          `json:"earliest_leave"`
	Direct          LegResponse        `json:"direct"`
	Spend           *GymOptionResponse `json:"spend,omitempty"`
	BestAny         *GymOptionResponse `json:"best_any,omitempty"`
	Evaluated       int                `json:"evaluated"`
	Truncated       bool               `json:"truncated"`
	BalanceMinutes  int                `json:"balance_minutes"`
	AcceptedMinutes int                `json:"accepted_minutes"`
}

type CacheStatsResponse struct {
	Backend  string `json:"backend"`
	Location string `json:"location"`
	Entries  int    `json:"entries"`
	Pruned   int    `json:"pruned,omitempty"`
	Imported int    `json:"imported,omitempty"`
}

func newLeg(l domain.CommuteLeg) LegResponse {
	return LegResponse{Departure: l.Departure, Arrival: l.Arrival, DurationMinutes: l.DurationMinutes}
}

func newLegPtr(l *domain.CommuteLeg) *LegResponse {
	if l == nil {
		return nil
	}
	r := newLeg(*l)
	return &r
}

func newExtension(e *domain.Extension) *ExtensionResponse {
	if e == nil {
		return nil
	}
	return &ExtensionResponse{Leg: newLeg(e.Leg), ExtendMinutes: e.ExtendMinutes, NetSavingMinutes: e.NetSavingMinutes}
}

func newImprovement(o *domain.DayOptimization) *ImprovementResponse {
	if o == nil {
		return nil
	}
	return &ImprovementResponse{
		Morning:       newLeg(o.Morning),
		Evening:       newLeg(o.Evening.Chosen()),
		LunchMinutes:  o.Evening.LunchMinutes,
		Extension:     newExtension(o.Evening.Extension),
		TotalScore:    o.TotalScore,
		BaselineScore: o.BaselineScore,
		SavingMinutes: o.BaselineScore - o.TotalScore,
	}
}

// flexBreak is the time between the earliest end of work and the planned return.
func flexBreak(p domain.DayPlan) float64 {
	if p.Outbound == nil || p.Inbound == nil {
		return 0
	}
	earliest := p.Outbound.Arrival.Add(time.Duration(p.WorkMinutes) * time.Minute)
	if m := p.Inbound.Departure.Sub(earliest).Minutes(); m > 0 {
		return m
	}
	return 0
}

func NewDayResponse(p domain.DayPlan) DayResponse {
	return DayResponse{
		Date:               p.Date.Format("2006-01-02"),
		Mode:               p.Label(),
		Status:             string(p.Status),
		Outbound:           newLegPtr(p.Outbound),
		Inbound:            newLegPtr(p.Inbound),
		LunchMinutes:       p.LunchMinutes,
		WorkMinutes:        p.WorkMinutes,
		FlexBreakMinutes:   flexBreak(p),
		TotalTravelMinutes: p.TravelMinutes(),
		Extension:          newExtension(p.Extension),
		Improvement:        newImprovement(p.Improvement),
		Error:              p.Err,
	}
}

func blockNames(b domain.WeekBlocks) []string {
	out := make([]string, len(b))
	for i, m := range b {
		out[i] = string(m)
	}
	return out
}

func NewWeekResponse(w domain.WeekPlan) WeekResponse {
	res := WeekResponse{
		Start:           w.Start.Format("2006-01-02"),
		InitialBlocks:   blockNames(w.Initial),
		Blocks:          blockNames(w.Blocks),
		TargetHomeHours: w.TargetHours,
		HomeHours:       w.Blocks.HomeHours(),
		Days:            make([]DayResponse, 0, len(w.Days)),
		Summary:         Summarize(w),
	}
	for _, d := range w.Days {
		res.Days = append(res.Days, NewDayResponse(d))
	}
	return res
}

func newGymOption(o *domain.GymOption) *GymOptionResponse {
	if o == nil {
		return nil
	}
	return &GymOptionResponse{
		Location:         o.Location,
		TrainingMinutes:  o.TrainingMinutes,
		SpendMinutes:     o.SpendMinutes,
		Leave:            o.Leave,
		ToGym:            newLeg(o.ToGym),
		ToHome:           newLeg(o.ToHome),
		TravelMinutes:    o.TravelMinutes(),
		NetSavingMinutes: o.NetSavingMinutes,
	}
}

// NewGymResponse reports a gym search; balance is the timebank after any accepted spend.
func NewGymResponse(r domain.GymResult, balance, accepted int) GymResponse {
	return GymResponse{
		EarliestLeave:   r.EarliestLeave,
		Direct:          newLeg(r.Direct),
		Spend:           newGymOption(r.Spend),
		BestAny:         newGymOption(r.BestAny),
		Evaluated:       r.Evaluated,
		Truncated:       r.Truncated,
		BalanceMinutes:  balance,
		AcceptedMinutes: accepted,
	}
}
