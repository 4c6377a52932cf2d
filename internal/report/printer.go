// Package report renders planner results as styled text or JSON.
package report

import (
	"commute-planner/internal/domain"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", domain.ConfigErrorf("unknown output format %q (text, json)", s)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// Printer writes results to out in one format. Clock times are shown in loc.
type Printer struct {
	out    io.Writer
	format Format
	loc    *time.Location
}

func NewPrinter(out io.Writer, format Format, loc *time.Location) *Printer {
	if loc == nil {
		loc = time.Local
	}
	return &Printer{out: out, format: format, loc: loc}
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

func (p *Printer) flush(b *strings.Builder) error {
	if _, err := io.WriteString(p.out, b.String()); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

func (p *Printer) hhmm(t time.Time) string {
	return t.In(p.loc).Format("15:04")
}

// field writes one indented "label: value" line; an empty label continues the previous one.
func field(b *strings.Builder, label, format string, args ...any) {
	if label != "" {
		label += ":"
	}
	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-17s", label)), fmt.Sprintf(format, args...))
}

func hoursMinutes(m int) string {
	return fmt.Sprintf("%dh%02d", m/60, m%60)
}

// Day prints one day's commute plan.
func (p *Printer) Day(d domain.DayPlan) error {
	if p.format == FormatJSON {
		return p.json(NewDayResponse(d))
	}
	var b strings.Builder
	p.writeDay(&b, d)
	return p.flush(&b)
}

func (p *Printer) writeDay(b *strings.Builder, d domain.DayPlan) {
	heading := d.Date.In(p.loc).Format("2006-01-02 (Mon)")

	switch {
	case d.Status == domain.StatusPast:
		fmt.Fprintf(b, "%s %s\n", titleStyle.Render(heading), labelStyle.Render(d.Label()))
		return
	case d.Status == domain.StatusError:
		fmt.Fprintf(b, "%s %s\n", titleStyle.Render(heading), errStyle.Render(d.Label()))
		field(b, "Error", "%s", d.Err)
		return
	case d.Outbound == nil || d.Inbound == nil:
		fmt.Fprintf(b, "%s %s\n", titleStyle.Render(heading), goodStyle.Render("Stay@Home ("+d.Label()+")"))
		return
	}

	fmt.Fprintf(b, "%s %s\n", titleStyle.Render(heading), d.Label())

	out, in := d.Outbound, d.Inbound
	earliest := out.Arrival.Add(time.Duration(d.WorkMinutes) * time.Minute)

	field(b, "Start", "%sh | %.1f min", p.hhmm(out.Departure), out.DurationMinutes)
	field(b, "Arrive office", "%sh", p.hhmm(out.Arrival))
	field(b, "Work required", "%s", hoursMinutes(d.WorkMinutes))
	field(b, "Earliest end", "%sh", p.hhmm(earliest))
	field(b, "Planned return", "%sh | %.1f min (lunch %d min)", p.hhmm(in.Departure), in.DurationMinutes, d.LunchMinutes)
	field(b, "Arrive home", "%sh", p.hhmm(in.Arrival))
	field(b, "Flexible breaks", "%.0f min", flexBreak(d))
	field(b, "Total travel", "%.1f min", d.TravelMinutes())

	if o := d.Improvement; o != nil {
		eve := o.Evening.Chosen()
		extend := 0
		if o.Evening.Extension != nil {
			extend = o.Evening.Extension.ExtendMinutes
		}
		field(b, "Alt option", "start %sh | %.1f min, arrive %sh",
			p.hhmm(o.Morning.Departure), o.Morning.DurationMinutes, p.hhmm(o.Morning.Arrival))
		field(b, "", "return %sh | %.1f min, extend %d min, save %s, new total %.1f min",
			p.hhmm(eve.Departure), eve.DurationMinutes, extend,
			goodStyle.Render(fmt.Sprintf("%.1f min", o.BaselineScore-o.TotalScore)), o.TotalScore)
	}

	if e := d.Extension; e != nil {
		fmt.Fprintf(b, "  %s\n", goodStyle.Render(fmt.Sprintf(
			"Extend your stay by %d min until %sh to save %.1f min and arrive home at %sh",
			e.ExtendMinutes, p.hhmm(e.Leg.Departure), e.NetSavingMinutes, p.hhmm(e.Leg.Arrival))))
	}
}

// Week prints the allocated week with a summary.
func (p *Printer) Week(w domain.WeekPlan) error {
	if p.format == FormatJSON {
		return p.json(NewWeekResponse(w))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Week plan from "+w.Start.In(p.loc).Format("2006-01-02")))
	field(&b, "Blocks", "%s", w.Initial)
	if w.Blocks != w.Initial {
		field(&b, "Allocated", "%s", w.Blocks)
	}
	field(&b, "Home office", "%dh of %dh target", w.Blocks.HomeHours(), w.TargetHours)
	b.WriteString("\n")

	for _, d := range w.Days {
		p.writeDay(&b, d)
	}

	s := Summarize(w)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Summary"))
	field(&b, "Commute days", "%d", s.CommuteDays)
	if s.CommuteDays > 0 {
		field(&b, "Total travel", "%.1f min", s.TotalMinutes)
		field(&b, "Per day", "mean %.1f | sd %.1f | min %.1f | max %.1f",
			s.MeanMinutes, s.StdDevMinutes, s.MinMinutes, s.MaxMinutes)
	}
	if s.PotentialSavingMinutes > 0 {
		field(&b, "Possible saving", "%s", goodStyle.Render(fmt.Sprintf("%.1f min", s.PotentialSavingMinutes)))
	}
	return p.flush(&b)
}

// Gym prints a gym search; balance is the timebank after any accepted spend.
func (p *Printer) Gym(r domain.GymResult, balance, accepted int) error {
	if p.format == FormatJSON {
		return p.json(NewGymResponse(r, balance, accepted))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Gym detour"))
	field(&b, "Earliest leave", "%sh", p.hhmm(r.EarliestLeave))
	field(&b, "Direct return", "%.1f min, home at %sh", r.Direct.DurationMinutes, p.hhmm(r.Direct.Arrival))

	writeOption := func(label string, o *domain.GymOption) {
		field(&b, label, "%s, leave %sh, train %d min", o.Location, p.hhmm(o.Leave), o.TrainingMinutes)
		field(&b, "", "to gym %.1f min, to home %.1f min (from %sh), home at %sh",
			o.ToGym.DurationMinutes, o.ToHome.DurationMinutes, p.hhmm(o.ToHome.Departure), p.hhmm(o.ToHome.Arrival))
	}

	switch {
	case r.Spend != nil:
		writeOption("Spend timebank", r.Spend)
		field(&b, "", "spend %d min, saves %s", r.Spend.SpendMinutes,
			goodStyle.Render(fmt.Sprintf("%.1f min", r.Spend.NetSavingMinutes)))
	case r.BestAny != nil:
		writeOption("Best detour", r.BestAny)
		field(&b, "", "travel %.1f min (%+.1f min vs direct)", r.BestAny.TravelMinutes(), -r.BestAny.NetSavingMinutes)
	default:
		field(&b, "Detour", "%s", warnStyle.Render("no gym route could be computed"))
	}

	field(&b, "Evaluated", "%d combinations", r.Evaluated)
	if r.Truncated {
		fmt.Fprintf(&b, "  %s\n", warnStyle.Render("search stopped early (combination cap or call budget reserve)"))
	}
	if accepted > 0 {
		field(&b, "Timebank", "%d min spent, %d min left", accepted, balance)
	} else {
		field(&b, "Timebank", "%d min", balance)
	}
	return p.flush(&b)
}

// CacheStats prints cache tooling results.
func (p *Printer) CacheStats(s CacheStatsResponse) error {
	if p.format == FormatJSON {
		return p.json(s)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Route duration cache"))
	field(&b, "Backend", "%s", s.Backend)
	field(&b, "Location", "%s", s.Location)
	field(&b, "Entries", "%d", s.Entries)
	if s.Pruned > 0 {
		field(&b, "Pruned", "%d", s.Pruned)
	}
	if s.Imported > 0 {
		field(&b, "Imported", "%d", s.Imported)
	}
	return p.flush(&b)
}
