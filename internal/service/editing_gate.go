package service

import (
	"fmt"
	"time"

	"dailyreport/internal/model"
)

// EditingGate decides whether mutations of one date's records and report are
// allowed. It holds no state beyond its configuration and is safe for
// concurrent use.
//
// The writing window for date D opens at local midnight of D and closes at the
// deadline on the morning of D+1. A reviewed report freezes its date
// regardless of the window until it is reopened.
type EditingGate struct {
	loc      *time.Location
	deadline time.Duration
}

func NewEditingGate(loc *time.Location, deadline time.Duration) *EditingGate {
	if loc == nil {
		loc = time.UTC
	}
	return &EditingGate{loc: loc, deadline: deadline}
}

// EditingStatus is the answer to "what may I change for this date right now".
type EditingStatus struct {
	Date           string    `json:"date"`
	CanEditRecords bool      `json:"can_edit_records"`
	CanEditReports bool      `json:"can_edit_reports"`
	CanSubmit      bool      `json:"can_submit"`
	Message        string    `json:"message"`
	Deadline       time.Time `json:"deadline"`
}

// Location is the zone that defines calendar days.
func (g *EditingGate) Location() *time.Location {
	return g.loc
}

// DateOf returns the local calendar day of t.
func (g *EditingGate) DateOf(t time.Time) string {
	return t.In(g.loc).Format(dateLayout)
}

// Window returns the [open, close) interval for date.
func (g *EditingGate) Window(date string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, g.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, date)
	}
	return day, day.AddDate(0, 0, 1).Add(g.deadline), nil
}

func (g *EditingGate) withinWindow(now time.Time, date string) bool {
	open, closeAt, err := g.Window(date)
	if err != nil {
		return false
	}
	return !now.Before(open) && now.Before(closeAt)
}

// Frozen reports whether report locks its date against edits.
func Frozen(report *model.DailyReport) bool {
	return report != nil && report.Status == model.ReportStatusReviewed && !report.Unlocked
}

// CanEditRecords covers adding records and changing record files for date.
// report is the date's daily report, nil when none was submitted.
func (g *EditingGate) CanEditRecords(now time.Time, date string, report *model.DailyReport) bool {
	return g.withinWindow(now, date) && !Frozen(report)
}

// CanEditReport covers changes to an existing report's content and overlay text.
func (g *EditingGate) CanEditReport(now time.Time, report *model.DailyReport) bool {
	if report == nil {
		return false
	}
	return g.withinWindow(now, report.ReportDate) && !Frozen(report)
}

// CanSubmit covers first submission and resubmission of date.
func (g *EditingGate) CanSubmit(now time.Time, date string, report *model.DailyReport) bool {
	return g.withinWindow(now, date) && !Frozen(report)
}

// Status evaluates every predicate for date at once.
func (g *EditingGate) Status(now time.Time, date string, report *model.DailyReport) EditingStatus {
	open, closeAt, _ := g.Window(date)
	st := EditingStatus{
		Date:           date,
		CanEditRecords: g.CanEditRecords(now, date, report),
		CanSubmit:      g.CanSubmit(now, date, report),
		Deadline:       closeAt,
	}
	if report != nil {
		st.CanEditReports = g.CanEditReport(now, report)
	} else {
		st.CanEditReports = st.CanSubmit
	}

	local := closeAt.In(g.loc).Format("2006-01-02 15:04")
	switch {
	case Frozen(report):
		st.Message = "report has been reviewed and is locked"
	case now.Before(open):
		st.Message = "editing for this date has not opened yet"
	case !now.Before(closeAt):
		st.Message = "editing closed at " + local
	default:
		st.Message = "editing open until " + local
	}
	return st
}
