package service

import (
	"testing"
	"time"

	"dailyreport/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditingGate_Window(t *testing.T) {
	taipei, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	gate := NewEditingGate(taipei, 9*time.Hour)

	open, closeAt, err := gate.Window("2025-09-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, taipei), open)
	assert.Equal(t, time.Date(2025, 9, 2, 9, 0, 0, 0, taipei), closeAt)

	_, _, err = gate.Window("09/01/2025")
	assert.ErrorIs(t, err, ErrValidation)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before midnight of the day", time.Date(2025, 8, 31, 23, 59, 0, 0, taipei), false},
		{"at midnight", open, true},
		{"during the day", time.Date(2025, 9, 1, 18, 0, 0, 0, taipei), true},
		{"next morning before deadline", time.Date(2025, 9, 2, 8, 59, 59, 0, taipei), true},
		{"at the deadline", closeAt, false},
		{"same instant expressed in UTC", time.Date(2025, 9, 2, 0, 30, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.CanEditRecords(tt.now, "2025-09-01", nil))
			assert.Equal(t, tt.want, gate.CanSubmit(tt.now, "2025-09-01", nil))
		})
	}
}

func TestEditingGate_DateOf(t *testing.T) {
	taipei, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	gate := NewEditingGate(taipei, 9*time.Hour)

	// 17:00 UTC is already the next day in Taipei
	assert.Equal(t, "2025-09-02", gate.DateOf(time.Date(2025, 9, 1, 17, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-09-01", gate.DateOf(time.Date(2025, 9, 1, 15, 59, 0, 0, time.UTC)))
}

func TestEditingGate_ReviewedReportFreezesDate(t *testing.T) {
	gate := NewEditingGate(time.UTC, 9*time.Hour)
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	pending := &model.DailyReport{ReportDate: "2025-09-01", Status: model.ReportStatusPending}
	reviewed := &model.DailyReport{ReportDate: "2025-09-01", Status: model.ReportStatusReviewed}
	reopened := &model.DailyReport{ReportDate: "2025-09-01", Status: model.ReportStatusReviewed, Unlocked: true}

	assert.True(t, gate.CanEditReport(now, pending))
	assert.False(t, gate.CanEditReport(now, reviewed))
	assert.False(t, gate.CanSubmit(now, "2025-09-01", reviewed))
	assert.False(t, gate.CanEditRecords(now, "2025-09-01", reviewed))
	assert.True(t, gate.CanSubmit(now, "2025-09-01", reopened))
	assert.False(t, gate.CanEditReport(now, nil))

	assert.True(t, Frozen(reviewed))
	assert.False(t, Frozen(reopened))
	assert.False(t, Frozen(nil))
}

func TestEditingGate_StatusMessages(t *testing.T) {
	gate := NewEditingGate(time.UTC, 9*time.Hour)
	date := "2025-09-01"

	st := gate.Status(time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC), date, nil)
	assert.Equal(t, "editing for this date has not opened yet", st.Message)
	assert.False(t, st.CanSubmit)

	st = gate.Status(time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC), date, nil)
	assert.Equal(t, "editing closed at 2025-09-02 09:00", st.Message)
	assert.False(t, st.CanEditRecords)

	st = gate.Status(time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), date, nil)
	assert.True(t, st.CanEditRecords)
	assert.True(t, st.CanEditReports)
	assert.Equal(t, time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC), st.Deadline)
}
