package service

import (
	"context"
	"testing"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	approved := model.ReportApproval{Status: model.ReportApprovalApproved, Required: true}
	pending := model.ReportApproval{Status: model.ReportApprovalPending, Required: true}
	optional := model.ReportApproval{Status: model.ReportApprovalPending, Required: false}

	tests := []struct {
		name      string
		approvals []model.ReportApproval
		want      string
	}{
		{"no approvals", nil, model.ReportStatusPending},
		{"only optional rows", []model.ReportApproval{optional}, model.ReportStatusPending},
		{"one of two approved", []model.ReportApproval{approved, pending}, model.ReportStatusPending},
		{"all required approved", []model.ReportApproval{approved, approved}, model.ReportStatusReviewed},
		{"optional pending row is ignored", []model.ReportApproval{approved, optional}, model.ReportStatusReviewed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.approvals))
		})
	}
}

func TestSubmit_CreatesPendingReportWithApprovalPerSupervisor(t *testing.T) {
	f := newFixture(t)

	res := f.submit(t, f.projectA, f.projectB)

	assert.Equal(t, model.ReportStatusPending, res.Status)
	assert.Equal(t, testDate, res.Date)
	assert.Equal(t, 5, res.RatingScale)
	assert.Len(t, res.RatingLabels, 5)
	assert.Equal(t, "E1", res.EmployeeNo)
	require.Len(t, res.Projects, 2)
	assert.Equal(t, "Alpha", res.Projects[0].ProjectName)
	assert.Equal(t, "Beta", res.Projects[1].ProjectName)
	assert.NotNil(t, res.Projects[0].Files)

	require.Len(t, res.Approvals, 2)
	for _, a := range res.Approvals {
		assert.Equal(t, model.ReportApprovalPending, a.Status)
		assert.True(t, a.Required)
		assert.Nil(t, a.Rating)
	}
	assert.Nil(t, res.AverageRating)
	assert.Equal(t, []string{EventReportSubmitted}, f.events.types())
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reports.Submit(ctx, f.employee.ID, SubmitReportRequest{Date: testDate})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.reports.Submit(ctx, f.employee.ID, SubmitReportRequest{Date: "2025/09/01", Reports: []SubmitProjectDTO{{ProjectID: f.projectA.ID.String()}}})
	assert.ErrorIs(t, err, ErrValidation)

	dup := SubmitProjectDTO{ProjectID: f.projectA.ID.String(), Content: "x"}
	_, err = f.reports.Submit(ctx, f.employee.ID, SubmitReportRequest{Date: testDate, Reports: []SubmitProjectDTO{dup, dup}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.reports.Submit(ctx, f.employee.ID, SubmitReportRequest{Date: testDate, Reports: []SubmitProjectDTO{{ProjectID: uuid.NewString()}}})
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, f.db.Model(&model.DailyReport{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmit_ClosedWindow(t *testing.T) {
	f := newFixture(t)

	_, err := f.reports.Submit(context.Background(), f.employee.ID, SubmitReportRequest{
		Date:    "2025-08-20",
		Reports: []SubmitProjectDTO{{ProjectID: f.projectA.ID.String(), Content: "late"}},
	})
	assert.ErrorIs(t, err, ErrEditingClosed)
	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestReview_TwoSupervisors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := f.submit(t, f.projectA)
	reportID := uuid.MustParse(report.ID)

	first, err := f.reports.Review(ctx, reportID, f.supervisor.ID, ReviewRequest{Rating: 4, Comment: "good"})
	require.NoError(t, err)
	assert.Equal(t, model.ReportApprovalApproved, first.Status)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4, *first.Rating)
	assert.NotNil(t, first.ApprovedAt)

	mid, err := f.reports.GetReport(ctx, reportID, f.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusPending, mid.Status)

	_, err = f.reports.Review(ctx, reportID, f.second.ID, ReviewRequest{Rating: 5, Comment: "great"})
	require.NoError(t, err)

	done, err := f.reports.GetReport(ctx, reportID, f.supervisor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusReviewed, done.Status)
	require.NotNil(t, done.AverageRating)
	assert.InDelta(t, 4.5, *done.AverageRating, 0.001)
	require.NotNil(t, done.ReviewedByViewer)
	assert.True(t, *done.ReviewedByViewer)

	// each review leaves exactly one rating comment linked to its approval
	var reviews []model.ReviewComment
	require.NoError(t, f.db.Where("report_id = ? AND rating IS NOT NULL", reportID).Find(&reviews).Error)
	require.Len(t, reviews, 2)
	for _, c := range reviews {
		assert.NotNil(t, c.ApprovalID)
	}
}

func TestReview_SecondReviewBySameSupervisorConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	_, err := f.reports.Review(ctx, reportID, f.supervisor.ID, ReviewRequest{Rating: 3, Comment: "ok"})
	require.NoError(t, err)

	_, err = f.reports.Review(ctx, reportID, f.supervisor.ID, ReviewRequest{Rating: 5, Comment: "again"})
	assert.ErrorIs(t, err, ErrConflict)

	var count int64
	require.NoError(t, f.db.Model(&model.ReviewComment{}).Where("report_id = ?", reportID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReview_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	tests := []struct {
		name     string
		reviewer uuid.UUID
		req      ReviewRequest
		want     error
	}{
		{"empty comment", f.supervisor.ID, ReviewRequest{Rating: 3, Comment: "  "}, ErrValidation},
		{"rating above scale", f.supervisor.ID, ReviewRequest{Rating: 6, Comment: "x"}, ErrValidation},
		{"rating below scale", f.supervisor.ID, ReviewRequest{Rating: 0, Comment: "x"}, ErrValidation},
		{"owner", f.employee.ID, ReviewRequest{Rating: 3, Comment: "x"}, ErrAuthorization},
		{"not a supervisor", f.stranger.ID, ReviewRequest{Rating: 3, Comment: "x"}, ErrAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reports.Review(ctx, reportID, tt.reviewer, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.reports.Review(ctx, uuid.New(), f.supervisor.ID, ReviewRequest{Rating: 3, Comment: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResubmit_ResetsEveryApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submit(t, f.projectA)
	reportID := uuid.MustParse(first.ID)

	_, err := f.reports.Review(ctx, reportID, f.supervisor.ID, ReviewRequest{Rating: 2, Comment: "needs detail"})
	require.NoError(t, err)

	second := f.submit(t, f.projectA, f.projectB)
	assert.Equal(t, first.ID, second.ID)
	assert.Greater(t, second.Version, first.Version)
	assert.Equal(t, model.ReportStatusPending, second.Status)
	require.Len(t, second.Projects, 2)

	a := approvalOf(second, f.supervisor)
	require.NotNil(t, a)
	assert.Equal(t, model.ReportApprovalPending, a.Status)
	assert.Nil(t, a.Rating)
	assert.Nil(t, a.ApprovedAt)
	assert.Empty(t, a.Feedback)

	// the earlier review comment stays in the thread
	var count int64
	require.NoError(t, f.db.Model(&model.ReviewComment{}).Where("report_id = ?", reportID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// the supervisor can review the new snapshot
	_, err = f.reports.Review(ctx, reportID, f.supervisor.ID, ReviewRequest{Rating: 4, Comment: "better"})
	assert.NoError(t, err)
}

func TestReviewedReport_IsFrozenUntilReopened(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	for _, sup := range []uuid.UUID{f.supervisor.ID, f.second.ID} {
		_, err := f.reports.Review(ctx, reportID, sup, ReviewRequest{Rating: 5, Comment: "fine"})
		require.NoError(t, err)
	}

	_, err := f.reports.Submit(ctx, f.employee.ID, SubmitReportRequest{
		Date:    testDate,
		Reports: []SubmitProjectDTO{{ProjectID: f.projectA.ID.String(), Content: "edited"}},
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.reports.Reopen(ctx, reportID, f.stranger.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	reopened, err := f.reports.Reopen(ctx, reportID, f.supervisor.ID)
	require.NoError(t, err)
	assert.True(t, reopened.Unlocked)
	assert.Equal(t, model.ReportStatusReviewed, reopened.Status)

	// reopening twice is harmless
	_, err = f.reports.Reopen(ctx, reportID, f.supervisor.ID)
	require.NoError(t, err)

	again := f.submit(t, f.projectA)
	assert.Equal(t, model.ReportStatusPending, again.Status)
	assert.False(t, again.Unlocked)
	for _, a := range again.Approvals {
		assert.Equal(t, model.ReportApprovalPending, a.Status)
	}
}

func TestReopen_PendingReportConflicts(t *testing.T) {
	f := newFixture(t)
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	_, err := f.reports.Reopen(context.Background(), reportID, f.supervisor.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestResubmit_RemovedSupervisorIsNoLongerRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	require.NoError(t, f.db.Where("supervisor_id = ? AND employee_id = ?", f.second.ID, f.employee.ID).
		Delete(&model.SupervisorLink{}).Error)

	res := f.submit(t, f.projectA)
	removed := approvalOf(res, f.second)
	require.NotNil(t, removed)
	assert.False(t, removed.Required)

	_, err := f.reports.Review(ctx, reportID, f.second.ID, ReviewRequest{Rating: 3, Comment: "late"})
	assert.ErrorIs(t, err, ErrAuthorization)

	_, err = f.reports.Review(ctx, reportID, f.supervisor.ID, ReviewRequest{Rating: 3, Comment: "ok"})
	require.NoError(t, err)

	final, err := f.reports.GetReport(ctx, reportID, f.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusReviewed, final.Status)
}

func TestReview_SupervisorAssignedAfterSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	require.NoError(t, f.directory.Link(ctx, f.stranger.ID, f.employee.ID))

	approval, err := f.reports.Review(ctx, reportID, f.stranger.ID, ReviewRequest{Rating: 4, Comment: "welcome"})
	require.NoError(t, err)
	assert.True(t, approval.Required)

	res, err := f.reports.GetReport(ctx, reportID, f.employee.ID)
	require.NoError(t, err)
	assert.Len(t, res.Approvals, 3)
	assert.Equal(t, model.ReportStatusPending, res.Status)
}

func TestReportAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	_, err := f.reports.GetReport(ctx, reportID, f.stranger.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	_, err = f.reports.ListApprovals(ctx, reportID, f.stranger.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	approvals, err := f.reports.ListApprovals(ctx, reportID, f.second.ID)
	require.NoError(t, err)
	assert.Len(t, approvals, 2)

	mine, err := f.reports.GetMine(ctx, f.employee.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, reportID.String(), mine.ID)
	assert.Nil(t, mine.ReviewedByViewer)

	_, err = f.reports.GetMine(ctx, f.employee.ID, "2025-09-02")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForSupervisor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)
	_, err := f.reports.Review(ctx, reportID, f.supervisor.ID, ReviewRequest{Rating: 3, Comment: "ok"})
	require.NoError(t, err)

	list, err := f.reports.ListForSupervisor(ctx, f.supervisor.ID, testDate)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ReviewedByViewer)
	assert.True(t, *list[0].ReviewedByViewer)

	list, err = f.reports.ListForSupervisor(ctx, f.second.ID, testDate)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, *list[0].ReviewedByViewer)

	list, err = f.reports.ListForSupervisor(ctx, f.stranger.ID, testDate)
	require.NoError(t, err)
	assert.Empty(t, list)
}
