package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailyreport/internal/metrics"
	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// --- DTOs ---

type SubmitProjectDTO struct {
	ProjectID             string          `json:"project_id" binding:"required"`
	Content               string          `json:"content"`
	AIContent             *string         `json:"ai_content"`
	RecordCount           int             `json:"record_count" binding:"min=0"`
	TotalExecutionMinutes *int            `json:"total_execution_time_minutes"`
	Files                 []model.FileRef `json:"files"`
}

type SubmitReportRequest struct {
	Date    string             `json:"date" binding:"required"`
	Reports []SubmitProjectDTO `json:"reports"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ApprovalResponse struct {
	ID                   string  `json:"id"`
	SupervisorID         string  `json:"supervisor_id"`
	SupervisorName       string  `json:"supervisor_name"`
	SupervisorEmployeeNo string  `json:"supervisor_employee_no"`
	Status               string  `json:"status"`
	Required             bool    `json:"required"`
	ApprovedAt           *string `json:"approved_at"`
	Rating               *int    `json:"rating"`
	Feedback             string  `json:"feedback"`
}

type ReportResponse struct {
	ID               string               `json:"id"`
	EmployeeID       string               `json:"employee_id"`
	EmployeeName     string               `json:"employee_name"`
	EmployeeNo       string               `json:"employee_no"`
	Date             string               `json:"date"`
	Status           string               `json:"status"`
	Version          int                  `json:"version"`
	Unlocked         bool                 `json:"unlocked"`
	RatingScale      int                  `json:"rating_scale"`
	RatingLabels     []string             `json:"rating_labels"`
	AverageRating    *float64             `json:"average_rating"`
	SubmittedAt      string               `json:"submitted_at"`
	Projects         []ConsolidatedReport `json:"projects"`
	Approvals        []ApprovalResponse   `json:"approvals"`
	ReviewedByViewer *bool                `json:"reviewed_by_me,omitempty"`
}

// --- Interface ---

// ReportService owns submission, the per-supervisor approval state machine
// and the derived report status.
type ReportService interface {
	Submit(ctx context.Context, employeeID uuid.UUID, req SubmitReportRequest) (*ReportResponse, error)
	Review(ctx context.Context, reportID, supervisorID uuid.UUID, req ReviewRequest) (*ApprovalResponse, error)
	Reopen(ctx context.Context, reportID, actorID uuid.UUID) (*ReportResponse, error)
	GetReport(ctx context.Context, reportID, viewerID uuid.UUID) (*ReportResponse, error)
	GetMine(ctx context.Context, employeeID uuid.UUID, date string) (*ReportResponse, error)
	ListForSupervisor(ctx context.Context, supervisorID uuid.UUID, date string) ([]ReportResponse, error)
	ListApprovals(ctx context.Context, reportID, viewerID uuid.UUID) ([]ApprovalResponse, error)
}

type reportService struct {
	tx        repository.TransactionManager
	reports   repository.ReportRepository
	approvals repository.ApprovalRepository
	comments  repository.CommentRepository
	projects  repository.ProjectRepository
	directory repository.DirectoryRepository
	audit     repository.AuditRepository
	access    reportAccess
	gate      *EditingGate
	scales    *RatingScales
	events    EventPublisher
	log       *logrus.Logger
	now       func() time.Time
}

func NewReportService(
	tx repository.TransactionManager,
	reports repository.ReportRepository,
	approvals repository.ApprovalRepository,
	comments repository.CommentRepository,
	projects repository.ProjectRepository,
	directory repository.DirectoryRepository,
	audit repository.AuditRepository,
	gate *EditingGate,
	scales *RatingScales,
	events EventPublisher,
	log *logrus.Logger,
) ReportService {
	if events == nil {
		events = NopPublisher()
	}
	return &reportService{
		tx:        tx,
		reports:   reports,
		approvals: approvals,
		comments:  comments,
		projects:  projects,
		directory: directory,
		audit:     audit,
		access:    reportAccess{directory: directory, approvals: approvals},
		gate:      gate,
		scales:    scales,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// --- Status derivation ---

// DeriveStatus is reviewed once every required approval is approved. A report
// nobody is required to review stays pending.
func DeriveStatus(approvals []model.ReportApproval) string {
	required := 0
	for _, a := range approvals {
		if !a.Required {
			continue
		}
		required++
		if a.Status != model.ReportApprovalApproved {
			return model.ReportStatusPending
		}
	}
	if required == 0 {
		return model.ReportStatusPending
	}
	return model.ReportStatusReviewed
}

// --- Submit ---

func (s *reportService) Submit(ctx context.Context, employeeID uuid.UUID, req SubmitReportRequest) (*ReportResponse, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if len(req.Reports) == 0 {
		return nil, fmt.Errorf("%w: a daily report needs at least one project", ErrValidation)
	}

	projectIDs := make([]uuid.UUID, 0, len(req.Reports))
	seen := make(map[uuid.UUID]bool, len(req.Reports))
	for _, r := range req.Reports {
		id, parseErr := uuid.Parse(r.ProjectID)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: invalid project_id %q", ErrValidation, r.ProjectID)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: project %s appears more than once", ErrValidation, id)
		}
		if r.RecordCount < 0 {
			return nil, fmt.Errorf("%w: record_count must not be negative", ErrValidation)
		}
		if r.TotalExecutionMinutes != nil && *r.TotalExecutionMinutes < 0 {
			return nil, fmt.Errorf("%w: total_execution_time_minutes must not be negative", ErrValidation)
		}
		seen[id] = true
		projectIDs = append(projectIDs, id)
	}

	now := s.now()
	var reportID uuid.UUID
	resubmit := false

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		projects, findErr := s.projects.FindByIDs(txCtx, projectIDs)
		if findErr != nil {
			return fmt.Errorf("failed to load projects: %w", findErr)
		}
		for _, id := range projectIDs {
			if _, ok := projects[id]; !ok {
				return fmt.Errorf("%w: project %s", ErrNotFound, id)
			}
		}

		existing, findErr := s.reports.FindByEmployeeDate(txCtx, employeeID, date)
		if findErr != nil && !repository.IsNotFound(findErr) {
			return fmt.Errorf("failed to load daily report: %w", findErr)
		}

		if !s.gate.CanSubmit(now, date, existing) {
			if Frozen(existing) {
				return fmt.Errorf("%w: report has been reviewed, reopen it before resubmitting", ErrConflict)
			}
			return ErrEditingClosed
		}

		scale := s.scales.At(date).Size
		if existing == nil {
			report := &model.DailyReport{
				EmployeeID:  employeeID,
				ReportDate:  date,
				Status:      model.ReportStatusPending,
				Version:     1,
				RatingScale: scale,
				SubmittedAt: now,
			}
			if createErr := s.reports.Create(txCtx, report); createErr != nil {
				if repository.IsDuplicate(createErr) {
					return fmt.Errorf("%w: another submission for %s is in progress", ErrConflict, date)
				}
				return fmt.Errorf("failed to create daily report: %w", createErr)
			}
			reportID = report.ID
		} else {
			ok, updateErr := s.reports.UpdateIfVersion(txCtx, existing.ID, existing.Version, map[string]interface{}{
				"status":       model.ReportStatusPending,
				"unlocked":     false,
				"rating_scale": scale,
				"submitted_at": now,
			})
			if updateErr != nil {
				return fmt.Errorf("failed to update daily report: %w", updateErr)
			}
			if !ok {
				return fmt.Errorf("%w: daily report was modified by another submission", ErrConflict)
			}
			reportID = existing.ID
			resubmit = true
		}

		snapshot := make([]model.ReportProject, 0, len(req.Reports))
		for i, r := range req.Reports {
			files := r.Files
			if files == nil {
				files = []model.FileRef{}
			}
			snapshot = append(snapshot, model.ReportProject{
				ProjectID:             projectIDs[i],
				ProjectName:           projects[projectIDs[i]].Name,
				Content:               r.Content,
				AIContent:             r.AIContent,
				RecordCount:           r.RecordCount,
				TotalExecutionMinutes: r.TotalExecutionMinutes,
				Files:                 datatypes.NewJSONType(files),
			})
		}
		if replaceErr := s.reports.ReplaceProjects(txCtx, reportID, snapshot); replaceErr != nil {
			return fmt.Errorf("failed to store report snapshot: %w", replaceErr)
		}

		supervisors, dirErr := s.directory.SupervisorsOf(txCtx, employeeID)
		if dirErr != nil {
			return fmt.Errorf("failed to resolve supervisors: %w", dirErr)
		}
		supervisorIDs := make([]uuid.UUID, 0, len(supervisors))
		for _, sup := range supervisors {
			supervisorIDs = append(supervisorIDs, sup.ID)
		}
		if resetErr := s.approvals.ResetForSubmission(txCtx, reportID, supervisorIDs); resetErr != nil {
			return fmt.Errorf("failed to reset approvals: %w", resetErr)
		}

		action := model.ActionSubmitReport
		if resubmit {
			action = model.ActionResubmitReport
		}
		details, _ := json.Marshal(map[string]interface{}{
			"date":        date,
			"projects":    len(snapshot),
			"supervisors": len(supervisorIDs),
		})
		if auditErr := s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &employeeID,
			Action:     action,
			EntityID:   reportID.String(),
			EntityName: date,
			Details:    string(details),
		}); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSubmission(resubmit)
	s.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"report_id":   reportID,
		"date":        date,
		"resubmit":    resubmit,
	}).Info("daily report submitted")
	publish(s.events, EventReportSubmitted, reportID, employeeID, model.ReportStatusPending, nil)

	return s.load(ctx, reportID, nil)
}

// --- Review ---

func (s *reportService) Review(ctx context.Context, reportID, supervisorID uuid.UUID, req ReviewRequest) (*ApprovalResponse, error) {
	feedback := strings.TrimSpace(req.Comment)
	if feedback == "" {
		metrics.RecordReview("rejected")
		return nil, fmt.Errorf("%w: review comment must not be empty", ErrValidation)
	}

	now := s.now()
	var approvalID uuid.UUID
	var status string

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		report, err := s.reports.LockByID(txCtx, reportID)
		if err != nil {
			return storeErr(err, "daily report")
		}
		if req.Rating < 1 || req.Rating > report.RatingScale {
			return fmt.Errorf("%w: rating must be between 1 and %d", ErrValidation, report.RatingScale)
		}
		if report.EmployeeID == supervisorID {
			return fmt.Errorf("%w: employees cannot review their own report", ErrAuthorization)
		}

		isSupervisor, err := s.directory.IsSupervisorOf(txCtx, supervisorID, report.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to resolve supervisors: %w", err)
		}

		approval, err := s.approvals.FindByReportSupervisor(txCtx, reportID, supervisorID)
		switch {
		case repository.IsNotFound(err):
			if !isSupervisor {
				return fmt.Errorf("%w: user does not supervise the report owner", ErrAuthorization)
			}
			// supervisor assigned after the last submission
			approval = &model.ReportApproval{
				ReportID:     reportID,
				SupervisorID: supervisorID,
				Status:       model.ReportApprovalPending,
				Required:     true,
			}
			if err := s.approvals.Create(txCtx, approval); err != nil {
				return storeErr(err, "approval")
			}
		case err != nil:
			return fmt.Errorf("failed to load approval: %w", err)
		case !approval.Required && !isSupervisor:
			return fmt.Errorf("%w: user no longer supervises the report owner", ErrAuthorization)
		}

		if approval.Status == model.ReportApprovalApproved {
			return fmt.Errorf("%w: report already approved by this supervisor", ErrConflict)
		}

		ok, err := s.approvals.Approve(txCtx, approval.ID, req.Rating, feedback, now)
		if err != nil {
			return fmt.Errorf("failed to approve report: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: report already approved by this supervisor", ErrConflict)
		}
		approvalID = approval.ID

		rating := req.Rating
		comment := &model.ReviewComment{
			ReportID:   reportID,
			AuthorID:   supervisorID,
			Content:    feedback,
			Rating:     &rating,
			ApprovalID: &approval.ID,
			CreatedAt:  now,
		}
		if err := s.comments.Create(txCtx, comment); err != nil {
			return fmt.Errorf("failed to create review comment: %w", err)
		}

		all, err := s.approvals.ListByReport(txCtx, reportID)
		if err != nil {
			return fmt.Errorf("failed to load approvals: %w", err)
		}
		status = DeriveStatus(all)
		if status != report.Status {
			ok, err := s.reports.UpdateIfVersion(txCtx, reportID, report.Version, map[string]interface{}{"status": status})
			if err != nil {
				return fmt.Errorf("failed to update report status: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: daily report changed during review", ErrConflict)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"rating": req.Rating,
			"status": status,
		})
		if err := s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &supervisorID,
			Action:     model.ActionReviewReport,
			EntityID:   reportID.String(),
			EntityName: report.ReportDate,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.RecordReview("conflict")
		} else {
			metrics.RecordReview("rejected")
		}
		return nil, err
	}

	metrics.RecordReview("approved")
	s.log.WithFields(logrus.Fields{
		"report_id":     reportID,
		"supervisor_id": supervisorID,
		"status":        status,
	}).Info("daily report reviewed")

	all, err := s.approvals.ListByReport(ctx, reportID)
	if err != nil {
		return nil, storeErr(err, "approvals")
	}
	var res ApprovalResponse
	for _, a := range all {
		if a.ID == approvalID {
			res = toApprovalResponse(a)
		}
	}
	publish(s.events, EventReportReviewed, reportID, supervisorID, status, res)
	return &res, nil
}

// --- Reopen ---

// Reopen unlocks a reviewed report so its owner can edit and resubmit the date.
// Only a supervisor of the owner may reopen.
func (s *reportService) Reopen(ctx context.Context, reportID, actorID uuid.UUID) (*ReportResponse, error) {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		report, err := s.reports.LockByID(txCtx, reportID)
		if err != nil {
			return storeErr(err, "daily report")
		}
		ok, err := s.directory.IsSupervisorOf(txCtx, actorID, report.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to resolve supervisors: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: only a supervisor of the owner can reopen a report", ErrAuthorization)
		}
		if report.Status != model.ReportStatusReviewed {
			return fmt.Errorf("%w: only reviewed reports can be reopened", ErrConflict)
		}
		if report.Unlocked {
			return nil
		}

		updated, err := s.reports.UpdateIfVersion(txCtx, reportID, report.Version, map[string]interface{}{"unlocked": true})
		if err != nil {
			return fmt.Errorf("failed to reopen report: %w", err)
		}
		if !updated {
			return fmt.Errorf("%w: daily report changed concurrently", ErrConflict)
		}

		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionReopenReport,
			EntityID:   reportID.String(),
			EntityName: report.ReportDate,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"report_id": reportID, "actor_id": actorID}).Info("daily report reopened")
	publish(s.events, EventReportReopened, reportID, actorID, model.ReportStatusReviewed, nil)
	return s.load(ctx, reportID, nil)
}

// --- Queries ---

func (s *reportService) GetReport(ctx context.Context, reportID, viewerID uuid.UUID) (*ReportResponse, error) {
	report, err := s.reports.FindByIDWithRelations(ctx, reportID)
	if err != nil {
		return nil, storeErr(err, "daily report")
	}
	if err := s.access.require(ctx, report, viewerID); err != nil {
		return nil, err
	}
	res := s.toResponse(*report, &viewerID)
	return &res, nil
}

func (s *reportService) GetMine(ctx context.Context, employeeID uuid.UUID, date string) (*ReportResponse, error) {
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.FindByEmployeeDate(ctx, employeeID, date)
	if err != nil {
		return nil, storeErr(err, "daily report")
	}
	res := s.toResponse(*report, nil)
	return &res, nil
}

// ListForSupervisor returns the date's submitted reports of every subordinate.
func (s *reportService) ListForSupervisor(ctx context.Context, supervisorID uuid.UUID, date string) ([]ReportResponse, error) {
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	subordinates, err := s.directory.SubordinatesOf(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subordinates: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(subordinates))
	for _, u := range subordinates {
		ids = append(ids, u.ID)
	}

	reports, err := s.reports.ListByDate(ctx, date, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily reports: %w", err)
	}
	out := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, s.toResponse(r, &supervisorID))
	}
	return out, nil
}

func (s *reportService) ListApprovals(ctx context.Context, reportID, viewerID uuid.UUID) ([]ApprovalResponse, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, storeErr(err, "daily report")
	}
	if err := s.access.require(ctx, report, viewerID); err != nil {
		return nil, err
	}
	approvals, err := s.approvals.ListByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approvals: %w", err)
	}
	out := make([]ApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		out = append(out, toApprovalResponse(a))
	}
	return out, nil
}

func (s *reportService) load(ctx context.Context, reportID uuid.UUID, viewerID *uuid.UUID) (*ReportResponse, error) {
	report, err := s.reports.FindByIDWithRelations(ctx, reportID)
	if err != nil {
		return nil, storeErr(err, "daily report")
	}
	res := s.toResponse(*report, viewerID)
	return &res, nil
}

// --- Mapping ---

func (s *reportService) toResponse(r model.DailyReport, viewerID *uuid.UUID) ReportResponse {
	res := ReportResponse{
		ID:           r.ID.String(),
		EmployeeID:   r.EmployeeID.String(),
		Date:         r.ReportDate,
		Status:       r.Status,
		Version:      r.Version,
		Unlocked:     r.Unlocked,
		RatingScale:  r.RatingScale,
		RatingLabels: RatingLabels(r.RatingScale),
		SubmittedAt:  r.SubmittedAt.Format(time.RFC3339),
		Projects:     make([]ConsolidatedReport, 0, len(r.Projects)),
		Approvals:    make([]ApprovalResponse, 0, len(r.Approvals)),
	}
	if r.Employee != nil {
		res.EmployeeName = r.Employee.Name
		res.EmployeeNo = r.Employee.EmployeeNo
	}
	for _, p := range r.Projects {
		files := p.Files.Data()
		if files == nil {
			files = []model.FileRef{}
		}
		res.Projects = append(res.Projects, ConsolidatedReport{
			ProjectID:             p.ProjectID,
			ProjectName:           p.ProjectName,
			Content:               p.Content,
			AIContent:             p.AIContent,
			RecordCount:           p.RecordCount,
			TotalExecutionMinutes: p.TotalExecutionMinutes,
			Files:                 files,
		})
	}
	for _, a := range r.Approvals {
		res.Approvals = append(res.Approvals, toApprovalResponse(a))
		if viewerID != nil && a.SupervisorID == *viewerID {
			reviewed := a.Status == model.ReportApprovalApproved
			res.ReviewedByViewer = &reviewed
		}
	}
	if viewerID != nil && res.ReviewedByViewer == nil && *viewerID != r.EmployeeID {
		reviewed := false
		res.ReviewedByViewer = &reviewed
	}
	if avg, ok := AverageRating(r.Approvals); ok {
		f := avg.InexactFloat64()
		res.AverageRating = &f
	}
	return res
}

func toApprovalResponse(a model.ReportApproval) ApprovalResponse {
	res := ApprovalResponse{
		ID:           a.ID.String(),
		SupervisorID: a.SupervisorID.String(),
		Status:       a.Status,
		Required:     a.Required,
		Rating:       a.Rating,
		Feedback:     a.Feedback,
	}
	if a.Supervisor != nil {
		res.SupervisorName = a.Supervisor.Name
		res.SupervisorEmployeeNo = a.Supervisor.EmployeeNo
	}
	if a.ApprovedAt != nil {
		t := a.ApprovedAt.Format(time.RFC3339)
		res.ApprovedAt = &t
	}
	return res
}
