package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type CreateRecordRequest struct {
	ProjectID            string          `json:"project_id" binding:"required"`
	Content              string          `json:"content"`
	Date                 string          `json:"date"` // optional, defaults to today
	ExecutionTimeMinutes *int            `json:"execution_time_minutes"`
	Files                []model.FileRef `json:"files"`
}

type UpdateRecordRequest struct {
	Content string `json:"content"`
}

type SelectFileRequest struct {
	IsSelectedForAI bool `json:"is_selected_for_ai"`
}

type FileResponse struct {
	ID string `json:"id"`
	model.FileRef
}

type RecordResponse struct {
	ID                   string         `json:"id"`
	ProjectID            string         `json:"project_id"`
	ProjectName          string         `json:"project_name"`
	Content              string         `json:"content"`
	Date                 string         `json:"date"`
	ExecutionTimeMinutes *int           `json:"execution_time_minutes,omitempty"`
	Files                []FileResponse `json:"files"`
	CreatedAt            string         `json:"created_at"`
}

// --- Interface ---

// RecordService writes work records through the editing gate.
type RecordService interface {
	CreateRecord(ctx context.Context, employeeID uuid.UUID, req CreateRecordRequest) (*RecordResponse, error)
	ListRecords(ctx context.Context, employeeID uuid.UUID, date string) ([]RecordResponse, error)
	UpdateRecordContent(ctx context.Context, employeeID, recordID uuid.UUID, req UpdateRecordRequest) (*RecordResponse, error)
	SelectFileForAI(ctx context.Context, employeeID, recordID, fileID uuid.UUID, selected bool) (*RecordResponse, error)
	GetEditingStatus(ctx context.Context, employeeID uuid.UUID, date string) (*EditingStatus, error)
}

type recordService struct {
	tx       repository.TransactionManager
	records  repository.RecordRepository
	reports  repository.ReportRepository
	projects repository.ProjectRepository
	audit    repository.AuditRepository
	gate     *EditingGate
	log      *logrus.Logger
	now      func() time.Time
}

func NewRecordService(
	tx repository.TransactionManager,
	records repository.RecordRepository,
	reports repository.ReportRepository,
	projects repository.ProjectRepository,
	audit repository.AuditRepository,
	gate *EditingGate,
	log *logrus.Logger,
) RecordService {
	return &recordService{
		tx:       tx,
		records:  records,
		reports:  reports,
		projects: projects,
		audit:    audit,
		gate:     gate,
		log:      log,
		now:      time.Now,
	}
}

// reportFor returns the date's daily report, or nil while the date is still a draft.
func (s *recordService) reportFor(ctx context.Context, employeeID uuid.UUID, date string) (*model.DailyReport, error) {
	report, err := s.reports.FindByEmployeeDate(ctx, employeeID, date)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load daily report: %w", err)
	}
	return report, nil
}

func (s *recordService) CreateRecord(ctx context.Context, employeeID uuid.UUID, req CreateRecordRequest) (*RecordResponse, error) {
	now := s.now()
	date := s.gate.DateOf(now)
	if req.Date != "" {
		d, err := ParseDate(req.Date)
		if err != nil {
			return nil, err
		}
		date = d
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project_id %q", ErrValidation, req.ProjectID)
	}
	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: a record needs content or at least one file", ErrValidation)
	}
	if req.ExecutionTimeMinutes != nil && *req.ExecutionTimeMinutes < 0 {
		return nil, fmt.Errorf("%w: execution_time_minutes must not be negative", ErrValidation)
	}
	for _, f := range req.Files {
		if f.Name == "" || f.URL == "" {
			return nil, fmt.Errorf("%w: every file needs a name and a url", ErrValidation)
		}
	}

	record := &model.WorkRecord{
		EmployeeID:           employeeID,
		WorkDate:             date,
		ProjectID:            projectID,
		Content:              content,
		ExecutionTimeMinutes: req.ExecutionTimeMinutes,
		CreatedAt:            now,
	}
	for _, f := range req.Files {
		record.Files = append(record.Files, model.FileAttachment{
			Name:            f.Name,
			MediaType:       f.MediaType,
			Size:            f.Size,
			URL:             f.URL,
			IsSelectedForAI: f.IsSelectedForAI,
		})
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		projects, err := s.projects.FindByIDs(txCtx, []uuid.UUID{projectID})
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		project, ok := projects[projectID]
		if !ok {
			return fmt.Errorf("%w: project %s", ErrNotFound, projectID)
		}
		if !project.IsActive {
			return fmt.Errorf("%w: project %s is not active", ErrValidation, project.Code)
		}

		report, err := s.reportFor(txCtx, employeeID, date)
		if err != nil {
			return err
		}
		if !s.gate.CanEditRecords(now, date, report) {
			return ErrEditingClosed
		}

		if err := s.records.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create work record: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"project_id": projectID.String(),
			"date":       date,
			"files":      len(record.Files),
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &employeeID,
			Action:     model.ActionCreateRecord,
			EntityID:   record.ID.String(),
			EntityName: project.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  projectID,
		"record_id":   record.ID,
		"date":        date,
	}).Debug("work record created")

	return s.get(ctx, record.ID)
}

func (s *recordService) ListRecords(ctx context.Context, employeeID uuid.UUID, date string) ([]RecordResponse, error) {
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListByEmployeeDate(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list work records: %w", err)
	}
	out := make([]RecordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	return out, nil
}

// UpdateRecordContent edits a record's text while its date is still a draft.
func (s *recordService) UpdateRecordContent(ctx context.Context, employeeID, recordID uuid.UUID, req UpdateRecordRequest) (*RecordResponse, error) {
	content := strings.TrimSpace(req.Content)
	now := s.now()

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		record, err := s.owned(txCtx, employeeID, recordID)
		if err != nil {
			return err
		}
		if content == "" && len(record.Files) == 0 {
			return fmt.Errorf("%w: a record needs content or at least one file", ErrValidation)
		}
		report, err := s.reportFor(txCtx, employeeID, record.WorkDate)
		if err != nil {
			return err
		}
		if !s.gate.CanEditRecords(now, record.WorkDate, report) {
			return ErrEditingClosed
		}
		if report != nil {
			return fmt.Errorf("%w: records of a submitted date are read-only, edit the report instead", ErrConflict)
		}

		if err := s.records.UpdateContent(txCtx, recordID, content); err != nil {
			return storeErr(err, "work record")
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:   &employeeID,
			Action:   model.ActionUpdateRecord,
			EntityID: recordID.String(),
			Details:  `{"field":"content"}`,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, recordID)
}

// SelectFileForAI toggles whether a file is sent to the AI as reference material.
func (s *recordService) SelectFileForAI(ctx context.Context, employeeID, recordID, fileID uuid.UUID, selected bool) (*RecordResponse, error) {
	now := s.now()
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		record, err := s.owned(txCtx, employeeID, recordID)
		if err != nil {
			return err
		}
		if _, err := s.records.FindFile(txCtx, recordID, fileID); err != nil {
			return storeErr(err, "file")
		}
		report, err := s.reportFor(txCtx, employeeID, record.WorkDate)
		if err != nil {
			return err
		}
		if !s.gate.CanEditRecords(now, record.WorkDate, report) {
			return ErrEditingClosed
		}
		if err := s.records.SetFileSelected(txCtx, fileID, selected); err != nil {
			return fmt.Errorf("failed to update file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, recordID)
}

func (s *recordService) GetEditingStatus(ctx context.Context, employeeID uuid.UUID, date string) (*EditingStatus, error) {
	now := s.now()
	if date == "" {
		date = s.gate.DateOf(now)
	}
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	report, err := s.reportFor(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	st := s.gate.Status(now, date, report)
	return &st, nil
}

// owned hides other employees' records behind a not-found error.
func (s *recordService) owned(ctx context.Context, employeeID, recordID uuid.UUID) (*model.WorkRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, storeErr(err, "work record")
	}
	if record.EmployeeID != employeeID {
		return nil, fmt.Errorf("%w: work record", ErrNotFound)
	}
	return record, nil
}

func (s *recordService) get(ctx context.Context, id uuid.UUID) (*RecordResponse, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "work record")
	}
	res := toRecordResponse(record)
	return &res, nil
}

func toRecordResponse(r *model.WorkRecord) RecordResponse {
	res := RecordResponse{
		ID:                   r.ID.String(),
		ProjectID:            r.ProjectID.String(),
		Content:              r.Content,
		Date:                 r.WorkDate,
		ExecutionTimeMinutes: r.ExecutionTimeMinutes,
		Files:                make([]FileResponse, 0, len(r.Files)),
		CreatedAt:            r.CreatedAt.Format(time.RFC3339),
	}
	if r.Project != nil {
		res.ProjectName = r.Project.Name
	}
	for _, f := range r.Files {
		res.Files = append(res.Files, FileResponse{ID: f.ID.String(), FileRef: f.Ref()})
	}
	return res
}
