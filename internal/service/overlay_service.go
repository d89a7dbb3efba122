package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"dailyreport/internal/ai"
	"dailyreport/internal/metrics"
	"dailyreport/internal/model"
	"dailyreport/internal/repository"
	"dailyreport/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type SetAIContentRequest struct {
	Date    string `json:"date" binding:"required"`
	Content string `json:"content"`
}

type EnhanceRequest struct {
	Date      string `json:"date" binding:"required"`
	ProjectID string `json:"project_id"` // empty means every project of the date
}

type EnhanceResponse struct {
	Date   string   `json:"date"`
	Queued []string `json:"queued_project_ids"`
}

// --- Interface ---

// OverlayService manages the AI-polished alternative text of project aggregates.
// Consolidation and submission never wait on it.
type OverlayService interface {
	SetAIContent(ctx context.Context, employeeID, projectID uuid.UUID, req SetAIContentRequest) error
	Enhance(ctx context.Context, employeeID uuid.UUID, req EnhanceRequest) (*EnhanceResponse, error)
	Wait()
}

type overlayService struct {
	consolidation ConsolidationService
	overlays      repository.OverlayRepository
	reports       repository.ReportRepository
	projects      repository.ProjectRepository
	gate          *EditingGate
	enhancer      ai.Enhancer
	files         storage.FileStore
	log           *logrus.Logger
	now           func() time.Time
	inflight      sync.WaitGroup
}

// NewOverlayService accepts a nil enhancer (enhancement disabled) and a nil
// file store (no reference files).
func NewOverlayService(
	consolidation ConsolidationService,
	overlays repository.OverlayRepository,
	reports repository.ReportRepository,
	projects repository.ProjectRepository,
	gate *EditingGate,
	enhancer ai.Enhancer,
	files storage.FileStore,
	log *logrus.Logger,
) OverlayService {
	return &overlayService{
		consolidation: consolidation,
		overlays:      overlays,
		reports:       reports,
		projects:      projects,
		gate:          gate,
		enhancer:      enhancer,
		files:         files,
		log:           log,
		now:           time.Now,
	}
}

// maxReferenceBytes caps how much of a reference file is downloaded.
const maxReferenceBytes = 64 << 10

// checkGate treats overlay text as part of the report once one exists, and as
// draft material before the first submission.
func (s *overlayService) checkGate(ctx context.Context, employeeID uuid.UUID, date string) error {
	report, err := s.reports.FindByEmployeeDate(ctx, employeeID, date)
	if repository.IsNotFound(err) {
		if !s.gate.CanSubmit(s.now(), date, nil) {
			return ErrEditingClosed
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load daily report: %w", err)
	}
	if !s.gate.CanEditReport(s.now(), report) {
		return ErrEditingClosed
	}
	return nil
}

func (s *overlayService) SetAIContent(ctx context.Context, employeeID, projectID uuid.UUID, req SetAIContentRequest) error {
	date, err := ParseDate(req.Date)
	if err != nil {
		return err
	}
	if err := s.checkGate(ctx, employeeID, date); err != nil {
		return err
	}
	projects, err := s.projects.FindByIDs(ctx, []uuid.UUID{projectID})
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if _, ok := projects[projectID]; !ok {
		return fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		// blank text clears the overlay so consolidation reports none
		if err := s.overlays.Delete(ctx, employeeID, projectID, date); err != nil {
			return fmt.Errorf("failed to clear ai content: %w", err)
		}
		return nil
	}
	overlay := &model.AIOverlay{
		EmployeeID: employeeID,
		ProjectID:  projectID,
		WorkDate:   date,
		Content:    content,
	}
	if err := s.overlays.Upsert(ctx, overlay); err != nil {
		return fmt.Errorf("failed to store ai content: %w", err)
	}
	return nil
}

// Enhance queues AI rewrites and returns immediately. Failures are logged and
// leave the aggregate without ai_content.
func (s *overlayService) Enhance(ctx context.Context, employeeID uuid.UUID, req EnhanceRequest) (*EnhanceResponse, error) {
	if s.enhancer == nil {
		return nil, fmt.Errorf("%w: ai enhancement is not configured", ErrValidation)
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	var only *uuid.UUID
	if req.ProjectID != "" {
		id, err := uuid.Parse(req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid project_id %q", ErrValidation, req.ProjectID)
		}
		only = &id
	}
	if err := s.checkGate(ctx, employeeID, date); err != nil {
		return nil, err
	}

	aggregates, err := s.consolidation.GetConsolidated(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	var targets []ConsolidatedReport
	for _, agg := range aggregates {
		if only != nil && agg.ProjectID != *only {
			continue
		}
		if strings.TrimSpace(agg.Content) == "" {
			continue
		}
		targets = append(targets, agg)
	}
	if only != nil && len(targets) == 0 {
		return nil, fmt.Errorf("%w: no records with content for project %s on %s", ErrNotFound, *only, date)
	}

	res := &EnhanceResponse{Date: date, Queued: make([]string, 0, len(targets))}
	for _, t := range targets {
		res.Queued = append(res.Queued, t.ProjectID.String())
	}
	if len(targets) == 0 {
		return res, nil
	}

	bg := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		for _, t := range targets {
			s.enhanceOne(bg, employeeID, date, t)
		}
	}()
	return res, nil
}

func (s *overlayService) enhanceOne(ctx context.Context, employeeID uuid.UUID, date string, agg ConsolidatedReport) {
	entry := s.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"project_id":  agg.ProjectID,
		"date":        date,
	})

	text, err := s.enhancer.Enhance(ctx, ai.Request{
		ProjectName: agg.ProjectName,
		Content:     agg.Content,
		References:  s.references(ctx, entry, agg.Files),
	})
	if err != nil {
		metrics.RecordAIEnhancement(false)
		entry.WithError(err).Warn("ai enhancement failed")
		return
	}

	err = s.overlays.Upsert(ctx, &model.AIOverlay{
		EmployeeID: employeeID,
		ProjectID:  agg.ProjectID,
		WorkDate:   date,
		Content:    text,
	})
	if err != nil {
		metrics.RecordAIEnhancement(false)
		entry.WithError(err).Warn("failed to store ai content")
		return
	}
	metrics.RecordAIEnhancement(true)
	entry.Info("ai content updated")
}

// references downloads the text-like files selected for AI. Unreadable files are skipped.
func (s *overlayService) references(ctx context.Context, entry *logrus.Entry, files []model.FileRef) []ai.Reference {
	if s.files == nil {
		return nil
	}
	var refs []ai.Reference
	for _, f := range files {
		if !f.IsSelectedForAI || !IsTextLike(f) {
			continue
		}
		data, err := s.files.Read(ctx, f.URL, maxReferenceBytes)
		if err != nil {
			entry.WithError(err).WithField("file", f.Name).Warn("skipping unreadable reference file")
			continue
		}
		if !utf8.Valid(data) {
			continue
		}
		refs = append(refs, ai.Reference{Name: f.Name, Text: string(data)})
	}
	return refs
}

// Wait blocks until queued enhancements finish.
func (s *overlayService) Wait() {
	s.inflight.Wait()
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".json": true,
	".log": true, ".yaml": true, ".yml": true, ".xml": true,
}

// IsTextLike reports whether a file can be fed to the model as plain text.
func IsTextLike(f model.FileRef) bool {
	mt := strings.ToLower(f.MediaType)
	if strings.HasPrefix(mt, "text/") {
		return true
	}
	switch mt {
	case "application/json", "application/xml", "application/x-yaml", "application/yaml":
		return true
	}
	return textExtensions[strings.ToLower(path.Ext(f.Name))]
}
