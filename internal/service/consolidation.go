package service

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ConsolidatedReport is the per-project aggregate of one employee's records for one date.
type ConsolidatedReport struct {
	ProjectID             uuid.UUID       `json:"project_id"`
	ProjectName           string          `json:"project_name"`
	Content               string          `json:"content"`
	AIContent             *string         `json:"ai_content,omitempty"`
	RecordCount           int             `json:"record_count"`
	TotalExecutionMinutes *int            `json:"total_execution_time_minutes,omitempty"`
	Files                 []model.FileRef `json:"files"`
}

const paragraphSeparator = "\n\n"

// Consolidate groups records by project and merges each group. Groups are
// ordered by their earliest record, ties broken by project id, so the result
// depends only on the input set and not on its order.
func Consolidate(records []model.WorkRecord) []ConsolidatedReport {
	if len(records) == 0 {
		return []ConsolidatedReport{}
	}

	sorted := make([]model.WorkRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})

	groups := make(map[uuid.UUID][]model.WorkRecord)
	var order []uuid.UUID
	for _, r := range sorted {
		if _, ok := groups[r.ProjectID]; !ok {
			order = append(order, r.ProjectID)
		}
		groups[r.ProjectID] = append(groups[r.ProjectID], r)
	}

	// records are already chronological, so order holds groups by first record;
	// equal first timestamps fall back to project id
	sort.SliceStable(order, func(i, j int) bool {
		a, b := groups[order[i]][0], groups[order[j]][0]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return bytes.Compare(order[i][:], order[j][:]) < 0
	})

	out := make([]ConsolidatedReport, 0, len(order))
	for _, projectID := range order {
		out = append(out, mergeGroup(projectID, groups[projectID]))
	}
	return out
}

func mergeGroup(projectID uuid.UUID, records []model.WorkRecord) ConsolidatedReport {
	agg := ConsolidatedReport{
		ProjectID:   projectID,
		RecordCount: len(records),
		Files:       []model.FileRef{},
	}

	var paragraphs []string
	var minutes int
	hasMinutes := false
	for _, r := range records {
		if agg.ProjectName == "" && r.Project != nil {
			agg.ProjectName = r.Project.Name
		}
		if text := strings.TrimSpace(r.Content); text != "" {
			paragraphs = append(paragraphs, text)
		}
		for _, f := range r.Files {
			agg.Files = append(agg.Files, f.Ref())
		}
		if r.ExecutionTimeMinutes != nil {
			minutes += *r.ExecutionTimeMinutes
			hasMinutes = true
		}
	}
	agg.Content = strings.Join(paragraphs, paragraphSeparator)
	if hasMinutes {
		agg.TotalExecutionMinutes = &minutes
	}
	return agg
}

// ConsolidationService is the read side of the record store: it recomputes
// the draft aggregates on every call.
type ConsolidationService interface {
	GetConsolidated(ctx context.Context, employeeID uuid.UUID, date string) ([]ConsolidatedReport, error)
}

type consolidationService struct {
	records  repository.RecordRepository
	overlays repository.OverlayRepository
	log      *logrus.Logger
}

func NewConsolidationService(records repository.RecordRepository, overlays repository.OverlayRepository, log *logrus.Logger) ConsolidationService {
	return &consolidationService{records: records, overlays: overlays, log: log}
}

func (s *consolidationService) GetConsolidated(ctx context.Context, employeeID uuid.UUID, date string) ([]ConsolidatedReport, error) {
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	records, err := s.records.ListByEmployeeDate(ctx, employeeID, date)
	if err != nil {
		return nil, storeErr(err, "work records")
	}

	reports := Consolidate(records)
	if len(reports) == 0 {
		return reports, nil
	}

	overlays, err := s.overlays.ListByEmployeeDate(ctx, employeeID, date)
	if err != nil {
		// overlay text is optional; the merge stands without it
		s.log.WithFields(logrus.Fields{
			"employee_id": employeeID,
			"date":        date,
		}).WithError(err).Warn("ai overlay lookup failed")
		return reports, nil
	}
	for i := range reports {
		if text, ok := overlays[reports[i].ProjectID]; ok {
			t := text
			reports[i].AIContent = &t
		}
	}
	return reports, nil
}
