package repository

import (
	"context"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OverlayRepository stores AI-polished text keyed by (employee, project, date).
type OverlayRepository interface {
	ListByEmployeeDate(ctx context.Context, employeeID uuid.UUID, date string) (map[uuid.UUID]string, error)
	Upsert(ctx context.Context, overlay *model.AIOverlay) error
	Delete(ctx context.Context, employeeID, projectID uuid.UUID, date string) error
}

type overlayRepository struct {
	db *gorm.DB
}

func NewOverlayRepository(db *gorm.DB) OverlayRepository {
	return &overlayRepository{db: db}
}

func (r *overlayRepository) ListByEmployeeDate(ctx context.Context, employeeID uuid.UUID, date string) (map[uuid.UUID]string, error) {
	var overlays []model.AIOverlay
	if err := GetDB(ctx, r.db).Where("employee_id = ? AND work_date = ?", employeeID, date).Find(&overlays).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(overlays))
	for _, o := range overlays {
		out[o.ProjectID] = o.Content
	}
	return out, nil
}

func (r *overlayRepository) Upsert(ctx context.Context, overlay *model.AIOverlay) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}, {Name: "project_id"}, {Name: "work_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(overlay).Error
}

func (r *overlayRepository) Delete(ctx context.Context, employeeID, projectID uuid.UUID, date string) error {
	return GetDB(ctx, r.db).
		Where("employee_id = ? AND project_id = ? AND work_date = ?", employeeID, projectID, date).
		Delete(&model.AIOverlay{}).Error
}
