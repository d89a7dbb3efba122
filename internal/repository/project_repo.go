package repository

import (
	"context"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository interface {
	ListActive(ctx context.Context) ([]model.Project, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Project, error)
	Upsert(ctx context.Context, project *model.Project) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) ListActive(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := GetDB(ctx, r.db).Where("is_active = ?", true).Order("code").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Project, error) {
	out := make(map[uuid.UUID]model.Project, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var projects []model.Project
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, err
	}
	for _, p := range projects {
		out[p.ID] = p
	}
	return out, nil
}

// Upsert keys projects by code.
func (r *projectRepository) Upsert(ctx context.Context, project *model.Project) error {
	db := GetDB(ctx, r.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "department", "is_active", "updated_at"}),
	}).Create(project).Error
	if err != nil {
		return err
	}
	return db.First(project, "code = ?", project.Code).Error
}
