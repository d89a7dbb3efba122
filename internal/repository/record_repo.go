package repository

import (
	"context"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordRepository is the record store: individual work records and their files.
type RecordRepository interface {
	Create(ctx context.Context, record *model.WorkRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WorkRecord, error)
	ListByEmployeeDate(ctx context.Context, employeeID uuid.UUID, date string) ([]model.WorkRecord, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) error
	FindFile(ctx context.Context, recordID, fileID uuid.UUID) (*model.FileAttachment, error)
	SetFileSelected(ctx context.Context, fileID uuid.UUID, selected bool) error
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

// Create stores the record and its files in one statement chain.
func (r *recordRepository) Create(ctx context.Context, record *model.WorkRecord) error {
	for i := range record.Files {
		record.Files[i].Position = i
	}
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *recordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.WorkRecord, error) {
	var record model.WorkRecord
	err := GetDB(ctx, r.db).
		Preload("Project").
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) ListByEmployeeDate(ctx context.Context, employeeID uuid.UUID, date string) ([]model.WorkRecord, error) {
	var records []model.WorkRecord
	err := GetDB(ctx, r.db).
		Preload("Project").
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("employee_id = ? AND work_date = ?", employeeID, date).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	return records, err
}

func (r *recordRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	res := GetDB(ctx, r.db).Model(&model.WorkRecord{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recordRepository) FindFile(ctx context.Context, recordID, fileID uuid.UUID) (*model.FileAttachment, error) {
	var file model.FileAttachment
	if err := GetDB(ctx, r.db).First(&file, "id = ? AND work_record_id = ?", fileID, recordID).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *recordRepository) SetFileSelected(ctx context.Context, fileID uuid.UUID, selected bool) error {
	return GetDB(ctx, r.db).Model(&model.FileAttachment{}).
		Where("id = ?", fileID).
		Update("is_selected_for_ai", selected).Error
}
