package repository

import (
	"context"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DirectoryRepository resolves who supervises whom.
type DirectoryRepository interface {
	SupervisorsOf(ctx context.Context, employeeID uuid.UUID) ([]model.User, error)
	SubordinatesOf(ctx context.Context, supervisorID uuid.UUID) ([]model.User, error)
	IsSupervisorOf(ctx context.Context, supervisorID, employeeID uuid.UUID) (bool, error)
	Link(ctx context.Context, supervisorID, employeeID uuid.UUID) error
}

type directoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) SupervisorsOf(ctx context.Context, employeeID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).
		Joins("JOIN supervisor_links ON supervisor_links.supervisor_id = users.id").
		Where("supervisor_links.employee_id = ?", employeeID).
		Order("users.employee_no").
		Find(&users).Error
	return users, err
}

func (r *directoryRepository) SubordinatesOf(ctx context.Context, supervisorID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).
		Joins("JOIN supervisor_links ON supervisor_links.employee_id = users.id").
		Where("supervisor_links.supervisor_id = ?", supervisorID).
		Order("users.employee_no").
		Find(&users).Error
	return users, err
}

func (r *directoryRepository) IsSupervisorOf(ctx context.Context, supervisorID, employeeID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.SupervisorLink{}).
		Where("supervisor_id = ? AND employee_id = ?", supervisorID, employeeID).
		Count(&count).Error
	return count > 0, err
}

// Link is idempotent.
func (r *directoryRepository) Link(ctx context.Context, supervisorID, employeeID uuid.UUID) error {
	link := model.SupervisorLink{SupervisorID: supervisorID, EmployeeID: employeeID}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}
