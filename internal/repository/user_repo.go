package repository

import (
	"context"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByEmployeeNo(ctx context.Context, employeeNo string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

// Upsert inserts the user or refreshes the directory fields of the row with the same employee number.
func (r *userRepository) Upsert(ctx context.Context, user *model.User) error {
	db := GetDB(ctx, r.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_no"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "department", "role", "password", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return err
	}
	// the generated id is discarded on conflict, reload the stored one
	return db.First(user, "employee_no = ?", user.EmployeeNo).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmployeeNo(ctx context.Context, employeeNo string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "employee_no = ?", employeeNo).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("employee_no").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
