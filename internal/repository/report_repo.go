package repository

import (
	"context"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportRepository interface {
	Create(ctx context.Context, report *model.DailyReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DailyReport, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.DailyReport, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.DailyReport, error)
	FindByEmployeeDate(ctx context.Context, employeeID uuid.UUID, date string) (*model.DailyReport, error)
	ListByDate(ctx context.Context, date string, employeeIDs []uuid.UUID) ([]model.DailyReport, error)
	UpdateIfVersion(ctx context.Context, id uuid.UUID, version int, fields map[string]interface{}) (bool, error)
	ReplaceProjects(ctx context.Context, reportID uuid.UUID, projects []model.ReportProject) error
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Employee").
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Approvals.Supervisor")
}

func (r *reportRepository) Create(ctx context.Context, report *model.DailyReport) error {
	return GetDB(ctx, r.db).Omit("Projects", "Approvals").Create(report).Error
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DailyReport, error) {
	var report model.DailyReport
	if err := GetDB(ctx, r.db).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.DailyReport, error) {
	var report model.DailyReport
	if err := withRelations(GetDB(ctx, r.db)).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// LockByID reads the report row FOR UPDATE; call it inside RunInTx.
func (r *reportRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.DailyReport, error) {
	var report model.DailyReport
	if err := forUpdate(GetDB(ctx, r.db)).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindByEmployeeDate(ctx context.Context, employeeID uuid.UUID, date string) (*model.DailyReport, error) {
	var report model.DailyReport
	err := withRelations(GetDB(ctx, r.db)).
		First(&report, "employee_id = ? AND report_date = ?", employeeID, date).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) ListByDate(ctx context.Context, date string, employeeIDs []uuid.UUID) ([]model.DailyReport, error) {
	var reports []model.DailyReport
	if len(employeeIDs) == 0 {
		return reports, nil
	}
	err := withRelations(GetDB(ctx, r.db)).
		Where("report_date = ? AND employee_id IN ?", date, employeeIDs).
		Order("submitted_at ASC, id ASC").
		Find(&reports).Error
	return reports, err
}

// UpdateIfVersion applies fields and bumps the version only when the stored
// version still equals version. It returns false when another writer won.
func (r *reportRepository) UpdateIfVersion(ctx context.Context, id uuid.UUID, version int, fields map[string]interface{}) (bool, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	res := GetDB(ctx, r.db).Model(&model.DailyReport{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReplaceProjects swaps the whole snapshot of a report.
func (r *reportRepository) ReplaceProjects(ctx context.Context, reportID uuid.UUID, projects []model.ReportProject) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("report_id = ?", reportID).Delete(&model.ReportProject{}).Error; err != nil {
		return err
	}
	if len(projects) == 0 {
		return nil
	}
	for i := range projects {
		projects[i].ReportID = reportID
		projects[i].Position = i
	}
	return db.Create(&projects).Error
}
