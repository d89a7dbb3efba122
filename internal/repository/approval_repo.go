package repository

import (
	"context"
	"time"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalRepository stores per-supervisor approvals of daily reports.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *model.ReportApproval) error
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]model.ReportApproval, error)
	FindByReportSupervisor(ctx context.Context, reportID, supervisorID uuid.UUID) (*model.ReportApproval, error)
	ResetForSubmission(ctx context.Context, reportID uuid.UUID, supervisorIDs []uuid.UUID) error
	EnsurePending(ctx context.Context, reportID uuid.UUID, supervisorIDs []uuid.UUID) (int, error)
	Approve(ctx context.Context, id uuid.UUID, rating int, feedback string, at time.Time) (bool, error)
	CountPendingBySupervisor(ctx context.Context, supervisorID uuid.UUID) (map[uuid.UUID]int64, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, approval *model.ReportApproval) error {
	return GetDB(ctx, r.db).Create(approval).Error
}

func (r *approvalRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]model.ReportApproval, error) {
	var approvals []model.ReportApproval
	err := GetDB(ctx, r.db).Preload("Supervisor").
		Where("report_id = ?", reportID).
		Order("created_at, id").
		Find(&approvals).Error
	return approvals, err
}

func (r *approvalRepository) FindByReportSupervisor(ctx context.Context, reportID, supervisorID uuid.UUID) (*model.ReportApproval, error) {
	var approval model.ReportApproval
	err := GetDB(ctx, r.db).First(&approval, "report_id = ? AND supervisor_id = ?", reportID, supervisorID).Error
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// ResetForSubmission makes the approval set match supervisorIDs: every listed
// supervisor gets a required pending row with rating and feedback cleared, and
// rows of supervisors no longer listed stay but stop being required.
func (r *approvalRepository) ResetForSubmission(ctx context.Context, reportID uuid.UUID, supervisorIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)

	var existing []model.ReportApproval
	if err := db.Where("report_id = ?", reportID).Find(&existing).Error; err != nil {
		return err
	}
	have := make(map[uuid.UUID]bool, len(existing))
	for _, a := range existing {
		have[a.SupervisorID] = true
	}

	reset := map[string]interface{}{
		"status":      model.ReportApprovalPending,
		"required":    true,
		"rating":      nil,
		"feedback":    "",
		"approved_at": nil,
	}
	if len(supervisorIDs) > 0 {
		if err := db.Model(&model.ReportApproval{}).
			Where("report_id = ? AND supervisor_id IN ?", reportID, supervisorIDs).
			Updates(reset).Error; err != nil {
			return err
		}
	}

	dropped := db.Model(&model.ReportApproval{}).Where("report_id = ?", reportID)
	if len(supervisorIDs) > 0 {
		dropped = dropped.Where("supervisor_id NOT IN ?", supervisorIDs)
	}
	if err := dropped.Update("required", false).Error; err != nil {
		return err
	}

	for _, id := range supervisorIDs {
		if have[id] {
			continue
		}
		row := model.ReportApproval{
			ReportID:     reportID,
			SupervisorID: id,
			Status:       model.ReportApprovalPending,
			Required:     true,
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
		have[id] = true
	}
	return nil
}

// EnsurePending inserts a required pending row for every listed supervisor
// that has none yet. Existing rows are left untouched.
func (r *approvalRepository) EnsurePending(ctx context.Context, reportID uuid.UUID, supervisorIDs []uuid.UUID) (int, error) {
	if len(supervisorIDs) == 0 {
		return 0, nil
	}
	db := GetDB(ctx, r.db)

	var have []uuid.UUID
	if err := db.Model(&model.ReportApproval{}).
		Where("report_id = ? AND supervisor_id IN ?", reportID, supervisorIDs).
		Pluck("supervisor_id", &have).Error; err != nil {
		return 0, err
	}
	seen := make(map[uuid.UUID]bool, len(have))
	for _, id := range have {
		seen[id] = true
	}

	created := 0
	for _, id := range supervisorIDs {
		if seen[id] {
			continue
		}
		row := model.ReportApproval{
			ReportID:     reportID,
			SupervisorID: id,
			Status:       model.ReportApprovalPending,
			Required:     true,
		}
		if err := db.Create(&row).Error; err != nil {
			return created, err
		}
		seen[id] = true
		created++
	}
	return created, nil
}

// Approve flips a pending approval to approved. It returns false when the row
// was no longer pending, which means another request approved it first.
func (r *approvalRepository) Approve(ctx context.Context, id uuid.UUID, rating int, feedback string, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.ReportApproval{}).
		Where("id = ? AND status = ?", id, model.ReportApprovalPending).
		Updates(map[string]interface{}{
			"status":      model.ReportApprovalApproved,
			"rating":      rating,
			"feedback":    feedback,
			"approved_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountPendingBySupervisor counts reports still waiting on supervisorID, per employee.
func (r *approvalRepository) CountPendingBySupervisor(ctx context.Context, supervisorID uuid.UUID) (map[uuid.UUID]int64, error) {
	type row struct {
		EmployeeID uuid.UUID
		Total      int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Table("report_approvals").
		Select("daily_reports.employee_id AS employee_id, COUNT(*) AS total").
		Joins("JOIN daily_reports ON daily_reports.id = report_approvals.report_id").
		Where("report_approvals.supervisor_id = ? AND report_approvals.status = ? AND report_approvals.required = ?",
			supervisorID, model.ReportApprovalPending, true).
		Group("daily_reports.employee_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.EmployeeID] = r.Total
	}
	return out, nil
}
