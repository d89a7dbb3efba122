package service

import (
	"context"
	"fmt"

	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/google/uuid"
)

// reportAccess answers how a user relates to a report.
type reportAccess struct {
	directory repository.DirectoryRepository
	approvals repository.ApprovalRepository
}

// isSupervisor is true for a current supervisor of the owner or anyone who
// already holds an approval row on the report.
func (a reportAccess) isSupervisor(ctx context.Context, report *model.DailyReport, userID uuid.UUID) (bool, error) {
	ok, err := a.directory.IsSupervisorOf(ctx, userID, report.EmployeeID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve supervisors: %w", err)
	}
	if ok {
		return true, nil
	}
	_, err = a.approvals.FindByReportSupervisor(ctx, report.ID, userID)
	switch {
	case err == nil:
		return true, nil
	case repository.IsNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to load approval: %w", err)
	}
}

func (a reportAccess) canAccess(ctx context.Context, report *model.DailyReport, userID uuid.UUID) (bool, error) {
	if report.EmployeeID == userID {
		return true, nil
	}
	return a.isSupervisor(ctx, report, userID)
}

func (a reportAccess) require(ctx context.Context, report *model.DailyReport, userID uuid.UUID) error {
	ok, err := a.canAccess(ctx, report, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user has no relation to this report", ErrAuthorization)
	}
	return nil
}
