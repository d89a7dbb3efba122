package service

import (
	"context"
	"fmt"

	"dailyreport/internal/repository"

	"github.com/google/uuid"
)

type EmployeeSummary struct {
	ID             string `json:"id"`
	EmployeeNo     string `json:"employee_no"`
	Name           string `json:"name"`
	Department     string `json:"department"`
	PendingReviews int64  `json:"pending_reviews"`
}

// DirectoryService exposes the reporting chain to supervisors.
type DirectoryService interface {
	HasSubordinates(ctx context.Context, supervisorID uuid.UUID) (bool, error)
	ListSubordinates(ctx context.Context, supervisorID uuid.UUID) ([]EmployeeSummary, error)
}

type directoryService struct {
	directory repository.DirectoryRepository
	approvals repository.ApprovalRepository
}

func NewDirectoryService(directory repository.DirectoryRepository, approvals repository.ApprovalRepository) DirectoryService {
	return &directoryService{directory: directory, approvals: approvals}
}

func (s *directoryService) HasSubordinates(ctx context.Context, supervisorID uuid.UUID) (bool, error) {
	users, err := s.directory.SubordinatesOf(ctx, supervisorID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve subordinates: %w", err)
	}
	return len(users) > 0, nil
}

// ListSubordinates includes, per employee, how many reports still wait on this supervisor.
func (s *directoryService) ListSubordinates(ctx context.Context, supervisorID uuid.UUID) ([]EmployeeSummary, error) {
	users, err := s.directory.SubordinatesOf(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subordinates: %w", err)
	}
	pending, err := s.approvals.CountPendingBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending reviews: %w", err)
	}

	out := make([]EmployeeSummary, 0, len(users))
	for _, u := range users {
		out = append(out, EmployeeSummary{
			ID:             u.ID.String(),
			EmployeeNo:     u.EmployeeNo,
			Name:           u.Name,
			Department:     u.Department,
			PendingReviews: pending[u.ID],
		})
	}
	return out, nil
}
