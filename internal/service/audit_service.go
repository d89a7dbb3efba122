package service

import (
	"context"
	"fmt"

	"dailyreport/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter repository.AuditFilter) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns one page of audit entries, newest first
func (s *auditService) GetAuditLogs(ctx context.Context, filter repository.AuditFilter) ([]AuditLogResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userName := "System"
		userID := ""
		if l.User != nil {
			userName = l.User.Name
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserName:   userName,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
