package service

import (
	"context"
	"fmt"

	"dailyreport/internal/model"
	"dailyreport/internal/repository"
)

type ProjectService interface {
	ListActive(ctx context.Context) ([]model.Project, error)
}

type projectService struct {
	repo repository.ProjectRepository
}

func NewProjectService(repo repository.ProjectRepository) ProjectService {
	return &projectService{repo: repo}
}

func (s *projectService) ListActive(ctx context.Context) ([]model.Project, error) {
	projects, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}
