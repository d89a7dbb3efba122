package repository

import (
	"context"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.ReviewComment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReviewComment, error)
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]model.ReviewComment, error)
	ListUnlinkedRatings(ctx context.Context) ([]model.ReviewComment, error)
	LinkApproval(ctx context.Context, commentID, approvalID uuid.UUID) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.ReviewComment) error {
	return GetDB(ctx, r.db).Omit("Author").Create(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ReviewComment, error) {
	var comment model.ReviewComment
	if err := GetDB(ctx, r.db).Preload("Author").First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]model.ReviewComment, error) {
	var comments []model.ReviewComment
	err := GetDB(ctx, r.db).Preload("Author").
		Where("report_id = ?", reportID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// ListUnlinkedRatings returns rating-bearing comments written before approvals
// were tracked as their own rows.
func (r *commentRepository) ListUnlinkedRatings(ctx context.Context) ([]model.ReviewComment, error) {
	var comments []model.ReviewComment
	err := GetDB(ctx, r.db).
		Where("rating IS NOT NULL AND approval_id IS NULL").
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) LinkApproval(ctx context.Context, commentID, approvalID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.ReviewComment{}).
		Where("id = ?", commentID).
		Update("approval_id", approvalID).Error
}
