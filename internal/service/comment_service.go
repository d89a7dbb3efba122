package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dailyreport/internal/metrics"
	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type PostCommentRequest struct {
	Content         string  `json:"content"`
	ParentCommentID *string `json:"parent_comment_id"`
}

type CommentResponse struct {
	ID              string             `json:"id"`
	ReportID        string             `json:"report_id"`
	UserID          string             `json:"user_id"`
	AuthorName      string             `json:"author_name"`
	Content         string             `json:"content"`
	Rating          *int               `json:"rating"`
	IsReview        bool               `json:"is_review"`
	ApprovalID      *string            `json:"approval_id,omitempty"`
	ParentCommentID *string            `json:"parent_comment_id"`
	CreatedAt       string             `json:"created_at"`
	Replies         []*CommentResponse `json:"replies"`
}

// --- Interface ---

// CommentService is the discussion thread of a report. Ratings only enter the
// thread through ReportService.Review.
type CommentService interface {
	PostComment(ctx context.Context, reportID, authorID uuid.UUID, req PostCommentRequest) (*CommentResponse, error)
	ListComments(ctx context.Context, reportID, viewerID uuid.UUID) ([]*CommentResponse, error)
	ListCommentsFlat(ctx context.Context, reportID, viewerID uuid.UUID) ([]*CommentResponse, error)
}

type commentService struct {
	tx       repository.TransactionManager
	reports  repository.ReportRepository
	comments repository.CommentRepository
	audit    repository.AuditRepository
	access   reportAccess
	events   EventPublisher
	log      *logrus.Logger
	now      func() time.Time
}

func NewCommentService(
	tx repository.TransactionManager,
	reports repository.ReportRepository,
	comments repository.CommentRepository,
	approvals repository.ApprovalRepository,
	directory repository.DirectoryRepository,
	audit repository.AuditRepository,
	events EventPublisher,
	log *logrus.Logger,
) CommentService {
	if events == nil {
		events = NopPublisher()
	}
	return &commentService{
		tx:       tx,
		reports:  reports,
		comments: comments,
		audit:    audit,
		access:   reportAccess{directory: directory, approvals: approvals},
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// --- Implementation ---

func (s *commentService) PostComment(ctx context.Context, reportID, authorID uuid.UUID, req PostCommentRequest) (*CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment must not be empty", ErrValidation)
	}

	var parentID *uuid.UUID
	if req.ParentCommentID != nil && *req.ParentCommentID != "" {
		id, err := uuid.Parse(*req.ParentCommentID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid parent_comment_id %q", ErrValidation, *req.ParentCommentID)
		}
		parentID = &id
	}

	comment := &model.ReviewComment{
		ReportID:        reportID,
		AuthorID:        authorID,
		Content:         content,
		ParentCommentID: parentID,
		CreatedAt:       s.now(),
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		report, err := s.reports.FindByID(txCtx, reportID)
		if err != nil {
			return storeErr(err, "daily report")
		}
		if err := s.access.require(txCtx, report, authorID); err != nil {
			return err
		}

		if parentID != nil {
			parent, err := s.comments.FindByID(txCtx, *parentID)
			if err != nil {
				return storeErr(err, "parent comment")
			}
			if parent.ReportID != reportID {
				return fmt.Errorf("%w: parent comment belongs to another report", ErrValidation)
			}
		}

		if err := s.comments.Create(txCtx, comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"comment_id": comment.ID.String(),
			"reply":      parentID != nil,
		})
		if err := s.audit.Log(txCtx, &model.AuditLog{
			UserID:     &authorID,
			Action:     model.ActionPostComment,
			EntityID:   reportID.String(),
			EntityName: report.ReportDate,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordComment()
	s.log.WithFields(logrus.Fields{
		"report_id":  reportID,
		"comment_id": comment.ID,
		"author_id":  authorID,
	}).Debug("comment posted")

	stored, err := s.comments.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, storeErr(err, "comment")
	}
	res := toCommentResponse(stored)
	publish(s.events, EventCommentPosted, reportID, authorID, "", res)
	return res, nil
}

func (s *commentService) ListComments(ctx context.Context, reportID, viewerID uuid.UUID) ([]*CommentResponse, error) {
	comments, err := s.load(ctx, reportID, viewerID)
	if err != nil {
		return nil, err
	}
	forest := BuildForest(comments)
	out := make([]*CommentResponse, 0, len(forest))
	for _, c := range forest {
		out = append(out, toCommentResponse(c))
	}
	return out, nil
}

func (s *commentService) ListCommentsFlat(ctx context.Context, reportID, viewerID uuid.UUID) ([]*CommentResponse, error) {
	comments, err := s.load(ctx, reportID, viewerID)
	if err != nil {
		return nil, err
	}
	flat := Flatten(BuildForest(comments))
	out := make([]*CommentResponse, 0, len(flat))
	for _, c := range flat {
		res := toCommentResponse(c)
		res.Replies = []*CommentResponse{}
		out = append(out, res)
	}
	return out, nil
}

func (s *commentService) load(ctx context.Context, reportID, viewerID uuid.UUID) ([]model.ReviewComment, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, storeErr(err, "daily report")
	}
	if err := s.access.require(ctx, report, viewerID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	return comments, nil
}

func toCommentResponse(c *model.ReviewComment) *CommentResponse {
	res := &CommentResponse{
		ID:        c.ID.String(),
		ReportID:  c.ReportID.String(),
		UserID:    c.AuthorID.String(),
		Content:   c.Content,
		Rating:    c.Rating,
		IsReview:  c.IsReview(),
		CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		Replies:   make([]*CommentResponse, 0, len(c.Replies)),
	}
	if c.Author != nil {
		res.AuthorName = c.Author.Name
	}
	if c.ApprovalID != nil {
		id := c.ApprovalID.String()
		res.ApprovalID = &id
	}
	if c.ParentCommentID != nil {
		id := c.ParentCommentID.String()
		res.ParentCommentID = &id
	}
	for _, r := range c.Replies {
		res.Replies = append(res.Replies, toCommentResponse(r))
	}
	return res
}
