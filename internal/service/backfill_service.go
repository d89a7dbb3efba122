package service

import (
	"context"
	"fmt"

	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BackfillResult struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Seeded  int `json:"seeded"` // pending rows added for supervisors who never rated
}

// BackfillService converts rating-bearing comments written before approvals
// were stored separately into approval rows. Running it again is a no-op.
type BackfillService interface {
	BackfillApprovals(ctx context.Context) (*BackfillResult, error)
}

type backfillService struct {
	tx        repository.TransactionManager
	reports   repository.ReportRepository
	approvals repository.ApprovalRepository
	comments  repository.CommentRepository
	directory repository.DirectoryRepository
	audit     repository.AuditRepository
	log       *logrus.Logger
}

func NewBackfillService(
	tx repository.TransactionManager,
	reports repository.ReportRepository,
	approvals repository.ApprovalRepository,
	comments repository.CommentRepository,
	directory repository.DirectoryRepository,
	audit repository.AuditRepository,
	log *logrus.Logger,
) BackfillService {
	return &backfillService{
		tx:        tx,
		reports:   reports,
		approvals: approvals,
		comments:  comments,
		directory: directory,
		audit:     audit,
		log:       log,
	}
}

func (s *backfillService) BackfillApprovals(ctx context.Context) (*BackfillResult, error) {
	legacy, err := s.comments.ListUnlinkedRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy ratings: %w", err)
	}

	res := &BackfillResult{Scanned: len(legacy)}
	for i := range legacy {
		c := legacy[i]
		outcome, seeded, err := s.backfillOne(ctx, &c)
		res.Seeded += seeded
		if err != nil {
			return res, fmt.Errorf("comment %s: %w", c.ID, err)
		}
		switch outcome {
		case "created":
			res.Created++
		case "updated":
			res.Updated++
		default:
			res.Skipped++
		}
	}

	s.log.WithFields(logrus.Fields{
		"scanned": res.Scanned,
		"created": res.Created,
		"updated": res.Updated,
		"skipped": res.Skipped,
		"seeded":  res.Seeded,
	}).Info("approval backfill finished")
	return res, nil
}

// backfillOne leaves ratings written before the current submission unlinked:
// they judged a snapshot that no longer exists.
func (s *backfillService) backfillOne(ctx context.Context, c *model.ReviewComment) (string, int, error) {
	outcome := "skipped"
	seeded := 0
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		report, err := s.reports.LockByID(txCtx, c.ReportID)
		if repository.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.CreatedAt.Before(report.SubmittedAt) {
			return nil
		}

		approval, err := s.approvals.FindByReportSupervisor(txCtx, c.ReportID, c.AuthorID)
		switch {
		case repository.IsNotFound(err):
			at := c.CreatedAt
			approval = &model.ReportApproval{
				ReportID:     c.ReportID,
				SupervisorID: c.AuthorID,
				Status:       model.ReportApprovalApproved,
				Required:     true,
				ApprovedAt:   &at,
				Rating:       c.Rating,
				Feedback:     c.Content,
			}
			if err := s.approvals.Create(txCtx, approval); err != nil {
				return err
			}
			outcome = "created"
		case err != nil:
			return err
		case approval.Status == model.ReportApprovalPending:
			ok, err := s.approvals.Approve(txCtx, approval.ID, *c.Rating, c.Content, c.CreatedAt)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			outcome = "updated"
		default:
			// the supervisor already has a review of record
			return nil
		}

		if err := s.comments.LinkApproval(txCtx, c.ID, approval.ID); err != nil {
			return err
		}

		// directory supervisors without a legacy rating still owe a review
		supervisors, err := s.directory.SupervisorsOf(txCtx, report.EmployeeID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(supervisors))
		for _, u := range supervisors {
			ids = append(ids, u.ID)
		}
		if seeded, err = s.approvals.EnsurePending(txCtx, report.ID, ids); err != nil {
			return err
		}

		all, err := s.approvals.ListByReport(txCtx, report.ID)
		if err != nil {
			return err
		}
		if status := DeriveStatus(all); status != report.Status {
			if _, err := s.reports.UpdateIfVersion(txCtx, report.ID, report.Version, map[string]interface{}{"status": status}); err != nil {
				return err
			}
		}

		return s.audit.Log(txCtx, &model.AuditLog{
			Action:     model.ActionBackfillReview,
			EntityID:   report.ID.String(),
			EntityName: report.ReportDate,
			Details:    fmt.Sprintf(`{"comment_id":%q,"approval_id":%q}`, c.ID, approval.ID),
		})
	})
	if err != nil {
		return "", 0, err
	}
	return outcome, seeded, nil
}
