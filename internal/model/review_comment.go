package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewComment is one message in a report's thread. Rating is only set on the
// comment written by a supervisor's review, and ApprovalID then points at that approval.
type ReviewComment struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"report_id"`
	AuthorID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Author          *User            `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content         string           `gorm:"type:text;not null" json:"content"`
	Rating          *int             `json:"rating"`
	ApprovalID      *uuid.UUID       `gorm:"type:uuid;index" json:"approval_id,omitempty"`
	ParentCommentID *uuid.UUID       `gorm:"type:uuid;index" json:"parent_comment_id"`
	CreatedAt       time.Time        `gorm:"index" json:"created_at"`
	Replies         []*ReviewComment `gorm:"-" json:"replies"`
}

func (c *ReviewComment) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// IsReview reports whether the comment is a formal review marker.
func (c *ReviewComment) IsReview() bool {
	return c.Rating != nil
}
