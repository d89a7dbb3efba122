package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateRecord   = "CREATE_RECORD"
	ActionUpdateRecord   = "UPDATE_RECORD"
	ActionSubmitReport   = "SUBMIT_REPORT"
	ActionResubmitReport = "RESUBMIT_REPORT"
	ActionReviewReport   = "REVIEW_REPORT"
	ActionReopenReport   = "REOPEN_REPORT"
	ActionPostComment    = "POST_COMMENT"
	ActionBackfillReview = "BACKFILL_REVIEW"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:text" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
