package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportApproval status constants. The only legal transition is pending -> approved.
const (
	ReportApprovalPending  = "pending"
	ReportApprovalApproved = "approved"
)

// ReportApproval is one supervisor's independent review of a daily report.
// Rows are never deleted; supervisors dropped from the directory are kept with Required=false.
type ReportApproval struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_approval_report_supervisor" json:"report_id"`
	SupervisorID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_approval_report_supervisor;index" json:"supervisor_id"`
	Supervisor   *User      `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Required     bool       `gorm:"not null" json:"required"`
	ApprovedAt   *time.Time `json:"approved_at"`
	Rating       *int       `json:"rating"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (a *ReportApproval) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
