package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportStatus constants
const (
	ReportStatusPending  = "pending"
	ReportStatusReviewed = "reviewed"
)

// DailyReport is the submitted snapshot of one employee's work for one date.
// Version is bumped on every write and used as a compare-and-set guard.
type DailyReport struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_report_employee_date" json:"employee_id"`
	Employee    *User            `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	ReportDate  string           `gorm:"type:varchar(10);not null;uniqueIndex:idx_report_employee_date;index" json:"date"`
	Status      string           `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Version     int              `gorm:"not null;default:1" json:"version"`
	RatingScale int              `gorm:"not null" json:"rating_scale"`
	Unlocked    bool             `gorm:"default:false" json:"unlocked"` // set by Reopen, cleared by the next submission
	SubmittedAt time.Time        `json:"submitted_at"`
	Projects    []ReportProject  `gorm:"foreignKey:ReportID" json:"projects"`
	Approvals   []ReportApproval `gorm:"foreignKey:ReportID" json:"approvals"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (r *DailyReport) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// ReportProject is one consolidated project aggregate frozen at submission time.
type ReportProject struct {
	ID                    uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"-"`
	ReportID              uuid.UUID                     `gorm:"type:uuid;not null;index" json:"-"`
	Position              int                           `gorm:"not null" json:"-"`
	ProjectID             uuid.UUID                     `gorm:"type:uuid;not null" json:"project_id"`
	ProjectName           string                        `gorm:"type:varchar(255)" json:"project_name"`
	Content               string                        `gorm:"type:text" json:"content"`
	AIContent             *string                       `gorm:"type:text" json:"ai_content,omitempty"`
	RecordCount           int                           `json:"record_count"`
	TotalExecutionMinutes *int                          `json:"total_execution_time_minutes,omitempty"`
	Files                 datatypes.JSONType[[]FileRef] `json:"files"`
}

func (p *ReportProject) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
