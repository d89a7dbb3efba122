package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkRecord is one discrete work note logged by an employee against a project.
// WorkDate is the local calendar day (YYYY-MM-DD) the record counts towards.
type WorkRecord struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_record_employee_date" json:"employee_id"`
	WorkDate             string           `gorm:"type:varchar(10);not null;index:idx_record_employee_date" json:"work_date"`
	ProjectID            uuid.UUID        `gorm:"type:uuid;not null;index" json:"project_id"`
	Project              *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Content              string           `gorm:"type:text;not null" json:"content"`
	ExecutionTimeMinutes *int             `json:"execution_time_minutes,omitempty"`
	Files                []FileAttachment `gorm:"foreignKey:WorkRecordID" json:"files"`
	CreatedAt            time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func (r *WorkRecord) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// FileAttachment references an uploaded file; the bytes live in the file store.
type FileAttachment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkRecordID    uuid.UUID `gorm:"type:uuid;not null;index" json:"work_record_id"`
	Position        int       `gorm:"not null;default:0" json:"-"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	MediaType       string    `gorm:"type:varchar(255)" json:"type"`
	Size            int64     `json:"size"`
	URL             string    `gorm:"type:text;not null" json:"url"`
	IsSelectedForAI bool      `gorm:"default:false" json:"is_selected_for_ai"`
}

func (f *FileAttachment) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}

// Ref converts the attachment into its snapshot form.
func (f FileAttachment) Ref() FileRef {
	return FileRef{
		Name:            f.Name,
		MediaType:       f.MediaType,
		Size:            f.Size,
		URL:             f.URL,
		IsSelectedForAI: f.IsSelectedForAI,
	}
}

// FileRef is the value form of a file used in consolidated reports and snapshots.
type FileRef struct {
	Name            string `json:"name"`
	MediaType       string `json:"type"`
	Size            int64  `json:"size"`
	URL             string `json:"url"`
	IsSelectedForAI bool   `json:"is_selected_for_ai"`
}
