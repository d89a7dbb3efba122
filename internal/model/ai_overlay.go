package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AIOverlay stores the AI-polished text of one (employee, project, date) aggregate.
// It is never consulted by consolidation itself.
type AIOverlay struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_overlay_key" json:"employee_id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_overlay_key" json:"project_id"`
	WorkDate   string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_overlay_key" json:"work_date"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (o *AIOverlay) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}
