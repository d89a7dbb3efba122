package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is reference data; projects are created and retired outside this service.
type Project struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code       string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Department string    `gorm:"type:varchar(100);index" json:"department"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
