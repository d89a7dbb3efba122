package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants
const (
	RoleEmployee   = "employee"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// User is both the login identity and the employee directory entry
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeNo string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"employee_no"`
	Name       string         `gorm:"type:varchar(255);not null;index" json:"name"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Department string         `gorm:"type:varchar(100)" json:"department"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"`   // bcrypt hash
	Role       string         `gorm:"type:varchar(50);not null" json:"role"` // employee, supervisor, admin
	IsActive   bool           `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// SupervisorLink grants SupervisorID review authority over EmployeeID.
// An employee may have several supervisors.
type SupervisorLink struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SupervisorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_supervisor_employee" json:"supervisor_id"`
	Supervisor   *User     `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_supervisor_employee;index" json:"employee_id"`
	Employee     *User     `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (l *SupervisorLink) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}
