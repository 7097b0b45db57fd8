package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Staff is a shop employee who can sign in to the admin API.
type Staff struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	Name         string `gorm:"size:100"`
	PasswordHash string `gorm:"size:72;not null"`
	Role         string `gorm:"size:16;not null;default:staff"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BeforeCreate assigns a UUID when the caller has not set one.
func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// TableName overrides the default pluralized table name.
func (Staff) TableName() string { return "staff_users" }
