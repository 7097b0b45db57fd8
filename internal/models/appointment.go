package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment statuses. A decision moves pending to approved or declined once.
const (
	AppointmentStatusPending  = "pending"
	AppointmentStatusApproved = "approved"
	AppointmentStatusDeclined = "declined"
)

// Appointment is a customer's service-booking request.
type Appointment struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	CustomerName    string     `gorm:"size:100;not null" json:"customer_name"`
	CustomerEmail   string     `gorm:"size:255;not null;index" json:"customer_email"`
	CustomerPhone   string     `gorm:"size:32;not null" json:"customer_phone"`
	AppointmentDate string     `gorm:"size:10;not null;index" json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string     `gorm:"size:16;not null" json:"appointment_time"`
	Services        []string   `gorm:"serializer:json;type:text" json:"services"`
	VehicleInfo     string     `gorm:"size:200" json:"vehicle_info"`
	AdditionalNotes string     `gorm:"type:text" json:"additional_notes"`
	Status          string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	AdminNotes      string     `gorm:"type:text" json:"admin_notes"`
	SuggestedDate   string     `gorm:"size:10" json:"suggested_date,omitempty"`
	SuggestedTime   string     `gorm:"size:16" json:"suggested_time,omitempty"`
	DecidedBy       string     `gorm:"size:255" json:"decided_by,omitempty"`
	DecidedAt       *time.Time `json:"decided_at"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller has not set one.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
