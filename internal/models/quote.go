package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quote statuses. Completed and declined are terminal.
const (
	QuoteStatusNew       = "new"
	QuoteStatusContacted = "contacted"
	QuoteStatusQuoted    = "quoted"
	QuoteStatusCompleted = "completed"
	QuoteStatusDeclined  = "declined"
)

// QuoteStatuses lists every quote status in lifecycle order.
var QuoteStatuses = []string{
	QuoteStatusNew,
	QuoteStatusContacted,
	QuoteStatusQuoted,
	QuoteStatusCompleted,
	QuoteStatusDeclined,
}

// Quote is a customer's tire-pricing request.
type Quote struct {
	ID                     string     `gorm:"primaryKey;size:36" json:"id"`
	ReferenceNumber        string     `gorm:"size:32;not null;uniqueIndex" json:"reference_number"`
	CustomerName           string     `gorm:"size:100;not null" json:"customer_name"`
	CustomerEmail          string     `gorm:"size:255;not null;index" json:"customer_email"`
	CustomerPhone          string     `gorm:"size:32;not null" json:"customer_phone"`
	ZipCode                string     `gorm:"size:5;not null" json:"zip_code"`
	VehicleYear            int        `gorm:"not null" json:"vehicle_year"`
	VehicleMake            string     `gorm:"size:50;not null" json:"vehicle_make"`
	VehicleModel           string     `gorm:"size:50;not null" json:"vehicle_model"`
	VehicleTrim            string     `gorm:"size:50;not null" json:"vehicle_trim"`
	TireSize               string     `gorm:"size:32;not null" json:"tire_size"`
	Quantity               int        `gorm:"not null;default:4" json:"quantity"`
	InstallationRequired   bool       `json:"installation_required"`
	WheelAlignment         bool       `json:"wheel_alignment"`
	OilChange              bool       `json:"oil_change"`
	PreferredContactMethod string     `gorm:"size:8;default:email" json:"preferred_contact_method"`
	BestContactTime        string     `gorm:"size:32" json:"best_contact_time"`
	AdditionalNotes        string     `gorm:"type:text" json:"additional_notes"`
	Status                 string     `gorm:"size:16;not null;default:new;index" json:"status"`
	QuoteAmount            *float64   `json:"quote_amount"`
	QuoteNotes             string     `gorm:"type:text" json:"quote_notes"`
	QuoteSentAt            *time.Time `json:"quote_sent_at"`
	CreatedAt              time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller has not set one.
func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}
