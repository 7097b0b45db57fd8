package notify

import (
	"context"
	"errors"
	"fmt"
)

// AppointmentNotification tells staff about a new appointment request.
// Services carries display labels, not catalog ids.
type AppointmentNotification struct {
	CustomerName    string   `json:"customerName" validate:"required,max=100"`
	CustomerEmail   string   `json:"customerEmail" validate:"required,email,max=255"`
	CustomerPhone   string   `json:"customerPhone" validate:"required,max=30"`
	AppointmentDate string   `json:"appointmentDate" validate:"required,isodate"`
	AppointmentTime string   `json:"appointmentTime" validate:"required,max=20"`
	Services        []string `json:"services" validate:"min=1,max=10,dive,required,max=100"`
	VehicleInfo     string   `json:"vehicleInfo,omitempty" validate:"max=200"`
	AdditionalNotes string   `json:"additionalNotes,omitempty" validate:"max=1000"`
}

func (p *AppointmentNotification) normalize() {
	trimAll(&p.CustomerName, &p.CustomerEmail, &p.CustomerPhone, &p.AppointmentDate,
		&p.AppointmentTime, &p.VehicleInfo, &p.AdditionalNotes)
	trimSlice(p.Services)
}

// Appointment status values accepted by send-appointment-status.
const (
	StatusApproved = "approved"
	StatusDeclined = "declined"
)

// AppointmentStatus tells a customer their request was approved or declined.
// A decline may suggest an alternative date and time.
type AppointmentStatus struct {
	CustomerName    string   `json:"customerName" validate:"required,max=100"`
	CustomerEmail   string   `json:"customerEmail" validate:"required,email,max=255"`
	AppointmentDate string   `json:"appointmentDate" validate:"required,isodate"`
	AppointmentTime string   `json:"appointmentTime" validate:"required,max=20"`
	Services        []string `json:"services" validate:"min=1,max=10,dive,required,max=100"`
	Status          string   `json:"status" validate:"required,oneof=approved declined"`
	AdminNotes      string   `json:"adminNotes,omitempty" validate:"max=1000"`
	SuggestedDate   string   `json:"suggestedDate,omitempty" validate:"omitempty,isodate"`
	SuggestedTime   string   `json:"suggestedTime,omitempty" validate:"max=20"`
}

func (p *AppointmentStatus) normalize() {
	trimAll(&p.CustomerName, &p.CustomerEmail, &p.AppointmentDate, &p.AppointmentTime,
		&p.Status, &p.AdminNotes, &p.SuggestedDate, &p.SuggestedTime)
	trimSlice(p.Services)
}

// QuoteEmail confirms a quote request to the customer and copies staff.
type QuoteEmail struct {
	CustomerName    string `json:"customerName" validate:"required,max=100"`
	CustomerEmail   string `json:"customerEmail" validate:"required,email,max=255"`
	ReferenceNumber string `json:"referenceNumber" validate:"required,max=50"`
	VehicleYear     int    `json:"vehicleYear" validate:"min=1900,max=2100"`
	VehicleMake     string `json:"vehicleMake" validate:"required,max=50"`
	VehicleModel    string `json:"vehicleModel" validate:"required,max=50"`
	VehicleTrim     string `json:"vehicleTrim" validate:"required,max=50"`
	TireSize        string `json:"tireSize" validate:"required,max=50"`
	Quantity        int    `json:"quantity" validate:"min=1,max=10"`
	Installation    bool   `json:"installation"`
	WheelAlignment  bool   `json:"wheelAlignment"`
	OilChange       bool   `json:"oilChange"`
}

func (p *QuoteEmail) normalize() {
	trimAll(&p.CustomerName, &p.CustomerEmail, &p.ReferenceNumber, &p.VehicleMake,
		&p.VehicleModel, &p.VehicleTrim, &p.TireSize)
}

// CustomerQuote delivers a priced quote. The service flags are required so a
// quote never silently drops a line item.
type CustomerQuote struct {
	CustomerName    string   `json:"customerName" validate:"required,max=100"`
	CustomerEmail   string   `json:"customerEmail" validate:"required,email,max=255"`
	ReferenceNumber string   `json:"referenceNumber" validate:"required,max=50"`
	VehicleYear     int      `json:"vehicleYear" validate:"min=1900,max=2100"`
	VehicleMake     string   `json:"vehicleMake" validate:"required,max=50"`
	VehicleModel    string   `json:"vehicleModel" validate:"required,max=50"`
	VehicleTrim     string   `json:"vehicleTrim" validate:"required,max=50"`
	TireSize        string   `json:"tireSize" validate:"required,max=50"`
	Quantity        int      `json:"quantity" validate:"min=1,max=10"`
	Installation    *bool    `json:"installation" validate:"required"`
	WheelAlignment  *bool    `json:"wheelAlignment" validate:"required"`
	OilChange       *bool    `json:"oilChange" validate:"required"`
	QuoteAmount     *float64 `json:"quoteAmount" validate:"required,min=0,max=1000000"`
	QuoteNotes      string   `json:"quoteNotes,omitempty" validate:"max=1000"`
}

func (p *CustomerQuote) normalize() {
	trimAll(&p.CustomerName, &p.CustomerEmail, &p.ReferenceNumber, &p.VehicleMake,
		&p.VehicleModel, &p.VehicleTrim, &p.TireSize, &p.QuoteNotes)
}

type shopView struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func (s *Service) shopView() shopView {
	return shopView{Name: s.shop.Name, Phone: s.shop.Phone, Email: s.shop.Email, Address: s.shop.Address}
}

func (s *Service) sendAppointmentNotification(ctx context.Context, p *AppointmentNotification) error {
	if s.shop.StaffEmail == "" {
		return errors.New("staff email is not configured")
	}
	return s.send(ctx, s.shop.StaffEmail, "New Appointment Request", "appointment_notification.html", struct {
		Shop         shopView
		DashboardURL string
		*AppointmentNotification
	}{s.shopView(), s.shop.DashboardURL, p})
}

func (s *Service) sendAppointmentStatus(ctx context.Context, p *AppointmentStatus) error {
	approved := p.Status == StatusApproved
	subject := "Update on Your Appointment Request"
	if approved {
		subject = "Your Appointment is Confirmed!"
	}
	return s.send(ctx, p.CustomerEmail, subject, "appointment_status.html", struct {
		Shop          shopView
		Approved      bool
		HasSuggestion bool
		*AppointmentStatus
	}{s.shopView(), approved, !approved && (p.SuggestedDate != "" || p.SuggestedTime != ""), p})
}

func (s *Service) sendQuoteEmail(ctx context.Context, p *QuoteEmail) error {
	data := struct {
		Shop         shopView
		DashboardURL string
		Services     []string
		*QuoteEmail
	}{s.shopView(), s.shop.DashboardURL, ServiceLabels(p.Installation, p.WheelAlignment, p.OilChange), p}

	if err := s.send(ctx, p.CustomerEmail, "Quote Request Received - "+p.ReferenceNumber, "quote_received.html", data); err != nil {
		return err
	}
	if s.shop.StaffEmail == "" {
		return nil
	}
	if err := s.send(ctx, s.shop.StaffEmail, "New Quote Request - "+p.ReferenceNumber, "quote_staff.html", data); err != nil {
		return fmt.Errorf("staff copy: %w", err)
	}
	return nil
}

func (s *Service) sendCustomerQuote(ctx context.Context, p *CustomerQuote) error {
	return s.send(ctx, p.CustomerEmail, "Your Quote is Ready - "+p.ReferenceNumber, "customer_quote.html", struct {
		Shop     shopView
		Services []string
		Amount   float64
		*CustomerQuote
	}{s.shopView(), ServiceLabels(*p.Installation, *p.WheelAlignment, *p.OilChange), *p.QuoteAmount, p})
}
