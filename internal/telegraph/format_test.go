package telegraph

import (
	"strings"
	"testing"

	"github.com/wheelsdeals/tireshop/internal/models"
)

func sampleQuote() models.Quote {
	amount := 649.5
	return models.Quote{
		ReferenceNumber:        "TS-20250304-1234",
		CustomerName:           "Ann Lee",
		CustomerEmail:          "ann@example.com",
		CustomerPhone:          "614-555-0100",
		ZipCode:                "43162",
		VehicleYear:            2020,
		VehicleMake:            "Honda",
		VehicleModel:           "Civic",
		VehicleTrim:            "EX",
		TireSize:               "215/55R16",
		Quantity:               4,
		InstallationRequired:   true,
		OilChange:              true,
		PreferredContactMethod: "email",
		QuoteAmount:            &amount,
	}
}

func fieldValue(evt FormattedEvent, name string) (string, bool) {
	for _, f := range evt.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func TestSeverityColor(t *testing.T) {
	tests := map[string]string{
		"success": ColorSuccess,
		"info":    ColorInfo,
		"warning": ColorWarning,
		"error":   ColorError,
		"bogus":   ColorInfo,
	}
	for sev, want := range tests {
		if got := severityColor(sev); got != want {
			t.Errorf("severityColor(%q) = %q, want %q", sev, got, want)
		}
	}
}

func TestFormatNewQuote(t *testing.T) {
	evt := FormatNewQuote(sampleQuote(), "https://shop.example.com/admin/quotes")

	if evt.Title != "New quote TS-20250304-1234" {
		t.Errorf("title = %q", evt.Title)
	}
	if !strings.Contains(evt.Body, "2020 Honda Civic EX") {
		t.Errorf("body missing vehicle: %q", evt.Body)
	}
	if !strings.Contains(evt.Body, "Services: installation, oil change") {
		t.Errorf("body missing services: %q", evt.Body)
	}
	if evt.URL != "https://shop.example.com/admin/quotes" {
		t.Errorf("url = %q", evt.URL)
	}
	if v, _ := fieldValue(evt, "Contact"); v != "ann@example.com" {
		t.Errorf("Contact = %q, want email", v)
	}
	if evt.Color != ColorInfo {
		t.Errorf("color = %q", evt.Color)
	}
}

func TestFormatNewQuote_PhoneContact(t *testing.T) {
	q := sampleQuote()
	q.PreferredContactMethod = "phone"
	q.InstallationRequired, q.OilChange = false, false
	evt := FormatNewQuote(q, "")
	if v, _ := fieldValue(evt, "Contact"); v != "614-555-0100" {
		t.Errorf("Contact = %q, want phone", v)
	}
	if strings.Contains(evt.Body, "Services") {
		t.Error("services line rendered with no services")
	}
}

func TestFormatNewAppointment(t *testing.T) {
	a := models.Appointment{
		CustomerName:    "Bo Diaz",
		CustomerEmail:   "bo@example.com",
		CustomerPhone:   "614-555-0101",
		AppointmentDate: "2025-03-04",
		AppointmentTime: "10:00 AM",
		VehicleInfo:     "2019 Toyota Camry",
	}
	evt := FormatNewAppointment(a, []string{"Oil Change", "Tire Rotation"})
	if evt.Title != "Appointment request from Bo Diaz" {
		t.Errorf("title = %q", evt.Title)
	}
	for _, want := range []string{"2025-03-04 at 10:00 AM", "Oil Change, Tire Rotation", "2019 Toyota Camry"} {
		if !strings.Contains(evt.Body, want) {
			t.Errorf("body missing %q: %q", want, evt.Body)
		}
	}
	if evt.Severity != "warning" {
		t.Errorf("severity = %q, want warning (needs a decision)", evt.Severity)
	}
}

func TestFormatAppointmentDecision(t *testing.T) {
	a := models.Appointment{
		CustomerName:    "Bo Diaz",
		AppointmentDate: "2025-03-04",
		AppointmentTime: "10:00 AM",
		Status:          models.AppointmentStatusApproved,
		DecidedBy:       "owner@example.com",
	}
	evt := FormatAppointmentDecision(a)
	if evt.Title != "Appointment 2025-03-04 approved" || evt.Color != ColorSuccess {
		t.Errorf("approved event = %q / %q", evt.Title, evt.Color)
	}
	if v, _ := fieldValue(evt, "By"); v != "owner@example.com" {
		t.Errorf("By = %q", v)
	}

	a.Status = models.AppointmentStatusDeclined
	a.SuggestedDate = "2025-03-05"
	a.SuggestedTime = "2:00 PM"
	evt = FormatAppointmentDecision(a)
	if evt.Title != "Appointment 2025-03-04 declined" {
		t.Errorf("declined title = %q", evt.Title)
	}
	if !strings.Contains(evt.Body, "Suggested: 2025-03-05 2:00 PM") {
		t.Errorf("body missing suggestion: %q", evt.Body)
	}
}

func TestFormatQuoteSent(t *testing.T) {
	evt := FormatQuoteSent(sampleQuote())
	if v, _ := fieldValue(evt, "Amount"); v != "$649.50" {
		t.Errorf("Amount = %q", v)
	}
	q := sampleQuote()
	q.QuoteAmount = nil
	if v, _ := fieldValue(FormatQuoteSent(q), "Amount"); v != "n/a" {
		t.Errorf("Amount without price = %q", v)
	}
}
