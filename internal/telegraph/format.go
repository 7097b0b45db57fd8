package telegraph

import (
	"fmt"
	"strings"

	"github.com/wheelsdeals/tireshop/internal/models"
)

// Color constants for event severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "info":
		return ColorInfo
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// FormatNewQuote formats a freshly submitted quote request.
func FormatNewQuote(q models.Quote, dashboardURL string) FormattedEvent {
	title := fmt.Sprintf("New quote %s", q.ReferenceNumber)

	bodyParts := []string{
		fmt.Sprintf("%d %s %s %s", q.VehicleYear, q.VehicleMake, q.VehicleModel, q.VehicleTrim),
		fmt.Sprintf("%d × %s", q.Quantity, q.TireSize),
	}
	var services []string
	if q.InstallationRequired {
		services = append(services, "installation")
	}
	if q.WheelAlignment {
		services = append(services, "alignment")
	}
	if q.OilChange {
		services = append(services, "oil change")
	}
	if len(services) > 0 {
		bodyParts = append(bodyParts, "Services: "+strings.Join(services, ", "))
	}

	fields := []Field{
		{Name: "Customer", Value: q.CustomerName, Short: true},
		{Name: "Contact", Value: contactValue(q), Short: true},
	}
	if q.ZipCode != "" {
		fields = append(fields, Field{Name: "ZIP", Value: q.ZipCode, Short: true})
	}
	if q.BestContactTime != "" {
		fields = append(fields, Field{Name: "Best time", Value: q.BestContactTime, Short: true})
	}

	return FormattedEvent{
		Title:    title,
		Body:     strings.Join(bodyParts, "\n"),
		Severity: "info",
		Color:    ColorInfo,
		URL:      dashboardURL,
		Fields:   fields,
	}
}

// contactValue returns the customer's preferred contact detail.
func contactValue(q models.Quote) string {
	if q.PreferredContactMethod == "phone" {
		return q.CustomerPhone
	}
	return q.CustomerEmail
}

// FormatNewAppointment formats a new appointment request. labels are the
// display names of the requested services.
func FormatNewAppointment(a models.Appointment, labels []string) FormattedEvent {
	title := fmt.Sprintf("Appointment request from %s", a.CustomerName)

	var bodyParts []string
	bodyParts = append(bodyParts, fmt.Sprintf("%s at %s", a.AppointmentDate, a.AppointmentTime))
	if len(labels) > 0 {
		bodyParts = append(bodyParts, strings.Join(labels, ", "))
	}
	if a.VehicleInfo != "" {
		bodyParts = append(bodyParts, a.VehicleInfo)
	}

	return FormattedEvent{
		Title:    title,
		Body:     strings.Join(bodyParts, "\n"),
		Severity: "warning",
		Color:    ColorWarning,
		Fields: []Field{
			{Name: "Phone", Value: a.CustomerPhone, Short: true},
			{Name: "Email", Value: a.CustomerEmail, Short: true},
		},
	}
}

// FormatAppointmentDecision formats a staff decision on an appointment.
func FormatAppointmentDecision(a models.Appointment) FormattedEvent {
	verb := "approved"
	severity := "success"
	if a.Status == models.AppointmentStatusDeclined {
		verb = "declined"
		severity = "info"
	}

	title := fmt.Sprintf("Appointment %s %s", a.AppointmentDate, verb)

	var bodyParts []string
	bodyParts = append(bodyParts, fmt.Sprintf("%s at %s", a.CustomerName, a.AppointmentTime))
	if a.AdminNotes != "" {
		bodyParts = append(bodyParts, a.AdminNotes)
	}
	if a.SuggestedDate != "" || a.SuggestedTime != "" {
		bodyParts = append(bodyParts, strings.TrimSpace(fmt.Sprintf("Suggested: %s %s", a.SuggestedDate, a.SuggestedTime)))
	}

	fields := []Field{
		{Name: "Status", Value: a.Status, Short: true},
	}
	if a.DecidedBy != "" {
		fields = append(fields, Field{Name: "By", Value: a.DecidedBy, Short: true})
	}

	return FormattedEvent{
		Title:    title,
		Body:     strings.Join(bodyParts, "\n"),
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
}

// FormatQuoteSent formats a priced quote going out to a customer.
func FormatQuoteSent(q models.Quote) FormattedEvent {
	amount := "n/a"
	if q.QuoteAmount != nil {
		amount = fmt.Sprintf("$%.2f", *q.QuoteAmount)
	}
	return FormattedEvent{
		Title:    fmt.Sprintf("Quote %s sent", q.ReferenceNumber),
		Body:     fmt.Sprintf("%s: %s", q.CustomerName, amount),
		Severity: "success",
		Color:    ColorSuccess,
		Fields: []Field{
			{Name: "Amount", Value: amount, Short: true},
			{Name: "Email", Value: q.CustomerEmail, Short: true},
		},
	}
}
