package telegraph

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wheelsdeals/tireshop/internal/models"
	"gorm.io/gorm"
)

// DailyReport holds lead metrics for a 24-hour period plus the current backlog.
type DailyReport struct {
	PeriodStart           time.Time
	PeriodEnd             time.Time
	QuotesCreated         int
	QuotesSent            int
	QuotedValue           float64
	AvgResponse           time.Duration // created to sent, for quotes sent in the period
	QuotesOpen            int           // new or contacted, regardless of age
	AppointmentsRequested int
	AppointmentsPending   int
	Today                 []TodayAppointment
}

// TodayAppointment is an approved appointment on the digest day.
type TodayAppointment struct {
	Time     string
	Customer string
	Services int
}

// Empty reports whether there is nothing worth posting.
func (r *DailyReport) Empty() bool {
	return r.QuotesCreated == 0 && r.QuotesSent == 0 && r.QuotesOpen == 0 &&
		r.AppointmentsRequested == 0 && r.AppointmentsPending == 0 && len(r.Today) == 0
}

// BuildDailyReport queries quotes and appointments within [since, until).
// day is the YYYY-MM-DD date whose approved appointments are listed.
func BuildDailyReport(db *gorm.DB, since, until time.Time, day string) (*DailyReport, error) {
	report := &DailyReport{
		PeriodStart: since,
		PeriodEnd:   until,
	}

	var n int64
	if err := db.Model(&models.Quote{}).
		Where("created_at >= ? AND created_at < ?", since, until).
		Count(&n).Error; err != nil {
		return nil, fmt.Errorf("telegraph: count new quotes: %w", err)
	}
	report.QuotesCreated = int(n)

	// Quotes sent in range, with response time computed in Go for
	// portability across SQLite and MySQL/Postgres.
	var sentRows []struct {
		CreatedAt   time.Time
		QuoteSentAt time.Time
		QuoteAmount *float64
	}
	if err := db.Model(&models.Quote{}).
		Where("quote_sent_at IS NOT NULL AND quote_sent_at >= ? AND quote_sent_at < ?", since, until).
		Select("created_at, quote_sent_at, quote_amount").
		Find(&sentRows).Error; err != nil {
		return nil, fmt.Errorf("telegraph: sent quotes: %w", err)
	}
	report.QuotesSent = len(sentRows)
	if len(sentRows) > 0 {
		var totalSec float64
		for _, row := range sentRows {
			totalSec += row.QuoteSentAt.Sub(row.CreatedAt).Seconds()
			if row.QuoteAmount != nil {
				report.QuotedValue += *row.QuoteAmount
			}
		}
		report.AvgResponse = time.Duration(totalSec/float64(len(sentRows))) * time.Second
	}

	n = 0
	if err := db.Model(&models.Quote{}).
		Where("status IN ?", []string{models.QuoteStatusNew, models.QuoteStatusContacted}).
		Count(&n).Error; err != nil {
		return nil, fmt.Errorf("telegraph: count open quotes: %w", err)
	}
	report.QuotesOpen = int(n)

	n = 0
	if err := db.Model(&models.Appointment{}).
		Where("created_at >= ? AND created_at < ?", since, until).
		Count(&n).Error; err != nil {
		return nil, fmt.Errorf("telegraph: count new appointments: %w", err)
	}
	report.AppointmentsRequested = int(n)

	n = 0
	if err := db.Model(&models.Appointment{}).
		Where("status = ?", models.AppointmentStatusPending).
		Count(&n).Error; err != nil {
		return nil, fmt.Errorf("telegraph: count pending appointments: %w", err)
	}
	report.AppointmentsPending = int(n)

	var today []models.Appointment
	if err := db.Where("status = ? AND appointment_date = ?", models.AppointmentStatusApproved, day).
		Order("created_at").
		Find(&today).Error; err != nil {
		return nil, fmt.Errorf("telegraph: today's appointments: %w", err)
	}
	for _, a := range today {
		report.Today = append(report.Today, TodayAppointment{
			Time:     a.AppointmentTime,
			Customer: a.CustomerName,
			Services: len(a.Services),
		})
	}
	sortByClock(report.Today)

	return report, nil
}

// sortByClock orders appointments by their slot time ("8:00 AM" before "1:00 PM").
func sortByClock(appts []TodayAppointment) {
	key := func(s string) int {
		t, err := time.Parse("3:04 PM", s)
		if err != nil {
			return 24 * 60
		}
		return t.Hour()*60 + t.Minute()
	}
	sort.SliceStable(appts, func(i, j int) bool {
		return key(appts[i].Time) < key(appts[j].Time)
	})
}

// FormatDaily formats a daily digest report as a FormattedEvent.
func FormatDaily(report *DailyReport) FormattedEvent {
	var bodyLines []string
	bodyLines = append(bodyLines, fmt.Sprintf("**Period**: %s – %s",
		report.PeriodStart.Format("Jan 2 15:04"),
		report.PeriodEnd.Format("Jan 2 15:04")))
	bodyLines = append(bodyLines, fmt.Sprintf("**Quotes**: %d requested, %d sent, %d awaiting follow-up",
		report.QuotesCreated, report.QuotesSent, report.QuotesOpen))
	if report.QuotesSent > 0 {
		bodyLines = append(bodyLines, fmt.Sprintf("**Quoted**: $%.2f (avg response %s)",
			report.QuotedValue, formatDuration(report.AvgResponse)))
	}
	bodyLines = append(bodyLines, fmt.Sprintf("**Appointments**: %d requested, %d pending decision",
		report.AppointmentsRequested, report.AppointmentsPending))

	if len(report.Today) > 0 {
		bodyLines = append(bodyLines, "")
		bodyLines = append(bodyLines, "**Today**:")
		for _, a := range report.Today {
			bodyLines = append(bodyLines, fmt.Sprintf("  %s %s (%d services)", a.Time, a.Customer, a.Services))
		}
	}

	fields := []Field{
		{Name: "New Quotes", Value: fmt.Sprintf("%d", report.QuotesCreated), Short: true},
		{Name: "Sent", Value: fmt.Sprintf("%d", report.QuotesSent), Short: true},
		{Name: "Open", Value: fmt.Sprintf("%d", report.QuotesOpen), Short: true},
		{Name: "Pending Appts", Value: fmt.Sprintf("%d", report.AppointmentsPending), Short: true},
	}

	severity := "info"
	if report.AppointmentsPending > 0 || report.QuotesOpen > 0 {
		severity = "warning"
	}

	return FormattedEvent{
		Title:    "Daily Digest",
		Body:     strings.Join(bodyLines, "\n"),
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		days := h / 24
		h = h % 24
		return fmt.Sprintf("%dd %dh", days, h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
