package quote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/wheelsdeals/tireshop/internal/models"
	"github.com/wheelsdeals/tireshop/internal/notify"
	"github.com/wheelsdeals/tireshop/internal/telegraph"
	"github.com/wheelsdeals/tireshop/internal/validate"
	"gorm.io/gorm"
)

// forwardRank orders the non-declined statuses. Moves may skip ahead but
// never go back.
var forwardRank = map[string]int{
	models.QuoteStatusNew:       0,
	models.QuoteStatusContacted: 1,
	models.QuoteStatusQuoted:    2,
	models.QuoteStatusCompleted: 3,
}

// ValidStatus reports whether status is a known quote status.
func ValidStatus(status string) bool {
	return slices.Contains(models.QuoteStatuses, status)
}

// IsTerminal reports whether no further transitions leave status.
func IsTerminal(status string) bool {
	return status == models.QuoteStatusCompleted || status == models.QuoteStatusDeclined
}

// CanTransition reports whether a quote may move from one status to another.
// Keeping the same status is always allowed so amount and notes stay editable.
func CanTransition(from, to string) bool {
	if !ValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	if IsTerminal(from) {
		return false
	}
	if to == models.QuoteStatusDeclined {
		return true
	}
	return forwardRank[to] > forwardRank[from]
}

// Filter narrows List. Search matches reference number, name or email as a
// case-insensitive substring; Status must match exactly.
type Filter struct {
	Search string
	Status string
}

// List returns quotes matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Quote, error) {
	q := s.db.WithContext(ctx).Model(&models.Quote{})

	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		if s.db.Dialector.Name() == "postgres" {
			q = q.Where("reference_number ILIKE ? OR customer_name ILIKE ? OR customer_email ILIKE ?", like, like, like)
		} else {
			q = q.Where("LOWER(reference_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ?", like, like, like)
		}
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var quotes []models.Quote
	if err := q.Order("created_at DESC").Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("quote: list: %w", err)
	}
	return quotes, nil
}

// Get retrieves a quote by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Quote, error) {
	var q models.Quote
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("quote: get %s: %w", id, err)
	}
	return &q, nil
}

// UpdateOpts holds the staff-editable fields. Nil fields are left unchanged.
type UpdateOpts struct {
	Status *string  `json:"status"`
	Amount *float64 `json:"quote_amount" validate:"omitempty,min=0,max=1000000"`
	Notes  *string  `json:"quote_notes" validate:"omitempty,max=1000"`
}

// Update applies opts to a quote. Status changes are checked with CanTransition.
func (s *Service) Update(ctx context.Context, id string, opts UpdateOpts) (*models.Quote, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if opts.Status != nil && *opts.Status != q.Status {
		if !CanTransition(q.Status, *opts.Status) {
			return nil, fmt.Errorf("%w: from %q to %q", ErrInvalidTransition, q.Status, *opts.Status)
		}
		updates["status"] = *opts.Status
	}
	if opts.Amount != nil {
		updates["quote_amount"] = *opts.Amount
	}
	if opts.Notes != nil {
		updates["quote_notes"] = strings.TrimSpace(*opts.Notes)
	}
	if len(updates) == 0 {
		return q, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Quote{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("quote: update %s: %w", id, err)
	}
	return s.Get(ctx, id)
}

// SendOpts carries the amount and notes from the staff editor. Nil fields
// fall back to the stored values.
type SendOpts struct {
	Amount *float64 `json:"quote_amount" validate:"omitempty,min=0,max=1000000"`
	Notes  *string  `json:"quote_notes" validate:"omitempty,max=1000"`
}

// Send emails the priced quote to the customer. The editor's amount and notes
// are saved first; the status becomes quoted only once the email is accepted.
// A failed send leaves the status untouched and returns the error.
func (s *Service) Send(ctx context.Context, id string, opts SendOpts) (*models.Quote, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(q.Status) {
		return nil, fmt.Errorf("%w: cannot send a %s quote", ErrInvalidTransition, q.Status)
	}

	amount := q.QuoteAmount
	if opts.Amount != nil {
		amount = opts.Amount
	}
	if amount == nil {
		return nil, ErrAmountRequired
	}
	notes := q.QuoteNotes
	if opts.Notes != nil {
		notes = strings.TrimSpace(*opts.Notes)
	}
	if s.notifier == nil {
		return nil, ErrNoNotifier
	}

	if err := s.db.WithContext(ctx).Model(&models.Quote{}).Where("id = ?", id).
		Updates(map[string]interface{}{"quote_amount": *amount, "quote_notes": notes}).Error; err != nil {
		return nil, fmt.Errorf("quote: save amount for %s: %w", id, err)
	}

	installation, alignment, oil := q.InstallationRequired, q.WheelAlignment, q.OilChange
	err = s.notifier.Invoke(ctx, notify.FuncCustomerQuote, notify.CustomerQuote{
		CustomerName:    q.CustomerName,
		CustomerEmail:   q.CustomerEmail,
		ReferenceNumber: q.ReferenceNumber,
		VehicleYear:     q.VehicleYear,
		VehicleMake:     q.VehicleMake,
		VehicleModel:    q.VehicleModel,
		VehicleTrim:     q.VehicleTrim,
		TireSize:        q.TireSize,
		Quantity:        q.Quantity,
		Installation:    &installation,
		WheelAlignment:  &alignment,
		OilChange:       &oil,
		QuoteAmount:     amount,
		QuoteNotes:      notes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSendFailed, q.ReferenceNumber, err)
	}

	sentAt := s.now()
	if err := s.db.WithContext(ctx).Model(&models.Quote{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.QuoteStatusQuoted, "quote_sent_at": sentAt}).Error; err != nil {
		return nil, fmt.Errorf("quote: mark %s quoted: %w", id, err)
	}

	sent, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.alerter.Go(ctx, telegraph.FormatQuoteSent(*sent))
	return sent, nil
}

// Counts returns the number of quotes in each status, including zeroes.
func (s *Service) Counts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Quote{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("quote: counts: %w", err)
	}
	counts := make(map[string]int64, len(models.QuoteStatuses))
	for _, st := range models.QuoteStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// ExportRow is one CSV line of the staff export.
type ExportRow struct {
	Reference   string `csv:"reference_number"`
	CreatedAt   string `csv:"created_at"`
	Status      string `csv:"status"`
	Customer    string `csv:"customer_name"`
	Email       string `csv:"customer_email"`
	Phone       string `csv:"customer_phone"`
	Zip         string `csv:"zip_code"`
	Vehicle     string `csv:"vehicle"`
	TireSize    string `csv:"tire_size"`
	Quantity    int    `csv:"quantity"`
	Services    string `csv:"services"`
	Contact     string `csv:"preferred_contact"`
	Amount      string `csv:"quote_amount"`
	QuoteSentAt string `csv:"quote_sent_at"`
}

// ExportRows converts quotes to CSV rows.
func ExportRows(quotes []models.Quote) []*ExportRow {
	rows := make([]*ExportRow, 0, len(quotes))
	for _, q := range quotes {
		row := &ExportRow{
			Reference: q.ReferenceNumber,
			CreatedAt: q.CreatedAt.UTC().Format(time.RFC3339),
			Status:    q.Status,
			Customer:  q.CustomerName,
			Email:     q.CustomerEmail,
			Phone:     q.CustomerPhone,
			Zip:       q.ZipCode,
			Vehicle:   strings.TrimSpace(fmt.Sprintf("%d %s %s %s", q.VehicleYear, q.VehicleMake, q.VehicleModel, q.VehicleTrim)),
			TireSize:  q.TireSize,
			Quantity:  q.Quantity,
			Services:  strings.Join(notify.ServiceLabels(q.InstallationRequired, q.WheelAlignment, q.OilChange), "; "),
			Contact:   q.PreferredContactMethod,
		}
		if q.QuoteAmount != nil {
			row.Amount = fmt.Sprintf("%.2f", *q.QuoteAmount)
		}
		if q.QuoteSentAt != nil {
			row.QuoteSentAt = q.QuoteSentAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes quotes as CSV with a header row.
func WriteCSV(w io.Writer, quotes []models.Quote) error {
	if err := gocsv.Marshal(ExportRows(quotes), w); err != nil {
		return fmt.Errorf("quote: export csv: %w", err)
	}
	return nil
}
