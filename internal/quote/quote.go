// Package quote runs the quote-request pipeline and the staff operations on
// stored quotes.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/wheelsdeals/tireshop/internal/models"
	"github.com/wheelsdeals/tireshop/internal/notify"
	"github.com/wheelsdeals/tireshop/internal/telegraph"
	"github.com/wheelsdeals/tireshop/internal/validate"
	"github.com/wheelsdeals/tireshop/internal/vehicle"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultQuantity is the tire count assumed when a request omits it.
const DefaultQuantity = 4

// maxReferenceAttempts bounds reference-number regeneration on collision.
const maxReferenceAttempts = 5

var (
	ErrNotFound          = errors.New("quote: not found")
	ErrInvalidTransition = errors.New("quote: invalid status transition")
	ErrAmountRequired    = errors.New("quote: amount is required to send a quote")
	ErrNoNotifier        = errors.New("quote: no notifier configured")
	ErrSendFailed        = errors.New("quote: send failed")
)

// Request is a customer's quote submission.
type Request struct {
	FullName         string            `json:"fullName" validate:"required,min=2,max=50"`
	Email            string            `json:"email" validate:"required,email,max=255"`
	Phone            string            `json:"phone" validate:"required,naphone"`
	ZipCode          string            `json:"zipCode" validate:"required,zip5"`
	PreferredContact string            `json:"preferredContact" validate:"required,oneof=email phone"`
	BestTime         string            `json:"bestTime" validate:"max=32"`
	Quantity         *int              `json:"quantity" validate:"omitempty,min=1,max=8"`
	Installation     *bool             `json:"installation"`
	WheelAlignment   bool              `json:"wheelAlignment"`
	OilChange        bool              `json:"oilChange"`
	Notes            string            `json:"notes" validate:"max=1000"`
	AcceptTerms      bool              `json:"acceptTerms" validate:"eq=true"`
	Vehicle          vehicle.Selection `json:"vehicle"`
	TireSize         string            `json:"tireSize" validate:"required,max=32"`
}

func (r *Request) normalize() {
	for _, s := range []*string{&r.FullName, &r.Email, &r.Phone, &r.ZipCode, &r.PreferredContact,
		&r.BestTime, &r.Notes, &r.TireSize, &r.Vehicle.Year, &r.Vehicle.Make, &r.Vehicle.Model, &r.Vehicle.Trim} {
		*s = strings.TrimSpace(*s)
	}
	if r.PreferredContact == "" {
		r.PreferredContact = "email"
	}
}

// Validate normalizes r and checks every field.
func (r *Request) Validate() error {
	r.normalize()
	return validate.Struct(r)
}

// NewReferenceNumber builds PREFIX-YYYYMMDD-RRRR from the UTC date of now and
// a four-digit suffix in 1000..9999. randN returns a value in [0, n).
func NewReferenceNumber(prefix string, now time.Time, randN func(n int) int) string {
	return fmt.Sprintf("%s-%s-%d", prefix, now.UTC().Format("20060102"), 1000+randN(9000))
}

// Outcome separates the durable write from the best-effort notification.
type Outcome struct {
	Persisted bool `json:"persisted"`
	Notified  bool `json:"notified"`
}

// Result is what Submit returns on a successful insert.
type Result struct {
	Quote models.Quote `json:"quote"`
	Outcome
}

// Options configures a Service.
type Options struct {
	DB           *gorm.DB
	Notifier     notify.Invoker     // nil disables email
	Alerter      *telegraph.Alerter // nil disables chat alerts
	Prefix       string             // reference number prefix, e.g. "TS"
	DashboardURL string
	Now          func() time.Time
	Rand         func(n int) int
}

// Service runs quote operations against the database.
type Service struct {
	db           *gorm.DB
	notifier     notify.Invoker
	alerter      *telegraph.Alerter
	prefix       string
	dashboardURL string
	now          func() time.Time
	randN        func(n int) int
}

// NewService creates a Service, filling clock and randomness defaults.
func NewService(opts Options) *Service {
	s := &Service{
		db:           opts.DB,
		notifier:     opts.Notifier,
		alerter:      opts.Alerter,
		prefix:       opts.Prefix,
		dashboardURL: opts.DashboardURL,
		now:          opts.Now,
		randN:        opts.Rand,
	}
	if s.prefix == "" {
		s.prefix = "TS"
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.randN == nil {
		s.randN = rand.IntN
	}
	return s
}

// Submit validates req, stores it as a new quote and then sends the
// confirmation email. An insert failure aborts before any email; an email
// failure is logged and reported through Outcome.Notified only.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	quantity := DefaultQuantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	installation := true
	if req.Installation != nil {
		installation = *req.Installation
	}

	q := models.Quote{
		CustomerName:           req.FullName,
		CustomerEmail:          req.Email,
		CustomerPhone:          req.Phone,
		ZipCode:                req.ZipCode,
		VehicleYear:            req.Vehicle.YearInt(),
		VehicleMake:            req.Vehicle.Make,
		VehicleModel:           req.Vehicle.Model,
		VehicleTrim:            req.Vehicle.Trim,
		TireSize:               req.TireSize,
		Quantity:               quantity,
		InstallationRequired:   installation,
		WheelAlignment:         req.WheelAlignment,
		OilChange:              req.OilChange,
		PreferredContactMethod: req.PreferredContact,
		BestContactTime:        req.BestTime,
		AdditionalNotes:        req.Notes,
		Status:                 models.QuoteStatusNew,
	}
	if err := s.insert(ctx, &q); err != nil {
		return nil, err
	}

	res := &Result{Quote: q, Outcome: Outcome{Persisted: true}}
	res.Notified = s.sendConfirmation(ctx, q)
	s.alerter.Go(ctx, telegraph.FormatNewQuote(q, s.dashboardURL))
	return res, nil
}

// insert stores q under a fresh reference number, regenerating on collision.
func (s *Service) insert(ctx context.Context, q *models.Quote) error {
	db := s.db.WithContext(ctx)
	for range maxReferenceAttempts {
		ref := NewReferenceNumber(s.prefix, s.now(), s.randN)
		var count int64
		if err := db.Model(&models.Quote{}).Where("reference_number = ?", ref).Count(&count).Error; err != nil {
			return fmt.Errorf("quote: check reference uniqueness: %w", err)
		}
		if count > 0 {
			continue
		}
		q.ID = ""
		q.ReferenceNumber = ref
		err := db.Create(q).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("quote: insert: %w", err)
		}
		return nil
	}
	return fmt.Errorf("quote: failed to generate unique reference number after %d attempts", maxReferenceAttempts)
}

func (s *Service) sendConfirmation(ctx context.Context, q models.Quote) bool {
	if s.notifier == nil {
		return false
	}
	err := s.notifier.Invoke(ctx, notify.FuncQuoteEmail, notify.QuoteEmail{
		CustomerName:    q.CustomerName,
		CustomerEmail:   q.CustomerEmail,
		ReferenceNumber: q.ReferenceNumber,
		VehicleYear:     q.VehicleYear,
		VehicleMake:     q.VehicleMake,
		VehicleModel:    q.VehicleModel,
		VehicleTrim:     q.VehicleTrim,
		TireSize:        q.TireSize,
		Quantity:        q.Quantity,
		Installation:    q.InstallationRequired,
		WheelAlignment:  q.WheelAlignment,
		OilChange:       q.OilChange,
	})
	if err != nil {
		zap.L().Warn("quote confirmation email failed",
			zap.String("reference", q.ReferenceNumber), zap.Error(err))
		return false
	}
	return true
}
