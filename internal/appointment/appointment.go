// Package appointment handles service-booking requests and the staff
// approve/decline decision.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wheelsdeals/tireshop/internal/models"
	"github.com/wheelsdeals/tireshop/internal/notify"
	"github.com/wheelsdeals/tireshop/internal/telegraph"
	"github.com/wheelsdeals/tireshop/internal/validate"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Decision actions.
const (
	ActionApprove = "approve"
	ActionDecline = "decline"
)

var (
	ErrNotFound       = errors.New("appointment: not found")
	ErrAlreadyDecided = errors.New("appointment: already decided")
)

// Request is a customer's booking submission.
type Request struct {
	CustomerName    string   `json:"customerName" validate:"required,min=2,max=100"`
	CustomerEmail   string   `json:"customerEmail" validate:"required,email,max=255"`
	CustomerPhone   string   `json:"customerPhone" validate:"required,min=10,max=30"`
	AppointmentDate string   `json:"appointmentDate" validate:"required,isodate"`
	AppointmentTime string   `json:"appointmentTime" validate:"required"`
	Services        []string `json:"services" validate:"min=1,max=10,unique,dive,required"`
	VehicleInfo     string   `json:"vehicleInfo" validate:"max=200"`
	AdditionalNotes string   `json:"additionalNotes" validate:"max=1000"`
}

func (r *Request) normalize() {
	for _, s := range []*string{&r.CustomerName, &r.CustomerEmail, &r.CustomerPhone,
		&r.AppointmentDate, &r.AppointmentTime, &r.VehicleInfo, &r.AdditionalNotes} {
		*s = strings.TrimSpace(*s)
	}
	for i := range r.Services {
		r.Services[i] = strings.TrimSpace(r.Services[i])
	}
}

// Decision is a staff verdict on a pending appointment. The suggested
// alternative only applies to declines.
type Decision struct {
	Action        string `json:"action" validate:"required,oneof=approve decline"`
	AdminNotes    string `json:"admin_notes" validate:"max=1000"`
	SuggestedDate string `json:"suggested_date" validate:"omitempty,isodate"`
	SuggestedTime string `json:"suggested_time"`
	DecidedBy     string `json:"-"`
}

// Outcome separates the durable write from the best-effort notification.
type Outcome struct {
	Persisted bool `json:"persisted"`
	Notified  bool `json:"notified"`
}

// Result pairs the stored appointment with what happened to its email.
type Result struct {
	Appointment models.Appointment `json:"appointment"`
	Outcome
}

// Options configures a Service.
type Options struct {
	DB       *gorm.DB
	Notifier notify.Invoker     // nil disables email
	Alerter  *telegraph.Alerter // nil disables chat alerts
	Location *time.Location     // shop time zone; decides what "today" is
	Now      func() time.Time
}

// Service runs appointment operations against the database.
type Service struct {
	db       *gorm.DB
	notifier notify.Invoker
	alerter  *telegraph.Alerter
	loc      *time.Location
	now      func() time.Time
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	s := &Service{
		db:       opts.DB,
		notifier: opts.Notifier,
		alerter:  opts.Alerter,
		loc:      opts.Location,
		now:      opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today returns the current date in the shop's time zone as YYYY-MM-DD.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(validate.DateLayout)
}

// Validate normalizes r and checks it, including the rules that depend on the
// clock and the catalogs.
func (s *Service) Validate(r *Request) error {
	r.normalize()
	err := validate.Struct(r)
	ve, ok := validate.As(err)
	if err != nil && !ok {
		return err
	}
	if ve == nil {
		ve = &validate.Error{}
	}

	// Dates compare lexically in YYYY-MM-DD form.
	if _, perr := time.Parse(validate.DateLayout, r.AppointmentDate); perr == nil && r.AppointmentDate < s.Today() {
		ve.Add("appointmentDate", "future", "must be today or later")
	}
	if r.AppointmentTime != "" && !IsSlot(r.AppointmentTime) {
		ve.Add("appointmentTime", "slot", "must be one of the available time slots")
	}
	for i, id := range r.Services {
		if id != "" && !IsService(id) {
			ve.Add(fmt.Sprintf("services[%d]", i), "service", "is not an available service")
		}
	}
	return ve.Err()
}

// Submit validates req, stores it as pending and notifies staff. The
// notification is best-effort.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	if err := s.Validate(&req); err != nil {
		return nil, err
	}

	a := models.Appointment{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Services:        req.Services,
		VehicleInfo:     req.VehicleInfo,
		AdditionalNotes: req.AdditionalNotes,
		Status:          models.AppointmentStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, fmt.Errorf("appointment: insert: %w", err)
	}

	res := &Result{Appointment: a, Outcome: Outcome{Persisted: true}}
	labels := Labels(a.Services)
	res.Notified = s.invoke(ctx, a.ID, notify.FuncAppointmentNotification, notify.AppointmentNotification{
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		CustomerPhone:   a.CustomerPhone,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Services:        labels,
		VehicleInfo:     a.VehicleInfo,
		AdditionalNotes: a.AdditionalNotes,
	})
	s.alerter.Go(ctx, telegraph.FormatNewAppointment(a, labels))
	return res, nil
}

// Decide records a staff decision on a pending appointment with a single
// conditional write, then emails the customer once. An email failure never
// reverts the decision.
func (s *Service) Decide(ctx context.Context, id string, d Decision) (*Result, error) {
	d.AdminNotes = strings.TrimSpace(d.AdminNotes)
	d.SuggestedDate = strings.TrimSpace(d.SuggestedDate)
	d.SuggestedTime = strings.TrimSpace(d.SuggestedTime)
	if err := s.validateDecision(&d); err != nil {
		return nil, err
	}

	status := models.AppointmentStatusApproved
	if d.Action == ActionDecline {
		status = models.AppointmentStatusDeclined
	}
	decidedAt := s.now()
	updates := map[string]interface{}{
		"status":         status,
		"admin_notes":    d.AdminNotes,
		"suggested_date": d.SuggestedDate,
		"suggested_time": d.SuggestedTime,
		"decided_by":     d.DecidedBy,
		"decided_at":     decidedAt,
	}

	db := s.db.WithContext(ctx)
	tx := db.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, models.AppointmentStatusPending).
		Updates(updates)
	if tx.Error != nil {
		return nil, fmt.Errorf("appointment: decide %s: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadyDecided, id)
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &Result{Appointment: *a, Outcome: Outcome{Persisted: true}}
	res.Notified = s.invoke(ctx, a.ID, notify.FuncAppointmentStatus, notify.AppointmentStatus{
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Services:        Labels(a.Services),
		Status:          a.Status,
		AdminNotes:      a.AdminNotes,
		SuggestedDate:   a.SuggestedDate,
		SuggestedTime:   a.SuggestedTime,
	})
	s.alerter.Go(ctx, telegraph.FormatAppointmentDecision(*a))
	return res, nil
}

func (s *Service) validateDecision(d *Decision) error {
	err := validate.Struct(d)
	ve, ok := validate.As(err)
	if err != nil && !ok {
		return err
	}
	if ve == nil {
		ve = &validate.Error{}
	}
	switch d.Action {
	case ActionApprove:
		d.SuggestedDate, d.SuggestedTime = "", ""
	case ActionDecline:
		if d.SuggestedTime != "" && !IsSlot(d.SuggestedTime) {
			ve.Add("suggested_time", "slot", "must be one of the available time slots")
		}
		if d.SuggestedDate != "" && d.SuggestedDate < s.Today() {
			ve.Add("suggested_date", "future", "must be today or later")
		}
	}
	return ve.Err()
}

// invoke calls a notification function and logs failures. It reports
// whether the email was accepted.
func (s *Service) invoke(ctx context.Context, id, name string, payload interface{}) bool {
	if s.notifier == nil {
		return false
	}
	if err := s.notifier.Invoke(ctx, name, payload); err != nil {
		zap.L().Warn("appointment email failed",
			zap.String("appointment_id", id), zap.String("function", name), zap.Error(err))
		return false
	}
	return true
}

// Get retrieves an appointment by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("appointment: get %s: %w", id, err)
	}
	return &a, nil
}

// List returns appointments newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string) ([]models.Appointment, error) {
	q := s.db.WithContext(ctx).Model(&models.Appointment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var appts []models.Appointment
	if err := q.Order("created_at DESC").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("appointment: list: %w", err)
	}
	return appts, nil
}

// Counts returns the number of appointments in each status, including zeroes.
func (s *Service) Counts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("appointment: counts: %w", err)
	}
	counts := map[string]int64{
		models.AppointmentStatusPending:  0,
		models.AppointmentStatusApproved: 0,
		models.AppointmentStatusDeclined: 0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
