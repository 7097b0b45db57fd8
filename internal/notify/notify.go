// Package notify implements the named notification functions that send
// customer and staff email. Each function validates a JSON payload against a
// strict schema before rendering and sending anything.
package notify

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/wheelsdeals/tireshop/internal/config"
	"github.com/wheelsdeals/tireshop/internal/mail"
	"github.com/wheelsdeals/tireshop/internal/validate"
	"go.uber.org/zap"
)

// Function names.
const (
	FuncAppointmentNotification = "send-appointment-notification"
	FuncAppointmentStatus       = "send-appointment-status"
	FuncQuoteEmail              = "send-quote-email"
	FuncCustomerQuote           = "send-customer-quote"
)

// ErrUnknownFunction is returned for a name outside the four functions.
var ErrUnknownFunction = errors.New("notify: unknown function")

//go:embed templates/*.html
var templatesFS embed.FS

// Invoker runs a notification function by name. Quote and appointment
// pipelines depend on this rather than on Service so tests can stub it.
type Invoker interface {
	Invoke(ctx context.Context, name string, v interface{}) error
}

// payload is implemented by every function's input type.
type payload interface {
	normalize()
}

type function struct {
	newPayload func() payload
	send       func(ctx context.Context, s *Service, p payload) error
}

// Service renders and sends the notification emails.
type Service struct {
	sender mail.Sender
	shop   config.ShopConfig
	tmpl   *template.Template
	funcs  map[string]function
}

// NewService creates a Service that sends through sender and fills shop
// details from shop.
func NewService(sender mail.Sender, shop config.ShopConfig) (*Service, error) {
	if sender == nil {
		return nil, errors.New("notify: sender is required")
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Service{sender: sender, shop: shop, tmpl: tmpl}
	s.funcs = map[string]function{
		FuncAppointmentNotification: {
			newPayload: func() payload { return &AppointmentNotification{} },
			send: func(ctx context.Context, s *Service, p payload) error {
				return s.sendAppointmentNotification(ctx, p.(*AppointmentNotification))
			},
		},
		FuncAppointmentStatus: {
			newPayload: func() payload { return &AppointmentStatus{} },
			send: func(ctx context.Context, s *Service, p payload) error {
				return s.sendAppointmentStatus(ctx, p.(*AppointmentStatus))
			},
		},
		FuncQuoteEmail: {
			newPayload: func() payload { return &QuoteEmail{} },
			send: func(ctx context.Context, s *Service, p payload) error {
				return s.sendQuoteEmail(ctx, p.(*QuoteEmail))
			},
		},
		FuncCustomerQuote: {
			newPayload: func() payload { return &CustomerQuote{} },
			send: func(ctx context.Context, s *Service, p payload) error {
				return s.sendCustomerQuote(ctx, p.(*CustomerQuote))
			},
		},
	}
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"longDate": LongDate,
		"money":    Money,
		"join":     strings.Join,
		"digits":   digits,
		"year":     func() int { return time.Now().Year() },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("notify: parse templates: %w", err)
	}
	return tmpl, nil
}

// Names returns the registered function names, sorted.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.funcs))
	for n := range s.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call runs the named function with a raw JSON body. It returns
// ErrUnknownFunction, a *validate.Error for malformed or invalid input, or a
// delivery error. No email is sent unless validation passes.
func (s *Service) Call(ctx context.Context, name string, body []byte) error {
	fn, ok := s.funcs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	p := fn.newPayload()
	if err := json.Unmarshal(body, p); err != nil {
		verr := &validate.Error{}
		verr.Add("body", "json", "must be a valid JSON object: "+err.Error())
		return verr
	}
	p.normalize()
	if err := validate.Struct(p); err != nil {
		zap.L().Warn("notification payload rejected",
			zap.String("function", name), zap.Error(err))
		return err
	}
	if err := fn.send(ctx, s, p); err != nil {
		return fmt.Errorf("notify: %s: %w", name, err)
	}
	zap.L().Info("notification sent", zap.String("function", name))
	return nil
}

// Invoke marshals payload to JSON and runs the named function, exactly as an
// HTTP caller would.
func (s *Service) Invoke(ctx context.Context, name string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("notify: marshal %s payload: %w", name, err)
	}
	return s.Call(ctx, name, body)
}

func (s *Service) render(name string, data interface{}) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}

func (s *Service) send(ctx context.Context, to, subject, tmpl string, data interface{}) error {
	html, err := s.render(tmpl, data)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, mail.Message{To: []string{to}, Subject: subject, HTML: html})
}

// LongDate renders a YYYY-MM-DD date as "Monday, January 2, 2006". Values
// that do not parse are returned unchanged.
func LongDate(date string) string {
	t, err := time.Parse(validate.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}

// Money formats an amount with two decimals and a dollar sign.
func Money(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// ServiceLabels returns the display names of the add-on services selected on
// a quote, in a fixed order.
func ServiceLabels(installation, wheelAlignment, oilChange bool) []string {
	var out []string
	if installation {
		out = append(out, "Tire Installation")
	}
	if wheelAlignment {
		out = append(out, "Wheel Alignment")
	}
	if oilChange {
		out = append(out, "Oil Change")
	}
	return out
}

// digits keeps only the digits of s, for tel: links.
func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func trimAll(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

func trimSlice(ss []string) {
	for i := range ss {
		ss[i] = strings.TrimSpace(ss[i])
	}
}
