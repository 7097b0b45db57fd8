// Package mail delivers transactional email through a configurable transport.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
	"github.com/wheelsdeals/tireshop/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message is a single HTML email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

func (m Message) check() error {
	if len(m.To) == 0 {
		return errors.New("mail: at least one recipient is required")
	}
	if m.Subject == "" {
		return errors.New("mail: subject is required")
	}
	return nil
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the Sender selected by cfg.Provider. Messages without a From
// address are sent from cfg.From.
func New(cfg config.MailConfig) (Sender, error) {
	switch cfg.Provider {
	case "resend":
		return NewResendSender(ResendOpts{
			APIKey:   cfg.Resend.APIKey,
			Endpoint: cfg.Resend.Endpoint,
			Timeout:  cfg.Resend.Timeout,
			From:     cfg.From,
		})
	case "smtp":
		return NewSMTPSender(cfg.SMTP, cfg.From), nil
	case "log", "":
		return &LogSender{From: cfg.From}, nil
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
	}
}

// ResendSender posts messages to the Resend HTTP API.
type ResendSender struct {
	apiKey   string
	endpoint string
	from     string
	http     *dataflow.Gout
}

// ResendOpts holds parameters for creating a ResendSender.
type ResendOpts struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	From     string
	// For testing: inject a client pointed at a fake server.
	HTTPClient *http.Client
}

// NewResendSender creates a ResendSender.
func NewResendSender(opts ResendOpts) (*ResendSender, error) {
	if opts.APIKey == "" {
		return nil, errors.New("mail: resend api key is required")
	}
	if opts.Endpoint == "" {
		return nil, errors.New("mail: resend endpoint is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &ResendSender{
		apiKey:   opts.APIKey,
		endpoint: opts.Endpoint,
		from:     opts.From,
		http:     gout.New(hc),
	}, nil
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers msg. Any non-2xx response is an error carrying the body.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := msg.check(); err != nil {
		return err
	}
	from := msg.From
	if from == "" {
		from = s.from
	}

	var (
		body string
		code int
	)
	err := s.http.POST(s.endpoint).
		WithContext(ctx).
		SetHeader(gout.H{"Authorization": "Bearer " + s.apiKey}).
		SetJSON(resendRequest{From: from, To: msg.To, Subject: msg.Subject, HTML: msg.HTML}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return fmt.Errorf("mail: resend: %w", err)
	}
	if code < 200 || code > 299 {
		return fmt.Errorf("mail: resend: status %d: %s", code, strings.TrimSpace(body))
	}
	return nil
}

// dialer abstracts gomail.Dialer for tests.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender relays messages through an SMTP server.
type SMTPSender struct {
	dialer dialer
	from   string
}

// NewSMTPSender creates an SMTPSender for cfg.
func NewSMTPSender(cfg config.SMTPConfig, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   from,
	}
}

// Send delivers msg over SMTP. gomail does not take a context; the
// cancellation check happens before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.check(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mail: smtp: %w", err)
	}
	if err := s.dialer.DialAndSend(buildSMTPMessage(msg, s.from)); err != nil {
		return fmt.Errorf("mail: smtp: %w", err)
	}
	return nil
}

func buildSMTPMessage(msg Message, defaultFrom string) *gomail.Message {
	from := msg.From
	if from == "" {
		from = defaultFrom
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return m
}

// LogSender logs messages instead of delivering them.
type LogSender struct {
	From string
}

// Send logs the envelope of msg.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.check(); err != nil {
		return err
	}
	zap.L().Info("mail not delivered (log provider)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}

// Recorder captures sent messages. It is used by tests across packages.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

// Send records msg, or returns the configured failure.
func (r *Recorder) Send(ctx context.Context, msg Message) error {
	if err := msg.check(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// FailWith makes subsequent sends return err. A nil err clears the failure.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Sent returns a copy of every recorded message.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Message{}, false
	}
	return r.sent[len(r.sent)-1], true
}
