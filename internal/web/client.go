package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/wheelsdeals/tireshop/internal/models"
	"github.com/wheelsdeals/tireshop/internal/notify"
	"github.com/wheelsdeals/tireshop/internal/wizard"
)

const (
	clientSessionName = "wd_client"
	keyFinder         = "finder"
	keyLastQuote      = "last_quote"
	clientCookieTTL   = 30 * 24 * time.Hour
)

// NewClientStore returns the signed cookie store that keeps the finder draft
// and the last quote in the customer's browser.
func NewClientStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(clientCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// clientSession reads and writes JSON values in the client cookie for one
// request.
type clientSession struct {
	store sessions.Store
	r     *http.Request
	w     http.ResponseWriter
}

func (s *Server) client(c *gin.Context) *clientSession {
	return &clientSession{store: s.Client, r: c.Request, w: c.Writer}
}

// session returns the request's cookie session. A cookie that fails to
// decode is discarded and replaced.
func (cs *clientSession) session() *sessions.Session {
	sess, err := cs.store.Get(cs.r, clientSessionName)
	if err != nil {
		sess, _ = cs.store.New(cs.r, clientSessionName)
	}
	return sess
}

func (cs *clientSession) load(key string, v interface{}) (bool, error) {
	raw, ok := cs.session().Values[key].(string)
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("web: decode %s: %w", key, err)
	}
	return true, nil
}

func (cs *clientSession) save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("web: encode %s: %w", key, err)
	}
	sess := cs.session()
	sess.Values[key] = string(data)
	return sess.Save(cs.r, cs.w)
}

func (cs *clientSession) clear(key string) error {
	sess := cs.session()
	delete(sess.Values, key)
	return sess.Save(cs.r, cs.w)
}

// finderStore adapts the client cookie to wizard.Store.
type finderStore struct {
	cs *clientSession
}

func (f finderStore) Load() (wizard.State, bool, error) {
	var st wizard.State
	ok, err := f.cs.load(keyFinder, &st)
	if err != nil {
		// A stale or garbled draft restarts the finder.
		return wizard.State{}, false, nil
	}
	return st, ok, nil
}

func (f finderStore) Save(st wizard.State) error { return f.cs.save(keyFinder, st) }
func (f finderStore) Clear() error               { return f.cs.clear(keyFinder) }

// Confirmation is the summary of the last submitted quote kept in the
// customer's cookie for the confirmation page.
type Confirmation struct {
	ReferenceNumber string    `json:"reference_number"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	Vehicle         string    `json:"vehicle"`
	TireSize        string    `json:"tire_size"`
	Quantity        int       `json:"quantity"`
	Services        []string  `json:"services"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	Notified        bool      `json:"notified"`
}

func newConfirmation(q models.Quote, notified bool) Confirmation {
	return Confirmation{
		ReferenceNumber: q.ReferenceNumber,
		CustomerName:    q.CustomerName,
		CustomerEmail:   q.CustomerEmail,
		Vehicle:         fmt.Sprintf("%d %s %s %s", q.VehicleYear, q.VehicleMake, q.VehicleModel, q.VehicleTrim),
		TireSize:        q.TireSize,
		Quantity:        q.Quantity,
		Services:        notify.ServiceLabels(q.InstallationRequired, q.WheelAlignment, q.OilChange),
		Status:          q.Status,
		CreatedAt:       q.CreatedAt,
		Notified:        notified,
	}
}
