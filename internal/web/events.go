package web

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wheelsdeals/tireshop/internal/models"
	"gorm.io/gorm"
)

const heartbeatInterval = 15 * time.Second

// leadEvent announces a new quote or appointment on the staff event stream.
type leadEvent struct {
	Kind      string    `json:"kind"` // quote or appointment
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Customer  string    `json:"customer"`
	CreatedAt time.Time `json:"created_at"`
	// Open is the number of quotes still new, or appointments still pending.
	Open int64 `json:"open"`
}

// newLeads returns quotes and appointments created after since, oldest
// first, each carrying the current open count for its kind.
func newLeads(db *gorm.DB, since time.Time) ([]leadEvent, error) {
	var quotes []models.Quote
	if err := db.Where("created_at > ?", since).Order("created_at ASC").Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("web: poll quotes: %w", err)
	}
	var appts []models.Appointment
	if err := db.Where("created_at > ?", since).Order("created_at ASC").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("web: poll appointments: %w", err)
	}

	var events []leadEvent
	if len(quotes) > 0 {
		var open int64
		if err := db.Model(&models.Quote{}).Where("status = ?", models.QuoteStatusNew).Count(&open).Error; err != nil {
			return nil, fmt.Errorf("web: count new quotes: %w", err)
		}
		for _, q := range quotes {
			events = append(events, leadEvent{
				Kind: "quote", ID: q.ID, Label: q.ReferenceNumber,
				Customer: q.CustomerName, CreatedAt: q.CreatedAt, Open: open,
			})
		}
	}
	if len(appts) > 0 {
		var open int64
		if err := db.Model(&models.Appointment{}).Where("status = ?", models.AppointmentStatusPending).Count(&open).Error; err != nil {
			return nil, fmt.Errorf("web: count pending appointments: %w", err)
		}
		for _, a := range appts {
			events = append(events, leadEvent{
				Kind: "appointment", ID: a.ID, Label: a.AppointmentDate + " " + a.AppointmentTime,
				Customer: a.CustomerName, CreatedAt: a.CreatedAt, Open: open,
			})
		}
	}
	return events, nil
}

// handleEvents streams new leads to the staff dashboard until the client
// disconnects.
func (s *Server) handleEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	ctx := c.Request.Context()
	db := s.DB.WithContext(ctx)
	lastSeen := s.Now()
	ticker := time.NewTicker(s.EventInterval)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			events, err := newLeads(db, lastSeen)
			if err != nil || len(events) == 0 {
				continue
			}
			for _, evt := range events {
				if evt.CreatedAt.After(lastSeen) {
					lastSeen = evt.CreatedAt
				}
				writeSSE(c.Writer, evt.Kind, evt)
			}
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
