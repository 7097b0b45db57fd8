package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	writeSSE(&buf, "quote", map[string]string{"id": "q1"})
	if got := buf.String(); got != "event: quote\ndata: {\"id\":\"q1\"}\n\n" {
		t.Errorf("frame = %q", got)
	}
}

func TestNewLeads(t *testing.T) {
	e := newTestEnv(t)
	since := time.Now().Add(-time.Minute)
	q := seedQuote(t, e, "Jane Doe", "jane@example.com")
	seedAppointment(t, e)

	events, err := newLeads(e.db, since)
	if err != nil {
		t.Fatalf("newLeads: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Kind != "quote" || events[0].Label != q.ReferenceNumber || events[0].Open != 1 {
		t.Errorf("quote event = %+v", events[0])
	}
	if events[1].Kind != "appointment" || events[1].Label != "2025-03-10 9:00 AM" || events[1].Open != 1 {
		t.Errorf("appointment event = %+v", events[1])
	}

	later, err := newLeads(e.db, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("newLeads: %v", err)
	}
	if len(later) != 0 {
		t.Errorf("events after cutoff = %d", len(later))
	}
}

func TestNewLeads_CountFailure(t *testing.T) {
	e := newTestEnv(t)
	since := time.Now().Add(-time.Minute)
	seedQuote(t, e, "Jane Doe", "jane@example.com")

	failCounts := func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*int64); ok {
			tx.AddError(errors.New("count unavailable"))
		}
	}
	if err := e.db.Callback().Query().Before("gorm:query").Register("test:fail_counts", failCounts); err != nil {
		t.Fatal(err)
	}

	events, err := newLeads(e.db, since)
	if err == nil || !strings.Contains(err.Error(), "count new quotes") {
		t.Fatalf("newLeads = %+v, %v; want count error", events, err)
	}
	if events != nil {
		t.Errorf("events = %+v, want none on error", events)
	}
}

func TestEvents_ConnectsUntilClientLeaves(t *testing.T) {
	e := newTestEnv(t)
	b := e.signIn(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/admin/api/events", nil).WithContext(ctx)
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "event: connected\n") {
		t.Errorf("body = %q", w.Body.String())
	}
}
