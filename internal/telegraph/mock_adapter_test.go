package telegraph

import (
	"context"
	"errors"
	"testing"
)

// Compile-time interface compliance check.
var _ Adapter = (*MockAdapter)(nil)

func TestMockAdapter_ConnectAndClose(t *testing.T) {
	m := NewMockAdapter()
	ctx := context.Background()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Connect(ctx); err == nil {
		t.Fatal("Connect after Close should fail")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("double Close should succeed: %v", err)
	}
}

func TestMockAdapter_SendRequiresConnect(t *testing.T) {
	m := NewMockAdapter()
	if err := m.Send(context.Background(), OutboundMessage{Text: "hello"}); err == nil {
		t.Fatal("Send before Connect should fail")
	}
}

func TestMockAdapter_SendRecords(t *testing.T) {
	m := NewMockAdapter()
	ctx := context.Background()
	m.Connect(ctx)

	if _, ok := m.LastSent(); ok {
		t.Fatal("LastSent on empty adapter = ok")
	}
	m.Send(ctx, OutboundMessage{ChannelID: "C1", Text: "first"})
	m.Send(ctx, OutboundMessage{ChannelID: "C1", Text: "second"})

	if m.SentCount() != 2 {
		t.Errorf("SentCount = %d, want 2", m.SentCount())
	}
	last, _ := m.LastSent()
	if last.Text != "second" {
		t.Errorf("LastSent.Text = %q, want second", last.Text)
	}
	all := m.AllSent()
	all[0].Text = "mutated"
	if m.AllSent()[0].Text != "first" {
		t.Error("AllSent returned internal slice")
	}
}

func TestMockAdapter_FailSends(t *testing.T) {
	m := NewMockAdapter()
	ctx := context.Background()
	m.Connect(ctx)
	m.FailSends(errors.New("rate limited"))
	if err := m.Send(ctx, OutboundMessage{Text: "x"}); err == nil {
		t.Fatal("expected failure")
	}
	m.FailSends(nil)
	if err := m.Send(ctx, OutboundMessage{Text: "x"}); err != nil {
		t.Fatalf("Send after clearing failure: %v", err)
	}
}
