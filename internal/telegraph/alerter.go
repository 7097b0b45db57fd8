package telegraph

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Alerter posts shop events to the staff channel. A nil *Alerter is a no-op,
// so callers need not check whether chat is configured.
type Alerter struct {
	adapter Adapter
	channel string
	wg      sync.WaitGroup
}

// backgroundTimeout bounds an alert posted with Go, rate-limit retries included.
const backgroundTimeout = 30 * time.Second

// NewAlerter creates an Alerter over a connected adapter.
func NewAlerter(adapter Adapter, channel string) *Alerter {
	if adapter == nil {
		return nil
	}
	return &Alerter{adapter: adapter, channel: channel}
}

// Post sends evt. Failures are logged and never returned: chat alerts must
// not affect the operation that raised them.
func (a *Alerter) Post(ctx context.Context, evt FormattedEvent) {
	if a == nil {
		return
	}
	if evt.Color == "" {
		evt.Color = severityColor(evt.Severity)
	}
	msg := OutboundMessage{ChannelID: a.channel, Text: evt.Title, Events: []FormattedEvent{evt}}
	if err := a.adapter.Send(ctx, msg); err != nil {
		zap.L().Warn("staff alert failed", zap.String("title", evt.Title), zap.Error(err))
	}
}

// Go posts evt in the background so the caller is not held up by chat
// delivery. The post keeps ctx's values but not its cancellation.
func (a *Alerter) Go(ctx context.Context, evt FormattedEvent) {
	if a == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()
		a.Post(ctx, evt)
	}()
}

// Wait blocks until every alert started with Go has finished.
func (a *Alerter) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}

// PostDigest builds the report for the 24 hours before now and posts it.
// It reports whether anything was posted; an empty report is skipped.
func (a *Alerter) PostDigest(ctx context.Context, db *gorm.DB, now time.Time, loc *time.Location) (bool, error) {
	if a == nil {
		return false, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	report, err := BuildDailyReport(db, now.Add(-24*time.Hour), now, now.In(loc).Format("2006-01-02"))
	if err != nil {
		return false, err
	}
	if report.Empty() {
		zap.L().Info("daily digest skipped: no activity")
		return false, nil
	}
	evt := FormatDaily(report)
	if err := a.adapter.Send(ctx, OutboundMessage{ChannelID: a.channel, Text: evt.Title, Events: []FormattedEvent{evt}}); err != nil {
		return false, err
	}
	return true, nil
}
