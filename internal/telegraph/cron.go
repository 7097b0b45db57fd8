package telegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// from now until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Scheduler runs a job on a cron schedule in the shop's time zone.
type Scheduler struct {
	expr string
	loc  *time.Location
	c    *cron.Cron
}

// NewScheduler validates expr and registers job against it.
func NewScheduler(expr string, loc *time.Location, job func()) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))
	if _, err := c.AddFunc(expr, job); err != nil {
		return nil, fmt.Errorf("telegraph: schedule %q: %w", expr, err)
	}
	return &Scheduler{expr: expr, loc: loc, c: c}, nil
}

// Until returns the time remaining before the next run.
func (s *Scheduler) Until() time.Duration {
	return nextCronDuration(s.expr, time.Now().In(s.loc))
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for
// any running job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.c.Start()
	<-ctx.Done()
	<-s.c.Stop().Done()
}
