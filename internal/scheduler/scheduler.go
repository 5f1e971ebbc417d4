package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	invoicedomain "github.com/smallbiznis/maidbook/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/maidbook/internal/observability/metrics"
	"github.com/smallbiznis/maidbook/internal/ratelimit"
	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Slots    timeslotdomain.Service
	Invoices invoicedomain.Service
	Bookings bookingdomain.Service
	Locker   *ratelimit.Locker            `optional:"true"`
	Metrics  *obsmetrics.SchedulerMetrics `optional:"true"`
	Config   Config                       `optional:"true"`
}

type job struct {
	name      string
	schedule  cron.Schedule
	timeout   time.Duration
	runOnBoot bool
	fn        func(ctx context.Context) error
	next      time.Time
}

type Scheduler struct {
	log      *zap.Logger
	cfg      Config
	genID    *snowflake.Node
	clock    clock.Clock
	slots    timeslotdomain.Service
	invoices invoicedomain.Service
	bookings bookingdomain.Service
	locker   *ratelimit.Locker
	metrics  *obsmetrics.SchedulerMetrics

	mu   sync.Mutex
	jobs []*job
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Slots == nil || p.Invoices == nil || p.Bookings == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	metrics := p.Metrics
	if metrics == nil {
		metrics = obsmetrics.Scheduler()
	}

	s := &Scheduler{
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:      cfg,
		genID:    p.GenID,
		clock:    p.Clock,
		slots:    p.Slots,
		invoices: p.Invoices,
		bookings: p.Bookings,
		locker:   p.Locker,
		metrics:  metrics,
	}

	defs := []struct {
		name      string
		timeout   time.Duration
		runOnBoot bool
		fn        func(ctx context.Context) error
	}{
		{JobEnsureTimeSlots, time.Minute, true, s.EnsureTimeSlotsJob},
		{JobMarkOverdueInvoices, 30 * time.Second, false, s.MarkOverdueInvoicesJob},
		{JobBookingReminders, 5 * time.Minute, false, s.BookingRemindersJob},
	}
	for _, def := range defs {
		schedule, err := cron.ParseStandard(cfg.Schedules[def.name])
		if err != nil {
			return nil, fmt.Errorf("%s schedule: %w", def.name, err)
		}
		s.jobs = append(s.jobs, &job{
			name:      def.name,
			schedule:  schedule,
			timeout:   def.timeout,
			runOnBoot: def.runOnBoot,
			fn:        def.fn,
		})
	}
	return s, nil
}

// JobNames lists the enabled jobs in registration order.
func (s *Scheduler) JobNames() []string {
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		if s.isJobEnabled(j.name) {
			names = append(names, j.name)
		}
	}
	return names
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.beginRun(ctx, name)
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.failures == 0 {
			run.failed()
		}
		s.finishRun(ctx, run)
	}
	if err == nil {
		return nil
	}

	// A deadline is a soft timeout; the next tick picks the work up again.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every enabled job that is due. A job that has never run is
// due immediately when it runs on boot, otherwise at its next cron time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for _, j := range s.jobs {
		if !s.isJobEnabled(j.name) {
			continue
		}
		now := s.clock.Now().In(s.cfg.Location)
		if j.next.IsZero() && !j.runOnBoot {
			j.next = j.schedule.Next(now)
			continue
		}
		if !j.next.IsZero() && now.Before(j.next) {
			continue
		}
		j.next = j.schedule.Next(now)
		err = errors.Join(err, s.withLock(parent, j.name, func(ctx context.Context) error {
			return s.runJob(ctx, j.name, j.timeout, j.fn)
		}))
	}
	return err
}

// RunJobNow runs a single job regardless of its schedule.
func (s *Scheduler) RunJobNow(ctx context.Context, name string) error {
	for _, j := range s.jobs {
		if j.name == name {
			return s.withLock(ctx, j.name, func(ctx context.Context) error {
				return s.runJob(ctx, j.name, j.timeout, j.fn)
			})
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := time.Now().Add(s.cfg.RunInterval)

	for {
		if runLag := time.Since(nextRun); runLag > 0 {
			s.metrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// withLock runs fn only if this instance holds the job's redis lease.
// Without redis every instance runs every job.
func (s *Scheduler) withLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	lease, err := s.locker.Acquire(ctx, name, s.cfg.LockTTL)
	if err != nil {
		s.metrics.IncJobError(name, err)
		return fmt.Errorf("%s lock: %w", name, err)
	}
	if lease == nil {
		s.metrics.IncJobSkipped(name, "lock_held")
		s.log.Debug("job skipped, lock held elsewhere", zap.String("job", name))
		return nil
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("failed to release job lock", zap.String("job", name), zap.Error(err))
		}
	}()
	return fn(ctx)
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty means every job runs.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
