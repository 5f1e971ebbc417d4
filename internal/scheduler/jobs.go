package scheduler

import (
	"context"
	"time"

	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"go.uber.org/zap"
)

// EnsureTimeSlotsJob keeps the bookable horizon populated from today.
func (s *Scheduler) EnsureTimeSlotsJob(ctx context.Context) error {
	ctx, run, owner := s.beginRun(ctx, JobEnsureTimeSlots)
	if owner {
		defer s.finishRun(ctx, run)
	}

	today := s.today()
	created, err := s.slots.EnsureHorizon(ctx, today, s.cfg.HorizonDays)
	if err != nil {
		s.runFailed(ctx, run, "scheduler.slots.ensure.failed", err,
			zap.String("from", today.Format(timeslotdomain.DateLayout)),
		)
		return err
	}
	s.recordProcessed(run, "time_slots", int(created))
	return nil
}

func (s *Scheduler) MarkOverdueInvoicesJob(ctx context.Context) error {
	ctx, run, owner := s.beginRun(ctx, JobMarkOverdueInvoices)
	if owner {
		defer s.finishRun(ctx, run)
	}

	updated, err := s.invoices.MarkOverdue(ctx, s.clock.Now())
	if err != nil {
		s.runFailed(ctx, run, "scheduler.invoices.overdue.failed", err)
		return err
	}
	s.recordProcessed(run, "invoices", int(updated))
	return nil
}

// BookingRemindersJob notifies customers booked for tomorrow. Reminders that
// went out before a failure still count.
func (s *Scheduler) BookingRemindersJob(ctx context.Context) error {
	ctx, run, owner := s.beginRun(ctx, JobBookingReminders)
	if owner {
		defer s.finishRun(ctx, run)
	}

	date := s.today().AddDate(0, 0, 1).Format(timeslotdomain.DateLayout)
	sent, err := s.bookings.SendReminders(ctx, date)
	s.recordProcessed(run, "bookings", sent)
	if err != nil {
		s.runFailed(ctx, run, "scheduler.reminders.failed", err, zap.String("date", date))
		return err
	}
	return nil
}

func (s *Scheduler) today() time.Time {
	now := s.clock.Now().In(s.cfg.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
}
