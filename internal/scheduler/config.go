package scheduler

import (
	"time"

	"github.com/smallbiznis/maidbook/internal/config"
)

const (
	JobEnsureTimeSlots     = "ensure_time_slots"
	JobMarkOverdueInvoices = "mark_overdue_invoices"
	JobBookingReminders    = "booking_reminders"
)

// Config controls the tick interval and the cron expression of each job.
// Schedules are evaluated in the business timezone.
type Config struct {
	RunInterval time.Duration
	LockTTL     time.Duration
	HorizonDays int
	EnabledJobs []string
	Location    *time.Location
	Schedules   map[string]string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		LockTTL:     2 * time.Minute,
		HorizonDays: 30,
		Location:    time.UTC,
		Schedules: map[string]string{
			JobEnsureTimeSlots:     "5 0 * * *",
			JobMarkOverdueInvoices: "0 * * * *",
			JobBookingReminders:    "0 9 * * *",
		},
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		LockTTL:     cfg.RateLimit.LockTTL,
		HorizonDays: cfg.Slots.HorizonDays,
		EnabledJobs: cfg.Scheduler.EnabledJobs,
		Location:    cfg.Location(),
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaults.HorizonDays
	}
	if c.Location == nil {
		c.Location = defaults.Location
	}
	schedules := make(map[string]string, len(defaults.Schedules))
	for name, expr := range defaults.Schedules {
		schedules[name] = expr
	}
	for name, expr := range c.Schedules {
		if expr != "" {
			schedules[name] = expr
		}
	}
	c.Schedules = schedules
	return c
}
