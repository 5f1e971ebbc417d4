package calendar

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidWindow = errors.New("invalid_calendar_window")

// Job describes a cleaning visit placed on a cleaner's calendar.
type Job struct {
	Reference   string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Provider is the scheduling oracle consulted when assigning cleaners.
// Calls are fallible and must never run while booking rows are locked.
type Provider interface {
	CheckAvailability(ctx context.Context, calendarID string, start, end time.Time) (bool, error)
	CreateEvent(ctx context.Context, calendarID string, job Job) (string, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) CheckAvailability(ctx context.Context, calendarID string, start, end time.Time) (bool, error) {
	return true, nil
}

func (p *NoOpProvider) CreateEvent(ctx context.Context, calendarID string, job Job) (string, error) {
	return "", nil
}

func (p *NoOpProvider) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return nil
}
