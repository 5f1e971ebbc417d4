package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type event struct {
	id    string
	start time.Time
	end   time.Time
}

// MemoryProvider keeps events per calendar in process memory.
type MemoryProvider struct {
	mu     sync.Mutex
	events map[string][]event
}

func NewMemory() *MemoryProvider {
	return &MemoryProvider{events: map[string][]event{}}
}

func (p *MemoryProvider) CheckAvailability(ctx context.Context, calendarID string, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidWindow
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range p.events[calendarID] {
		if start.Before(ev.end) && ev.start.Before(end) {
			return false, nil
		}
	}
	return true, nil
}

func (p *MemoryProvider) CreateEvent(ctx context.Context, calendarID string, job Job) (string, error) {
	if !job.End.After(job.Start) {
		return "", ErrInvalidWindow
	}
	id := uuid.NewString()
	p.mu.Lock()
	p.events[calendarID] = append(p.events[calendarID], event{id: id, start: job.Start, end: job.End})
	p.mu.Unlock()
	return id, nil
}

func (p *MemoryProvider) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	events := p.events[calendarID]
	for i, ev := range events {
		if ev.id == eventID {
			p.events[calendarID] = append(events[:i], events[i+1:]...)
			return nil
		}
	}
	return nil
}
