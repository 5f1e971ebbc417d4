package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/maidbook/internal/booking/domain"
	cleaner "github.com/smallbiznis/maidbook/internal/cleaner/domain"
	"github.com/smallbiznis/maidbook/internal/providers/calendar"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AssignCleaner checks the cleaner's calendar, records the assignment and
// then places the visit on the calendar. Calendar calls never run while the
// booking row is locked; a failed event creation is repaired by SyncCalendar.
func (s *Service) AssignCleaner(ctx context.Context, id, cleanerID string) (domain.Booking, error) {
	booking, err := s.load(ctx, s.db, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking.Status.Terminal() {
		return domain.Booking{}, domain.ErrBookingClosed
	}

	assignee, err := s.cleaners.GetByID(ctx, cleanerID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !assignee.IsActive {
		return domain.Booking{}, cleaner.ErrInactive
	}
	if booking.CleanerID != nil && *booking.CleanerID == assignee.ID && booking.CalendarEventID != nil {
		return *booking, nil
	}

	start, end, err := s.visitWindow(*booking)
	if err != nil {
		return domain.Booking{}, err
	}
	free, err := s.calendar.CheckAvailability(ctx, assignee.Calendar(), start, end)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("check calendar: %w", err)
	}
	if !free {
		return domain.Booking{}, domain.ErrCleanerUnavailable
	}

	var (
		out      domain.Booking
		previous domain.Booking
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lock(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if locked.Status.Terminal() {
			return domain.ErrBookingClosed
		}
		previous = *locked
		cleanerRef := assignee.ID
		locked.CleanerID = &cleanerRef
		locked.CalendarEventID = nil
		locked.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, locked); err != nil {
			return err
		}
		out = *locked
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.log.Info("cleaner assigned",
		zap.String("booking_id", out.ID.String()),
		zap.String("cleaner_id", assignee.ID.String()),
	)
	if previous.CleanerID != nil && *previous.CleanerID != assignee.ID {
		s.removeCalendarEvent(ctx, previous)
	}

	if err := s.placeOnCalendar(ctx, &out, assignee); err != nil {
		s.log.Warn("calendar event not created",
			zap.String("booking_id", out.ID.String()),
			zap.Error(err),
		)
	}
	return out, nil
}

// SyncCalendar retries event creation for an assigned booking.
func (s *Service) SyncCalendar(ctx context.Context, id string) (domain.Booking, error) {
	booking, err := s.load(ctx, s.db, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking.CleanerID == nil {
		return domain.Booking{}, domain.ErrCleanerNotAssigned
	}
	if booking.CalendarEventID != nil {
		return *booking, nil
	}
	if booking.Status.Terminal() {
		return domain.Booking{}, domain.ErrBookingClosed
	}
	assignee, err := s.cleaners.GetByID(ctx, booking.CleanerID.String())
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.placeOnCalendar(ctx, booking, assignee); err != nil {
		return domain.Booking{}, err
	}
	return *booking, nil
}

func (s *Service) placeOnCalendar(ctx context.Context, booking *domain.Booking, assignee cleaner.Cleaner) error {
	start, end, err := s.visitWindow(*booking)
	if err != nil {
		return err
	}
	address := booking.Address.Data()
	eventID, err := s.calendar.CreateEvent(ctx, assignee.Calendar(), calendar.Job{
		Reference:   booking.Reference,
		Summary:     fmt.Sprintf("Cleaning: %s", booking.CustomerName),
		Description: jobDescription(*booking),
		Location:    strings.Join(nonEmpty(address.Street, address.City, address.State, address.ZipCode), ", "),
		Start:       start,
		End:         end,
	})
	if err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	if eventID == "" {
		return nil
	}

	now := s.clock.Now()
	stored, err := s.repo.SetCalendarEvent(ctx, s.db, booking.ID, assignee.ID, eventID, now)
	if err != nil {
		return err
	}
	if !stored {
		// Reassigned while the event was being created.
		if err := s.calendar.DeleteEvent(ctx, assignee.Calendar(), eventID); err != nil {
			s.log.Warn("orphan calendar event", zap.String("event_id", eventID), zap.Error(err))
		}
		return nil
	}
	booking.CalendarEventID = &eventID
	booking.UpdatedAt = now
	return nil
}

func (s *Service) removeCalendarEvent(ctx context.Context, booking domain.Booking) {
	if booking.CleanerID == nil || booking.CalendarEventID == nil {
		return
	}
	assignee, err := s.cleaners.GetByID(ctx, booking.CleanerID.String())
	if err != nil {
		s.log.Warn("calendar event not removed", zap.String("booking_id", booking.ID.String()), zap.Error(err))
		return
	}
	if err := s.calendar.DeleteEvent(ctx, assignee.Calendar(), *booking.CalendarEventID); err != nil {
		s.log.Warn("calendar event not removed", zap.String("booking_id", booking.ID.String()), zap.Error(err))
	}
}

func jobDescription(b domain.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking %s\n", b.Reference)
	fmt.Fprintf(&sb, "House size: %s (%s)\n", b.HouseSize, b.Frequency)
	fmt.Fprintf(&sb, "Estimated duration: %d hours\n", b.EstimatedDurationHours)
	for _, item := range b.Items {
		fmt.Fprintf(&sb, "- %s x%d\n", item.Name, item.Quantity)
	}
	if b.CustomerPhone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", b.CustomerPhone)
	}
	if b.SpecialInstructions != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", b.SpecialInstructions)
	}
	return sb.String()
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
