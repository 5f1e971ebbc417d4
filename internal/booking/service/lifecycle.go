package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/internal/providers/payment"
	timeslot "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (domain.Booking, error) {
	next, err := domain.ParseStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return domain.Booking{}, err
	}
	if next == domain.StatusCancelled {
		return s.Cancel(ctx, id)
	}
	bookingID, err := parseID(id)
	if err != nil {
		return domain.Booking{}, err
	}

	var out domain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.lock(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status == next {
			out = *booking
			return nil
		}
		if !booking.Status.CanTransitionTo(next) {
			return domain.ErrStatusTransition
		}
		booking.Status = next
		booking.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, booking); err != nil {
			return err
		}
		out = *booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, status string) (domain.Booking, error) {
	next, err := domain.ParsePaymentStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return domain.Booking{}, err
	}
	bookingID, err := parseID(id)
	if err != nil {
		return domain.Booking{}, err
	}

	var out domain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.lock(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.PaymentStatus == next {
			out = *booking
			return nil
		}
		if !booking.PaymentStatus.CanTransitionTo(next) {
			return domain.ErrStatusTransition
		}
		now := s.clock.Now()
		booking.PaymentStatus = next
		if next == domain.PaymentPaid {
			booking.PaidAt = &now
		}
		booking.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, booking); err != nil {
			return err
		}
		out = *booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

// Cancel is idempotent. The slot goes back on sale only when configured to.
func (s *Service) Cancel(ctx context.Context, id string) (domain.Booking, error) {
	bookingID, err := parseID(id)
	if err != nil {
		return domain.Booking{}, err
	}

	var (
		out       domain.Booking
		cancelled bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.lock(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status == domain.StatusCancelled {
			out = *booking
			return nil
		}
		if !booking.Status.CanTransitionTo(domain.StatusCancelled) {
			return domain.ErrStatusTransition
		}
		now := s.clock.Now()
		booking.Status = domain.StatusCancelled
		booking.CancelledAt = &now
		booking.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, booking); err != nil {
			return err
		}
		if s.releaseOnCancel {
			if err := s.slots.Release(ctx, tx, booking.BookingDate, booking.TimeSlot, booking.ID); err != nil {
				return err
			}
		}
		out = *booking
		cancelled = true
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	if cancelled {
		s.log.Info("booking cancelled",
			zap.String("booking_id", out.ID.String()),
			zap.Bool("slot_released", s.releaseOnCancel),
		)
		s.removeCalendarEvent(ctx, out)
	}
	return out, nil
}

// ProcessPayment charges the booking total. A declined charge marks the
// payment failed and leaves the booking open for another attempt.
func (s *Service) ProcessPayment(ctx context.Context, id string) (domain.PaymentResult, error) {
	booking, err := s.load(ctx, s.db, id)
	if err != nil {
		return domain.PaymentResult{}, err
	}
	if !payable(*booking) {
		return domain.PaymentResult{}, domain.ErrPaymentNotAllowed
	}

	result, err := s.payments.Charge(ctx, payment.Charge{
		Reference:   booking.Reference,
		Amount:      booking.TotalAmount,
		Description: "Cleaning service " + booking.BookingDate + " " + booking.TimeSlot,
	})
	if err != nil {
		return domain.PaymentResult{}, err
	}

	var out domain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lock(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if !payable(*locked) {
			return domain.ErrPaymentNotAllowed
		}
		now := s.clock.Now()
		if result.Success {
			txID := result.TransactionID
			paidAt := result.ProcessedAt
			if paidAt.IsZero() {
				paidAt = now
			}
			locked.PaymentStatus = domain.PaymentPaid
			locked.TransactionID = &txID
			locked.PaidAt = &paidAt
			if locked.Status == domain.StatusPending {
				locked.Status = domain.StatusConfirmed
			}
		} else {
			locked.PaymentStatus = domain.PaymentFailed
		}
		locked.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, locked); err != nil {
			return err
		}
		out = *locked
		return nil
	})
	if err != nil {
		return domain.PaymentResult{}, err
	}

	if !result.Success {
		s.log.Warn("payment declined",
			zap.String("booking_id", out.ID.String()),
			zap.String("reason", result.FailureReason),
		)
	}
	return domain.PaymentResult{
		Success:       result.Success,
		PaymentStatus: string(out.PaymentStatus),
		TransactionID: out.TransactionID,
		Booking:       out,
	}, nil
}

func payable(b domain.Booking) bool {
	if b.Status == domain.StatusCancelled {
		return false
	}
	return b.PaymentStatus == domain.PaymentPending || b.PaymentStatus == domain.PaymentFailed
}

// SendReminders claims each due booking before notifying, so concurrent
// runners never remind the same customer twice.
func (s *Service) SendReminders(ctx context.Context, date string) (int, error) {
	if _, err := timeslot.ParseDate(date); err != nil {
		return 0, err
	}
	date = strings.TrimSpace(date)
	if s.notifier == nil {
		return 0, nil
	}

	due, err := s.repo.ListDueForReminder(ctx, s.db, date)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, booking := range due {
		claimed, err := s.repo.MarkReminderSent(ctx, s.db, booking.ID, s.clock.Now())
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}
		if err := s.notifier.BookingReminder(ctx, noticeFor(*booking)); err != nil {
			s.log.Warn("reminder not delivered",
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	s.log.Info("reminders sent", zap.String("date", date), zap.Int("due", len(due)), zap.Int("sent", sent))
	return sent, nil
}
