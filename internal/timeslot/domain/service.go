package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// EnsureHorizon creates any missing slots for days starting at from.
	EnsureHorizon(ctx context.Context, from time.Time, days int) (int64, error)
	ListByDate(ctx context.Context, date string, onlyAvailable bool) ([]TimeSlot, error)
	AvailableDates(ctx context.Context, from time.Time, days int) ([]string, error)
	Get(ctx context.Context, date, label string) (TimeSlot, error)

	// Reserve marks the slot taken by bookingID inside tx. It succeeds for
	// exactly one caller per slot.
	Reserve(ctx context.Context, tx *gorm.DB, date, label string, bookingID snowflake.ID) (TimeSlot, error)
	Release(ctx context.Context, tx *gorm.DB, date, label string, bookingID snowflake.ID) error
	SetAvailability(ctx context.Context, date, label string, available bool) (TimeSlot, error)
}

var (
	ErrInvalidDate     = errors.New("invalid_booking_date")
	ErrInvalidTimeSlot = errors.New("invalid_time_slot")
	ErrInvalidHorizon  = errors.New("invalid_horizon")
	ErrSlotNotFound    = errors.New("time_slot_not_found")
	ErrSlotUnavailable = errors.New("time_slot_unavailable")
	ErrSlotReserved    = errors.New("time_slot_reserved")
)
