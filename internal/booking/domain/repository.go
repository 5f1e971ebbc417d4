package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, booking *Booking) error
	Update(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	// FindByIDForUpdate locks the row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*Booking, error)
	List(ctx context.Context, db *gorm.DB, filter ListBookingFilter, page pagination.Pagination) ([]*Booking, error)
	// SetCalendarEvent stores eventID only while cleanerID is still assigned.
	SetCalendarEvent(ctx context.Context, db *gorm.DB, id, cleanerID snowflake.ID, eventID string, at time.Time) (bool, error)
	ListDueForReminder(ctx context.Context, db *gorm.DB, date string) ([]*Booking, error)
	MarkReminderSent(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
}
