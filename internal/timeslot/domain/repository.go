package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertMissing(ctx context.Context, db *gorm.DB, slots []*TimeSlot) (int64, error)
	FindByStart(ctx context.Context, db *gorm.DB, date, start string) (*TimeSlot, error)
	ListByDate(ctx context.Context, db *gorm.DB, date string, onlyAvailable bool) ([]*TimeSlot, error)
	AvailableDates(ctx context.Context, db *gorm.DB, from, to string) ([]string, error)
	Reserve(ctx context.Context, db *gorm.DB, date, start string, bookingID snowflake.ID, now time.Time) (bool, error)
	Release(ctx context.Context, db *gorm.DB, date, start string, bookingID snowflake.ID, now time.Time) (bool, error)
	SetAvailability(ctx context.Context, db *gorm.DB, date, start string, available bool, now time.Time) (bool, error)
}
