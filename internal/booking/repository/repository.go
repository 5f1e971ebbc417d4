package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/pkg/db/option"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Create(booking).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Save(booking).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	return findOne(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	return findOne(db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Booking, error) {
	return findOne(db.WithContext(ctx).Where("reference = ?", reference))
}

func findOne(stmt *gorm.DB) (*domain.Booking, error) {
	var booking domain.Booking
	if err := stmt.Limit(1).Find(&booking).Error; err != nil {
		return nil, err
	}
	if booking.ID == 0 {
		return nil, nil
	}
	return &booking, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListBookingFilter, page pagination.Pagination) ([]*domain.Booking, error) {
	stmt := db.WithContext(ctx).Model(&domain.Booking{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		stmt = stmt.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.CustomerID != "" {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.DateFrom != "" {
		stmt = stmt.Where("booking_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		stmt = stmt.Where("booking_date <= ?", filter.DateTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)

	var items []*domain.Booking
	if err := stmt.Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SetCalendarEvent(ctx context.Context, db *gorm.DB, id, cleanerID snowflake.ID, eventID string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND cleaner_id = ?", id, cleanerID).
		UpdateColumns(map[string]any{"calendar_event_id": eventID, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ListDueForReminder(ctx context.Context, db *gorm.DB, date string) ([]*domain.Booking, error) {
	var items []*domain.Booking
	err := db.WithContext(ctx).
		Where("booking_date = ? AND status IN ? AND reminder_sent_at IS NULL", date,
			[]domain.Status{domain.StatusPending, domain.StatusConfirmed}).
		Order("id asc").
		Find(&items).Error
	return items, err
}

// MarkReminderSent claims the reminder for one booking so concurrent runs do
// not notify twice.
func (r *repo) MarkReminderSent(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND reminder_sent_at IS NULL", id).
		UpdateColumns(map[string]any{"reminder_sent_at": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
