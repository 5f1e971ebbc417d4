package repository

import (
	"context"

	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/internal/report/domain"
	"github.com/smallbiznis/maidbook/pkg/db/option"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
	"gorm.io/gorm"
)

const exportBatchSize = 200

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) StatusTotals(ctx context.Context, db *gorm.DB) ([]domain.StatusTotal, error) {
	var rows []domain.StatusTotal
	err := db.WithContext(ctx).
		Model(&bookingdomain.Booking{}).
		Select(
			"status, COUNT(*) AS count, CAST(COALESCE(SUM(CASE WHEN payment_status = ? THEN total_cents ELSE 0 END), 0) AS BIGINT) AS revenue",
			bookingdomain.PaymentPaid,
		).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *repo) CountCustomers(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&bookingdomain.Booking{}).
		Distinct("customer_id").
		Count(&count).Error
	return count, err
}

func (r *repo) DayTotals(ctx context.Context, db *gorm.DB, from, to string) ([]domain.DayTotal, error) {
	var rows []domain.DayTotal
	err := db.WithContext(ctx).
		Model(&bookingdomain.Booking{}).
		Select(
			`booking_date,
			COUNT(*) AS bookings,
			CAST(COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS BIGINT) AS completed,
			CAST(COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS BIGINT) AS cancellations,
			CAST(COALESCE(SUM(CASE WHEN payment_status = ? THEN total_cents ELSE 0 END), 0) AS BIGINT) AS revenue`,
			bookingdomain.StatusCompleted,
			bookingdomain.StatusCancelled,
			bookingdomain.PaymentPaid,
		).
		Where("booking_date >= ? AND booking_date <= ?", from, to).
		Group("booking_date").
		Order("booking_date").
		Scan(&rows).Error
	return rows, err
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, statuses []bookingdomain.Status, page pagination.Pagination) ([]*bookingdomain.Booking, error) {
	stmt := db.WithContext(ctx).
		Model(&bookingdomain.Booking{}).
		Where("status IN ?", statuses)
	stmt = option.ApplyPagination(page).Apply(stmt)

	var items []*bookingdomain.Booking
	if err := stmt.Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) EachForExport(ctx context.Context, db *gorm.DB, filter domain.ExportFilter, fn func(bookingdomain.Booking) error) error {
	stmt := db.WithContext(ctx).Model(&bookingdomain.Booking{})
	if filter.DateFrom != "" {
		stmt = stmt.Where("booking_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		stmt = stmt.Where("booking_date <= ?", filter.DateTo)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var batch []bookingdomain.Booking
	res := stmt.FindInBatches(&batch, exportBatchSize, func(tx *gorm.DB, _ int) error {
		for _, item := range batch {
			if err := fn(item); err != nil {
				return err
			}
		}
		return nil
	})
	return res.Error
}
