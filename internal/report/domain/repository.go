package domain

import (
	"context"

	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type ExportFilter struct {
	DateFrom string
	DateTo   string
	Status   string
}

type Repository interface {
	StatusTotals(ctx context.Context, db *gorm.DB) ([]StatusTotal, error)
	CountCustomers(ctx context.Context, db *gorm.DB) (int64, error)
	DayTotals(ctx context.Context, db *gorm.DB, from, to string) ([]DayTotal, error)
	ListByStatus(ctx context.Context, db *gorm.DB, statuses []bookingdomain.Status, page pagination.Pagination) ([]*bookingdomain.Booking, error)
	// EachForExport streams matching bookings in creation order.
	EachForExport(ctx context.Context, db *gorm.DB, filter ExportFilter, fn func(bookingdomain.Booking) error) error
}
