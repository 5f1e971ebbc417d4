package domain

import (
	"context"
	"errors"
	"io"
	"time"

	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
)

type OrderListRequest struct {
	PageToken string
	PageSize  int32
}

type OrderListResponse struct {
	pagination.PageInfo
	Bookings []bookingdomain.Booking `json:"bookings"`
}

type ExportRequest struct {
	DateFrom string
	DateTo   string
	Status   string
}

type Service interface {
	Stats(ctx context.Context) (Stats, error)
	// Weekly covers the seven service dates ending on now's business date.
	Weekly(ctx context.Context, now time.Time) (PeriodReport, error)
	// Monthly covers the thirty service dates ending on now's business date.
	Monthly(ctx context.Context, now time.Time) (PeriodReport, error)
	PendingOrders(ctx context.Context, req OrderListRequest) (OrderListResponse, error)
	OrderHistory(ctx context.Context, req OrderListRequest) (OrderListResponse, error)
	ExportBookingsCSV(ctx context.Context, w io.Writer, req ExportRequest) error
}

var (
	ErrInvalidDateRange = errors.New("invalid_date_range")
)
