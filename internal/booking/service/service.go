package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maidbook/internal/booking/domain"
	catalog "github.com/smallbiznis/maidbook/internal/catalog/domain"
	cleaner "github.com/smallbiznis/maidbook/internal/cleaner/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	customer "github.com/smallbiznis/maidbook/internal/customer/domain"
	"github.com/smallbiznis/maidbook/internal/notification"
	"github.com/smallbiznis/maidbook/internal/observability/metrics"
	pricing "github.com/smallbiznis/maidbook/internal/pricing/domain"
	promo "github.com/smallbiznis/maidbook/internal/promo/domain"
	"github.com/smallbiznis/maidbook/internal/providers/calendar"
	"github.com/smallbiznis/maidbook/internal/providers/payment"
	timeslot "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"github.com/smallbiznis/maidbook/pkg/db/option"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    config.Config
	Repo      domain.Repository
	Pricing   pricing.Service
	Catalog   catalog.Service
	Promos    promo.Service
	Slots     timeslot.Service
	Customers customer.Service
	Cleaners  cleaner.Service
	Calendar  calendar.Provider
	Payments  payment.Provider
	Notifier  notification.Notifier `optional:"true"`
	Metrics   *metrics.Metrics      `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	pricing   pricing.Service
	catalog   catalog.Service
	promos    promo.Service
	slots     timeslot.Service
	customers customer.Service
	cleaners  cleaner.Service
	calendar  calendar.Provider
	payments  payment.Provider
	notifier  notification.Notifier
	metrics   *metrics.Metrics

	loc             *time.Location
	releaseOnCancel bool
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("booking.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		pricing:         p.Pricing,
		catalog:         p.Catalog,
		promos:          p.Promos,
		slots:           p.Slots,
		customers:       p.Customers,
		cleaners:        p.Cleaners,
		calendar:        p.Calendar,
		payments:        p.Payments,
		notifier:        p.Notifier,
		metrics:         p.Metrics,
		loc:             p.Config.Location(),
		releaseOnCancel: p.Config.Slots.ReleaseOnCancel,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	booking, err := s.load(ctx, s.db, id)
	if err != nil {
		return domain.Booking{}, err
	}
	return *booking, nil
}

func (s *Service) GetByReference(ctx context.Context, reference string) (domain.Booking, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if reference == "" {
		return domain.Booking{}, domain.ErrNotFound
	}
	booking, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking == nil {
		return domain.Booking{}, domain.ErrNotFound
	}
	return *booking, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBookingRequest) (domain.ListBookingResponse, error) {
	filter := domain.ListBookingFilter{
		CustomerID: strings.TrimSpace(req.CustomerID),
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.ListBookingResponse{}, err
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.PaymentStatus); raw != "" {
		status, err := domain.ParsePaymentStatus(raw)
		if err != nil {
			return domain.ListBookingResponse{}, err
		}
		filter.PaymentStatus = status
	}
	for _, d := range []struct {
		raw string
		dst *string
	}{{req.DateFrom, &filter.DateFrom}, {req.DateTo, &filter.DateTo}} {
		if raw := strings.TrimSpace(d.raw); raw != "" {
			if _, err := timeslot.ParseDate(raw); err != nil {
				return domain.ListBookingResponse{}, err
			}
			*d.dst = raw
		}
	}

	pageSize := option.NormalizePageSize(int(req.PageSize))
	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListBookingResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(b *domain.Booking) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: b.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	bookings := make([]domain.Booking, 0, len(items))
	for _, item := range items {
		bookings = append(bookings, *item)
	}
	return domain.ListBookingResponse{PageInfo: pageInfo, Bookings: bookings}, nil
}

func (s *Service) ListForCustomer(ctx context.Context, customerID string, req domain.ListBookingRequest) (domain.ListBookingResponse, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.ListBookingResponse{}, domain.ErrInvalidID
	}
	req.CustomerID = customerID
	return s.List(ctx, req)
}

func (s *Service) load(ctx context.Context, db *gorm.DB, id string) (*domain.Booking, error) {
	bookingID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	booking, err := s.repo.FindByID(ctx, db, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.ErrNotFound
	}
	return booking, nil
}

func (s *Service) lock(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	booking, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.ErrNotFound
	}
	return booking, nil
}

// visitWindow is the absolute time span a booking occupies on a cleaner's calendar.
func (s *Service) visitWindow(b domain.Booking) (time.Time, time.Time, error) {
	start, err := timeslot.StartOf(b.TimeSlot)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	slot := timeslot.TimeSlot{SlotDate: b.BookingDate, StartTime: start, EndTime: start}
	from, _, err := slot.Window(s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	hours := b.EstimatedDurationHours
	if hours <= 0 {
		hours = 1
	}
	return from, from.Add(time.Duration(hours) * time.Hour), nil
}

func parseID(raw string) (snowflake.ID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.ErrInvalidID
	}
	return snowflake.ID(v), nil
}
