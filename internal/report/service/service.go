package service

import (
	"context"
	"math"
	"strconv"
	"time"

	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/report/domain"
	timeslot "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"github.com/smallbiznis/maidbook/pkg/db/option"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
	"github.com/smallbiznis/maidbook/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	weeklyDays  = 7
	monthlyDays = 30
)

var historyStatuses = []bookingdomain.Status{
	bookingdomain.StatusCompleted,
	bookingdomain.StatusCancelled,
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
	Repo   domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	loc  *time.Location
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("report.service"),
		loc:  p.Config.Location(),
		repo: p.Repo,
	}
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	rows, err := s.repo.StatusTotals(ctx, s.db)
	if err != nil {
		return domain.Stats{}, err
	}
	customers, err := s.repo.CountCustomers(ctx, s.db)
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{
		ByStatus:  map[string]int64{},
		Customers: customers,
	}
	for _, status := range []bookingdomain.Status{
		bookingdomain.StatusPending,
		bookingdomain.StatusConfirmed,
		bookingdomain.StatusInProgress,
		bookingdomain.StatusCompleted,
		bookingdomain.StatusCancelled,
	} {
		stats.ByStatus[string(status)] = 0
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] += row.Count
		stats.TotalBookings += row.Count
		stats.Revenue += money.Cents(row.Revenue)
	}
	stats.PendingOrders = stats.ByStatus[string(bookingdomain.StatusPending)]
	return stats, nil
}

func (s *Service) Weekly(ctx context.Context, now time.Time) (domain.PeriodReport, error) {
	return s.period(ctx, "weekly", now, weeklyDays)
}

func (s *Service) Monthly(ctx context.Context, now time.Time) (domain.PeriodReport, error) {
	return s.period(ctx, "monthly", now, monthlyDays)
}

func (s *Service) period(ctx context.Context, name string, now time.Time, days int) (domain.PeriodReport, error) {
	local := now.In(s.loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	start := end.AddDate(0, 0, -(days - 1))
	from, to := start.Format(timeslot.DateLayout), end.Format(timeslot.DateLayout)

	rows, err := s.repo.DayTotals(ctx, s.db, from, to)
	if err != nil {
		return domain.PeriodReport{}, err
	}
	byDate := make(map[string]domain.DayTotal, len(rows))
	for _, row := range rows {
		byDate[row.BookingDate] = row
	}

	report := domain.PeriodReport{
		Period: name,
		From:   from,
		To:     to,
		Days:   make([]domain.DayBucket, 0, days),
	}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(timeslot.DateLayout)
		row := byDate[key]
		report.Days = append(report.Days, domain.DayBucket{
			Date:          key,
			Bookings:      row.Bookings,
			Completed:     row.Completed,
			Cancellations: row.Cancellations,
			Revenue:       money.Cents(row.Revenue),
		})
		report.TotalBookings += row.Bookings
		report.Completed += row.Completed
		report.Cancellations += row.Cancellations
		report.Revenue += money.Cents(row.Revenue)
	}
	report.CompletionRate = completionRate(report.Completed, report.TotalBookings)
	return report, nil
}

// PendingOrders lists bookings still waiting for confirmation.
func (s *Service) PendingOrders(ctx context.Context, req domain.OrderListRequest) (domain.OrderListResponse, error) {
	return s.listByStatus(ctx, []bookingdomain.Status{bookingdomain.StatusPending}, req)
}

// OrderHistory lists bookings that reached a terminal status.
func (s *Service) OrderHistory(ctx context.Context, req domain.OrderListRequest) (domain.OrderListResponse, error) {
	return s.listByStatus(ctx, historyStatuses, req)
}

func (s *Service) listByStatus(ctx context.Context, statuses []bookingdomain.Status, req domain.OrderListRequest) (domain.OrderListResponse, error) {
	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(req.PageSize),
	}
	items, err := s.repo.ListByStatus(ctx, s.db, statuses, page)
	if err != nil {
		return domain.OrderListResponse{}, err
	}

	size := option.NormalizePageSize(page.PageSize)
	items, info := pagination.Trim(items, size, func(b *bookingdomain.Booking) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: strconv.FormatInt(int64(b.ID), 10)})
		return token
	})

	out := make([]bookingdomain.Booking, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return domain.OrderListResponse{PageInfo: info, Bookings: out}, nil
}

func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}
