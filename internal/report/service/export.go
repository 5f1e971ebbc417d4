package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/internal/report/domain"
	timeslot "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"go.uber.org/zap"
)

var exportHeader = []string{
	"reference",
	"booking_date",
	"time_slot",
	"customer_name",
	"customer_email",
	"customer_phone",
	"guest",
	"house_size",
	"frequency",
	"status",
	"payment_status",
	"subtotal",
	"discount",
	"total",
	"promo_code",
	"duration_hours",
	"created_at",
}

func (s *Service) ExportBookingsCSV(ctx context.Context, w io.Writer, req domain.ExportRequest) error {
	filter, err := exportFilter(req)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	rows := 0
	err = s.repo.EachForExport(ctx, s.db, filter, func(b bookingdomain.Booking) error {
		rows++
		return cw.Write(exportRow(b, s.loc))
	})
	if err != nil {
		return err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	s.log.Info("bookings exported",
		zap.Int("rows", rows),
		zap.String("from", filter.DateFrom),
		zap.String("to", filter.DateTo),
	)
	return nil
}

func exportFilter(req domain.ExportRequest) (domain.ExportFilter, error) {
	filter := domain.ExportFilter{
		DateFrom: strings.TrimSpace(req.DateFrom),
		DateTo:   strings.TrimSpace(req.DateTo),
	}
	for _, raw := range []string{filter.DateFrom, filter.DateTo} {
		if raw == "" {
			continue
		}
		if _, err := timeslot.ParseDate(raw); err != nil {
			return domain.ExportFilter{}, err
		}
	}
	if filter.DateFrom != "" && filter.DateTo != "" && filter.DateFrom > filter.DateTo {
		return domain.ExportFilter{}, domain.ErrInvalidDateRange
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := bookingdomain.ParseStatus(strings.ToLower(raw))
		if err != nil {
			return domain.ExportFilter{}, err
		}
		filter.Status = string(status)
	}
	return filter, nil
}

func exportRow(b bookingdomain.Booking, loc *time.Location) []string {
	promo := ""
	if b.PromoCode != nil {
		promo = *b.PromoCode
	}
	return []string{
		b.Reference,
		b.BookingDate,
		b.TimeSlot,
		b.CustomerName,
		b.CustomerEmail,
		b.CustomerPhone,
		strconv.FormatBool(b.IsGuest),
		string(b.HouseSize),
		string(b.Frequency),
		string(b.Status),
		string(b.PaymentStatus),
		b.Subtotal.String(),
		b.DiscountAmount.String(),
		b.TotalAmount.String(),
		promo,
		strconv.Itoa(b.EstimatedDurationHours),
		b.CreatedAt.In(loc).Format(time.RFC3339),
	}
}
