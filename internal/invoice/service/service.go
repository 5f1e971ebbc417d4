package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/invoice/domain"
	"github.com/smallbiznis/maidbook/internal/invoice/format"
	"github.com/smallbiznis/maidbook/internal/notification"
	"github.com/smallbiznis/maidbook/internal/observability/metrics"
	pricingdomain "github.com/smallbiznis/maidbook/internal/pricing/domain"
	"github.com/smallbiznis/maidbook/internal/providers/pdf"
	"github.com/smallbiznis/maidbook/pkg/db"
	"github.com/smallbiznis/maidbook/pkg/db/option"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
	"github.com/smallbiznis/maidbook/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const issueAttempts = 3

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	Repo     domain.Repository
	Bookings bookingdomain.Service
	Catalog  catalogdomain.Service
	Pricing  pricingdomain.Service
	PDF      pdf.Provider
	Notifier notification.Notifier `optional:"true"`
	Metrics  *metrics.Metrics      `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	bookings bookingdomain.Service
	catalog  catalogdomain.Service
	pricing  pricingdomain.Service
	pdf      pdf.Provider
	notifier notification.Notifier
	metrics  *metrics.Metrics

	cfg config.InvoiceConfig
	loc *time.Location
}

func New(p Params) domain.Service {
	cfg := p.Config.Invoice
	if strings.TrimSpace(cfg.NumberTemplate) == "" {
		cfg.NumberTemplate = format.DefaultNumberTemplate
	}
	if cfg.DueDays <= 0 {
		cfg.DueDays = 30
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		bookings: p.Bookings,
		catalog:  p.Catalog,
		pricing:  p.Pricing,
		pdf:      p.PDF,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		cfg:      cfg,
		loc:      p.Config.Location(),
	}
}

func (s *Service) GenerateForBooking(ctx context.Context, bookingID string) (domain.Invoice, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if booking.Status != bookingdomain.StatusCompleted {
		return domain.Invoice{}, domain.ErrBookingNotComplete
	}

	existing, err := s.repo.FindByBookingID(ctx, s.db, booking.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	lines, err := s.priceLines(ctx, booking)
	if err != nil {
		return domain.Invoice{}, err
	}
	subtotal := money.Zero
	for _, line := range lines {
		subtotal += line.Amount
	}
	if subtotal.IsNegative() {
		subtotal = money.Zero
	}
	tax := subtotal.BasisPoints(s.cfg.TaxRateBps)

	now := s.clock.Now()
	address := booking.Address.Data()
	invoice := domain.Invoice{
		ID:               s.genID.Generate(),
		BookingID:        booking.ID,
		BookingReference: booking.Reference,
		CustomerID:       booking.CustomerID,
		CustomerName:     booking.CustomerName,
		CustomerEmail:    booking.CustomerEmail,
		BillToAddress:    joinNonEmpty(", ", address.Street, address.City, address.State, address.ZipCode),
		ServiceDate:      booking.BookingDate,
		Status:           domain.InvoiceStatusDraft,
		SubtotalAmount:   subtotal,
		TaxRateBps:       s.cfg.TaxRateBps,
		TaxAmount:        tax,
		TotalAmount:      subtotal + tax,
		IssuedAt:         now,
		DueAt:            now.AddDate(0, 0, s.cfg.DueDays),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created := false
	for attempt := 1; ; attempt++ {
		created, err = s.issue(ctx, &invoice, lines)
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) || attempt == issueAttempts {
			return domain.Invoice{}, err
		}
		s.log.Debug("invoice sequence taken, retrying", zap.Int("attempt", attempt))
	}

	stored, err := s.repo.FindByBookingID(ctx, s.db, booking.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if stored == nil {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	if created {
		s.metrics.RecordInvoiceIssued(ctx)
		s.log.Info("invoice issued",
			zap.String("invoice_id", stored.ID.String()),
			zap.String("invoice_number", stored.InvoiceNumber),
			zap.String("booking_id", booking.ID.String()),
			zap.String("total", stored.TotalAmount.String()),
		)
	}
	return *stored, nil
}

// issue allocates the next number and stores the invoice with its lines.
// It reports false when another caller invoiced the booking first.
func (s *Service) issue(ctx context.Context, invoice *domain.Invoice, lines []domain.InvoiceItem) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.repo.NextSequence(ctx, tx)
		if err != nil {
			return err
		}
		number, err := format.Number(s.cfg.NumberTemplate, invoice.IssuedAt.In(s.loc), seq)
		if err != nil {
			return err
		}
		invoice.Sequence = seq
		invoice.InvoiceNumber = number

		inserted, err := s.repo.Insert(ctx, tx, invoice)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		items := make([]domain.InvoiceItem, 0, len(lines))
		for i, line := range lines {
			line.ID = s.genID.Generate()
			line.InvoiceID = invoice.ID
			line.Position = i + 1
			line.CreatedAt = invoice.CreatedAt
			items = append(items, line)
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// priceLines rebuilds the invoice lines from the current price matrix and
// catalog. Add-ons no longer in the catalog keep their booked price.
func (s *Service) priceLines(ctx context.Context, booking bookingdomain.Booking) ([]domain.InvoiceItem, error) {
	lines := []domain.InvoiceItem{{
		Description: fmt.Sprintf("Standard cleaning, %s sq ft (%s)", booking.HouseSize, frequencyLabel(booking.Frequency)),
		Quantity:    1,
		UnitAmount:  s.pricing.BasePrice(booking.HouseSize, booking.Frequency),
	}}
	lines[0].Amount = lines[0].UnitAmount

	ids := make([]snowflake.ID, 0, len(booking.Items))
	for _, item := range booking.Items {
		if item.IsALaCarte {
			ids = append(ids, item.ServiceID)
		}
	}
	services := map[snowflake.ID]catalogdomain.CleaningService{}
	if len(ids) > 0 {
		found, err := s.catalog.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		services = found
	}

	for _, item := range booking.Items {
		if !item.IsALaCarte {
			continue
		}
		name, unit := item.Name, item.UnitPrice
		if svc, ok := services[item.ServiceID]; ok {
			name = svc.Name
			unit = s.pricing.UnitPrice(pricingdomain.Item{Name: svc.Name, Price: svc.Price}, booking.HouseSize)
		}
		lines = append(lines, domain.InvoiceItem{
			Description: name,
			Quantity:    int64(item.Quantity),
			UnitAmount:  unit,
			Amount:      unit.Mul(item.Quantity),
		})
	}

	if booking.DiscountAmount > 0 {
		label := "Discount"
		if booking.PromoCode != nil {
			label = fmt.Sprintf("Promo code %s", *booking.PromoCode)
		}
		lines = append(lines, domain.InvoiceItem{
			Description: label,
			Quantity:    1,
			UnitAmount:  -booking.DiscountAmount,
			Amount:      -booking.DiscountAmount,
		})
	}
	return lines, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}
	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return *invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	filter := domain.ListInvoiceFilter{CustomerID: strings.TrimSpace(req.CustomerID)}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := domain.ParseStatus(strings.ToUpper(raw))
		if err != nil {
			return domain.ListInvoiceResponse{}, err
		}
		filter.Status = status
	}

	pageSize := option.NormalizePageSize(int(req.PageSize))
	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(inv *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: inv.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		invoices = append(invoices, *item)
	}
	return domain.ListInvoiceResponse{PageInfo: pageInfo, Invoices: invoices}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (domain.Invoice, error) {
	next, err := domain.ParseStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return domain.Invoice{}, err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrInvoiceNotFound
		}
		if invoice.Status == next {
			return nil
		}
		if !invoice.Status.CanTransitionTo(next) {
			return domain.ErrStatusTransition
		}

		now := s.clock.Now()
		invoice.Status = next
		switch next {
		case domain.InvoiceStatusSent:
			invoice.SentAt = &now
		case domain.InvoiceStatusPaid:
			invoice.PaidAt = &now
		case domain.InvoiceStatusVoid:
			invoice.VoidedAt = &now
		}
		invoice.UpdatedAt = now
		changed = true
		return s.repo.Update(ctx, tx, invoice)
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if changed && next == domain.InvoiceStatusSent && s.notifier != nil {
		notice := notification.InvoiceNotice{
			InvoiceNumber: invoice.InvoiceNumber,
			CustomerName:  invoice.CustomerName,
			CustomerEmail: invoice.CustomerEmail,
			Total:         invoice.TotalAmount,
			DueDate:       s.displayDate(invoice.DueAt),
		}
		if err := s.notifier.InvoiceIssued(ctx, notice); err != nil {
			s.log.Warn("invoice notification not delivered",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
		}
	}
	return invoice, nil
}

func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, s.db, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("invoices marked overdue", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) displayDate(t time.Time) string {
	return t.In(s.loc).Format("January 2, 2006")
}

func frequencyLabel(freq pricingdomain.Frequency) string {
	switch freq {
	case pricingdomain.FrequencyOneTime:
		return "one time"
	case pricingdomain.FrequencyBiWeekly:
		return "bi-weekly"
	case pricingdomain.FrequencyEvery3Weeks:
		return "every 3 weeks"
	}
	return string(freq)
}

func joinNonEmpty(sep string, values ...string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}

func parseID(raw string) (snowflake.ID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.ErrInvalidInvoiceID
	}
	return snowflake.ID(v), nil
}
