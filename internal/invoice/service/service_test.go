package service

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/maidbook/internal/catalog/repository"
	catalogsvc "github.com/smallbiznis/maidbook/internal/catalog/service"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/invoice/domain"
	"github.com/smallbiznis/maidbook/internal/invoice/format"
	"github.com/smallbiznis/maidbook/internal/invoice/repository"
	"github.com/smallbiznis/maidbook/internal/notification"
	pricingdomain "github.com/smallbiznis/maidbook/internal/pricing/domain"
	pricingsvc "github.com/smallbiznis/maidbook/internal/pricing/service"
	"github.com/smallbiznis/maidbook/internal/providers/pdf"
	"github.com/smallbiznis/maidbook/internal/testutil"
	"github.com/smallbiznis/maidbook/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 10:00 in Chicago.
var testNow = time.Date(2025, 6, 20, 15, 0, 0, 0, time.UTC)

type stubBookings struct {
	bookingdomain.Service
	mu       sync.Mutex
	bookings map[string]bookingdomain.Booking
}

func (s *stubBookings) GetByID(ctx context.Context, id string) (bookingdomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return bookingdomain.Booking{}, bookingdomain.ErrNotFound
	}
	return b, nil
}

type invoiceNotifier struct {
	notification.Notifier
	mu     sync.Mutex
	issued []notification.InvoiceNotice
}

func (n *invoiceNotifier) InvoiceIssued(ctx context.Context, notice notification.InvoiceNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issued = append(n.issued, notice)
	return nil
}

type fixture struct {
	db       *gorm.DB
	svc      domain.Service
	clock    *clock.FakeClock
	node     *snowflake.Node
	catalog  catalogdomain.Service
	bookings *stubBookings
	notifier *invoiceNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t, &domain.Invoice{}, &domain.InvoiceItem{}, &catalogdomain.CleaningService{})
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(testNow)
	log := zap.NewNop()
	catalog := catalogsvc.New(catalogsvc.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: catalogrepo.Provide()})
	bookings := &stubBookings{bookings: map[string]bookingdomain.Booking{}}
	notifier := &invoiceNotifier{}

	svc := New(Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Config: config.Config{
			Timezone: "America/Chicago",
			Invoice: config.InvoiceConfig{
				TaxRateBps:     825,
				DueDays:        30,
				NumberTemplate: format.DefaultNumberTemplate,
				BusinessName:   "Maids of Cyfair",
			},
		},
		Repo:     repository.Provide(),
		Bookings: bookings,
		Catalog:  catalog,
		Pricing:  pricingsvc.New(pricingsvc.Params{Log: log, Config: config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())}),
		PDF:      pdf.New(),
		Notifier: notifier,
	})
	return fixture{db: db, svc: svc, clock: clk, node: node, catalog: catalog, bookings: bookings, notifier: notifier}
}

func (f fixture) addBooking(status bookingdomain.Status, size pricingdomain.HouseSize, freq pricingdomain.Frequency, items []bookingdomain.LineItem, discount money.Amount, code string) string {
	b := bookingdomain.Booking{
		ID:             f.node.Generate(),
		Reference:      "01J0000000000000000000TEST",
		CustomerID:     "guest_jane@example.com",
		CustomerName:   "Jane Doe",
		CustomerEmail:  "jane@example.com",
		Address:        datatypes.NewJSONType(bookingdomain.Address{Street: "1 Main St", City: "Cypress", State: "TX"}),
		HouseSize:      size,
		Frequency:      freq,
		Items:          datatypes.NewJSONSlice(items),
		BookingDate:    "2025-06-19",
		TimeSlot:       "08:00-10:00",
		DiscountAmount: discount,
		Status:         status,
	}
	if code != "" {
		b.PromoCode = &code
	}
	f.bookings.mu.Lock()
	f.bookings.bookings[b.ID.String()] = b
	f.bookings.mu.Unlock()
	return b.ID.String()
}

func (f fixture) countInvoices(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.Invoice{}).Count(&n).Error)
	return n
}

func TestGenerateRequiresCompletedBooking(t *testing.T) {
	f := newFixture(t)
	id := f.addBooking(bookingdomain.StatusConfirmed, "1000-1500", "monthly", nil, 0, "")

	_, err := f.svc.GenerateForBooking(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrBookingNotComplete)

	_, err = f.svc.GenerateForBooking(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, bookingdomain.ErrNotFound)
	assert.Zero(t, f.countInvoices(t))
}

func TestGenerateRepricesLinesAndAppliesTax(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oven, err := f.catalog.Create(ctx, catalogdomain.CreateServiceRequest{Name: "Inside Oven", IsALaCarte: true, Price: money.Ptr(money.Dollars(35))})
	require.NoError(t, err)
	_, err = f.catalog.Update(ctx, oven.ID.String(), catalogdomain.UpdateServiceRequest{Price: money.Ptr(money.Dollars(40))})
	require.NoError(t, err)

	id := f.addBooking(bookingdomain.StatusCompleted, "2000-2500", "monthly", []bookingdomain.LineItem{
		{ServiceID: 1, Name: "Standard Cleaning", Quantity: 1},
		{ServiceID: oven.ID, Name: "Inside Oven", Quantity: 2, UnitPrice: money.Dollars(35), Amount: money.Dollars(70), IsALaCarte: true},
		{ServiceID: 99, Name: "Retired Add-on", Quantity: 1, UnitPrice: money.Dollars(12), Amount: money.Dollars(12), IsALaCarte: true},
	}, money.Dollars(36), "SAVE20")

	invoice, err := f.svc.GenerateForBooking(ctx, id)
	require.NoError(t, err)

	require.Len(t, invoice.Items, 4)
	assert.Equal(t, money.Dollars(180), invoice.Items[0].Amount)
	assert.Equal(t, money.Dollars(40), invoice.Items[1].UnitAmount)
	assert.Equal(t, money.Dollars(80), invoice.Items[1].Amount)
	assert.Equal(t, "Retired Add-on", invoice.Items[2].Description)
	assert.Equal(t, money.Dollars(12), invoice.Items[2].Amount)
	assert.Equal(t, "Promo code SAVE20", invoice.Items[3].Description)
	assert.Equal(t, money.Dollars(-36), invoice.Items[3].Amount)

	assert.Equal(t, money.Dollars(236), invoice.SubtotalAmount)
	assert.Equal(t, money.Cents(1947), invoice.TaxAmount)
	assert.Equal(t, money.Cents(25547), invoice.TotalAmount)
	assert.Equal(t, "INV-20250620-000001", invoice.InvoiceNumber)
	assert.Equal(t, domain.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, testNow.AddDate(0, 0, 30).Unix(), invoice.DueAt.Unix())
	assert.Equal(t, "1 Main St, Cypress, TX", invoice.BillToAddress)
}

func TestGenerateRoundsTaxHalfToEven(t *testing.T) {
	f := newFixture(t)
	id := f.addBooking(bookingdomain.StatusCompleted, "1000-1500", "monthly", nil, 0, "")

	invoice, err := f.svc.GenerateForBooking(context.Background(), id)
	require.NoError(t, err)

	// 125.00 * 8.25% = 10.3125
	assert.Equal(t, money.Cents(1031), invoice.TaxAmount)
	assert.Equal(t, money.Cents(13531), invoice.TotalAmount)
}

func TestGenerateIsIdempotentAndNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.addBooking(bookingdomain.StatusCompleted, "1000-1500", "weekly", nil, 0, "")
	second := f.addBooking(bookingdomain.StatusCompleted, "1500-2000", "weekly", nil, 0, "")

	a, err := f.svc.GenerateForBooking(ctx, first)
	require.NoError(t, err)
	again, err := f.svc.GenerateForBooking(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)

	b, err := f.svc.GenerateForBooking(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "INV-20250620-000002", b.InvoiceNumber)
	assert.Equal(t, int64(2), f.countInvoices(t))
}

func TestConcurrentGenerationIssuesOneInvoice(t *testing.T) {
	f := newFixture(t)
	id := f.addBooking(bookingdomain.StatusCompleted, "1000-1500", "weekly", nil, 0, "")

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[snowflake.ID]struct{}{}
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			invoice, err := f.svc.GenerateForBooking(context.Background(), id)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[invoice.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, int64(1), f.countInvoices(t))
}

func TestStatusTransitionsAndOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice, err := f.svc.GenerateForBooking(ctx, f.addBooking(bookingdomain.StatusCompleted, "1000-1500", "weekly", nil, 0, ""))
	require.NoError(t, err)
	id := invoice.ID.String()

	_, err = f.svc.UpdateStatus(ctx, id, "OVERDUE")
	assert.ErrorIs(t, err, domain.ErrStatusTransition)
	_, err = f.svc.UpdateStatus(ctx, id, "lost")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	sent, err := f.svc.UpdateStatus(ctx, id, "sent")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, sent.Status)
	assert.NotNil(t, sent.SentAt)
	require.Len(t, f.notifier.issued, 1)
	assert.Equal(t, invoice.InvoiceNumber, f.notifier.issued[0].InvoiceNumber)

	n, err := f.svc.MarkOverdue(ctx, f.clock.Now().AddDate(0, 0, 29))
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = f.svc.MarkOverdue(ctx, f.clock.Now().AddDate(0, 0, 31))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	paid, err := f.svc.UpdateStatus(ctx, id, "PAID")
	require.NoError(t, err)
	assert.NotNil(t, paid.PaidAt)

	_, err = f.svc.UpdateStatus(ctx, id, "VOID")
	assert.ErrorIs(t, err, domain.ErrStatusTransition)

	list, err := f.svc.List(ctx, domain.ListInvoiceRequest{Status: "paid"})
	require.NoError(t, err)
	require.Len(t, list.Invoices, 1)
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice, err := f.svc.GenerateForBooking(ctx, f.addBooking(bookingdomain.StatusCompleted, "1000-1500", "weekly", nil, 0, ""))
	require.NoError(t, err)

	doc, err := f.svc.RenderPDF(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoice.InvoiceNumber+".pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))

	_, err = f.svc.UpdateStatus(ctx, invoice.ID.String(), "PAID")
	require.NoError(t, err)
	receipt, err := f.svc.RenderPDF(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "receipt-"+invoice.InvoiceNumber+".pdf", receipt.Filename)
	assert.True(t, bytes.HasPrefix(receipt.Content, []byte("%PDF")))

	_, err = f.svc.RenderPDF(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInvoiceID)
}
