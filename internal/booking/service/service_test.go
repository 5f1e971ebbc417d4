package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/maidbook/internal/booking/domain"
	"github.com/smallbiznis/maidbook/internal/booking/repository"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/maidbook/internal/catalog/repository"
	catalogsvc "github.com/smallbiznis/maidbook/internal/catalog/service"
	cleanerdomain "github.com/smallbiznis/maidbook/internal/cleaner/domain"
	cleanerrepo "github.com/smallbiznis/maidbook/internal/cleaner/repository"
	cleanersvc "github.com/smallbiznis/maidbook/internal/cleaner/service"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
	customerrepo "github.com/smallbiznis/maidbook/internal/customer/repository"
	customersvc "github.com/smallbiznis/maidbook/internal/customer/service"
	"github.com/smallbiznis/maidbook/internal/notification"
	pricingsvc "github.com/smallbiznis/maidbook/internal/pricing/service"
	promodomain "github.com/smallbiznis/maidbook/internal/promo/domain"
	promorepo "github.com/smallbiznis/maidbook/internal/promo/repository"
	promosvc "github.com/smallbiznis/maidbook/internal/promo/service"
	"github.com/smallbiznis/maidbook/internal/providers/calendar"
	"github.com/smallbiznis/maidbook/internal/providers/payment"
	"github.com/smallbiznis/maidbook/internal/testutil"
	slotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	slotrepo "github.com/smallbiznis/maidbook/internal/timeslot/repository"
	slotsvc "github.com/smallbiznis/maidbook/internal/timeslot/service"
	"github.com/smallbiznis/maidbook/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 07:00 in Chicago on 2025-06-15.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const visitDate = "2025-06-20"

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []notification.BookingNotice
	reminded  []notification.BookingNotice
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, notice notification.BookingNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, notice)
	return nil
}

func (n *recordingNotifier) BookingReminder(ctx context.Context, notice notification.BookingNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminded = append(n.reminded, notice)
	return nil
}

func (n *recordingNotifier) InvoiceIssued(ctx context.Context, notice notification.InvoiceNotice) error {
	return nil
}

type fixture struct {
	db        *gorm.DB
	svc       domain.Service
	clock     *clock.FakeClock
	node      *snowflake.Node
	slots     slotdomain.Service
	catalog   catalogdomain.Service
	promos    promodomain.Service
	customers customerdomain.Service
	cleaners  cleanerdomain.Service
	calendar  *calendar.MemoryProvider
	notifier  *recordingNotifier
}

func newFixture(t *testing.T, releaseOnCancel bool) fixture {
	t.Helper()
	db := testutil.NewDB(t,
		&domain.Booking{},
		&catalogdomain.CleaningService{},
		&promodomain.PromoCode{},
		&promodomain.PromoCodeUsage{},
		&slotdomain.TimeSlot{},
		&customerdomain.Customer{},
		&cleanerdomain.Cleaner{},
	)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(testNow)
	log := zap.NewNop()
	cfg := config.Config{
		Timezone: "America/Chicago",
		Slots: config.SlotConfig{
			StartHours:      []int{8, 10, 12, 14, 16},
			SlotHours:       2,
			ReleaseOnCancel: releaseOnCancel,
		},
	}

	slots := slotsvc.New(slotsvc.Params{DB: db, Log: log, GenID: node, Clock: clk, Config: cfg, Repo: slotrepo.Provide()})
	catalog := catalogsvc.New(catalogsvc.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: catalogrepo.Provide()})
	promos := promosvc.New(promosvc.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: promorepo.Provide()})
	customers := customersvc.New(customersvc.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: customerrepo.Provide()})
	cleaners := cleanersvc.New(cleanersvc.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: cleanerrepo.Provide()})
	pricing := pricingsvc.New(pricingsvc.Params{Log: log, Config: config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())})
	cal := calendar.NewMemory()
	notifier := &recordingNotifier{}

	svc := New(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Config:    cfg,
		Repo:      repository.Provide(),
		Pricing:   pricing,
		Catalog:   catalog,
		Promos:    promos,
		Slots:     slots,
		Customers: customers,
		Cleaners:  cleaners,
		Calendar:  cal,
		Payments:  payment.NewMock(clk),
		Notifier:  notifier,
	})

	_, err := slots.EnsureHorizon(context.Background(), testNow, 10)
	require.NoError(t, err)

	return fixture{
		db:        db,
		svc:       svc,
		clock:     clk,
		node:      node,
		slots:     slots,
		catalog:   catalog,
		promos:    promos,
		customers: customers,
		cleaners:  cleaners,
		calendar:  cal,
		notifier:  notifier,
	}
}

func guest(email string) *domain.Contact {
	return &domain.Contact{Email: email, FirstName: "Jane", LastName: "Doe", Phone: "+12815550100", Address: "1 Main St", City: "Cypress", State: "TX", ZipCode: "77429"}
}

func cart(size, freq, slot string) domain.Cart {
	return domain.Cart{HouseSize: size, Frequency: freq, BookingDate: visitDate, TimeSlot: slot}
}

func (f fixture) book(t *testing.T, c domain.Cart) domain.Booking {
	t.Helper()
	booking, err := f.svc.CreateBooking(context.Background(), domain.CreateBookingRequest{Cart: c, Contact: guest("jane@example.com")})
	require.NoError(t, err)
	return booking
}

func (f fixture) addOn(t *testing.T, name string, price money.Amount) string {
	t.Helper()
	svc, err := f.catalog.Create(context.Background(), catalogdomain.CreateServiceRequest{Name: name, IsALaCarte: true, Price: money.Ptr(price)})
	require.NoError(t, err)
	return svc.ID.String()
}

func (f fixture) countBookings(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.Booking{}).Count(&n).Error)
	return n
}

func TestCreateBookingForGuest(t *testing.T) {
	f := newFixture(t, false)

	booking := f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))

	assert.Equal(t, money.Dollars(125), booking.TotalAmount)
	assert.Equal(t, money.Dollars(125), booking.Subtotal)
	assert.Equal(t, 2, booking.EstimatedDurationHours)
	assert.Equal(t, "guest_jane@example.com", booking.CustomerID)
	assert.True(t, booking.IsGuest)
	assert.Nil(t, booking.UserID)
	assert.Equal(t, domain.StatusPending, booking.Status)
	assert.Equal(t, domain.PaymentPending, booking.PaymentStatus)
	assert.Len(t, booking.Reference, 26)
	assert.Equal(t, "Cypress", booking.Address.Data().City)

	slot, err := f.slots.Get(context.Background(), visitDate, "08:00-10:00")
	require.NoError(t, err)
	assert.False(t, slot.IsAvailable)
	require.NotNil(t, slot.BookingID)
	assert.Equal(t, booking.ID, *slot.BookingID)

	require.Len(t, f.notifier.confirmed, 1)
	assert.Equal(t, booking.Reference, f.notifier.confirmed[0].Reference)

	byRef, err := f.svc.GetByReference(context.Background(), booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, byRef.ID)
}

func TestCreateBookingAcceptsTwelveHourLabel(t *testing.T) {
	f := newFixture(t, false)

	booking := f.book(t, cart("1000-1500", "weekly", "10:00 AM - 12:00 PM"))

	assert.Equal(t, "10:00-12:00", booking.TimeSlot)
	assert.Equal(t, money.Dollars(110), booking.TotalAmount)
}

func TestCreateBookingPricesAddOns(t *testing.T) {
	f := newFixture(t, false)
	oven := f.addOn(t, "Inside Oven", money.Dollars(35))
	fridge := f.addOn(t, "Inside Fridge", money.Dollars(30))
	standard, err := f.catalog.Create(context.Background(), catalogdomain.CreateServiceRequest{Name: "Standard Cleaning"})
	require.NoError(t, err)

	c := cart("2000-2500", "monthly", "08:00-10:00")
	c.Services = []domain.LineItemInput{{ServiceID: standard.ID.String()}}
	c.ALaCarteServices = []domain.LineItemInput{
		{ServiceID: oven, Quantity: 2},
		{ServiceID: fridge},
		{ServiceID: "not-an-id", Quantity: 1},
	}
	booking := f.book(t, c)

	assert.Equal(t, money.Dollars(180), booking.BasePrice)
	assert.Equal(t, money.Dollars(100), booking.ALaCarteTotal)
	assert.Equal(t, money.Dollars(280), booking.Subtotal)
	assert.Equal(t, 5, booking.EstimatedDurationHours)
	require.Len(t, booking.Items, 3)
	assert.Equal(t, money.Zero, booking.Items[0].Amount)
	assert.Equal(t, money.Dollars(70), booking.Items[1].Amount)
	assert.Equal(t, 1, booking.Items[2].Quantity)
}

func TestCreateBookingAppliesPromo(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.promos.Create(context.Background(), promodomain.CreatePromoRequest{Code: "SAVE20", DiscountType: promodomain.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(20)})
	require.NoError(t, err)

	c := cart("2000-2500", "monthly", "10:00-12:00")
	c.PromoCode = "save20"
	booking := f.book(t, c)

	assert.Equal(t, money.Dollars(180), booking.Subtotal)
	assert.Equal(t, money.Dollars(36), booking.DiscountAmount)
	assert.Equal(t, money.Dollars(144), booking.TotalAmount)
	require.NotNil(t, booking.PromoCode)
	assert.Equal(t, "SAVE20", *booking.PromoCode)
	require.NotNil(t, booking.PromoCodeID)

	usages, err := f.promos.ListUsages(context.Background(), booking.PromoCodeID.String())
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, booking.ID, usages[0].BookingID)
}

func TestPromoRejectionLeavesNoTrace(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.promos.Create(context.Background(), promodomain.CreatePromoRequest{
		Code:               "BIG",
		DiscountType:       promodomain.DiscountTypeFixed,
		DiscountValue:      decimal.NewFromInt(50),
		MinimumOrderAmount: money.Ptr(money.Dollars(500)),
	})
	require.NoError(t, err)

	c := cart("1000-1500", "monthly", "08:00-10:00")
	c.PromoCode = "BIG"
	_, err = f.svc.CreateBooking(context.Background(), domain.CreateBookingRequest{Cart: c, Contact: guest("jane@example.com")})

	var rejection *promodomain.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, promodomain.ReasonMinimumNotMet, rejection.Reason)
	assert.Equal(t, "Minimum order amount of $500.00 required", rejection.Message)

	assert.Zero(t, f.countBookings(t))
	slot, err := f.slots.Get(context.Background(), visitDate, "08:00-10:00")
	require.NoError(t, err)
	assert.True(t, slot.IsAvailable)
	assert.Empty(t, f.notifier.confirmed)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	cases := []struct {
		name    string
		req     domain.CreateBookingRequest
		wantErr error
	}{
		{"unknown size", domain.CreateBookingRequest{Cart: cart("9000", "monthly", "08:00-10:00"), Contact: guest("a@example.com")}, nil},
		{"past date", domain.CreateBookingRequest{Cart: domain.Cart{HouseSize: "1000-1500", Frequency: "monthly", BookingDate: "2025-06-14", TimeSlot: "08:00-10:00"}, Contact: guest("a@example.com")}, domain.ErrBookingDateInPast},
		{"bad date", domain.CreateBookingRequest{Cart: domain.Cart{HouseSize: "1000-1500", Frequency: "monthly", BookingDate: "06/20/2025", TimeSlot: "08:00-10:00"}, Contact: guest("a@example.com")}, slotdomain.ErrInvalidDate},
		{"bad slot", domain.CreateBookingRequest{Cart: cart("1000-1500", "monthly", "noon"), Contact: guest("a@example.com")}, slotdomain.ErrInvalidTimeSlot},
		{"no contact", domain.CreateBookingRequest{Cart: cart("1000-1500", "monthly", "08:00-10:00")}, domain.ErrContactRequired},
		{"bad email", domain.CreateBookingRequest{Cart: cart("1000-1500", "monthly", "08:00-10:00"), Contact: guest("not-an-email")}, domain.ErrInvalidEmail},
		{"no first name", domain.CreateBookingRequest{Cart: cart("1000-1500", "monthly", "08:00-10:00"), Contact: &domain.Contact{Email: "a@example.com"}}, domain.ErrInvalidName},
		{"unknown slot", domain.CreateBookingRequest{Cart: cart("1000-1500", "monthly", "07:00-09:00"), Contact: guest("a@example.com")}, slotdomain.ErrSlotNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(ctx, tc.req)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}

	c := cart("1000-1500", "monthly", "08:00-10:00")
	c.ALaCarteServices = []domain.LineItemInput{{ServiceID: "1", Quantity: -1}}
	_, err := f.svc.CreateBooking(ctx, domain.CreateBookingRequest{Cart: c, Contact: guest("a@example.com")})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Zero(t, f.countBookings(t))
}

func TestBookingTodayIsAllowed(t *testing.T) {
	f := newFixture(t, false)
	c := cart("1000-1500", "monthly", "16:00-18:00")
	c.BookingDate = "2025-06-15"

	_, err := f.svc.CreateBooking(context.Background(), domain.CreateBookingRequest{Cart: c, Contact: guest("a@example.com")})
	assert.NoError(t, err)
}

func TestConcurrentBookingsForSameSlot(t *testing.T) {
	f := newFixture(t, false)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		errs    []error
	)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, err := f.svc.CreateBooking(context.Background(), domain.CreateBookingRequest{
				Cart:    cart("1000-1500", "monthly", "12:00-14:00"),
				Contact: guest(email),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			errs = append(errs, err)
		}(email)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], slotdomain.ErrSlotUnavailable)
	assert.Equal(t, int64(1), f.countBookings(t))
}

func TestConcurrentSingleUsePromo(t *testing.T) {
	f := newFixture(t, false)
	one := 1
	_, err := f.promos.Create(context.Background(), promodomain.CreatePromoRequest{
		Code:                  "ONCE",
		DiscountType:          promodomain.DiscountTypeFixed,
		DiscountValue:         decimal.NewFromInt(10),
		UsageLimitPerCustomer: &one,
	})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		errs    []error
	)
	for _, slot := range []string{"08:00-10:00", "14:00-16:00"} {
		wg.Add(1)
		go func(slot string) {
			defer wg.Done()
			c := cart("1000-1500", "monthly", slot)
			c.PromoCode = "ONCE"
			_, err := f.svc.CreateBooking(context.Background(), domain.CreateBookingRequest{Cart: c, Contact: guest("jane@example.com")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			errs = append(errs, err)
		}(slot)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	require.Len(t, errs, 1)
	var rejection *promodomain.RejectionError
	if errors.As(errs[0], &rejection) {
		assert.Equal(t, promodomain.ReasonAlreadyUsed, rejection.Reason)
	} else {
		assert.ErrorIs(t, errs[0], promodomain.ErrAlreadyUsed)
	}

	available, err := f.slots.ListByDate(context.Background(), visitDate, true)
	require.NoError(t, err)
	assert.Len(t, available, 4)
	assert.Equal(t, int64(1), f.countBookings(t))
}

func TestRegisteredCustomerBooking(t *testing.T) {
	f := newFixture(t, false)
	userID := f.node.Generate().String()

	booking, err := f.svc.CreateBooking(context.Background(), domain.CreateBookingRequest{
		Cart:    cart("1500-2000", "bi_weekly", "08:00-10:00"),
		UserID:  userID,
		Contact: guest("Member@Example.com"),
	})
	require.NoError(t, err)

	assert.Equal(t, userID, booking.CustomerID)
	assert.False(t, booking.IsGuest)
	require.NotNil(t, booking.UserID)
	assert.Equal(t, userID, booking.UserID.String())
	assert.Equal(t, "member@example.com", booking.CustomerEmail)
	assert.Equal(t, money.Dollars(135), booking.TotalAmount)

	profile, err := f.customers.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", profile.FullName())

	mine, err := f.svc.ListForCustomer(context.Background(), userID, domain.ListBookingRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Bookings, 1)
	assert.Equal(t, booking.ID, mine.Bookings[0].ID)
}

func TestStatusLifecycle(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	booking := f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))
	id := booking.ID.String()

	_, err := f.svc.UpdateStatus(ctx, id, "done")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(ctx, id, "in_progress")
	assert.ErrorIs(t, err, domain.ErrStatusTransition)

	for _, next := range []domain.Status{domain.StatusConfirmed, domain.StatusInProgress, domain.StatusCompleted} {
		updated, err := f.svc.UpdateStatus(ctx, id, string(next))
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = f.svc.Cancel(ctx, id)
	assert.ErrorIs(t, err, domain.ErrStatusTransition)

	_, err = f.svc.UpdateStatus(ctx, "abc", "confirmed")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.svc.UpdateStatus(ctx, f.node.Generate().String(), "confirmed")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelKeepsSlotByDefault(t *testing.T) {
	f := newFixture(t, false)
	booking := f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))

	cancelled, err := f.svc.Cancel(context.Background(), booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	again, err := f.svc.UpdateStatus(context.Background(), booking.ID.String(), "cancelled")
	require.NoError(t, err)
	assert.Equal(t, cancelled.CancelledAt.Unix(), again.CancelledAt.Unix())

	slot, err := f.slots.Get(context.Background(), visitDate, "08:00-10:00")
	require.NoError(t, err)
	assert.False(t, slot.IsAvailable)
}

func TestCancelReleasesSlotWhenConfigured(t *testing.T) {
	f := newFixture(t, true)
	booking := f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))

	_, err := f.svc.Cancel(context.Background(), booking.ID.String())
	require.NoError(t, err)

	slot, err := f.slots.Get(context.Background(), visitDate, "08:00-10:00")
	require.NoError(t, err)
	assert.True(t, slot.IsAvailable)
	assert.Nil(t, slot.BookingID)

	f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))
}

func TestProcessPayment(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	booking := f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))

	result, err := f.svc.ProcessPayment(ctx, booking.ID.String())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "paid", result.PaymentStatus)
	require.NotNil(t, result.TransactionID)
	assert.NotEmpty(t, *result.TransactionID)
	assert.Equal(t, domain.StatusConfirmed, result.Booking.Status)
	assert.NotNil(t, result.Booking.PaidAt)

	_, err = f.svc.ProcessPayment(ctx, booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrPaymentNotAllowed)

	refunded, err := f.svc.UpdatePaymentStatus(ctx, booking.ID.String(), "refunded")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, refunded.PaymentStatus)

	_, err = f.svc.UpdatePaymentStatus(ctx, booking.ID.String(), "pending")
	assert.ErrorIs(t, err, domain.ErrStatusTransition)
}

func TestProcessPaymentRejectsCancelledBooking(t *testing.T) {
	f := newFixture(t, false)
	booking := f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))
	_, err := f.svc.Cancel(context.Background(), booking.ID.String())
	require.NoError(t, err)

	_, err = f.svc.ProcessPayment(context.Background(), booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrPaymentNotAllowed)
}

func TestAssignCleaner(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	maria, err := f.cleaners.Create(ctx, cleanerdomain.CreateCleanerRequest{Name: "Maria", Email: "maria@example.com"})
	require.NoError(t, err)

	long := cart("2000-2500", "monthly", "08:00-10:00")
	long.ALaCarteServices = []domain.LineItemInput{{ServiceID: "1"}, {ServiceID: "2"}, {ServiceID: "3"}}
	first := f.book(t, long)
	require.Equal(t, 5, first.EstimatedDurationHours)
	second := f.book(t, cart("1000-1500", "monthly", "10:00-12:00"))

	_, err = f.svc.SyncCalendar(ctx, first.ID.String())
	assert.ErrorIs(t, err, domain.ErrCleanerNotAssigned)

	assigned, err := f.svc.AssignCleaner(ctx, first.ID.String(), maria.ID.String())
	require.NoError(t, err)
	require.NotNil(t, assigned.CleanerID)
	assert.Equal(t, maria.ID, *assigned.CleanerID)
	require.NotNil(t, assigned.CalendarEventID)

	// 08:00 plus five hours overlaps the 10:00 visit.
	_, err = f.svc.AssignCleaner(ctx, second.ID.String(), maria.ID.String())
	assert.ErrorIs(t, err, domain.ErrCleanerUnavailable)

	synced, err := f.svc.SyncCalendar(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, *assigned.CalendarEventID, *synced.CalendarEventID)

	_, err = f.svc.Cancel(ctx, first.ID.String())
	require.NoError(t, err)
	reassigned, err := f.svc.AssignCleaner(ctx, second.ID.String(), maria.ID.String())
	require.NoError(t, err)
	assert.NotNil(t, reassigned.CalendarEventID)
}

func TestAssignCleanerRejectsInactiveOrClosed(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	ana, err := f.cleaners.Create(ctx, cleanerdomain.CreateCleanerRequest{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	booking := f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))

	_, err = f.cleaners.Deactivate(ctx, ana.ID.String())
	require.NoError(t, err)
	_, err = f.svc.AssignCleaner(ctx, booking.ID.String(), ana.ID.String())
	assert.ErrorIs(t, err, cleanerdomain.ErrInactive)

	_, err = f.svc.Cancel(ctx, booking.ID.String())
	require.NoError(t, err)
	_, err = f.svc.AssignCleaner(ctx, booking.ID.String(), ana.ID.String())
	assert.ErrorIs(t, err, domain.ErrBookingClosed)
}

func TestSendReminders(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.book(t, cart("1000-1500", "monthly", "08:00-10:00"))
	cancelled := f.book(t, cart("1000-1500", "monthly", "10:00-12:00"))
	_, err := f.svc.Cancel(ctx, cancelled.ID.String())
	require.NoError(t, err)

	sent, err := f.svc.SendReminders(ctx, visitDate)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, f.notifier.reminded, 1)

	sent, err = f.svc.SendReminders(ctx, visitDate)
	require.NoError(t, err)
	assert.Zero(t, sent)

	_, err = f.svc.SendReminders(ctx, "tomorrow")
	assert.ErrorIs(t, err, slotdomain.ErrInvalidDate)
}

func TestListFiltersAndPages(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	for _, slot := range []string{"08:00-10:00", "10:00-12:00", "12:00-14:00"} {
		f.book(t, cart("1000-1500", "monthly", slot))
	}
	first, err := f.svc.List(ctx, domain.ListBookingRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Bookings, 2)
	assert.True(t, first.HasMore)

	rest, err := f.svc.List(ctx, domain.ListBookingRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, rest.Bookings, 1)
	assert.False(t, rest.HasMore)

	_, err = f.svc.Cancel(ctx, rest.Bookings[0].ID.String())
	require.NoError(t, err)
	cancelled, err := f.svc.List(ctx, domain.ListBookingRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.Len(t, cancelled.Bookings, 1)

	_, err = f.svc.List(ctx, domain.ListBookingRequest{Status: "weird"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
