package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/promo/domain"
	"github.com/smallbiznis/maidbook/internal/promo/repository"
	"github.com/smallbiznis/maidbook/internal/testutil"
	"github.com/smallbiznis/maidbook/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	clock *clock.FakeClock
	node  *snowflake.Node
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t, &domain.PromoCode{}, &domain.PromoCodeUsage{})
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(testNow)
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return fixture{db: db, svc: svc, clock: clk, node: node}
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func (f fixture) create(t *testing.T, req domain.CreatePromoRequest) domain.PromoCode {
	t.Helper()
	promo, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	return promo
}

func (f fixture) redeem(t *testing.T, promo domain.PromoCode, customer string) error {
	t.Helper()
	return f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.Redeem(context.Background(), tx, domain.RedeemRequest{
			PromoCodeID: promo.ID,
			CustomerID:  customer,
			BookingID:   f.node.Generate(),
			Discount:    money.Dollars(10),
		})
	})
}

func TestValidateScenarios(t *testing.T) {
	f := newFixture(t)
	f.create(t, domain.CreatePromoRequest{Code: "save20", DiscountType: domain.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(20)})
	f.create(t, domain.CreatePromoRequest{Code: "FLAT50", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(50), MaximumDiscountAmount: money.Ptr(money.Dollars(30))})

	res, err := f.svc.Validate(context.Background(), domain.ValidateRequest{Code: " Save20 ", CustomerID: "u1", Subtotal: money.Dollars(180)})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, money.Dollars(36), res.Discount)
	assert.Equal(t, money.Dollars(144), res.FinalAmount)

	res, err = f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "FLAT50", CustomerID: "u1", Subtotal: money.Dollars(180)})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, money.Dollars(30), res.Discount)
	assert.Equal(t, money.Dollars(150), res.FinalAmount)
}

func TestValidateRejectionReasons(t *testing.T) {
	f := newFixture(t)
	f.create(t, domain.CreatePromoRequest{Code: "OFF", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5), IsActive: new(bool)})
	f.create(t, domain.CreatePromoRequest{Code: "SOON", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5), ValidFrom: timePtr(testNow.Add(time.Hour))})
	f.create(t, domain.CreatePromoRequest{Code: "OLD", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5), ValidUntil: timePtr(testNow.Add(-time.Hour))})
	f.create(t, domain.CreatePromoRequest{Code: "MIN100", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5), MinimumOrderAmount: money.Ptr(money.Dollars(100))})
	f.create(t, domain.CreatePromoRequest{Code: "VIP", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5), ApplicableCustomers: []string{"vip-1"}})

	cases := []struct {
		code     string
		subtotal money.Amount
		reason   domain.Reason
		message  string
	}{
		{code: "   ", subtotal: money.Dollars(180), reason: domain.ReasonCodeRequired, message: "Promo code is required"},
		{code: "NOPE", subtotal: money.Dollars(180), reason: domain.ReasonNotFound, message: "Invalid promo code"},
		{code: "off", subtotal: money.Dollars(180), reason: domain.ReasonInactive, message: "Promo code is not active"},
		{code: "SOON", subtotal: money.Dollars(180), reason: domain.ReasonNotYetValid, message: "Promo code is not yet valid"},
		{code: "OLD", subtotal: money.Dollars(180), reason: domain.ReasonExpired, message: "Promo code has expired"},
		{code: "MIN100", subtotal: money.Dollars(99), reason: domain.ReasonMinimumNotMet, message: "Minimum order amount of $100.00 required"},
		{code: "VIP", subtotal: money.Dollars(180), reason: domain.ReasonCustomerNotEligible, message: "Promo code is not applicable to this customer"},
	}
	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			req := domain.ValidateRequest{Code: tc.code, CustomerID: "guest_jane@example.com", Subtotal: tc.subtotal}
			first, err := f.svc.Validate(context.Background(), req)
			require.NoError(t, err)
			second, err := f.svc.Validate(context.Background(), req)
			require.NoError(t, err)

			assert.False(t, first.Valid)
			assert.Equal(t, tc.reason, first.Reason)
			assert.Equal(t, tc.message, first.Message)
			assert.Equal(t, first, second)
			assert.Equal(t, tc.subtotal, first.FinalAmount)
			assert.Equal(t, money.Zero, first.Discount)
		})
	}
}

func TestValidateCheckOrderExpiredBeforeMinimum(t *testing.T) {
	f := newFixture(t)
	f.create(t, domain.CreatePromoRequest{
		Code:               "LATE",
		DiscountType:       domain.DiscountTypeFixed,
		DiscountValue:      decimal.NewFromInt(5),
		ValidUntil:         timePtr(testNow.Add(-time.Minute)),
		MinimumOrderAmount: money.Ptr(money.Dollars(500)),
	})

	res, err := f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "LATE", Subtotal: money.Dollars(10)})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonExpired, res.Reason)
}

func TestValidateWindowFollowsClock(t *testing.T) {
	f := newFixture(t)
	f.create(t, domain.CreatePromoRequest{Code: "WEEKEND", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5), ValidUntil: timePtr(testNow.Add(time.Hour))})

	res, err := f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "WEEKEND", Subtotal: money.Dollars(50)})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	f.clock.Advance(2 * time.Hour)
	res, err = f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "WEEKEND", Subtotal: money.Dollars(50)})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonExpired, res.Reason)
}

func TestRedeemThenValidateReportsAlreadyUsed(t *testing.T) {
	f := newFixture(t)
	promo := f.create(t, domain.CreatePromoRequest{Code: "ONCE", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(10)})

	require.NoError(t, f.redeem(t, promo, "guest_jane@example.com"))

	res, err := f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "ONCE", CustomerID: "guest_jane@example.com", Subtotal: money.Dollars(100)})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonAlreadyUsed, res.Reason)

	res, err = f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "ONCE", CustomerID: "guest_john@example.com", Subtotal: money.Dollars(100)})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateGlobalLimit(t *testing.T) {
	f := newFixture(t)
	promo := f.create(t, domain.CreatePromoRequest{Code: "FIRST1", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(10), UsageLimit: intPtr(1)})
	require.NoError(t, f.redeem(t, promo, "a"))

	res, err := f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "FIRST1", CustomerID: "b", Subtotal: money.Dollars(100)})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonUsageLimitReached, res.Reason)
}

func TestConcurrentRedeemSameCustomerSingleUse(t *testing.T) {
	f := newFixture(t)
	promo := f.create(t, domain.CreatePromoRequest{Code: "SINGLE", DiscountType: domain.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)})

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.redeem(t, promo, "customer-1")
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range errs {
		if err == nil {
			success++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyUsed)
	}
	assert.Equal(t, 1, success)

	stored, err := f.svc.GetByID(context.Background(), promo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)

	usages, err := f.svc.ListUsages(context.Background(), promo.ID.String())
	require.NoError(t, err)
	assert.Len(t, usages, 1)
}

func TestConcurrentRedeemGlobalLimit(t *testing.T) {
	f := newFixture(t)
	promo := f.create(t, domain.CreatePromoRequest{Code: "LAST", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(10), UsageLimit: intPtr(1)})

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, customer := range []string{"a", "b"} {
		wg.Add(1)
		go func(i int, customer string) {
			defer wg.Done()
			errs[i] = f.redeem(t, promo, customer)
		}(i, customer)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.True(t, errors.Is(err, domain.ErrUsageLimitReached), "unexpected error %v", err)
		}
	}
	assert.Equal(t, 1, failures)
}

func TestRedeemAllowsConfiguredPerCustomerUses(t *testing.T) {
	f := newFixture(t)
	promo := f.create(t, domain.CreatePromoRequest{Code: "TWICE", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(10), UsageLimitPerCustomer: intPtr(2)})

	require.NoError(t, f.redeem(t, promo, "c"))
	require.NoError(t, f.redeem(t, promo, "c"))
	assert.ErrorIs(t, f.redeem(t, promo, "c"), domain.ErrAlreadyUsed)
}

func TestCreateInactiveIsStoredInactive(t *testing.T) {
	f := newFixture(t)
	inactive := false
	promo := f.create(t, domain.CreatePromoRequest{Code: "PAUSED", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5), IsActive: &inactive})
	assert.False(t, promo.IsActive)

	var stored domain.PromoCode
	require.NoError(t, f.db.First(&stored, "id = ?", promo.ID).Error)
	assert.False(t, stored.IsActive)

	res, err := f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "paused", CustomerID: "u1", Subtotal: money.Dollars(180)})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, domain.ReasonInactive, res.Reason)
	assert.Equal(t, money.Dollars(180), res.FinalAmount)
}

func TestRedeemRefusesCodeExpiredAfterValidation(t *testing.T) {
	f := newFixture(t)
	promo := f.create(t, domain.CreatePromoRequest{Code: "LASTCALL", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(10), ValidUntil: timePtr(testNow.Add(time.Hour))})

	res, err := f.svc.Validate(context.Background(), domain.ValidateRequest{Code: "LASTCALL", CustomerID: "u1", Subtotal: money.Dollars(100)})
	require.NoError(t, err)
	require.True(t, res.Valid)

	f.clock.Advance(2 * time.Hour)
	err = f.redeem(t, promo, "u1")
	var rejection *domain.RejectionError
	require.True(t, errors.As(err, &rejection), "got %v", err)
	assert.Equal(t, domain.ReasonExpired, rejection.Reason)

	var stored domain.PromoCode
	require.NoError(t, f.db.First(&stored, "id = ?", promo.ID).Error)
	assert.Equal(t, 0, stored.UsageCount)
}

func TestRedeemRefusesDeactivatedCode(t *testing.T) {
	f := newFixture(t)
	promo := f.create(t, domain.CreatePromoRequest{Code: "PULLED", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(10)})
	inactive := false
	_, err := f.svc.Update(context.Background(), promo.ID.String(), domain.UpdatePromoRequest{IsActive: &inactive})
	require.NoError(t, err)

	err = f.redeem(t, promo, "u1")
	var rejection *domain.RejectionError
	require.True(t, errors.As(err, &rejection), "got %v", err)
	assert.Equal(t, domain.ReasonInactive, rejection.Reason)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreatePromoRequest{Code: "X", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = f.svc.Create(ctx, domain.CreatePromoRequest{Code: "BIG", DiscountType: domain.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(120)})
	assert.ErrorIs(t, err, domain.ErrInvalidDiscountValue)

	_, err = f.svc.Create(ctx, domain.CreatePromoRequest{Code: "ODD", DiscountType: "bogo", DiscountValue: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, domain.ErrInvalidDiscountType)

	_, err = f.svc.Create(ctx, domain.CreatePromoRequest{Code: "WIN", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5), ValidFrom: timePtr(testNow), ValidUntil: timePtr(testNow.Add(-time.Hour))})
	assert.ErrorIs(t, err, domain.ErrInvalidValidity)

	f.create(t, domain.CreatePromoRequest{Code: "dup", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5)})
	_, err = f.svc.Create(ctx, domain.CreatePromoRequest{Code: "DUP", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, domain.ErrCodeExists)
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	promo := f.create(t, domain.CreatePromoRequest{Code: "SPRING", DiscountType: domain.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5)})

	inactive := false
	updated, err := f.svc.Update(ctx, promo.ID.String(), domain.UpdatePromoRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	active, err := f.svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, f.svc.Delete(ctx, promo.ID.String()))
	_, err = f.svc.GetByID(ctx, promo.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
