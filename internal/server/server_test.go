package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	auditdomain "github.com/smallbiznis/maidbook/internal/audit/domain"
	auditrepository "github.com/smallbiznis/maidbook/internal/audit/repository"
	auditservice "github.com/smallbiznis/maidbook/internal/audit/service"
	authdomain "github.com/smallbiznis/maidbook/internal/auth/domain"
	"github.com/smallbiznis/maidbook/internal/authorization"
	bookingdomain "github.com/smallbiznis/maidbook/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/maidbook/internal/catalog/domain"
	cleanerdomain "github.com/smallbiznis/maidbook/internal/cleaner/domain"
	"github.com/smallbiznis/maidbook/internal/clock"
	"github.com/smallbiznis/maidbook/internal/config"
	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/maidbook/internal/invoice/domain"
	"github.com/smallbiznis/maidbook/internal/observability"
	pricingdomain "github.com/smallbiznis/maidbook/internal/pricing/domain"
	promodomain "github.com/smallbiznis/maidbook/internal/promo/domain"
	"github.com/smallbiznis/maidbook/internal/ratelimit"
	reportdomain "github.com/smallbiznis/maidbook/internal/report/domain"
	"github.com/smallbiznis/maidbook/internal/testutil"
	timeslotdomain "github.com/smallbiznis/maidbook/internal/timeslot/domain"
	"github.com/smallbiznis/maidbook/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminToken    = "admin-token"
	customerToken = "customer-token"
)

var (
	adminID    = snowflake.ID(1)
	customerID = snowflake.ID(2)
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	authdomain.Service
	loginCalls int
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (authdomain.Identity, error) {
	switch token {
	case adminToken:
		return authdomain.Identity{UserID: adminID, Email: "admin@example.com", Role: authdomain.RoleAdmin}, nil
	case customerToken:
		return authdomain.Identity{UserID: customerID, Email: "jane@example.com", Role: authdomain.RoleCustomer}, nil
	default:
		return authdomain.Identity{}, authdomain.ErrInvalidToken
	}
}

func (f *fakeAuth) Login(_ context.Context, req authdomain.LoginRequest) (authdomain.Token, error) {
	f.loginCalls++
	if req.Password != "correct horse" {
		return authdomain.Token{}, authdomain.ErrInvalidCredentials
	}
	return authdomain.Token{AccessToken: "signed", TokenType: "Bearer"}, nil
}

type fakePricing struct {
	pricingdomain.Service
}

func (fakePricing) Quote(size pricingdomain.HouseSize, freq pricingdomain.Frequency) pricingdomain.Quote {
	return pricingdomain.Quote{HouseSize: size, Frequency: freq, BasePrice: money.Dollars(120), DurationHours: 2.5}
}

type fakePromo struct {
	promodomain.Service
	lastRequest promodomain.ValidateRequest
	result      promodomain.ValidationResult
}

func (f *fakePromo) Validate(_ context.Context, req promodomain.ValidateRequest) (promodomain.ValidationResult, error) {
	f.lastRequest = req
	return f.result, nil
}

type fakeBookings struct {
	bookingdomain.Service
	createErr error
	booking   bookingdomain.Booking
	paid      []string
}

func (f *fakeBookings) CreateBooking(_ context.Context, req bookingdomain.CreateBookingRequest) (bookingdomain.Booking, error) {
	if f.createErr != nil {
		return bookingdomain.Booking{}, f.createErr
	}
	return bookingdomain.Booking{ID: 7, Reference: "01J0ABC", BookingDate: req.Cart.BookingDate}, nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (bookingdomain.Booking, error) {
	if id != f.booking.ID.String() {
		return bookingdomain.Booking{}, bookingdomain.ErrNotFound
	}
	return f.booking, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id string, status string) (bookingdomain.Booking, error) {
	if id != f.booking.ID.String() {
		return bookingdomain.Booking{}, bookingdomain.ErrNotFound
	}
	if status == "completed" && f.booking.Status == bookingdomain.Status("cancelled") {
		return bookingdomain.Booking{}, bookingdomain.ErrStatusTransition
	}
	f.booking.Status = bookingdomain.Status(status)
	return f.booking, nil
}

func (f *fakeBookings) ProcessPayment(_ context.Context, id string) (bookingdomain.PaymentResult, error) {
	f.paid = append(f.paid, id)
	return bookingdomain.PaymentResult{Success: true, PaymentStatus: "paid", Booking: f.booking}, nil
}

type fakeInvoices struct {
	invoicedomain.Service
}

func (fakeInvoices) RenderPDF(_ context.Context, id string) (invoicedomain.Document, error) {
	if id != "55" {
		return invoicedomain.Document{}, invoicedomain.ErrInvoiceNotFound
	}
	return invoicedomain.Document{Filename: "INV-20250615-000001.pdf", Content: []byte("%PDF-1.4")}, nil
}

type fakeReports struct {
	reportdomain.Service
}

func (fakeReports) Stats(context.Context) (reportdomain.Stats, error) {
	return reportdomain.Stats{TotalBookings: 3, Revenue: money.Dollars(300)}, nil
}

type fixture struct {
	server   *Server
	auth     *fakeAuth
	promo    *fakePromo
	bookings *fakeBookings
	audit    auditdomain.Service
}

func newFixture(t *testing.T, limiter *ratelimit.PublicLimiter) *fixture {
	t.Helper()

	db := testutil.NewDB(t, &auditdomain.AuditLog{})
	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)

	f := &fixture{
		auth:  &fakeAuth{},
		promo: &fakePromo{},
		bookings: &fakeBookings{booking: bookingdomain.Booking{
			ID:         42,
			CustomerID: customerID.String(),
		}},
		audit: auditservice.NewService(auditservice.Params{
			DB:    db,
			Log:   zap.NewNop(),
			GenID: testutil.NewNode(t),
			Clock: clock.NewFakeClock(time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)),
			Repo:  auditrepository.Provide(),
		}),
	}
	f.server = NewServer(ServerParams{
		Gin:   NewEngine(observability.Config{Environment: "test"}, nil),
		Cfg:   config.Config{Timezone: "America/Chicago", Slots: config.SlotConfig{HorizonDays: 14}},
		Clock: clock.NewFakeClock(time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)),

		AuthSvc:     f.auth,
		AuthzSvc:    authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		PricingSvc:  fakePricing{},
		CatalogSvc:  struct{ catalogdomain.Service }{},
		PromoSvc:    f.promo,
		SlotSvc:     struct{ timeslotdomain.Service }{},
		BookingSvc:  f.bookings,
		InvoiceSvc:  fakeInvoices{},
		CleanerSvc:  struct{ cleanerdomain.Service }{},
		CustomerSvc: struct{ customerdomain.Service }{},
		ReportSvc:   fakeReports{},
		AuditSvc:    f.audit,
		Limiter:     limiter,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Type)
}

func TestCustomerRoutesRequireToken(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/bookings", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Type)

	rec = f.do(t, http.MethodGet, "/api/bookings", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/admin/stats", customerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Type)

	rec = f.do(t, http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data reportdomain.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Data.TotalBookings)
	assert.Equal(t, money.Dollars(300), resp.Data.Revenue)
}

func TestGetBasePrice(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/pricing/2000-2500/weekly", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data pricingdomain.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, pricingdomain.HouseSize2000To2500, resp.Data.HouseSize)
	assert.Equal(t, money.Dollars(120), resp.Data.BasePrice)

	rec = f.do(t, http.MethodGet, "/api/pricing/mansion/weekly", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_house_size", payload.Errors[0].Code)
	assert.Equal(t, "house_size", payload.Errors[0].Field)
}

func TestValidatePromoCodeReturnsFlatResult(t *testing.T) {
	f := newFixture(t, nil)
	f.promo.result = promodomain.ValidationResult{
		Valid:       false,
		Reason:      promodomain.ReasonExpired,
		Message:     promodomain.ReasonExpired.Message(),
		FinalAmount: money.Dollars(180),
	}

	rec := f.do(t, http.MethodPost, "/api/validate-promo-code", "", gin.H{
		"code":           "SAVE20",
		"subtotal":       180,
		"customer_email": "Guest@Example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Promo code has expired", body["message"])
	assert.EqualValues(t, 180, body["final_amount"])
	assert.NotContains(t, body, "data")

	assert.Equal(t, customerdomain.GuestID("guest@example.com"), f.promo.lastRequest.CustomerID)
	assert.Equal(t, money.Dollars(180), f.promo.lastRequest.Subtotal)
}

func TestValidatePromoCodeUsesSignedInCustomer(t *testing.T) {
	f := newFixture(t, nil)
	f.promo.result = promodomain.ValidationResult{Valid: true, Discount: money.Dollars(36), FinalAmount: money.Dollars(144)}

	rec := f.do(t, http.MethodPost, "/api/validate-promo-code", customerToken, gin.H{
		"code":           "SAVE20",
		"subtotal":       "180.00",
		"customer_email": "someone-else@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, customerID.String(), f.promo.lastRequest.CustomerID)
}

func TestGuestBookingErrors(t *testing.T) {
	cart := gin.H{
		"house_size":   "2000-2500",
		"frequency":    "weekly",
		"booking_date": "2025-06-20",
		"time_slot":    "10:00-12:00",
		"customer":     gin.H{"email": "guest@example.com", "first_name": "Guest"},
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantReason string
	}{
		{"slot taken", fmt.Errorf("reserve slot: %w", timeslotdomain.ErrSlotUnavailable), http.StatusConflict, "conflict", "time_slot_unavailable"},
		{"promo over-redeemed", promodomain.ErrUsageLimitReached, http.StatusConflict, "conflict", "promo_usage_limit_reached"},
		{"promo rejected", &promodomain.RejectionError{Reason: promodomain.ReasonExpired, Message: "Promo code has expired"}, http.StatusUnprocessableEntity, "business_rule", "expired"},
		{"past date", bookingdomain.ErrBookingDateInPast, http.StatusBadRequest, "validation_error", ""},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.bookings.createErr = tc.err

			rec := f.do(t, http.MethodPost, "/api/bookings/guest", "", cart)
			require.Equal(t, tc.wantStatus, rec.Code)
			payload := decodeError(t, rec)
			assert.Equal(t, tc.wantType, payload.Type)
			assert.Equal(t, tc.wantReason, payload.Reason)
		})
	}
}

func TestGuestBookingRequiresCustomer(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/bookings/guest", "", gin.H{"house_size": "2000-2500"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_customer", payload.Errors[0].Code)
}

func TestGuestBookingCreated(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/bookings/guest", "", gin.H{
		"booking_date": "2025-06-20",
		"customer":     gin.H{"email": "guest@example.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data struct {
			Reference   string `json:"reference"`
			BookingDate string `json:"booking_date"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "01J0ABC", resp.Data.Reference)
	assert.Equal(t, "2025-06-20", resp.Data.BookingDate)
}

func TestCustomerCannotSeeOtherBookings(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/bookings/42", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f.bookings.booking.CustomerID = "99"
	rec = f.do(t, http.MethodGet, "/api/bookings/42", customerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/bookings/42/pay", customerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.bookings.paid)
}

func TestPayOwnBooking(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/bookings/42/pay", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"42"}, f.bookings.paid)
}

func TestDownloadInvoicePDF(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/admin/invoices/55/pdf", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "INV-20250615-000001.pdf")
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/admin/invoices/56/pdf", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := ratelimit.NewPublicLimiter(config.Config{RateLimit: config.RateLimitConfig{
		Enabled:     true,
		PublicRate:  0.01,
		PublicBurst: 1,
	}}, client)
	require.NoError(t, err)

	f := newFixture(t, limiter)
	body := gin.H{"email": "jane@example.com", "password": "correct horse"}

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Type)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, f.auth.loginCalls)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeError(t, rec).Message)
}

func TestClassifyErrorForLog(t *testing.T) {
	tests := []struct {
		err      error
		wantType string
		wantCode string
	}{
		{bookingdomain.ErrInvalidQuantity, "validation_error", "invalid_quantity"},
		{invoicedomain.ErrBookingNotComplete, "business_rule", "booking_not_completed"},
		{cleanerdomain.ErrNotFound, "not_found", "not_found"},
		{ErrRateLimited, "rate_limited", "rate_limited"},
		{authorization.ErrForbidden, "forbidden", "forbidden"},
	}
	for _, tc := range tests {
		gotType, gotCode := classifyErrorForLog(tc.err)
		assert.Equal(t, tc.wantType, gotType, tc.err.Error())
		assert.Equal(t, tc.wantCode, gotCode, tc.err.Error())
	}
}

func TestAdminStatusChangeIsAudited(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPatch, "/admin/bookings/42/status", adminToken, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code)

	logs, err := f.audit.List(context.Background(), auditdomain.ListAuditLogRequest{TargetType: auditTargetBooking})
	require.NoError(t, err)
	require.Len(t, logs.AuditLogs, 1)
	entry := logs.AuditLogs[0]
	assert.Equal(t, "booking.status_updated", entry.Action)
	assert.Equal(t, "admin", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, adminID.String(), *entry.ActorID)
	assert.Equal(t, "confirmed", entry.Metadata["status"])

	rec = f.do(t, http.MethodGet, "/admin/audit-logs?target_type=booking", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRejectedStatusChangeIsNotAudited(t *testing.T) {
	f := newFixture(t, nil)
	f.bookings.booking.Status = bookingdomain.Status("cancelled")

	rec := f.do(t, http.MethodPatch, "/admin/bookings/42/status", adminToken, gin.H{"status": "completed"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "business_rule", payload.Type)
	assert.Equal(t, "status_transition_not_allowed", payload.Reason)

	logs, err := f.audit.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	assert.Empty(t, logs.AuditLogs)
}
