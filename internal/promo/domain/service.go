package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/maidbook/pkg/money"
	"gorm.io/gorm"
)

// Reason is a machine-readable promo rejection code.
type Reason string

const (
	ReasonCodeRequired        Reason = "code_required"
	ReasonNotFound            Reason = "not_found"
	ReasonInactive            Reason = "inactive"
	ReasonNotYetValid         Reason = "not_yet_valid"
	ReasonExpired             Reason = "expired"
	ReasonUsageLimitReached   Reason = "usage_limit_reached"
	ReasonAlreadyUsed         Reason = "already_used"
	ReasonMinimumNotMet       Reason = "minimum_not_met"
	ReasonCustomerNotEligible Reason = "customer_not_eligible"
)

var reasonMessages = map[Reason]string{
	ReasonCodeRequired:        "Promo code is required",
	ReasonNotFound:            "Invalid promo code",
	ReasonInactive:            "Promo code is not active",
	ReasonNotYetValid:         "Promo code is not yet valid",
	ReasonExpired:             "Promo code has expired",
	ReasonUsageLimitReached:   "Promo code usage limit has been reached",
	ReasonAlreadyUsed:         "You have already used this promo code",
	ReasonCustomerNotEligible: "Promo code is not applicable to this customer",
}

// Message returns the customer-facing text for a reason.
func (r Reason) Message() string {
	return reasonMessages[r]
}

// MinimumNotMetMessage renders the minimum-order rejection text.
func MinimumNotMetMessage(minimum money.Amount) string {
	return fmt.Sprintf("Minimum order amount of %s required", minimum.Format())
}

// RejectionError is returned when a promo code blocks an operation.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("promo rejected: %s", e.Reason)
}

type ValidateRequest struct {
	Code       string       `json:"code"`
	CustomerID string       `json:"customer_id"`
	Subtotal   money.Amount `json:"subtotal"`
}

// ValidationResult reports a promo evaluation. Rejections are results, not errors.
type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Reason      Reason       `json:"reason,omitempty"`
	Message     string       `json:"message"`
	Discount    money.Amount `json:"discount"`
	FinalAmount money.Amount `json:"final_amount"`
	PromoCodeID snowflake.ID `json:"promo_code_id,omitempty"`
	Code        string       `json:"code,omitempty"`
}

// Rejection converts a failed result into an error.
func (r ValidationResult) Rejection() error {
	if r.Valid {
		return nil
	}
	return &RejectionError{Reason: r.Reason, Message: r.Message}
}

type RedeemRequest struct {
	PromoCodeID snowflake.ID
	CustomerID  string
	BookingID   snowflake.ID
	Discount    money.Amount
}

type CreatePromoRequest struct {
	Code                  string          `json:"code"`
	Description           string          `json:"description"`
	DiscountType          DiscountType    `json:"discount_type"`
	DiscountValue         decimal.Decimal `json:"discount_value"`
	MinimumOrderAmount    *money.Amount   `json:"minimum_order_amount"`
	MaximumDiscountAmount *money.Amount   `json:"maximum_discount_amount"`
	UsageLimit            *int            `json:"usage_limit"`
	UsageLimitPerCustomer *int            `json:"usage_limit_per_customer"`
	ValidFrom             *time.Time      `json:"valid_from"`
	ValidUntil            *time.Time      `json:"valid_until"`
	IsActive              *bool           `json:"is_active"`
	ApplicableCustomers   []string        `json:"applicable_customers"`
	ApplicableServices    []string        `json:"applicable_services"`
}

type UpdatePromoRequest struct {
	Description           *string          `json:"description"`
	DiscountType          *DiscountType    `json:"discount_type"`
	DiscountValue         *decimal.Decimal `json:"discount_value"`
	MinimumOrderAmount    *money.Amount    `json:"minimum_order_amount"`
	MaximumDiscountAmount *money.Amount    `json:"maximum_discount_amount"`
	UsageLimit            *int             `json:"usage_limit"`
	UsageLimitPerCustomer *int             `json:"usage_limit_per_customer"`
	ValidFrom             *time.Time       `json:"valid_from"`
	ValidUntil            *time.Time       `json:"valid_until"`
	IsActive              *bool            `json:"is_active"`
	ApplicableCustomers   []string         `json:"applicable_customers"`
	ApplicableServices    []string         `json:"applicable_services"`
}

type Service interface {
	// Validate runs the eligibility checks in order and stops at the first failure.
	Validate(context.Context, ValidateRequest) (ValidationResult, error)
	// Redeem records a redemption inside the caller's transaction.
	Redeem(ctx context.Context, tx *gorm.DB, req RedeemRequest) error

	Create(context.Context, CreatePromoRequest) (PromoCode, error)
	Update(ctx context.Context, id string, req UpdatePromoRequest) (PromoCode, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (PromoCode, error)
	List(ctx context.Context, activeOnly bool) ([]PromoCode, error)
	ListUsages(ctx context.Context, id string) ([]PromoCodeUsage, error)
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidCode          = errors.New("invalid_code")
	ErrInvalidDiscountType  = errors.New("invalid_discount_type")
	ErrInvalidDiscountValue = errors.New("invalid_discount_value")
	ErrInvalidUsageLimit    = errors.New("invalid_usage_limit")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidValidity      = errors.New("invalid_validity_window")
	ErrCodeExists           = errors.New("promo_code_exists")
	ErrNotFound             = errors.New("promo_code_not_found")

	// Raised by Redeem when a concurrent redemption consumed the last use.
	ErrUsageLimitReached = errors.New("promo_usage_limit_reached")
	ErrAlreadyUsed       = errors.New("promo_already_used")
)
