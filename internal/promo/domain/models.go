package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/maidbook/pkg/money"
	"gorm.io/datatypes"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// PromoCode is a redeemable discount. Code is stored upper-cased.
type PromoCode struct {
	ID                    snowflake.ID                `gorm:"primaryKey" json:"id"`
	Code                  string                      `gorm:"not null;uniqueIndex" json:"code"`
	Description           string                      `gorm:"not null;default:''" json:"description"`
	DiscountType          DiscountType                `gorm:"type:varchar(16);not null" json:"discount_type"`
	DiscountValue         decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MinimumOrderAmount    *money.Amount               `gorm:"column:minimum_order_cents" json:"minimum_order_amount,omitempty"`
	MaximumDiscountAmount *money.Amount               `gorm:"column:maximum_discount_cents" json:"maximum_discount_amount,omitempty"`
	UsageLimit            *int                        `json:"usage_limit,omitempty"`
	UsageCount            int                         `gorm:"not null;default:0" json:"usage_count"`
	UsageLimitPerCustomer *int                        `json:"usage_limit_per_customer,omitempty"`
	ValidFrom             *time.Time                  `json:"valid_from,omitempty"`
	ValidUntil            *time.Time                  `json:"valid_until,omitempty"`
	IsActive              bool                        `gorm:"not null" json:"is_active"`
	ApplicableCustomers   datatypes.JSONSlice[string] `json:"applicable_customers"`
	ApplicableServices    datatypes.JSONSlice[string] `json:"applicable_services"`
	CreatedAt             time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PromoCode) TableName() string { return "promo_codes" }

// PerCustomerLimit returns the per-customer cap, defaulting to one use.
func (p PromoCode) PerCustomerLimit() int {
	if p.UsageLimitPerCustomer == nil || *p.UsageLimitPerCustomer <= 0 {
		return 1
	}
	return *p.UsageLimitPerCustomer
}

// PromoCodeUsage is an append-only redemption record.
type PromoCodeUsage struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	PromoCodeID    snowflake.ID `gorm:"not null;index:idx_promo_usage_customer,priority:1" json:"promo_code_id"`
	CustomerID     string       `gorm:"not null;index:idx_promo_usage_customer,priority:2" json:"customer_id"`
	BookingID      snowflake.ID `gorm:"not null;uniqueIndex" json:"booking_id"`
	DiscountAmount money.Amount `gorm:"column:discount_cents;not null" json:"discount_amount"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PromoCodeUsage) TableName() string { return "promo_code_usages" }
