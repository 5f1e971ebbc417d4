package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/maidbook/internal/promo/domain"
	"github.com/smallbiznis/maidbook/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount applies the promo to subtotal. The result is capped by the
// promo's maximum and by the subtotal, then rounded half-to-even to cents.
func ComputeDiscount(promo domain.PromoCode, subtotal money.Amount) money.Amount {
	if subtotal <= 0 {
		return money.Zero
	}

	var raw decimal.Decimal
	switch promo.DiscountType {
	case domain.DiscountTypePercentage:
		raw = subtotal.Decimal().Mul(promo.DiscountValue).Div(hundred)
	case domain.DiscountTypeFixed:
		raw = promo.DiscountValue
	default:
		return money.Zero
	}
	if raw.IsNegative() {
		return money.Zero
	}

	if promo.MaximumDiscountAmount != nil {
		raw = decimal.Min(raw, promo.MaximumDiscountAmount.Decimal())
	}
	raw = decimal.Min(raw, subtotal.Decimal())
	return money.FromDecimal(raw)
}
