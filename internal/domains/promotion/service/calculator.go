package service

import (
	"github.com/shopspring/decimal"

	"wiwihood-backend/internal/domains/promotion/model"
)

// DiscountCalculator computes the discount amount for an order
type DiscountCalculator struct{}

func NewDiscountCalculator() *DiscountCalculator {
	return &DiscountCalculator{}
}

var oneHundred = decimal.NewFromInt(100)
var half = decimal.NewFromFloat(0.5)

// Calculate applies the promotion's formula to the order amount.
//
// Rules per type:
//   - percentage: orderAmount * value / 100, clamped to max_discount_amount when set
//   - fixed_amount: min(value, orderAmount), never discount more than the order
//   - buy_one_get_one: flat 50% of the order amount
//   - free_service: min(value, orderAmount)
//   - anything else: zero
//
// The result is rounded to 2 decimal places, half up at the cent.
func (c *DiscountCalculator) Calculate(promo *model.Promotion, orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch promo.Type {
	case model.PromotionPercentage:
		discount = orderAmount.Mul(promo.DiscountValue).Div(oneHundred)

		if promo.MaxDiscountAmount != nil && discount.GreaterThan(*promo.MaxDiscountAmount) {
			discount = *promo.MaxDiscountAmount
		}

	case model.PromotionFixedAmount:
		discount = promo.DiscountValue

		if discount.GreaterThan(orderAmount) {
			discount = orderAmount
		}

	case model.PromotionBOGO:
		// Simplified: the free item is worth half the order
		discount = orderAmount.Mul(half)

	case model.PromotionFreeService:
		discount = promo.DiscountValue

		if discount.GreaterThan(orderAmount) {
			discount = orderAmount
		}

	default:
		return decimal.Zero
	}

	return discount.Round(2)
}

// CalculateWithBreakdown mirrors Calculate but keeps the intermediate
// values, for logging and admin tooling.
func (c *DiscountCalculator) CalculateWithBreakdown(promo *model.Promotion, orderAmount decimal.Decimal) DiscountBreakdown {
	breakdown := DiscountBreakdown{
		OrderAmount:   orderAmount,
		PromotionType: string(promo.Type),
	}

	switch promo.Type {
	case model.PromotionPercentage:
		raw := orderAmount.Mul(promo.DiscountValue).Div(oneHundred)
		breakdown.RawDiscount = raw

		if promo.MaxDiscountAmount != nil && raw.GreaterThan(*promo.MaxDiscountAmount) {
			breakdown.FinalDiscount = *promo.MaxDiscountAmount
			breakdown.Capped = true
			breakdown.CapReason = "max_discount_amount"
		} else {
			breakdown.FinalDiscount = raw
		}

	case model.PromotionFixedAmount, model.PromotionFreeService:
		breakdown.RawDiscount = promo.DiscountValue

		if promo.DiscountValue.GreaterThan(orderAmount) {
			breakdown.FinalDiscount = orderAmount
			breakdown.Capped = true
			breakdown.CapReason = "exceeds_order_amount"
		} else {
			breakdown.FinalDiscount = promo.DiscountValue
		}

	case model.PromotionBOGO:
		breakdown.RawDiscount = orderAmount.Mul(half)
		breakdown.FinalDiscount = breakdown.RawDiscount
	}

	breakdown.FinalDiscount = breakdown.FinalDiscount.Round(2)
	return breakdown
}

// DiscountBreakdown holds the calculation steps for observability
type DiscountBreakdown struct {
	OrderAmount   decimal.Decimal `json:"order_amount"`
	PromotionType string          `json:"promotion_type"`
	RawDiscount   decimal.Decimal `json:"raw_discount"`
	FinalDiscount decimal.Decimal `json:"final_discount"`
	Capped        bool            `json:"capped"`
	CapReason     string          `json:"cap_reason,omitempty"`
}
