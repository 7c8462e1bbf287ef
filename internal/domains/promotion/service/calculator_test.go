package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"wiwihood-backend/internal/domains/promotion/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCalculatePercentage(t *testing.T) {
	calc := NewDiscountCalculator()

	tests := []struct {
		name        string
		value       string
		cap         *decimal.Decimal
		orderAmount string
		want        string
	}{
		{"plain percentage", "20", nil, "400", "80"},
		{"capped percentage", "20", decPtr("50"), "1000", "50"},
		{"cap not reached", "10", decPtr("50"), "400", "40"},
		{"rounds to cents", "10", nil, "99.99", "10"},
		{"rounds half up", "15", nil, "33.30", "5"},
		{"full discount", "100", nil, "250", "250"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			promo := &model.Promotion{
				Type:              model.PromotionPercentage,
				DiscountValue:     dec(tt.value),
				MaxDiscountAmount: tt.cap,
			}
			got := calc.Calculate(promo, dec(tt.orderAmount))
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestCalculateFixedAmount(t *testing.T) {
	calc := NewDiscountCalculator()

	promo := &model.Promotion{
		Type:          model.PromotionFixedAmount,
		DiscountValue: dec("100"),
	}

	// Order above the discount value
	assert.True(t, calc.Calculate(promo, dec("250")).Equal(dec("100")))

	// Never discount more than the order itself
	assert.True(t, calc.Calculate(promo, dec("60")).Equal(dec("60")))
}

func TestCalculateBuyOneGetOne(t *testing.T) {
	calc := NewDiscountCalculator()

	promo := &model.Promotion{
		Type:          model.PromotionBOGO,
		DiscountValue: dec("0"),
	}

	assert.True(t, calc.Calculate(promo, dec("80")).Equal(dec("40")))
	assert.True(t, calc.Calculate(promo, dec("99.99")).Equal(dec("50")))
}

func TestCalculateFreeService(t *testing.T) {
	calc := NewDiscountCalculator()

	promo := &model.Promotion{
		Type:          model.PromotionFreeService,
		DiscountValue: dec("35"),
	}

	assert.True(t, calc.Calculate(promo, dec("120")).Equal(dec("35")))
	assert.True(t, calc.Calculate(promo, dec("20")).Equal(dec("20")))
}

func TestCalculateUnknownTypeIsZero(t *testing.T) {
	calc := NewDiscountCalculator()

	promo := &model.Promotion{
		Type:          model.PromotionType("loyalty_multiplier"),
		DiscountValue: dec("50"),
	}

	assert.True(t, calc.Calculate(promo, dec("100")).IsZero())
}

func TestCalculateWithBreakdown(t *testing.T) {
	calc := NewDiscountCalculator()

	capped := &model.Promotion{
		Type:              model.PromotionPercentage,
		DiscountValue:     dec("20"),
		MaxDiscountAmount: decPtr("50"),
	}
	breakdown := calc.CalculateWithBreakdown(capped, dec("1000"))
	assert.True(t, breakdown.RawDiscount.Equal(dec("200")))
	assert.True(t, breakdown.FinalDiscount.Equal(dec("50")))
	assert.True(t, breakdown.Capped)
	assert.Equal(t, "max_discount_amount", breakdown.CapReason)

	fixed := &model.Promotion{
		Type:          model.PromotionFixedAmount,
		DiscountValue: dec("100"),
	}
	breakdown = calc.CalculateWithBreakdown(fixed, dec("60"))
	assert.True(t, breakdown.FinalDiscount.Equal(dec("60")))
	assert.Equal(t, "exceeds_order_amount", breakdown.CapReason)
}
