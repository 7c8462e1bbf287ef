package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidatePromotionRequestValidate(t *testing.T) {
	valid := ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: decimal.RequireFromString("100"),
	}
	assert.NoError(t, valid.Validate())

	noCode := valid
	noCode.Code = ""
	assert.Error(t, noCode.Validate())

	// A zero decimal is a struct, not an empty value, so the amount
	// rule still runs and rejects it
	zeroAmount := ValidatePromotionRequest{Code: "WELCOME20"}
	assert.Error(t, zeroAmount.Validate())

	negative := valid
	negative.OrderAmount = decimal.RequireFromString("-10")
	assert.Error(t, negative.Validate())
}

func TestCreatePromotionRequestValidate(t *testing.T) {
	valid := CreatePromotionRequest{
		Code:          "SUMMER15",
		Name:          "Summer sale",
		Type:          string(PromotionPercentage),
		DiscountValue: decimal.RequireFromString("15"),
		StartDate:     time.Now(),
		EndDate:       time.Now().Add(24 * time.Hour),
	}
	assert.NoError(t, valid.Validate())

	shortCode := valid
	shortCode.Code = "AB"
	assert.Error(t, shortCode.Validate())

	badType := valid
	badType.Type = "loyalty_bonus"
	assert.Error(t, badType.Validate())

	zeroValue := valid
	zeroValue.DiscountValue = decimal.Zero
	assert.Error(t, zeroValue.Validate())
}

func TestApplyPromotionRequestValidate(t *testing.T) {
	valid := ApplyPromotionRequest{
		PromotionID:    uuid.New(),
		BookingID:      uuid.New(),
		DiscountAmount: decimal.RequireFromString("20"),
		OriginalAmount: decimal.RequireFromString("100"),
	}
	assert.NoError(t, valid.Validate())

	nilPromotion := valid
	nilPromotion.PromotionID = uuid.Nil
	assert.Error(t, nilPromotion.Validate())

	// Zero discount is allowed, negative is not
	zeroDiscount := valid
	zeroDiscount.DiscountAmount = decimal.Zero
	assert.NoError(t, zeroDiscount.Validate())

	negativeDiscount := valid
	negativeDiscount.DiscountAmount = decimal.RequireFromString("-1")
	assert.Error(t, negativeDiscount.Validate())
}
