package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// REQUEST DTOs
// =====================================================

// CreatePromotionRequest creates a campaign. Status is computed from
// the start date, never taken from the caller.
type CreatePromotionRequest struct {
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	Description       *string          `json:"description,omitempty"`
	Type              string           `json:"type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	PerCustomerLimit  int              `json:"per_customer_limit"`
	ProviderID        *uuid.UUID       `json:"provider_id,omitempty"`
	NewCustomersOnly  bool             `json:"new_customers_only"`
	IsStackable       bool             `json:"is_stackable"`
	Priority          int              `json:"priority"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           time.Time        `json:"end_date"`
}

func (r CreatePromotionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Type, validation.Required, validation.By(validatePromotionType)),
		validation.Field(&r.DiscountValue, validation.By(validatePositiveDecimal)),
		validation.Field(&r.StartDate, validation.Required),
		validation.Field(&r.EndDate, validation.Required),
		validation.Field(&r.PerCustomerLimit, validation.Min(0)),
		validation.Field(&r.Priority, validation.Min(0)),
	)
}

// UpdatePromotionRequest patches a campaign; nil fields stay untouched
type UpdatePromotionRequest struct {
	Name              *string          `json:"name,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Type              *string          `json:"type,omitempty"`
	DiscountValue     *decimal.Decimal `json:"discount_value,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	PerCustomerLimit  *int             `json:"per_customer_limit,omitempty"`
	Status            *string          `json:"status,omitempty"`
	IsStackable       *bool            `json:"is_stackable,omitempty"`
	Priority          *int             `json:"priority,omitempty"`
	StartDate         *time.Time       `json:"start_date,omitempty"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
}

func (r UpdatePromotionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Type, validation.By(validateOptionalPromotionType)),
		validation.Field(&r.Status, validation.By(validateOptionalStatus)),
	)
}

// ValidatePromotionRequest is the checkout-preview payload
type ValidatePromotionRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"order_amount"`
	ProviderID  *uuid.UUID      `json:"provider_id,omitempty"`
}

func (r ValidatePromotionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required),
		validation.Field(&r.OrderAmount, validation.By(validatePositiveDecimal)),
	)
}

// ApplyPromotionRequest records actual usage after checkout completes
type ApplyPromotionRequest struct {
	PromotionID    uuid.UUID       `json:"promotion_id"`
	BookingID      uuid.UUID       `json:"booking_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
}

func (r ApplyPromotionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PromotionID, validation.Required, validation.By(validateRequiredUUID)),
		validation.Field(&r.BookingID, validation.Required, validation.By(validateRequiredUUID)),
		validation.Field(&r.DiscountAmount, validation.By(validateNonNegativeDecimal)),
		validation.Field(&r.OriginalAmount, validation.By(validatePositiveDecimal)),
	)
}

// PromotionFilter narrows admin listings
type PromotionFilter struct {
	ProviderID *uuid.UUID
	Status     string
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// ValidationResult is what checkout preview sees. Valid=false carries a
// human-readable reason; Valid=true carries the computed amounts.
type ValidationResult struct {
	Valid          bool             `json:"valid"`
	Promotion      *Promotion       `json:"promotion,omitempty"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	FinalAmount    *decimal.Decimal `json:"final_amount,omitempty"`
	Reason         string           `json:"reason,omitempty"`
}

// Invalid builds a failed validation result
func Invalid(reason string) *ValidationResult {
	return &ValidationResult{Valid: false, Reason: reason}
}

// =====================================================
// VALIDATION HELPERS
// =====================================================

func validatePromotionType(value interface{}) error {
	s, _ := value.(string)
	if !PromotionType(s).IsValid() {
		return validation.NewError("validation_promotion_type",
			"must be one of: percentage, fixed_amount, buy_one_get_one, free_service")
	}
	return nil
}

func validateOptionalPromotionType(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	return validatePromotionType(*s)
}

func validateOptionalStatus(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	if !PromotionStatus(*s).IsValid() {
		return validation.NewError("validation_status",
			"must be one of: scheduled, active, inactive, expired")
	}
	return nil
}

func validateRequiredUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	return nil
}

func validatePositiveDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok || !d.IsPositive() {
		return validation.NewError("validation_amount", "must be greater than zero")
	}
	return nil
}

func validateNonNegativeDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok || d.IsNegative() {
		return validation.NewError("validation_amount", "must not be negative")
	}
	return nil
}
