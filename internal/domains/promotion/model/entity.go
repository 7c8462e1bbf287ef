package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionType determines the discount formula
type PromotionType string

const (
	PromotionPercentage  PromotionType = "percentage"
	PromotionFixedAmount PromotionType = "fixed_amount"
	PromotionBOGO        PromotionType = "buy_one_get_one"
	PromotionFreeService PromotionType = "free_service"
)

func (t PromotionType) IsValid() bool {
	switch t {
	case PromotionPercentage, PromotionFixedAmount, PromotionBOGO, PromotionFreeService:
		return true
	}
	return false
}

// PromotionStatus is the campaign lifecycle state. Scheduled campaigns
// flip to active once their window opens, active ones to expired once
// it closes; inactive is an operator pause.
type PromotionStatus string

const (
	StatusScheduled PromotionStatus = "scheduled"
	StatusActive    PromotionStatus = "active"
	StatusInactive  PromotionStatus = "inactive"
	StatusExpired   PromotionStatus = "expired"
)

func (s PromotionStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusInactive, StatusExpired:
		return true
	}
	return false
}

// Promotion represents a discount campaign redeemable by code.
// A nil ProviderID means the promotion is platform wide.
type Promotion struct {
	ID          uuid.UUID     `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	Type        PromotionType `json:"type"`

	// Discount details
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount,omitempty"`

	// Usage limits
	UsageLimit       *int `json:"usage_limit,omitempty"`
	PerCustomerLimit int  `json:"per_customer_limit"`
	UsageCount       int  `json:"usage_count"`

	// Applicability
	ProviderID       *uuid.UUID `json:"provider_id,omitempty"`
	NewCustomersOnly bool       `json:"new_customers_only"`
	IsStackable      bool       `json:"is_stackable"`
	Priority         int        `json:"priority"`

	// Validity window
	Status    PromotionStatus `json:"status"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InWindow reports whether now falls inside the validity window, bounds inclusive
func (p *Promotion) InWindow(now time.Time) bool {
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// Exhausted reports whether the total usage cap has been reached
func (p *Promotion) Exhausted() bool {
	return p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit
}

// ValidForProvider reports whether the promotion applies at the given
// provider. Platform-wide promotions apply everywhere, and a scope
// mismatch needs an actual provider on both sides: a caller that does
// not say which provider it is shopping at is not rejected here.
func (p *Promotion) ValidForProvider(providerID *uuid.UUID) bool {
	if p.ProviderID == nil || providerID == nil {
		return true
	}
	return *providerID == *p.ProviderID
}

// PromotionUsage is one immutable redemption record. The unique
// (promotion_id, user_id) index makes it the arbiter of the
// one-redemption-per-user rule.
type PromotionUsage struct {
	ID             uuid.UUID       `json:"id"`
	PromotionID    uuid.UUID       `json:"promotion_id"`
	UserID         uuid.UUID       `json:"user_id"`
	BookingID      uuid.UUID       `json:"booking_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}
