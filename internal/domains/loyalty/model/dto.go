package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// =====================================================
// REQUEST DTOs
// =====================================================

// AddPointsRequest is the admin/internal payload for crediting points.
// The optional reference pair records what the points were earned for.
type AddPointsRequest struct {
	UserID        uuid.UUID  `json:"user_id"`
	Points        int        `json:"points"`
	Description   string     `json:"description"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
	ReferenceType *string    `json:"reference_type,omitempty"`
}

func (r AddPointsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.By(validateUUID)),
		validation.Field(&r.Points, validation.Required, validation.Min(1)),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.ReferenceType, validation.NilOrNotEmpty, validation.Length(0, 50)),
	)
}

// RedeemPointsRequest debits points, optionally against a catalog reward
type RedeemPointsRequest struct {
	Points      int        `json:"points"`
	RewardID    *uuid.UUID `json:"reward_id,omitempty"`
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
	Description string     `json:"description"`
}

func (r RedeemPointsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Points, validation.Required, validation.Min(1)),
		validation.Field(&r.Description, validation.Length(0, 500)),
	)
}

// CreateRewardRequest adds a catalog reward (admin only)
type CreateRewardRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	PointsRequired int     `json:"points_required"`
	RewardType     string  `json:"reward_type"`
	RewardValue    float64 `json:"reward_value"`
	MinimumTier    string  `json:"minimum_tier"`
	IsActive       *bool   `json:"is_active"`
}

func (r CreateRewardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 1000)),
		validation.Field(&r.PointsRequired, validation.Required, validation.Min(1)),
		validation.Field(&r.RewardType, validation.Required, validation.By(validateRewardType)),
		validation.Field(&r.RewardValue, validation.Min(0.0)),
		validation.Field(&r.MinimumTier, validation.By(validateTier)),
	)
}

// UpdateRewardRequest patches a catalog reward; nil fields stay untouched
type UpdateRewardRequest struct {
	Name           *string  `json:"name,omitempty"`
	Description    *string  `json:"description,omitempty"`
	PointsRequired *int     `json:"points_required,omitempty"`
	RewardType     *string  `json:"reward_type,omitempty"`
	RewardValue    *float64 `json:"reward_value,omitempty"`
	MinimumTier    *string  `json:"minimum_tier,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

func (r UpdateRewardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.PointsRequired, validation.Min(1)),
		validation.Field(&r.RewardType, validation.By(validateOptionalRewardType)),
		validation.Field(&r.MinimumTier, validation.By(validateOptionalTier)),
	)
}

// HistoryFilter narrows the points ledger listing
type HistoryFilter struct {
	Type   string `form:"type"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func (f *HistoryFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// RewardFilter narrows reward catalog queries
type RewardFilter struct {
	Tier      string `form:"tier"`
	MinPoints int    `form:"min_points"`
	MaxPoints int    `form:"max_points"`
	Limit     int    `form:"limit"`
}

// Matches reports whether the reward passes the optional tier and
// points-range filters. The tier check is reachability, not equality.
func (f RewardFilter) Matches(reward *LoyaltyReward) bool {
	if f.Tier != "" && !Tier(f.Tier).AtLeast(reward.MinimumTier) {
		return false
	}
	if f.MinPoints > 0 && reward.PointsRequired < f.MinPoints {
		return false
	}
	if f.MaxPoints > 0 && reward.PointsRequired > f.MaxPoints {
		return false
	}
	return true
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// AccountResponse augments the stored account with derived tier data
type AccountResponse struct {
	*LoyaltyAccount
	NextTier *Tier `json:"next_tier,omitempty"`
}

func NewAccountResponse(acc *LoyaltyAccount) *AccountResponse {
	resp := &AccountResponse{LoyaltyAccount: acc}
	if next, ok := acc.Tier.Next(); ok {
		resp.NextTier = &next
	}
	return resp
}

// =====================================================
// VALIDATION HELPERS
// =====================================================

func validateUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	return nil
}

func validateRewardType(value interface{}) error {
	s, _ := value.(string)
	if !RewardType(s).IsValid() {
		return validation.NewError("validation_reward_type", "must be one of: discount, percentage, amount, special")
	}
	return nil
}

func validateOptionalRewardType(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	return validateRewardType(*s)
}

func validateTier(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !Tier(s).IsValid() {
		return validation.NewError("validation_tier", "must be one of: bronze, silver, gold, platinum")
	}
	return nil
}

func validateOptionalTier(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	return validateTier(*s)
}
