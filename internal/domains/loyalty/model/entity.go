package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionEarned     TransactionType = "earned"
	TransactionRedeemed   TransactionType = "redeemed"
	TransactionExpired    TransactionType = "expired"
	TransactionBonus      TransactionType = "bonus"
	TransactionAdjustment TransactionType = "adjustment"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionEarned, TransactionRedeemed, TransactionExpired, TransactionBonus, TransactionAdjustment:
		return true
	}
	return false
}

// RewardType classifies what a catalog reward grants on redemption
type RewardType string

const (
	RewardDiscount   RewardType = "discount"
	RewardPercentage RewardType = "percentage"
	RewardAmount     RewardType = "amount"
	RewardSpecial    RewardType = "special"
)

func (r RewardType) IsValid() bool {
	switch r {
	case RewardDiscount, RewardPercentage, RewardAmount, RewardSpecial:
		return true
	}
	return false
}

// LoyaltyAccount is the per-customer points aggregate. One row per user.
//
// Invariant: CurrentPoints == LifetimeEarned - LifetimeRedeemed, and both
// lifetime counters only ever grow. Expired points count into
// LifetimeRedeemed so the invariant survives expiry.
type LoyaltyAccount struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	CurrentPoints    int        `json:"current_points"`
	LifetimeEarned   int        `json:"lifetime_earned"`
	LifetimeRedeemed int        `json:"lifetime_redeemed"`
	Tier             Tier       `json:"tier"`
	PointsToNextTier int        `json:"points_to_next_tier"`
	LastTierUpgrade  *time.Time `json:"last_tier_upgrade,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewLoyaltyAccount builds a fresh bronze account with zero balance
func NewLoyaltyAccount(userID uuid.UUID) *LoyaltyAccount {
	now := time.Now()
	return &LoyaltyAccount{
		ID:               uuid.New(),
		UserID:           userID,
		CurrentPoints:    0,
		LifetimeEarned:   0,
		LifetimeRedeemed: 0,
		Tier:             TierBronze,
		PointsToNextTier: ThresholdSilver,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// PointTransaction is one immutable ledger entry. Points is signed:
// positive for earned/bonus, negative for redeemed/expired. BalanceAfter
// snapshots CurrentPoints at commit time so history reads need no replay.
type PointTransaction struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Type          TransactionType `json:"type"`
	Points        int             `json:"points"`
	BalanceAfter  int             `json:"balance_after"`
	Description   string          `json:"description"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	ReferenceType *string         `json:"reference_type,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ExpirableTransaction pairs an expiring earn row with the owning user,
// so the expiry job can lock the account by user id.
type ExpirableTransaction struct {
	Transaction PointTransaction
	UserID      uuid.UUID
}

// LoyaltyReward is a catalog entry customers redeem points against
type LoyaltyReward struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	PointsRequired int        `json:"points_required"`
	RewardType     RewardType `json:"reward_type"`
	RewardValue    float64    `json:"reward_value"`
	MinimumTier    Tier       `json:"minimum_tier"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
