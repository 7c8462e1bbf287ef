package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wiwihood-backend/internal/domains/loyalty/model"
)

// LoyaltyService owns the points ledger, tier progression and the reward catalog
type LoyaltyService interface {
	// Accounts and ledger
	GetAccount(ctx context.Context, userID uuid.UUID) (*model.AccountResponse, error)
	AddPoints(ctx context.Context, userID uuid.UUID, points int, description string, referenceID *uuid.UUID, referenceType *string) (*model.LoyaltyAccount, error)
	AddReviewBonus(ctx context.Context, userID, reviewID uuid.UUID) (*model.LoyaltyAccount, error)
	AddBirthdayBonus(ctx context.Context, userID uuid.UUID) (*model.LoyaltyAccount, error)
	RedeemPoints(ctx context.Context, userID uuid.UUID, req *model.RedeemPointsRequest) (*model.LoyaltyAccount, error)
	GetPointsHistory(ctx context.Context, userID uuid.UUID, filter model.HistoryFilter) ([]model.PointTransaction, int64, error)

	// Reward catalog
	GetAvailableRewards(ctx context.Context, userID uuid.UUID, filter model.RewardFilter) ([]model.LoyaltyReward, error)
	GetEligibleRewards(ctx context.Context, userID uuid.UUID, filter model.RewardFilter) ([]model.LoyaltyReward, error)
	CreateReward(ctx context.Context, req *model.CreateRewardRequest) (*model.LoyaltyReward, error)
	UpdateReward(ctx context.Context, id uuid.UUID, req *model.UpdateRewardRequest) (*model.LoyaltyReward, error)
	DeleteReward(ctx context.Context, id uuid.UUID) error

	// ExpirePoints writes off earn entries whose expiry passed asOf.
	// Returns how many ledger entries were expired.
	ExpirePoints(ctx context.Context, asOf time.Time) (int, error)
}
