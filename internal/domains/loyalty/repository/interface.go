package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wiwihood-backend/internal/domains/loyalty/model"
)

// MutateFunc applies a balance change to a row-locked account and
// returns the ledger entry to append. Returning an error aborts the
// transaction without writes.
type MutateFunc func(acc *model.LoyaltyAccount) (*model.PointTransaction, error)

// LoyaltyRepository persists accounts, the points ledger and the reward catalog
type LoyaltyRepository interface {
	// Accounts
	GetAccountByUserID(ctx context.Context, userID uuid.UUID) (*model.LoyaltyAccount, error)
	CreateAccount(ctx context.Context, acc *model.LoyaltyAccount) error

	// MutateAccount locks the account row, runs fn, then persists the
	// updated aggregates and the returned ledger entry atomically.
	MutateAccount(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*model.LoyaltyAccount, error)

	// Ledger
	GetTransactions(ctx context.Context, accountID uuid.UUID, filter model.HistoryFilter) ([]model.PointTransaction, int64, error)
	GetExpirableTransactions(ctx context.Context, asOf time.Time, limit int) ([]model.ExpirableTransaction, error)

	// Reward catalog
	GetRewardByID(ctx context.Context, id uuid.UUID) (*model.LoyaltyReward, error)
	ListRewards(ctx context.Context, onlyActive bool) ([]model.LoyaltyReward, error)
	CreateReward(ctx context.Context, reward *model.LoyaltyReward) error
	UpdateReward(ctx context.Context, reward *model.LoyaltyReward) error
	DeactivateReward(ctx context.Context, id uuid.UUID) error
}
