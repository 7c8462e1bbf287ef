package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiwihood-backend/internal/domains/loyalty/model"
	"wiwihood-backend/internal/domains/loyalty/repository"
)

// =====================================================
// STUBS
// =====================================================

// stubLoyaltyRepo keeps everything in memory and mirrors the
// transactional contract of MutateAccount: fn errors leave state
// untouched, success persists aggregates plus the ledger entry.
type stubLoyaltyRepo struct {
	accounts     map[uuid.UUID]*model.LoyaltyAccount
	transactions []model.PointTransaction
	rewards      map[uuid.UUID]*model.LoyaltyReward
}

func newStubLoyaltyRepo() *stubLoyaltyRepo {
	return &stubLoyaltyRepo{
		accounts: make(map[uuid.UUID]*model.LoyaltyAccount),
		rewards:  make(map[uuid.UUID]*model.LoyaltyReward),
	}
}

func (r *stubLoyaltyRepo) GetAccountByUserID(_ context.Context, userID uuid.UUID) (*model.LoyaltyAccount, error) {
	acc, ok := r.accounts[userID]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	clone := *acc
	return &clone, nil
}

func (r *stubLoyaltyRepo) CreateAccount(_ context.Context, acc *model.LoyaltyAccount) error {
	if _, ok := r.accounts[acc.UserID]; ok {
		return model.ErrAccountExists
	}
	clone := *acc
	r.accounts[acc.UserID] = &clone
	return nil
}

func (r *stubLoyaltyRepo) MutateAccount(_ context.Context, userID uuid.UUID, fn repository.MutateFunc) (*model.LoyaltyAccount, error) {
	stored, ok := r.accounts[userID]
	if !ok {
		return nil, model.ErrAccountNotFound
	}

	working := *stored
	txn, err := fn(&working)
	if err != nil {
		return nil, err
	}

	txn.ID = uuid.New()
	txn.AccountID = working.ID
	txn.BalanceAfter = working.CurrentPoints
	txn.CreatedAt = time.Now()
	working.UpdatedAt = time.Now()

	r.transactions = append(r.transactions, *txn)
	*stored = working

	result := working
	return &result, nil
}

func (r *stubLoyaltyRepo) GetTransactions(_ context.Context, accountID uuid.UUID, filter model.HistoryFilter) ([]model.PointTransaction, int64, error) {
	matched := make([]model.PointTransaction, 0)
	for _, txn := range r.transactions {
		if txn.AccountID != accountID {
			continue
		}
		if filter.Type != "" && string(txn.Type) != filter.Type {
			continue
		}
		matched = append(matched, txn)
	}
	return matched, int64(len(matched)), nil
}

func (r *stubLoyaltyRepo) GetExpirableTransactions(_ context.Context, asOf time.Time, limit int) ([]model.ExpirableTransaction, error) {
	expired := make(map[uuid.UUID]bool)
	for _, txn := range r.transactions {
		if txn.Type == model.TransactionExpired && txn.ReferenceID != nil {
			expired[*txn.ReferenceID] = true
		}
	}

	result := make([]model.ExpirableTransaction, 0)
	for _, txn := range r.transactions {
		if txn.Type != model.TransactionEarned && txn.Type != model.TransactionBonus {
			continue
		}
		if txn.ExpiresAt == nil || txn.ExpiresAt.After(asOf) || expired[txn.ID] {
			continue
		}
		for userID, acc := range r.accounts {
			if acc.ID == txn.AccountID {
				result = append(result, model.ExpirableTransaction{Transaction: txn, UserID: userID})
			}
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *stubLoyaltyRepo) GetRewardByID(_ context.Context, id uuid.UUID) (*model.LoyaltyReward, error) {
	reward, ok := r.rewards[id]
	if !ok {
		return nil, model.ErrRewardNotFound
	}
	clone := *reward
	return &clone, nil
}

func (r *stubLoyaltyRepo) ListRewards(_ context.Context, onlyActive bool) ([]model.LoyaltyReward, error) {
	rewards := make([]model.LoyaltyReward, 0)
	for _, reward := range r.rewards {
		if onlyActive && !reward.IsActive {
			continue
		}
		rewards = append(rewards, *reward)
	}
	return rewards, nil
}

func (r *stubLoyaltyRepo) CreateReward(_ context.Context, reward *model.LoyaltyReward) error {
	clone := *reward
	r.rewards[reward.ID] = &clone
	return nil
}

func (r *stubLoyaltyRepo) UpdateReward(_ context.Context, reward *model.LoyaltyReward) error {
	if _, ok := r.rewards[reward.ID]; !ok {
		return model.ErrRewardNotFound
	}
	clone := *reward
	r.rewards[reward.ID] = &clone
	return nil
}

func (r *stubLoyaltyRepo) DeactivateReward(_ context.Context, id uuid.UUID) error {
	reward, ok := r.rewards[id]
	if !ok {
		return model.ErrRewardNotFound
	}
	reward.IsActive = false
	return nil
}

// noopCache always misses; writes and deletes succeed silently
type noopCache struct{}

func (noopCache) Get(_ context.Context, _ string, _ interface{}) (bool, error) { return false, nil }
func (noopCache) Set(_ context.Context, _ string, _ interface{}, _ time.Duration) error {
	return nil
}
func (noopCache) Delete(_ context.Context, _ ...string) error     { return nil }
func (noopCache) DeletePattern(_ context.Context, _ string) error { return nil }
func (noopCache) Ping(_ context.Context) error                    { return nil }

func newTestService() (LoyaltyService, *stubLoyaltyRepo) {
	repo := newStubLoyaltyRepo()
	return NewLoyaltyService(repo, noopCache{}), repo
}

// =====================================================
// ACCOUNT AND LEDGER TESTS
// =====================================================

func TestGetAccountCreatesBronzeOnFirstTouch(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	acc, err := svc.GetAccount(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, acc.UserID)
	assert.Equal(t, model.TierBronze, acc.Tier)
	assert.Equal(t, 0, acc.CurrentPoints)
	assert.Equal(t, 1000, acc.PointsToNextTier)
	require.NotNil(t, acc.NextTier)
	assert.Equal(t, model.TierSilver, *acc.NextTier)

	// Second read returns the same account, not a fresh one
	again, err := svc.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, again.ID)
}

func TestAddPointsUpdatesBalanceAndLedger(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	acc, err := svc.AddPoints(context.Background(), userID, 300, "Booking completed", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 300, acc.CurrentPoints)
	assert.Equal(t, 300, acc.LifetimeEarned)
	assert.Equal(t, 0, acc.LifetimeRedeemed)
	assert.Equal(t, model.TierBronze, acc.Tier)
	assert.Equal(t, 700, acc.PointsToNextTier)

	require.Len(t, repo.transactions, 1)
	txn := repo.transactions[0]
	assert.Equal(t, model.TransactionEarned, txn.Type)
	assert.Equal(t, 300, txn.Points)
	assert.Equal(t, 300, txn.BalanceAfter)
	require.NotNil(t, txn.ExpiresAt)
	assert.True(t, txn.ExpiresAt.After(time.Now().Add(364*24*time.Hour)))
}

func TestAddPointsCarriesBookingReference(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()
	bookingID := uuid.New()
	refType := "booking"

	_, err := svc.AddPoints(context.Background(), userID, 250, "Booking completed", &bookingID, &refType)
	require.NoError(t, err)

	require.Len(t, repo.transactions, 1)
	txn := repo.transactions[0]
	require.NotNil(t, txn.ReferenceID)
	assert.Equal(t, bookingID, *txn.ReferenceID)
	require.NotNil(t, txn.ReferenceType)
	assert.Equal(t, "booking", *txn.ReferenceType)
}

func TestAddPointsRejectsNonPositiveAmounts(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.AddPoints(context.Background(), uuid.New(), 0, "", nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidPointsAmount)

	_, err = svc.AddPoints(context.Background(), uuid.New(), -10, "", nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidPointsAmount)

	assert.Empty(t, repo.transactions)
}

func TestTierUpgradesOnLifetimeEarned(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	acc, err := svc.AddPoints(context.Background(), userID, 999, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TierBronze, acc.Tier)
	assert.Nil(t, acc.LastTierUpgrade)

	acc, err = svc.AddPoints(context.Background(), userID, 1, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TierSilver, acc.Tier)
	assert.NotNil(t, acc.LastTierUpgrade)
	assert.Equal(t, 4000, acc.PointsToNextTier)

	// One big credit can jump multiple tiers
	acc, err = svc.AddPoints(context.Background(), userID, 14000, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TierPlatinum, acc.Tier)
	assert.Equal(t, 0, acc.PointsToNextTier)
}

func TestTierSurvivesRedemption(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	_, err := svc.AddPoints(context.Background(), userID, 5000, "", nil, nil)
	require.NoError(t, err)

	acc, err := svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{Points: 4800})
	require.NoError(t, err)

	// Tier keys off lifetime earned, spending changes nothing
	assert.Equal(t, model.TierGold, acc.Tier)
	assert.Equal(t, 200, acc.CurrentPoints)
	assert.Equal(t, 5000, acc.LifetimeEarned)
	assert.Equal(t, 4800, acc.LifetimeRedeemed)
}

func TestRedeemInsufficientBalance(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	_, err := svc.AddPoints(context.Background(), userID, 100, "", nil, nil)
	require.NoError(t, err)

	_, err = svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{Points: 101})
	assert.ErrorIs(t, err, model.ErrInsufficientPoints)

	// Failed redemption must not leave a ledger entry
	require.Len(t, repo.transactions, 1)

	acc, err := svc.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 100, acc.CurrentPoints)
}

func TestRedeemAgainstReward(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	reward := &model.LoyaltyReward{
		ID:             uuid.New(),
		Name:           "Free manicure",
		PointsRequired: 500,
		RewardType:     model.RewardSpecial,
		MinimumTier:    model.TierSilver,
		IsActive:       true,
	}
	require.NoError(t, repo.CreateReward(context.Background(), reward))

	_, err := svc.AddPoints(context.Background(), userID, 1200, "", nil, nil)
	require.NoError(t, err)

	t.Run("exact cost and tier match succeeds", func(t *testing.T) {
		acc, err := svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{
			Points:   500,
			RewardID: &reward.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, 700, acc.CurrentPoints)

		last := repo.transactions[len(repo.transactions)-1]
		assert.Equal(t, model.TransactionRedeemed, last.Type)
		assert.Equal(t, -500, last.Points)
		require.NotNil(t, last.ReferenceID)
		assert.Equal(t, reward.ID, *last.ReferenceID)
	})

	t.Run("points must match the reward cost exactly", func(t *testing.T) {
		_, err := svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{
			Points:   499,
			RewardID: &reward.ID,
		})
		assert.ErrorIs(t, err, model.ErrPointsMismatch)

		_, err = svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{
			Points:   501,
			RewardID: &reward.ID,
		})
		assert.ErrorIs(t, err, model.ErrPointsMismatch)
	})

	t.Run("inactive reward is rejected", func(t *testing.T) {
		require.NoError(t, repo.DeactivateReward(context.Background(), reward.ID))
		_, err := svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{
			Points:   500,
			RewardID: &reward.ID,
		})
		assert.ErrorIs(t, err, model.ErrRewardInactive)
	})

	t.Run("unknown reward is rejected", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{
			Points:   500,
			RewardID: &missing,
		})
		assert.ErrorIs(t, err, model.ErrRewardNotFound)
	})
}

func TestRedeemRewardBelowMinimumTier(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	reward := &model.LoyaltyReward{
		ID:             uuid.New(),
		Name:           "VIP upgrade",
		PointsRequired: 100,
		RewardType:     model.RewardSpecial,
		MinimumTier:    model.TierGold,
		IsActive:       true,
	}
	require.NoError(t, repo.CreateReward(context.Background(), reward))

	// Bronze account holding enough points
	_, err := svc.AddPoints(context.Background(), userID, 500, "", nil, nil)
	require.NoError(t, err)

	_, err = svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{
		Points:   100,
		RewardID: &reward.ID,
	})
	assert.ErrorIs(t, err, model.ErrTierTooLow)
}

func TestPlainRedeemSkipsTierCheck(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	_, err := svc.AddPoints(context.Background(), userID, 200, "", nil, nil)
	require.NoError(t, err)

	// No reward named: any tier may spend freely
	acc, err := svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{Points: 200})
	require.NoError(t, err)
	assert.Equal(t, 0, acc.CurrentPoints)
}

func TestBonuses(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	acc, err := svc.AddReviewBonus(context.Background(), userID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 50, acc.CurrentPoints)

	acc, err = svc.AddBirthdayBonus(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 250, acc.CurrentPoints)
	assert.Equal(t, 250, acc.LifetimeEarned)

	require.Len(t, repo.transactions, 2)
	assert.Equal(t, model.TransactionBonus, repo.transactions[0].Type)
	require.NotNil(t, repo.transactions[0].ReferenceType)
	assert.Equal(t, "review", *repo.transactions[0].ReferenceType)
	assert.Equal(t, model.TransactionBonus, repo.transactions[1].Type)
}

func TestGetPointsHistoryWithoutAccount(t *testing.T) {
	svc, _ := newTestService()

	transactions, total, err := svc.GetPointsHistory(context.Background(), uuid.New(), model.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, transactions)
	assert.Zero(t, total)
}

// =====================================================
// REWARD CATALOG TESTS
// =====================================================

func seedRewards(t *testing.T, repo *stubLoyaltyRepo) (cheap, midTier, expensive model.LoyaltyReward) {
	t.Helper()

	cheap = model.LoyaltyReward{
		ID: uuid.New(), Name: "Coffee voucher", PointsRequired: 100,
		RewardType: model.RewardAmount, RewardValue: 5, MinimumTier: model.TierBronze, IsActive: true,
	}
	midTier = model.LoyaltyReward{
		ID: uuid.New(), Name: "Silver discount", PointsRequired: 300,
		RewardType: model.RewardDiscount, RewardValue: 15, MinimumTier: model.TierSilver, IsActive: true,
	}
	expensive = model.LoyaltyReward{
		ID: uuid.New(), Name: "Spa day", PointsRequired: 5000,
		RewardType: model.RewardSpecial, RewardValue: 120, MinimumTier: model.TierBronze, IsActive: true,
	}

	for _, r := range []model.LoyaltyReward{cheap, midTier, expensive} {
		reward := r
		require.NoError(t, repo.CreateReward(context.Background(), &reward))
	}
	return cheap, midTier, expensive
}

func TestGetAvailableRewardsFiltersByTier(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()
	cheap, midTier, expensive := seedRewards(t, repo)

	// Bronze user with a small balance
	_, err := svc.AddPoints(context.Background(), userID, 150, "", nil, nil)
	require.NoError(t, err)

	available, err := svc.GetAvailableRewards(context.Background(), userID, model.RewardFilter{})
	require.NoError(t, err)

	ids := rewardIDs(available)
	assert.Contains(t, ids, cheap.ID)
	assert.Contains(t, ids, expensive.ID) // affordability does not matter here
	assert.NotContains(t, ids, midTier.ID)
}

func TestGetEligibleRewardsFiltersByTierAndBalance(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()
	cheap, midTier, expensive := seedRewards(t, repo)

	// Silver tier (1000 earned), 400 points spendable after redeeming 600
	_, err := svc.AddPoints(context.Background(), userID, 1000, "", nil, nil)
	require.NoError(t, err)
	_, err = svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{Points: 600})
	require.NoError(t, err)

	eligible, err := svc.GetEligibleRewards(context.Background(), userID, model.RewardFilter{})
	require.NoError(t, err)

	ids := rewardIDs(eligible)
	assert.Contains(t, ids, cheap.ID)
	assert.Contains(t, ids, midTier.ID)
	assert.NotContains(t, ids, expensive.ID) // cannot afford
}

func TestGetAvailableRewardsPointsRange(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()
	cheap, _, expensive := seedRewards(t, repo)

	_, err := svc.AddPoints(context.Background(), userID, 100, "", nil, nil)
	require.NoError(t, err)

	available, err := svc.GetAvailableRewards(context.Background(), userID, model.RewardFilter{
		MinPoints: 1000,
	})
	require.NoError(t, err)

	ids := rewardIDs(available)
	assert.Contains(t, ids, expensive.ID)
	assert.NotContains(t, ids, cheap.ID)
}

func TestGetAvailableRewardsTierFilter(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()
	cheap, midTier, expensive := seedRewards(t, repo)

	// Platinum user narrowing the view to what a bronze member could claim
	_, err := svc.AddPoints(context.Background(), userID, 20000, "", nil, nil)
	require.NoError(t, err)

	available, err := svc.GetAvailableRewards(context.Background(), userID, model.RewardFilter{
		Tier: "bronze",
	})
	require.NoError(t, err)

	ids := rewardIDs(available)
	assert.Contains(t, ids, cheap.ID)
	assert.Contains(t, ids, expensive.ID)
	assert.NotContains(t, ids, midTier.ID)
}

func rewardIDs(rewards []model.LoyaltyReward) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rewards))
	for _, r := range rewards {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestCreateRewardDefaults(t *testing.T) {
	svc, _ := newTestService()

	reward, err := svc.CreateReward(context.Background(), &model.CreateRewardRequest{
		Name:           "Welcome gift",
		PointsRequired: 50,
		RewardType:     "special",
	})
	require.NoError(t, err)

	assert.Equal(t, model.TierBronze, reward.MinimumTier)
	assert.True(t, reward.IsActive)
}

func TestDeleteRewardDeactivates(t *testing.T) {
	svc, repo := newTestService()
	cheap, _, _ := seedRewards(t, repo)

	require.NoError(t, svc.DeleteReward(context.Background(), cheap.ID))

	stored, err := repo.GetRewardByID(context.Background(), cheap.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

// =====================================================
// EXPIRY TESTS
// =====================================================

func TestExpirePoints(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	_, err := svc.AddPoints(context.Background(), userID, 400, "", nil, nil)
	require.NoError(t, err)

	// Age the earn past its expiry window
	past := time.Now().Add(-time.Hour)
	repo.transactions[0].ExpiresAt = &past

	expired, err := svc.ExpirePoints(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	acc, err := svc.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, acc.CurrentPoints)
	assert.Equal(t, 400, acc.LifetimeEarned)
	assert.Equal(t, 400, acc.LifetimeRedeemed)
	// Tier judgment stays on lifetime earned
	assert.Equal(t, model.TierBronze, acc.Tier)

	last := repo.transactions[len(repo.transactions)-1]
	assert.Equal(t, model.TransactionExpired, last.Type)
	assert.Equal(t, -400, last.Points)
	require.NotNil(t, last.ReferenceID)
	assert.Equal(t, repo.transactions[0].ID, *last.ReferenceID)
}

func TestExpirePointsIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	_, err := svc.AddPoints(context.Background(), userID, 100, "", nil, nil)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	repo.transactions[0].ExpiresAt = &past

	expired, err := svc.ExpirePoints(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// Second run sees the write-off marker and does nothing
	expired, err = svc.ExpirePoints(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestExpirePointsCapsAtCurrentBalance(t *testing.T) {
	svc, repo := newTestService()
	userID := uuid.New()

	_, err := svc.AddPoints(context.Background(), userID, 300, "", nil, nil)
	require.NoError(t, err)
	_, err = svc.RedeemPoints(context.Background(), userID, &model.RedeemPointsRequest{Points: 250})
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	repo.transactions[0].ExpiresAt = &past

	_, err = svc.ExpirePoints(context.Background(), time.Now())
	require.NoError(t, err)

	acc, err := svc.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	// Only the 50 still on the balance expire; it never goes negative
	assert.Equal(t, 0, acc.CurrentPoints)
	assert.Equal(t, 300, acc.LifetimeRedeemed)
}
