package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wiwihood-backend/internal/domains/loyalty/model"
	"wiwihood-backend/internal/domains/loyalty/repository"
	"wiwihood-backend/pkg/cache"
)

const (
	reviewBonusPoints   = 50
	birthdayBonusPoints = 200

	// Earned points stay redeemable for one year
	pointsValidity = 365 * 24 * time.Hour

	activeRewardsCacheKey = "loyalty:rewards:active"
	rewardsCacheTTL       = 5 * time.Minute

	expireBatchSize = 500
)

type loyaltyService struct {
	repo  repository.LoyaltyRepository
	cache cache.Cache
}

// NewLoyaltyService creates the loyalty service
func NewLoyaltyService(repo repository.LoyaltyRepository, cache cache.Cache) LoyaltyService {
	return &loyaltyService{repo: repo, cache: cache}
}

// =====================================================
// ACCOUNTS AND LEDGER
// =====================================================

func (s *loyaltyService) GetAccount(ctx context.Context, userID uuid.UUID) (*model.AccountResponse, error) {
	acc, err := s.getOrCreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.NewAccountResponse(acc), nil
}

// AddPoints credits the balance and advances the tier when the new
// lifetime total crosses a threshold. Tier never moves down. The
// reference pair ties the earn to its source, typically a booking.
func (s *loyaltyService) AddPoints(ctx context.Context, userID uuid.UUID, points int, description string, referenceID *uuid.UUID, referenceType *string) (*model.LoyaltyAccount, error) {
	return s.credit(ctx, userID, points, model.TransactionEarned, description, referenceID, referenceType)
}

func (s *loyaltyService) AddReviewBonus(ctx context.Context, userID, reviewID uuid.UUID) (*model.LoyaltyAccount, error) {
	refType := "review"
	return s.credit(ctx, userID, reviewBonusPoints, model.TransactionBonus,
		"Bonus for writing a review", &reviewID, &refType)
}

func (s *loyaltyService) AddBirthdayBonus(ctx context.Context, userID uuid.UUID) (*model.LoyaltyAccount, error) {
	return s.credit(ctx, userID, birthdayBonusPoints, model.TransactionBonus,
		"Happy birthday from wiwihood", nil, nil)
}

func (s *loyaltyService) credit(ctx context.Context, userID uuid.UUID, points int, txnType model.TransactionType, description string, refID *uuid.UUID, refType *string) (*model.LoyaltyAccount, error) {
	if points < 1 {
		return nil, model.ErrInvalidPointsAmount
	}

	// Make sure the row exists before taking the lock
	if _, err := s.getOrCreateAccount(ctx, userID); err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(pointsValidity)

	acc, err := s.repo.MutateAccount(ctx, userID, func(acc *model.LoyaltyAccount) (*model.PointTransaction, error) {
		acc.CurrentPoints += points
		acc.LifetimeEarned += points
		s.applyTierProgress(acc)

		return &model.PointTransaction{
			Type:          txnType,
			Points:        points,
			Description:   description,
			ReferenceID:   refID,
			ReferenceType: refType,
			ExpiresAt:     &expiresAt,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("points", points).
		Str("type", string(txnType)).
		Str("tier", string(acc.Tier)).
		Msg("Points credited")

	return acc, nil
}

// applyTierProgress recomputes tier from lifetime earned. Only upgrades
// are applied; redemptions and expiry leave the tier where it is.
func (s *loyaltyService) applyTierProgress(acc *model.LoyaltyAccount) {
	newTier := model.TierForPoints(acc.LifetimeEarned)
	if newTier.Rank() > acc.Tier.Rank() {
		now := time.Now()
		acc.Tier = newTier
		acc.LastTierUpgrade = &now
	}
	acc.PointsToNextTier = model.PointsToNextTier(acc.LifetimeEarned)
}

// RedeemPoints debits the balance. When a reward is named, the request
// must spend exactly the reward's cost and the account must hold the
// reward's minimum tier. A plain redemption skips both reward checks.
func (s *loyaltyService) RedeemPoints(ctx context.Context, userID uuid.UUID, req *model.RedeemPointsRequest) (*model.LoyaltyAccount, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var reward *model.LoyaltyReward
	if req.RewardID != nil {
		var err error
		reward, err = s.repo.GetRewardByID(ctx, *req.RewardID)
		if err != nil {
			return nil, err
		}
		if !reward.IsActive {
			return nil, model.ErrRewardInactive
		}
	}

	description := req.Description
	if description == "" && reward != nil {
		description = fmt.Sprintf("Redeemed: %s", reward.Name)
	}

	refID, refType := req.BookingID, (*string)(nil)
	if refID != nil {
		t := "booking"
		refType = &t
	} else if reward != nil {
		refID = &reward.ID
		t := "reward"
		refType = &t
	}

	acc, err := s.repo.MutateAccount(ctx, userID, func(acc *model.LoyaltyAccount) (*model.PointTransaction, error) {
		if reward != nil {
			if req.Points != reward.PointsRequired {
				return nil, model.ErrPointsMismatch
			}
			if !acc.Tier.AtLeast(reward.MinimumTier) {
				return nil, model.ErrTierTooLow
			}
		}
		if req.Points > acc.CurrentPoints {
			return nil, model.ErrInsufficientPoints
		}

		acc.CurrentPoints -= req.Points
		acc.LifetimeRedeemed += req.Points

		return &model.PointTransaction{
			Type:          model.TransactionRedeemed,
			Points:        -req.Points,
			Description:   description,
			ReferenceID:   refID,
			ReferenceType: refType,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("points", req.Points).
		Int("balance", acc.CurrentPoints).
		Msg("Points redeemed")

	return acc, nil
}

func (s *loyaltyService) GetPointsHistory(ctx context.Context, userID uuid.UUID, filter model.HistoryFilter) ([]model.PointTransaction, int64, error) {
	filter.Normalize()

	acc, err := s.repo.GetAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			// No account yet means an empty history, not an error
			return []model.PointTransaction{}, 0, nil
		}
		return nil, 0, err
	}
	return s.repo.GetTransactions(ctx, acc.ID, filter)
}

// getOrCreateAccount reads the account, creating a bronze one on first
// touch. A concurrent creator winning the unique index race is fine:
// we just re-read the row they inserted.
func (s *loyaltyService) getOrCreateAccount(ctx context.Context, userID uuid.UUID) (*model.LoyaltyAccount, error) {
	acc, err := s.repo.GetAccountByUserID(ctx, userID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	acc = model.NewLoyaltyAccount(userID)
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, model.ErrAccountExists) {
			return s.repo.GetAccountByUserID(ctx, userID)
		}
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Msg("Loyalty account created")
	return acc, nil
}

// =====================================================
// REWARD CATALOG
// =====================================================

// GetAvailableRewards lists active rewards the account's tier can see,
// regardless of current balance.
func (s *loyaltyService) GetAvailableRewards(ctx context.Context, userID uuid.UUID, filter model.RewardFilter) ([]model.LoyaltyReward, error) {
	acc, err := s.getOrCreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	rewards, err := s.activeRewards(ctx)
	if err != nil {
		return nil, err
	}

	available := make([]model.LoyaltyReward, 0, len(rewards))
	for i := range rewards {
		reward := rewards[i]
		if acc.Tier.AtLeast(reward.MinimumTier) && filter.Matches(&reward) {
			available = append(available, reward)
		}
		if filter.Limit > 0 && len(available) >= filter.Limit {
			break
		}
	}
	return available, nil
}

// GetEligibleRewards narrows available rewards to the ones the current
// balance can pay for right now.
func (s *loyaltyService) GetEligibleRewards(ctx context.Context, userID uuid.UUID, filter model.RewardFilter) ([]model.LoyaltyReward, error) {
	acc, err := s.getOrCreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	rewards, err := s.activeRewards(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]model.LoyaltyReward, 0, len(rewards))
	for i := range rewards {
		reward := rewards[i]
		if acc.Tier.AtLeast(reward.MinimumTier) && acc.CurrentPoints >= reward.PointsRequired && filter.Matches(&reward) {
			eligible = append(eligible, reward)
		}
		if filter.Limit > 0 && len(eligible) >= filter.Limit {
			break
		}
	}
	return eligible, nil
}

// activeRewards serves the active catalog through the cache. A cache
// failure falls through to the database instead of failing the request.
func (s *loyaltyService) activeRewards(ctx context.Context) ([]model.LoyaltyReward, error) {
	var cached []model.LoyaltyReward
	found, err := s.cache.Get(ctx, activeRewardsCacheKey, &cached)
	if err != nil {
		log.Warn().Err(err).Msg("Reward cache read failed, falling back to database")
	} else if found {
		return cached, nil
	}

	rewards, err := s.repo.ListRewards(ctx, true)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, activeRewardsCacheKey, rewards, rewardsCacheTTL); err != nil {
		log.Warn().Err(err).Msg("Reward cache write failed")
	}
	return rewards, nil
}

func (s *loyaltyService) invalidateRewardCache(ctx context.Context) {
	if err := s.cache.Delete(ctx, activeRewardsCacheKey); err != nil {
		log.Warn().Err(err).Msg("Reward cache invalidation failed")
	}
}

func (s *loyaltyService) CreateReward(ctx context.Context, req *model.CreateRewardRequest) (*model.LoyaltyReward, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	reward := &model.LoyaltyReward{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		RewardType:     model.RewardType(req.RewardType),
		RewardValue:    req.RewardValue,
		MinimumTier:    model.TierBronze,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.MinimumTier != "" {
		reward.MinimumTier = model.Tier(req.MinimumTier)
	}
	if req.IsActive != nil {
		reward.IsActive = *req.IsActive
	}

	if err := s.repo.CreateReward(ctx, reward); err != nil {
		return nil, err
	}

	s.invalidateRewardCache(ctx)
	log.Info().Str("reward_id", reward.ID.String()).Str("name", reward.Name).Msg("Reward created")
	return reward, nil
}

func (s *loyaltyService) UpdateReward(ctx context.Context, id uuid.UUID, req *model.UpdateRewardRequest) (*model.LoyaltyReward, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reward, err := s.repo.GetRewardByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		reward.Name = *req.Name
	}
	if req.Description != nil {
		reward.Description = *req.Description
	}
	if req.PointsRequired != nil {
		reward.PointsRequired = *req.PointsRequired
	}
	if req.RewardType != nil {
		reward.RewardType = model.RewardType(*req.RewardType)
	}
	if req.RewardValue != nil {
		reward.RewardValue = *req.RewardValue
	}
	if req.MinimumTier != nil {
		reward.MinimumTier = model.Tier(*req.MinimumTier)
	}
	if req.IsActive != nil {
		reward.IsActive = *req.IsActive
	}
	reward.UpdatedAt = time.Now()

	if err := s.repo.UpdateReward(ctx, reward); err != nil {
		return nil, err
	}

	s.invalidateRewardCache(ctx)
	return reward, nil
}

func (s *loyaltyService) DeleteReward(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeactivateReward(ctx, id); err != nil {
		return err
	}
	s.invalidateRewardCache(ctx)
	log.Info().Str("reward_id", id.String()).Msg("Reward deactivated")
	return nil
}

// =====================================================
// EXPIRY
// =====================================================

// ExpirePoints writes off earn entries past their expiry, batch by batch.
// Each write-off appends an expired ledger entry pointing back at the
// earn row; that back reference is also what keeps the job idempotent.
// Only the part of the earn still covered by the current balance is
// written off, so the balance never goes negative. A zero-point marker
// is still appended for fully spent earns so the job does not revisit
// them on the next run.
func (s *loyaltyService) ExpirePoints(ctx context.Context, asOf time.Time) (int, error) {
	expired := 0

	for {
		batch, err := s.repo.GetExpirableTransactions(ctx, asOf, expireBatchSize)
		if err != nil {
			return expired, err
		}
		if len(batch) == 0 {
			return expired, nil
		}

		for _, item := range batch {
			if err := s.expireOne(ctx, item); err != nil {
				log.Error().Err(err).
					Str("transaction_id", item.Transaction.ID.String()).
					Msg("Failed to expire points")
				return expired, err
			}
			expired++
		}

		if len(batch) < expireBatchSize {
			return expired, nil
		}
	}
}

func (s *loyaltyService) expireOne(ctx context.Context, item model.ExpirableTransaction) error {
	sourceID := item.Transaction.ID
	refType := "point_transaction"

	_, err := s.repo.MutateAccount(ctx, item.UserID, func(acc *model.LoyaltyAccount) (*model.PointTransaction, error) {
		toExpire := item.Transaction.Points
		if toExpire > acc.CurrentPoints {
			toExpire = acc.CurrentPoints
		}
		description := "Points expired"
		if toExpire <= 0 {
			toExpire = 0
			description = "Points expired (already spent)"
		}

		acc.CurrentPoints -= toExpire
		acc.LifetimeRedeemed += toExpire

		return &model.PointTransaction{
			Type:          model.TransactionExpired,
			Points:        -toExpire,
			Description:   description,
			ReferenceID:   &sourceID,
			ReferenceType: &refType,
		}, nil
	})
	return err
}
