package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	providerModel "wiwihood-backend/internal/domains/provider/model"
	providerRepo "wiwihood-backend/internal/domains/provider/repository"
	"wiwihood-backend/internal/domains/promotion/model"
)

// =====================================================
// STUBS
// =====================================================

type stubPromotionRepo struct {
	promotions map[uuid.UUID]*model.Promotion
	usages     []model.PromotionUsage

	findByCodeErr error
}

func newStubPromotionRepo() *stubPromotionRepo {
	return &stubPromotionRepo{promotions: make(map[uuid.UUID]*model.Promotion)}
}

func (r *stubPromotionRepo) Create(_ context.Context, promo *model.Promotion) error {
	for _, existing := range r.promotions {
		if existing.Code == promo.Code {
			return model.ErrDuplicateCode
		}
	}
	clone := *promo
	r.promotions[promo.ID] = &clone
	return nil
}

func (r *stubPromotionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Promotion, error) {
	promo, ok := r.promotions[id]
	if !ok {
		return nil, model.ErrPromotionNotFound
	}
	clone := *promo
	return &clone, nil
}

func (r *stubPromotionRepo) FindByCode(_ context.Context, code string) (*model.Promotion, error) {
	if r.findByCodeErr != nil {
		return nil, r.findByCodeErr
	}
	for _, promo := range r.promotions {
		if promo.Code == code {
			clone := *promo
			return &clone, nil
		}
	}
	return nil, model.ErrPromotionNotFound
}

func (r *stubPromotionRepo) FindAll(_ context.Context, filter model.PromotionFilter) ([]model.Promotion, error) {
	result := make([]model.Promotion, 0)
	for _, promo := range r.promotions {
		if filter.ProviderID != nil && (promo.ProviderID == nil || *promo.ProviderID != *filter.ProviderID) {
			continue
		}
		if filter.Status != "" && string(promo.Status) != filter.Status {
			continue
		}
		result = append(result, *promo)
	}
	return result, nil
}

func (r *stubPromotionRepo) FindActive(_ context.Context, providerID *uuid.UUID, now time.Time) ([]model.Promotion, error) {
	result := make([]model.Promotion, 0)
	for _, promo := range r.promotions {
		if promo.Status != model.StatusActive || !promo.InWindow(now) || promo.Exhausted() {
			continue
		}
		// Listing without a provider shows platform-wide promotions only
		if providerID == nil {
			if promo.ProviderID != nil {
				continue
			}
		} else if !promo.ValidForProvider(providerID) {
			continue
		}
		result = append(result, *promo)
	}
	return result, nil
}

func (r *stubPromotionRepo) Update(_ context.Context, promo *model.Promotion) error {
	if _, ok := r.promotions[promo.ID]; !ok {
		return model.ErrPromotionNotFound
	}
	clone := *promo
	r.promotions[promo.ID] = &clone
	return nil
}

func (r *stubPromotionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.promotions[id]; !ok {
		return model.ErrPromotionNotFound
	}
	delete(r.promotions, id)
	return nil
}

func (r *stubPromotionRepo) RecordUsage(_ context.Context, usage *model.PromotionUsage) error {
	for _, u := range r.usages {
		if u.PromotionID == usage.PromotionID && u.UserID == usage.UserID {
			return model.ErrAlreadyUsed
		}
	}

	promo, ok := r.promotions[usage.PromotionID]
	if !ok {
		return model.ErrPromotionNotFound
	}
	if promo.Exhausted() {
		return model.ErrUsageLimitReached
	}

	promo.UsageCount++
	r.usages = append(r.usages, *usage)
	return nil
}

func (r *stubPromotionRepo) HasUsage(_ context.Context, promotionID, userID uuid.UUID) (bool, error) {
	for _, u := range r.usages {
		if u.PromotionID == promotionID && u.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPromotionRepo) GetUsage(_ context.Context, promotionID uuid.UUID) ([]model.PromotionUsage, error) {
	result := make([]model.PromotionUsage, 0)
	for _, u := range r.usages {
		if u.PromotionID == promotionID {
			result = append(result, u)
		}
	}
	return result, nil
}

func (r *stubPromotionRepo) ActivateScheduled(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, promo := range r.promotions {
		if promo.Status == model.StatusScheduled && promo.InWindow(now) {
			promo.Status = model.StatusActive
			n++
		}
	}
	return n, nil
}

func (r *stubPromotionRepo) MarkExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, promo := range r.promotions {
		if (promo.Status == model.StatusActive || promo.Status == model.StatusScheduled) && promo.EndDate.Before(now) {
			promo.Status = model.StatusExpired
			n++
		}
	}
	return n, nil
}

type stubProviderRepo struct {
	providers map[uuid.UUID]bool
}

func (r *stubProviderRepo) FindByID(_ context.Context, id uuid.UUID) (*providerModel.Provider, error) {
	if !r.providers[id] {
		return nil, providerRepo.ErrProviderNotFound
	}
	return &providerModel.Provider{ID: id}, nil
}

func (r *stubProviderRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.providers[id], nil
}

func newTestService() (PromotionService, *stubPromotionRepo, *stubProviderRepo) {
	repo := newStubPromotionRepo()
	providers := &stubProviderRepo{providers: make(map[uuid.UUID]bool)}
	return NewPromotionService(repo, providers), repo, providers
}

func validCreateRequest() *model.CreatePromotionRequest {
	return &model.CreatePromotionRequest{
		Code:          "WELCOME20",
		Name:          "Welcome discount",
		Type:          "percentage",
		DiscountValue: dec("20"),
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(30 * 24 * time.Hour),
	}
}

// =====================================================
// CREATE TESTS
// =====================================================

func TestCreateComputesStatus(t *testing.T) {
	svc, _, _ := newTestService()

	t.Run("window already open means active", func(t *testing.T) {
		promo, err := svc.Create(context.Background(), validCreateRequest())
		require.NoError(t, err)
		assert.Equal(t, model.StatusActive, promo.Status)
		assert.Equal(t, 0, promo.UsageCount)
		assert.Equal(t, 1, promo.PerCustomerLimit)
	})

	t.Run("future start means scheduled", func(t *testing.T) {
		req := validCreateRequest()
		req.Code = "SPRING"
		req.StartDate = time.Now().Add(24 * time.Hour)
		req.EndDate = time.Now().Add(48 * time.Hour)

		promo, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, model.StatusScheduled, promo.Status)
	})
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreateRequest())
	assert.ErrorIs(t, err, model.ErrDuplicateCode)
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	svc, _, _ := newTestService()

	req := validCreateRequest()
	req.StartDate = time.Now().Add(48 * time.Hour)
	req.EndDate = time.Now().Add(24 * time.Hour)

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrInvalidDateRange)
}

func TestCreateChecksProviderScope(t *testing.T) {
	svc, _, providers := newTestService()

	known := uuid.New()
	providers.providers[known] = true

	req := validCreateRequest()
	req.ProviderID = &known
	promo, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, known, *promo.ProviderID)

	unknown := uuid.New()
	req = validCreateRequest()
	req.Code = "OTHER"
	req.ProviderID = &unknown
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrProviderNotFound)
}

// =====================================================
// VALIDATE TESTS
// =====================================================

func seedPromotion(t *testing.T, repo *stubPromotionRepo, mutate func(*model.Promotion)) *model.Promotion {
	t.Helper()

	promo := &model.Promotion{
		ID:               uuid.New(),
		Code:             "WELCOME20",
		Name:             "Welcome discount",
		Type:             model.PromotionPercentage,
		DiscountValue:    dec("20"),
		PerCustomerLimit: 1,
		Status:           model.StatusActive,
		StartDate:        time.Now().Add(-time.Hour),
		EndDate:          time.Now().Add(time.Hour),
	}
	if mutate != nil {
		mutate(promo)
	}
	require.NoError(t, repo.Create(context.Background(), promo))
	return promo
}

func TestValidateUnknownCode(t *testing.T) {
	svc, _, _ := newTestService()

	result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "NOPE",
		OrderAmount: dec("100"),
	})

	assert.False(t, result.Valid)
	assert.Equal(t, "Promotion code not found", result.Reason)
}

func TestValidateInactivePromotion(t *testing.T) {
	svc, repo, _ := newTestService()
	seedPromotion(t, repo, func(p *model.Promotion) {
		p.Status = model.StatusInactive
	})

	result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("100"),
	})

	assert.False(t, result.Valid)
	assert.Equal(t, "Promotion is not active", result.Reason)
}

func TestValidateOutsideWindow(t *testing.T) {
	svc, repo, _ := newTestService()

	t.Run("not yet started", func(t *testing.T) {
		seedPromotion(t, repo, func(p *model.Promotion) {
			p.Code = "FUTURE"
			p.StartDate = time.Now().Add(time.Hour)
			p.EndDate = time.Now().Add(2 * time.Hour)
		})

		result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
			Code:        "FUTURE",
			OrderAmount: dec("100"),
		})
		assert.False(t, result.Valid)
		assert.Equal(t, "Promotion has expired or not yet started", result.Reason)
	})

	t.Run("already ended", func(t *testing.T) {
		seedPromotion(t, repo, func(p *model.Promotion) {
			p.Code = "PAST"
			p.StartDate = time.Now().Add(-2 * time.Hour)
			p.EndDate = time.Now().Add(-time.Hour)
		})

		result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
			Code:        "PAST",
			OrderAmount: dec("100"),
		})
		assert.False(t, result.Valid)
		assert.Equal(t, "Promotion has expired or not yet started", result.Reason)
	})
}

func TestValidateUsageLimitReached(t *testing.T) {
	svc, repo, _ := newTestService()
	limit := 1
	seedPromotion(t, repo, func(p *model.Promotion) {
		p.UsageLimit = &limit
		p.UsageCount = 1
	})

	result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("100"),
	})

	assert.False(t, result.Valid)
	assert.Equal(t, "Promotion usage limit reached", result.Reason)
}

func TestValidateMinimumOrderAmount(t *testing.T) {
	svc, repo, _ := newTestService()
	seedPromotion(t, repo, func(p *model.Promotion) {
		p.MinOrderAmount = decPtr("50")
	})

	result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("49.99"),
	})

	assert.False(t, result.Valid)
	assert.Equal(t, "Minimum order amount of 50.00 required", result.Reason)

	// Exactly at the minimum passes
	result = svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("50"),
	})
	assert.True(t, result.Valid)
}

func TestValidateProviderScope(t *testing.T) {
	svc, repo, _ := newTestService()
	scoped := uuid.New()
	seedPromotion(t, repo, func(p *model.Promotion) {
		p.ProviderID = &scoped
	})

	other := uuid.New()
	result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("100"),
		ProviderID:  &other,
	})
	assert.False(t, result.Valid)
	assert.Equal(t, "Promotion not valid for this provider", result.Reason)

	// Matching provider passes
	result = svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("100"),
		ProviderID:  &scoped,
	})
	assert.True(t, result.Valid)

	// A request that names no provider is not rejected on scope
	result = svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("100"),
	})
	assert.True(t, result.Valid)
}

func TestValidateDegradesOnRepositoryFailure(t *testing.T) {
	svc, repo, _ := newTestService()
	seedPromotion(t, repo, nil)
	repo.findByCodeErr = errors.New("connection reset by peer")

	// Checkout preview must get a result, never an error
	result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("100"),
	})

	require.NotNil(t, result)
	assert.False(t, result.Valid)
	assert.Equal(t, "Error validating promotion", result.Reason)
	assert.Nil(t, result.Promotion)
}

func TestValidateComputesCappedDiscount(t *testing.T) {
	svc, repo, _ := newTestService()
	seedPromotion(t, repo, func(p *model.Promotion) {
		p.MaxDiscountAmount = decPtr("50")
	})

	result := svc.Validate(context.Background(), &model.ValidatePromotionRequest{
		Code:        "WELCOME20",
		OrderAmount: dec("1000"),
	})

	require.True(t, result.Valid)
	require.NotNil(t, result.DiscountAmount)
	require.NotNil(t, result.FinalAmount)
	assert.True(t, result.DiscountAmount.Equal(dec("50")), "got %s", result.DiscountAmount)
	assert.True(t, result.FinalAmount.Equal(dec("950")), "got %s", result.FinalAmount)
	assert.NotNil(t, result.Promotion)
}

// =====================================================
// APPLY TESTS
// =====================================================

func TestApplyOncePerUser(t *testing.T) {
	svc, repo, _ := newTestService()
	promo := seedPromotion(t, repo, nil)
	userID := uuid.New()

	req := &model.ApplyPromotionRequest{
		PromotionID:    promo.ID,
		BookingID:      uuid.New(),
		DiscountAmount: dec("20"),
		OriginalAmount: dec("100"),
	}

	require.NoError(t, svc.Apply(context.Background(), userID, req))

	stored, err := repo.FindByID(context.Background(), promo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)

	usages, err := svc.GetPromotionUsage(context.Background(), promo.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.True(t, usages[0].FinalAmount.Equal(dec("80")))

	// Second redemption by the same user is a conflict
	err = svc.Apply(context.Background(), userID, req)
	assert.ErrorIs(t, err, model.ErrAlreadyUsed)

	// A different user may still redeem
	require.NoError(t, svc.Apply(context.Background(), uuid.New(), req))
}

func TestApplyUnknownPromotion(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Apply(context.Background(), uuid.New(), &model.ApplyPromotionRequest{
		PromotionID:    uuid.New(),
		BookingID:      uuid.New(),
		DiscountAmount: dec("10"),
		OriginalAmount: dec("100"),
	})
	assert.ErrorIs(t, err, model.ErrPromotionNotFound)
}

func TestApplyAtUsageCap(t *testing.T) {
	svc, repo, _ := newTestService()
	limit := 1
	promo := seedPromotion(t, repo, func(p *model.Promotion) {
		p.UsageLimit = &limit
		p.UsageCount = 1
	})

	err := svc.Apply(context.Background(), uuid.New(), &model.ApplyPromotionRequest{
		PromotionID:    promo.ID,
		BookingID:      uuid.New(),
		DiscountAmount: dec("20"),
		OriginalAmount: dec("100"),
	})
	assert.ErrorIs(t, err, model.ErrUsageLimitReached)
}

// =====================================================
// LIFECYCLE TESTS
// =====================================================

func TestSweepStatuses(t *testing.T) {
	svc, repo, _ := newTestService()

	scheduled := seedPromotion(t, repo, func(p *model.Promotion) {
		p.Code = "OPENING"
		p.Status = model.StatusScheduled
		p.StartDate = time.Now().Add(-time.Minute)
		p.EndDate = time.Now().Add(time.Hour)
	})
	ended := seedPromotion(t, repo, func(p *model.Promotion) {
		p.Code = "CLOSING"
		p.Status = model.StatusActive
		p.StartDate = time.Now().Add(-2 * time.Hour)
		p.EndDate = time.Now().Add(-time.Minute)
	})
	untouched := seedPromotion(t, repo, func(p *model.Promotion) {
		p.Code = "STEADY"
	})

	activated, expired, err := svc.SweepStatuses(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), activated)
	assert.Equal(t, int64(1), expired)

	assertStatus := func(id uuid.UUID, want model.PromotionStatus) {
		promo, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, promo.Status)
	}
	assertStatus(scheduled.ID, model.StatusActive)
	assertStatus(ended.ID, model.StatusExpired)
	assertStatus(untouched.ID, model.StatusActive)
}

func TestUpdatePromotion(t *testing.T) {
	svc, repo, _ := newTestService()
	promo := seedPromotion(t, repo, nil)

	newName := "Renamed campaign"
	updated, err := svc.Update(context.Background(), promo.ID, &model.UpdatePromotionRequest{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	// Untouched fields survive the patch
	assert.Equal(t, promo.Code, updated.Code)

	badEnd := promo.StartDate.Add(-time.Hour)
	_, err = svc.Update(context.Background(), promo.ID, &model.UpdatePromotionRequest{
		EndDate: &badEnd,
	})
	assert.ErrorIs(t, err, model.ErrInvalidDateRange)
}

func TestRemovePromotion(t *testing.T) {
	svc, repo, _ := newTestService()
	promo := seedPromotion(t, repo, nil)

	require.NoError(t, svc.Remove(context.Background(), promo.ID))

	_, err := repo.FindByID(context.Background(), promo.ID)
	assert.ErrorIs(t, err, model.ErrPromotionNotFound)

	err = svc.Remove(context.Background(), promo.ID)
	assert.ErrorIs(t, err, model.ErrPromotionNotFound)
}

func TestRemoveUsedPromotionDeactivates(t *testing.T) {
	svc, repo, _ := newTestService()
	promo := seedPromotion(t, repo, nil)

	require.NoError(t, svc.Apply(context.Background(), uuid.New(), &model.ApplyPromotionRequest{
		PromotionID:    promo.ID,
		BookingID:      uuid.New(),
		DiscountAmount: dec("20"),
		OriginalAmount: dec("100"),
	}))

	require.NoError(t, svc.Remove(context.Background(), promo.ID))

	// Usage rows keep the campaign around, just switched off
	stored, err := repo.FindByID(context.Background(), promo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInactive, stored.Status)

	usages, err := repo.GetUsage(context.Background(), promo.ID)
	require.NoError(t, err)
	assert.Len(t, usages, 1)
}

func TestFindActivePromotionsScoping(t *testing.T) {
	svc, repo, _ := newTestService()
	providerA := uuid.New()
	providerB := uuid.New()

	platform := seedPromotion(t, repo, func(p *model.Promotion) { p.Code = "GLOBAL" })
	scopedA := seedPromotion(t, repo, func(p *model.Promotion) {
		p.Code = "ONLYA"
		p.ProviderID = &providerA
	})
	seedPromotion(t, repo, func(p *model.Promotion) {
		p.Code = "ONLYB"
		p.ProviderID = &providerB
	})

	promotions, err := svc.FindActivePromotions(context.Background(), &providerA)
	require.NoError(t, err)

	codes := make([]string, 0, len(promotions))
	for _, p := range promotions {
		codes = append(codes, p.Code)
	}
	assert.Contains(t, codes, platform.Code)
	assert.Contains(t, codes, scopedA.Code)
	assert.NotContains(t, codes, "ONLYB")

	// Listing without a provider returns platform-wide promotions only
	promotions, err = svc.FindActivePromotions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, promotions, 1)
	assert.Equal(t, platform.Code, promotions[0].Code)
}
