package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	providerRepo "wiwihood-backend/internal/domains/provider/repository"
	"wiwihood-backend/internal/domains/promotion/model"
	"wiwihood-backend/internal/domains/promotion/repository"
)

// Validation reason strings shown at checkout preview. Callers render
// them verbatim, so changes here are user visible.
const (
	reasonNotFound       = "Promotion code not found"
	reasonNotActive      = "Promotion is not active"
	reasonOutsideWindow  = "Promotion has expired or not yet started"
	reasonLimitReached   = "Promotion usage limit reached"
	reasonWrongProvider  = "Promotion not valid for this provider"
	reasonInternalError  = "Error validating promotion"
	reasonMinOrderFormat = "Minimum order amount of %s required"
)

type promotionService struct {
	repo       repository.PromotionRepository
	providers  providerRepo.ProviderRepository
	calculator *DiscountCalculator
}

// NewPromotionService creates the promotion service
func NewPromotionService(repo repository.PromotionRepository, providers providerRepo.ProviderRepository) PromotionService {
	return &promotionService{
		repo:       repo,
		providers:  providers,
		calculator: NewDiscountCalculator(),
	}
}

// -------------------------------------------------------------------
// ADMINISTRATION
// -------------------------------------------------------------------

// Create stores a new campaign. The initial status is computed from the
// start date: future campaigns are scheduled, everything else starts
// active.
func (s *promotionService) Create(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, model.ErrInvalidDateRange
	}

	if req.ProviderID != nil {
		exists, err := s.providers.Exists(ctx, *req.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("check provider: %w", err)
		}
		if !exists {
			return nil, model.ErrProviderNotFound
		}
	}

	status := model.StatusActive
	if req.StartDate.After(time.Now()) {
		status = model.StatusScheduled
	}

	perCustomerLimit := req.PerCustomerLimit
	if perCustomerLimit <= 0 {
		perCustomerLimit = 1
	}

	now := time.Now()
	promo := &model.Promotion{
		ID:                uuid.New(),
		Code:              req.Code,
		Name:              req.Name,
		Description:       req.Description,
		Type:              model.PromotionType(req.Type),
		DiscountValue:     req.DiscountValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MinOrderAmount:    req.MinOrderAmount,
		UsageLimit:        req.UsageLimit,
		PerCustomerLimit:  perCustomerLimit,
		UsageCount:        0,
		ProviderID:        req.ProviderID,
		NewCustomersOnly:  req.NewCustomersOnly,
		IsStackable:       req.IsStackable,
		Priority:          req.Priority,
		Status:            status,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, promo); err != nil {
		return nil, err
	}

	log.Info().
		Str("promotion_id", promo.ID.String()).
		Str("code", promo.Code).
		Str("status", string(promo.Status)).
		Msg("Promotion created")

	return promo, nil
}

func (s *promotionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePromotionRequest) (*model.Promotion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		promo.Name = *req.Name
	}
	if req.Description != nil {
		promo.Description = req.Description
	}
	if req.Type != nil {
		promo.Type = model.PromotionType(*req.Type)
	}
	if req.DiscountValue != nil {
		promo.DiscountValue = *req.DiscountValue
	}
	if req.MaxDiscountAmount != nil {
		promo.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.MinOrderAmount != nil {
		promo.MinOrderAmount = req.MinOrderAmount
	}
	if req.UsageLimit != nil {
		promo.UsageLimit = req.UsageLimit
	}
	if req.PerCustomerLimit != nil {
		promo.PerCustomerLimit = *req.PerCustomerLimit
	}
	if req.Status != nil {
		promo.Status = model.PromotionStatus(*req.Status)
	}
	if req.IsStackable != nil {
		promo.IsStackable = *req.IsStackable
	}
	if req.Priority != nil {
		promo.Priority = *req.Priority
	}
	if req.StartDate != nil {
		promo.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		promo.EndDate = *req.EndDate
	}

	if !promo.StartDate.Before(promo.EndDate) {
		return nil, model.ErrInvalidDateRange
	}

	promo.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

// Remove deletes an unused campaign. Once usage exists the campaign is
// deactivated instead: usage rows reference it and stay auditable.
func (s *promotionService) Remove(ctx context.Context, id uuid.UUID) error {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	usages, err := s.repo.GetUsage(ctx, id)
	if err != nil {
		return err
	}
	if len(usages) > 0 {
		promo.Status = model.StatusInactive
		promo.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, promo); err != nil {
			return err
		}
		log.Info().Str("promotion_id", id.String()).Msg("Promotion deactivated (usage exists)")
		return nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("promotion_id", id.String()).Msg("Promotion removed")
	return nil
}

// -------------------------------------------------------------------
// QUERIES
// -------------------------------------------------------------------

func (s *promotionService) FindByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *promotionService) FindByCode(ctx context.Context, code string) (*model.Promotion, error) {
	return s.repo.FindByCode(ctx, code)
}

func (s *promotionService) FindAll(ctx context.Context, filter model.PromotionFilter) ([]model.Promotion, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *promotionService) FindActivePromotions(ctx context.Context, providerID *uuid.UUID) ([]model.Promotion, error) {
	return s.repo.FindActive(ctx, providerID, time.Now())
}

// -------------------------------------------------------------------
// VALIDATION
// -------------------------------------------------------------------

// Validate runs the checkout-preview checks in order, first failure
// wins. It intentionally does not look at per-customer usage: preview
// happens before we reliably know the customer, so Apply remains the
// final arbiter of the one-per-user rule.
func (s *promotionService) Validate(ctx context.Context, req *model.ValidatePromotionRequest) *model.ValidationResult {
	// Step 1: the code must exist
	promo, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, model.ErrPromotionNotFound) {
			return model.Invalid(reasonNotFound)
		}
		log.Error().Err(err).Str("code", req.Code).Msg("Promotion validation failed unexpectedly")
		return model.Invalid(reasonInternalError)
	}

	// Step 2: only active campaigns validate
	if promo.Status != model.StatusActive {
		return model.Invalid(reasonNotActive)
	}

	// Step 3: inside the validity window
	if !promo.InWindow(time.Now()) {
		return model.Invalid(reasonOutsideWindow)
	}

	// Step 4: total usage cap
	if promo.Exhausted() {
		return model.Invalid(reasonLimitReached)
	}

	// Step 5: minimum order amount
	if promo.MinOrderAmount != nil && req.OrderAmount.LessThan(*promo.MinOrderAmount) {
		return model.Invalid(fmt.Sprintf(reasonMinOrderFormat, promo.MinOrderAmount.StringFixed(2)))
	}

	// Step 6: provider scope
	if !promo.ValidForProvider(req.ProviderID) {
		return model.Invalid(reasonWrongProvider)
	}

	discount := s.calculator.Calculate(promo, req.OrderAmount)
	final := req.OrderAmount.Sub(discount)

	return &model.ValidationResult{
		Valid:          true,
		Promotion:      promo,
		DiscountAmount: &discount,
		FinalAmount:    &final,
	}
}

// -------------------------------------------------------------------
// USAGE
// -------------------------------------------------------------------

// Apply records a redemption after checkout. The HasUsage read is the
// friendly fast path; the unique index inside RecordUsage settles races.
func (s *promotionService) Apply(ctx context.Context, userID uuid.UUID, req *model.ApplyPromotionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, req.PromotionID); err != nil {
		return err
	}

	used, err := s.repo.HasUsage(ctx, req.PromotionID, userID)
	if err != nil {
		return err
	}
	if used {
		return model.ErrAlreadyUsed
	}

	usage := &model.PromotionUsage{
		ID:             uuid.New(),
		PromotionID:    req.PromotionID,
		UserID:         userID,
		BookingID:      req.BookingID,
		DiscountAmount: req.DiscountAmount,
		OriginalAmount: req.OriginalAmount,
		FinalAmount:    req.OriginalAmount.Sub(req.DiscountAmount),
		CreatedAt:      time.Now(),
	}

	if err := s.repo.RecordUsage(ctx, usage); err != nil {
		return err
	}

	log.Info().
		Str("promotion_id", req.PromotionID.String()).
		Str("user_id", userID.String()).
		Str("discount", req.DiscountAmount.String()).
		Msg("Promotion applied")

	return nil
}

func (s *promotionService) GetPromotionUsage(ctx context.Context, promotionID uuid.UUID) ([]model.PromotionUsage, error) {
	if _, err := s.repo.FindByID(ctx, promotionID); err != nil {
		return nil, err
	}
	return s.repo.GetUsage(ctx, promotionID)
}

// -------------------------------------------------------------------
// STATUS SWEEP
// -------------------------------------------------------------------

func (s *promotionService) SweepStatuses(ctx context.Context, now time.Time) (int64, int64, error) {
	activated, err := s.repo.ActivateScheduled(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	expired, err := s.repo.MarkExpired(ctx, now)
	if err != nil {
		return activated, 0, err
	}

	if activated > 0 || expired > 0 {
		log.Info().
			Int64("activated", activated).
			Int64("expired", expired).
			Msg("Promotion status sweep applied changes")
	}
	return activated, expired, nil
}
