package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wiwihood-backend/internal/domains/promotion/model"
)

// PromotionService owns campaign administration, checkout-preview
// validation and usage recording.
type PromotionService interface {
	Create(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdatePromotionRequest) (*model.Promotion, error)
	Remove(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	FindByCode(ctx context.Context, code string) (*model.Promotion, error)
	FindAll(ctx context.Context, filter model.PromotionFilter) ([]model.Promotion, error)
	FindActivePromotions(ctx context.Context, providerID *uuid.UUID) ([]model.Promotion, error)

	// Validate is advisory: it always returns a result, never an error.
	// Checkout preview renders the reason string directly.
	Validate(ctx context.Context, req *model.ValidatePromotionRequest) *model.ValidationResult

	// Apply records actual usage once a booking completes
	Apply(ctx context.Context, userID uuid.UUID, req *model.ApplyPromotionRequest) error
	GetPromotionUsage(ctx context.Context, promotionID uuid.UUID) ([]model.PromotionUsage, error)

	// SweepStatuses advances lifecycle states against the clock.
	// Returns how many promotions were activated and expired.
	SweepStatuses(ctx context.Context, now time.Time) (activated, expired int64, err error)
}
