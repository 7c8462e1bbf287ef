package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wiwihood-backend/internal/domains/promotion/model"
)

// PromotionRepository persists campaigns and their usage records
type PromotionRepository interface {
	Create(ctx context.Context, promo *model.Promotion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	FindByCode(ctx context.Context, code string) (*model.Promotion, error)
	FindAll(ctx context.Context, filter model.PromotionFilter) ([]model.Promotion, error)
	FindActive(ctx context.Context, providerID *uuid.UUID, now time.Time) ([]model.Promotion, error)
	Update(ctx context.Context, promo *model.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error

	// RecordUsage inserts the usage row and bumps usage_count in one
	// transaction. The count update is relative and guarded by the
	// usage limit; the unique (promotion_id, user_id) index arbitrates
	// duplicate redemptions.
	RecordUsage(ctx context.Context, usage *model.PromotionUsage) error
	HasUsage(ctx context.Context, promotionID, userID uuid.UUID) (bool, error)
	GetUsage(ctx context.Context, promotionID uuid.UUID) ([]model.PromotionUsage, error)

	// Status sweeps, run by the scheduler
	ActivateScheduled(ctx context.Context, now time.Time) (int64, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}
