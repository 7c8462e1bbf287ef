package repository

import (
	"context"

	"github.com/google/uuid"

	"wiwihood-backend/internal/domains/provider/model"
)

// ProviderRepository defines the read surface other domains need
type ProviderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Provider, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
