package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wiwihood-backend/internal/domains/provider/model"
)

// ErrProviderNotFound is returned when the referenced provider row does not exist
var ErrProviderNotFound = errors.New("provider not found")

// PostgresRepository implements ProviderRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance
func NewPostgresRepository(db *pgxpool.Pool) ProviderRepository {
	return &PostgresRepository{db: db}
}

// FindByID looks up a provider by id
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	query := `
		SELECT id, business_name, is_active, created_at
		FROM providers
		WHERE id = $1
	`

	var p model.Provider
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.BusinessName,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("find provider by id: %w", err)
	}

	return &p, nil
}

// Exists reports whether a provider row exists
func (r *PostgresRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM providers WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check provider exists: %w", err)
	}

	return exists, nil
}
