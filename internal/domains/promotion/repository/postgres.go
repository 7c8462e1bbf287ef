package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"wiwihood-backend/internal/domains/promotion/model"
	"wiwihood-backend/pkg/database"
)

// PostgresRepository implements PromotionRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) PromotionRepository {
	return &PostgresRepository{db: db}
}

const promotionColumns = `
	id, code, name, description, type,
	discount_value, max_discount_amount, min_order_amount,
	usage_limit, per_customer_limit, usage_count,
	provider_id, new_customers_only, is_stackable, priority,
	status, start_date, end_date, created_at, updated_at`

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotions WHERE id = $1`, promotionColumns)

	promo, err := scanPromotion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPromotionNotFound
		}
		return nil, fmt.Errorf("find promotion by id: %w", err)
	}
	return promo, nil
}

// FindByCode matches the code exactly, case sensitive
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*model.Promotion, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotions WHERE code = $1`, promotionColumns)

	promo, err := scanPromotion(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPromotionNotFound
		}
		return nil, fmt.Errorf("find promotion by code: %w", err)
	}
	return promo, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context, filter model.PromotionFilter) ([]model.Promotion, error) {
	query := fmt.Sprintf(`SELECT %s FROM promotions`, promotionColumns)
	args := make([]interface{}, 0, 2)
	where := ""

	if filter.ProviderID != nil {
		args = append(args, *filter.ProviderID)
		where = fmt.Sprintf(` WHERE provider_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		if where == "" {
			where = fmt.Sprintf(` WHERE status = $%d`, len(args))
		} else {
			where += fmt.Sprintf(` AND status = $%d`, len(args))
		}
	}

	query += where + ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	return collectPromotions(rows)
}

// FindActive returns promotions currently redeemable: active status,
// inside the validity window and not exhausted. Provider-scoped rows
// are included only for the matching provider; platform-wide rows
// always qualify. Best offers first.
func (r *PostgresRepository) FindActive(ctx context.Context, providerID *uuid.UUID, now time.Time) ([]model.Promotion, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM promotions
		WHERE status = 'active'
		  AND start_date <= $1 AND end_date >= $1
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
		  AND (provider_id IS NULL OR provider_id = $2)
		ORDER BY discount_value DESC`, promotionColumns)

	rows, err := r.db.Query(ctx, query, now, providerID)
	if err != nil {
		return nil, fmt.Errorf("list active promotions: %w", err)
	}
	defer rows.Close()

	return collectPromotions(rows)
}

// -------------------------------------------------------------------
// WRITE OPERATIONS
// -------------------------------------------------------------------

func (r *PostgresRepository) Create(ctx context.Context, promo *model.Promotion) error {
	query := `
		INSERT INTO promotions (
			id, code, name, description, type,
			discount_value, max_discount_amount, min_order_amount,
			usage_limit, per_customer_limit, usage_count,
			provider_id, new_customers_only, is_stackable, priority,
			status, start_date, end_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	_, err := r.db.Exec(ctx, query,
		promo.ID, promo.Code, promo.Name, promo.Description, promo.Type,
		promo.DiscountValue, promo.MaxDiscountAmount, promo.MinOrderAmount,
		promo.UsageLimit, promo.PerCustomerLimit, promo.UsageCount,
		promo.ProviderID, promo.NewCustomersOnly, promo.IsStackable, promo.Priority,
		promo.Status, promo.StartDate, promo.EndDate, promo.CreatedAt, promo.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.ErrDuplicateCode
		}
		return fmt.Errorf("create promotion: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, promo *model.Promotion) error {
	query := `
		UPDATE promotions
		SET name = $2, description = $3, type = $4,
		    discount_value = $5, max_discount_amount = $6, min_order_amount = $7,
		    usage_limit = $8, per_customer_limit = $9,
		    provider_id = $10, new_customers_only = $11, is_stackable = $12, priority = $13,
		    status = $14, start_date = $15, end_date = $16, updated_at = $17
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		promo.ID, promo.Name, promo.Description, promo.Type,
		promo.DiscountValue, promo.MaxDiscountAmount, promo.MinOrderAmount,
		promo.UsageLimit, promo.PerCustomerLimit,
		promo.ProviderID, promo.NewCustomersOnly, promo.IsStackable, promo.Priority,
		promo.Status, promo.StartDate, promo.EndDate, promo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}
	return nil
}

// -------------------------------------------------------------------
// USAGE RECORDS
// -------------------------------------------------------------------

// RecordUsage performs both writes of a redemption atomically.
// Step 1: insert the usage row; the unique (promotion_id, user_id)
// index rejects a second redemption by the same customer.
// Step 2: bump usage_count with a relative update guarded by the usage
// limit, so concurrent redemptions neither lose increments nor cross
// the cap. Zero rows affected means the cap was just reached (or the
// promotion vanished) and the whole transaction rolls back.
func (r *PostgresRepository) RecordUsage(ctx context.Context, usage *model.PromotionUsage) error {
	return database.WithTransactionRetry(ctx, r.db, func(tx pgx.Tx) error {
		insertQuery := `
			INSERT INTO promotion_usages (
				id, promotion_id, user_id, booking_id,
				discount_amount, original_amount, final_amount, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		_, err := tx.Exec(ctx, insertQuery,
			usage.ID, usage.PromotionID, usage.UserID, usage.BookingID,
			usage.DiscountAmount, usage.OriginalAmount, usage.FinalAmount, usage.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return model.ErrAlreadyUsed
			}
			return fmt.Errorf("insert promotion usage: %w", err)
		}

		updateQuery := `
			UPDATE promotions
			SET usage_count = usage_count + 1, updated_at = $2
			WHERE id = $1
			  AND (usage_limit IS NULL OR usage_count < usage_limit)`

		tag, err := tx.Exec(ctx, updateQuery, usage.PromotionID, time.Now())
		if err != nil {
			return fmt.Errorf("increment promotion usage count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM promotions WHERE id = $1)`,
				usage.PromotionID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check promotion existence: %w", err)
			}
			if !exists {
				return model.ErrPromotionNotFound
			}
			return model.ErrUsageLimitReached
		}
		return nil
	})
}

func (r *PostgresRepository) HasUsage(ctx context.Context, promotionID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM promotion_usages WHERE promotion_id = $1 AND user_id = $2)`,
		promotionID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check promotion usage: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) GetUsage(ctx context.Context, promotionID uuid.UUID) ([]model.PromotionUsage, error) {
	query := `
		SELECT id, promotion_id, user_id, booking_id,
		       discount_amount, original_amount, final_amount, created_at
		FROM promotion_usages
		WHERE promotion_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, promotionID)
	if err != nil {
		return nil, fmt.Errorf("list promotion usage: %w", err)
	}
	defer rows.Close()

	usages := make([]model.PromotionUsage, 0)
	for rows.Next() {
		var u model.PromotionUsage
		err := rows.Scan(
			&u.ID, &u.PromotionID, &u.UserID, &u.BookingID,
			&u.DiscountAmount, &u.OriginalAmount, &u.FinalAmount, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan promotion usage: %w", err)
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

// -------------------------------------------------------------------
// STATUS SWEEPS
// -------------------------------------------------------------------

func (r *PostgresRepository) ActivateScheduled(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE promotions
		SET status = 'active', updated_at = $1
		WHERE status = 'scheduled' AND start_date <= $1 AND end_date >= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("activate scheduled promotions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE promotions
		SET status = 'expired', updated_at = $1
		WHERE status IN ('active', 'scheduled') AND end_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire promotions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// -------------------------------------------------------------------
// SCAN HELPERS
// -------------------------------------------------------------------

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	var p model.Promotion
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Type,
		&p.DiscountValue, &p.MaxDiscountAmount, &p.MinOrderAmount,
		&p.UsageLimit, &p.PerCustomerLimit, &p.UsageCount,
		&p.ProviderID, &p.NewCustomersOnly, &p.IsStackable, &p.Priority,
		&p.Status, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPromotions(rows pgx.Rows) ([]model.Promotion, error) {
	promotions := make([]model.Promotion, 0)
	for rows.Next() {
		promo, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		promotions = append(promotions, *promo)
	}
	return promotions, rows.Err()
}
