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

	"wiwihood-backend/internal/domains/loyalty/model"
	"wiwihood-backend/pkg/database"
)

type postgresLoyaltyRepository struct {
	db *pgxpool.Pool
}

// NewPostgresLoyaltyRepository creates a PostgreSQL loyalty repository
func NewPostgresLoyaltyRepository(db *pgxpool.Pool) LoyaltyRepository {
	return &postgresLoyaltyRepository{db: db}
}

// =====================================================
// ACCOUNTS
// =====================================================

const accountColumns = `id, user_id, current_points, lifetime_earned, lifetime_redeemed,
	tier, points_to_next_tier, last_tier_upgrade, created_at, updated_at`

func (r *postgresLoyaltyRepository) GetAccountByUserID(ctx context.Context, userID uuid.UUID) (*model.LoyaltyAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM loyalty_accounts WHERE user_id = $1`, accountColumns)

	acc, err := scanAccount(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get loyalty account: %w", err)
	}
	return acc, nil
}

func (r *postgresLoyaltyRepository) CreateAccount(ctx context.Context, acc *model.LoyaltyAccount) error {
	query := `
		INSERT INTO loyalty_accounts (
			id, user_id, current_points, lifetime_earned, lifetime_redeemed,
			tier, points_to_next_tier, last_tier_upgrade, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		acc.ID, acc.UserID, acc.CurrentPoints, acc.LifetimeEarned, acc.LifetimeRedeemed,
		acc.Tier, acc.PointsToNextTier, acc.LastTierUpgrade, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.ErrAccountExists
		}
		return fmt.Errorf("failed to create loyalty account: %w", err)
	}
	return nil
}

// MutateAccount serializes concurrent balance changes on the account row.
// Step 1: lock the row with SELECT ... FOR UPDATE.
// Step 2: let fn apply the domain rules against the locked snapshot.
// Step 3: append the ledger entry and write back the aggregates.
// Domain guard failures from fn roll everything back untouched.
func (r *postgresLoyaltyRepository) MutateAccount(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*model.LoyaltyAccount, error) {
	var result *model.LoyaltyAccount

	err := database.WithTransactionRetry(ctx, r.db, func(tx pgx.Tx) error {
		lockQuery := fmt.Sprintf(`SELECT %s FROM loyalty_accounts WHERE user_id = $1 FOR UPDATE`, accountColumns)

		acc, err := scanAccount(tx.QueryRow(ctx, lockQuery, userID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrAccountNotFound
			}
			return fmt.Errorf("failed to lock loyalty account: %w", err)
		}

		txn, err := fn(acc)
		if err != nil {
			return err
		}

		txn.AccountID = acc.ID
		if txn.ID == uuid.Nil {
			txn.ID = uuid.New()
		}
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = time.Now()
		}
		txn.BalanceAfter = acc.CurrentPoints
		acc.UpdatedAt = time.Now()

		insertQuery := `
			INSERT INTO point_transactions (
				id, account_id, type, points, balance_after, description,
				reference_id, reference_type, expires_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

		_, err = tx.Exec(ctx, insertQuery,
			txn.ID, txn.AccountID, txn.Type, txn.Points, txn.BalanceAfter, txn.Description,
			txn.ReferenceID, txn.ReferenceType, txn.ExpiresAt, txn.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert point transaction: %w", err)
		}

		updateQuery := `
			UPDATE loyalty_accounts
			SET current_points = $2, lifetime_earned = $3, lifetime_redeemed = $4,
			    tier = $5, points_to_next_tier = $6, last_tier_upgrade = $7, updated_at = $8
			WHERE id = $1`

		_, err = tx.Exec(ctx, updateQuery,
			acc.ID, acc.CurrentPoints, acc.LifetimeEarned, acc.LifetimeRedeemed,
			acc.Tier, acc.PointsToNextTier, acc.LastTierUpgrade, acc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update loyalty account: %w", err)
		}

		result = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// =====================================================
// LEDGER
// =====================================================

func (r *postgresLoyaltyRepository) GetTransactions(ctx context.Context, accountID uuid.UUID, filter model.HistoryFilter) ([]model.PointTransaction, int64, error) {
	where := `WHERE account_id = $1`
	args := []interface{}{accountID}

	if filter.Type != "" {
		where += fmt.Sprintf(` AND type = $%d`, len(args)+1)
		args = append(args, filter.Type)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM point_transactions ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count point transactions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, account_id, type, points, balance_after, description,
		       reference_id, reference_type, expires_at, created_at
		FROM point_transactions
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list point transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]model.PointTransaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan point transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	return transactions, total, rows.Err()
}

// GetExpirableTransactions returns earn entries whose expiry has passed
// and that no expiry entry references yet. The ledger stays append only:
// "already expired" is expressed as an expired row pointing back at the
// earn row, not as a flag on it.
func (r *postgresLoyaltyRepository) GetExpirableTransactions(ctx context.Context, asOf time.Time, limit int) ([]model.ExpirableTransaction, error) {
	query := `
		SELECT t.id, t.account_id, t.type, t.points, t.balance_after, t.description,
		       t.reference_id, t.reference_type, t.expires_at, t.created_at,
		       a.user_id
		FROM point_transactions t
		JOIN loyalty_accounts a ON a.id = t.account_id
		WHERE t.type IN ('earned', 'bonus')
		  AND t.expires_at IS NOT NULL
		  AND t.expires_at <= $1
		  AND NOT EXISTS (
			SELECT 1 FROM point_transactions e
			WHERE e.type = 'expired' AND e.reference_id = t.id
		  )
		ORDER BY t.expires_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expirable transactions: %w", err)
	}
	defer rows.Close()

	expirable := make([]model.ExpirableTransaction, 0)
	for rows.Next() {
		var txn model.PointTransaction
		var userID uuid.UUID
		err := rows.Scan(
			&txn.ID, &txn.AccountID, &txn.Type, &txn.Points, &txn.BalanceAfter, &txn.Description,
			&txn.ReferenceID, &txn.ReferenceType, &txn.ExpiresAt, &txn.CreatedAt,
			&userID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expirable transaction: %w", err)
		}
		expirable = append(expirable, model.ExpirableTransaction{Transaction: txn, UserID: userID})
	}
	return expirable, rows.Err()
}

// =====================================================
// REWARD CATALOG
// =====================================================

const rewardColumns = `id, name, description, points_required, reward_type,
	reward_value, minimum_tier, is_active, created_at, updated_at`

func (r *postgresLoyaltyRepository) GetRewardByID(ctx context.Context, id uuid.UUID) (*model.LoyaltyReward, error) {
	query := fmt.Sprintf(`SELECT %s FROM loyalty_rewards WHERE id = $1`, rewardColumns)

	reward, err := scanReward(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return reward, nil
}

func (r *postgresLoyaltyRepository) ListRewards(ctx context.Context, onlyActive bool) ([]model.LoyaltyReward, error) {
	query := fmt.Sprintf(`SELECT %s FROM loyalty_rewards`, rewardColumns)
	if onlyActive {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY points_required ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	rewards := make([]model.LoyaltyReward, 0)
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, *reward)
	}
	return rewards, rows.Err()
}

func (r *postgresLoyaltyRepository) CreateReward(ctx context.Context, reward *model.LoyaltyReward) error {
	query := `
		INSERT INTO loyalty_rewards (
			id, name, description, points_required, reward_type,
			reward_value, minimum_tier, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		reward.ID, reward.Name, reward.Description, reward.PointsRequired, reward.RewardType,
		reward.RewardValue, reward.MinimumTier, reward.IsActive, reward.CreatedAt, reward.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	return nil
}

func (r *postgresLoyaltyRepository) UpdateReward(ctx context.Context, reward *model.LoyaltyReward) error {
	query := `
		UPDATE loyalty_rewards
		SET name = $2, description = $3, points_required = $4, reward_type = $5,
		    reward_value = $6, minimum_tier = $7, is_active = $8, updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		reward.ID, reward.Name, reward.Description, reward.PointsRequired, reward.RewardType,
		reward.RewardValue, reward.MinimumTier, reward.IsActive, reward.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRewardNotFound
	}
	return nil
}

// DeactivateReward soft-deletes: redeemed history keeps pointing at the row
func (r *postgresLoyaltyRepository) DeactivateReward(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE loyalty_rewards SET is_active = false, updated_at = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRewardNotFound
	}
	return nil
}

// =====================================================
// SCAN HELPERS
// =====================================================

func scanAccount(row pgx.Row) (*model.LoyaltyAccount, error) {
	var acc model.LoyaltyAccount
	err := row.Scan(
		&acc.ID, &acc.UserID, &acc.CurrentPoints, &acc.LifetimeEarned, &acc.LifetimeRedeemed,
		&acc.Tier, &acc.PointsToNextTier, &acc.LastTierUpgrade, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func scanTransaction(row pgx.Row) (*model.PointTransaction, error) {
	var txn model.PointTransaction
	err := row.Scan(
		&txn.ID, &txn.AccountID, &txn.Type, &txn.Points, &txn.BalanceAfter, &txn.Description,
		&txn.ReferenceID, &txn.ReferenceType, &txn.ExpiresAt, &txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func scanReward(row pgx.Row) (*model.LoyaltyReward, error) {
	var reward model.LoyaltyReward
	err := row.Scan(
		&reward.ID, &reward.Name, &reward.Description, &reward.PointsRequired, &reward.RewardType,
		&reward.RewardValue, &reward.MinimumTier, &reward.IsActive, &reward.CreatedAt, &reward.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reward, nil
}
