// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/repository"
	"fxwallet/internal/util"

	"github.com/jmoiron/sqlx"
)

const walletColumns = `id, user_id, currency, balance, created_at, updated_at`

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{}
}

// GetByUserAndCurrency retrieves a balance row without locking it.
func (r *WalletRepository) GetByUserAndCurrency(ctx context.Context, q repository.DBExecutor, userID string, currency domain.Currency) (*domain.WalletBalance, error) {
	var wallet domain.WalletBalance
	query := `SELECT ` + walletColumns + ` FROM wallet_balances WHERE user_id = $1 AND currency = $2`
	err := q.GetContext(ctx, &wallet, query, userID, currency)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet for user %s currency %s: %w", userID, currency, err)
	}
	return &wallet, nil
}

// GetForUpdate retrieves a balance row under an exclusive row lock. The lock
// is held until the enclosing transaction ends, so q must be a *sqlx.Tx.
func (r *WalletRepository) GetForUpdate(ctx context.Context, q repository.DBExecutor, userID string, currency domain.Currency) (*domain.WalletBalance, error) {
	var wallet domain.WalletBalance
	query := `SELECT ` + walletColumns + ` FROM wallet_balances WHERE user_id = $1 AND currency = $2 FOR UPDATE`
	err := q.GetContext(ctx, &wallet, query, userID, currency)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet for user %s currency %s: %w", userID, currency, err)
	}
	return &wallet, nil
}

// ListByUser retrieves all balance rows for a user, ordered by currency.
func (r *WalletRepository) ListByUser(ctx context.Context, q repository.DBExecutor, userID string) ([]domain.WalletBalance, error) {
	wallets := []domain.WalletBalance{}
	query := `SELECT ` + walletColumns + ` FROM wallet_balances WHERE user_id = $1 ORDER BY currency ASC`
	if err := q.SelectContext(ctx, &wallets, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list wallets for user %s: %w", userID, err)
	}
	return wallets, nil
}

// Create inserts a new balance row.
func (r *WalletRepository) Create(ctx context.Context, q repository.DBExecutor, wallet *domain.WalletBalance) error {
	query := `INSERT INTO wallet_balances (user_id, currency, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := q.QueryRowContext(ctx, query, wallet.UserID, wallet.Currency, wallet.Balance, wallet.CreatedAt, wallet.UpdatedAt).Scan(&wallet.ID)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// SetBalance writes the new balance of a locked row.
func (r *WalletRepository) SetBalance(ctx context.Context, q repository.DBExecutor, walletID int64, balance *domain.Units) error {
	query := `UPDATE wallet_balances SET balance = $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, balance, time.Now().UTC(), walletID)
	if err != nil {
		return fmt.Errorf("failed to set balance for wallet %d: %w", walletID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for wallet %d: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows affected when setting balance for wallet %d: %w", walletID, util.ErrNotFound)
	}
	return nil
}
