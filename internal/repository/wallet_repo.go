// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"fxwallet/internal/domain"
)

// WalletRepository is the sole mutator of wallet balance rows.
type WalletRepository interface {
	// GetByUserAndCurrency retrieves a balance row without locking it.
	GetByUserAndCurrency(ctx context.Context, q DBExecutor, userID string, currency domain.Currency) (*domain.WalletBalance, error)
	// GetForUpdate retrieves a balance row and holds an exclusive row lock
	// until the enclosing transaction commits or rolls back. Returns
	// util.ErrNotFound when the row does not exist.
	GetForUpdate(ctx context.Context, q DBExecutor, userID string, currency domain.Currency) (*domain.WalletBalance, error)
	// ListByUser retrieves all balance rows for a user, ordered by currency.
	ListByUser(ctx context.Context, q DBExecutor, userID string) ([]domain.WalletBalance, error)
	// Create inserts a new balance row, assigning its ID.
	Create(ctx context.Context, q DBExecutor, wallet *domain.WalletBalance) error
	// SetBalance writes the new balance of a locked row.
	SetBalance(ctx context.Context, q DBExecutor, walletID int64, balance *domain.Units) error
}
