// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"fxwallet/internal/domain"
)

// TransactionFilter narrows and paginates a transaction history listing.
type TransactionFilter struct {
	Type   *domain.TransactionType
	Status *domain.TransactionStatus
	Page   int
	Limit  int
}

// TransactionRepository owns the append-only transaction log. Records are
// write-once; there is no update or delete.
type TransactionRepository interface {
	// Create appends a transaction record. Returns util.ErrDuplicateKey when
	// a record with the same idempotency key already exists.
	Create(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// FindByIdempotencyKey retrieves the record holding the given key, or
	// util.ErrNotFound.
	FindByIdempotencyKey(ctx context.Context, q DBExecutor, key string) (*domain.Transaction, error)
	// ListByUser retrieves a filtered page of a user's records, newest
	// first, along with the total count matching the filter.
	ListByUser(ctx context.Context, q DBExecutor, userID string, filter TransactionFilter) ([]domain.Transaction, int64, error)
}
