// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fxwallet/internal/domain"
	"fxwallet/internal/repository"
	"fxwallet/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const transactionColumns = `id, user_id, type, status, from_currency, to_currency, amount, converted_amount, exchange_rate, description, idempotency_key, created_at`

// uniqueViolation is the PostgreSQL error code for a unique constraint
// violation. A second insert with an existing idempotency key hits the
// unique index and surfaces as this code.
const uniqueViolation = "23505"

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

// Create appends an immutable transaction record.
func (r *TransactionRepository) Create(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := q.ExecContext(ctx, query,
		transaction.ID,
		transaction.UserID,
		transaction.Type,
		transaction.Status,
		transaction.FromCurrency,
		transaction.ToCurrency,
		transaction.Amount,
		transaction.ConvertedAmount,
		transaction.ExchangeRate,
		transaction.Description,
		transaction.IdempotencyKey,
		transaction.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("idempotency key %q: %w", transaction.IdempotencyKey, util.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindByIdempotencyKey retrieves the record holding the given key.
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, q repository.DBExecutor, key string) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`
	err := q.GetContext(ctx, &transaction, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by idempotency key: %w", err)
	}
	return &transaction, nil
}

// ListByUser retrieves a filtered page of a user's records, newest first,
// plus the total count matching the filter.
func (r *TransactionRepository) ListByUser(ctx context.Context, q repository.DBExecutor, userID string, filter repository.TransactionFilter) ([]domain.Transaction, int64, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		where += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM transactions ` + where
	if err := q.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for user %s: %w", userID, err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	transactions := []domain.Transaction{}
	if err := q.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for user %s: %w", userID, err)
	}

	return transactions, totalCount, nil
}
