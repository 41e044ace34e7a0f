// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType defines the kind of a value-moving operation.
type TransactionType string

const (
	TransactionTypeFunding    TransactionType = "FUNDING"
	TransactionTypeConversion TransactionType = "CONVERSION"
	TransactionTypeTrade      TransactionType = "TRADE"
)

// TransactionStatus defines the status of a transaction record. Failed
// operations abort before anything is written, so in practice only
// COMPLETED records are persisted.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable audit record of a completed operation.
// Amount is in FromCurrency smallest units; ConvertedAmount, when present,
// is in ToCurrency smallest units. IdempotencyKey is globally unique and
// enforced by the storage layer.
type Transaction struct {
	ID              string            `db:"id" json:"id"`
	UserID          string            `db:"user_id" json:"user_id"`
	Type            TransactionType   `db:"type" json:"type"`
	Status          TransactionStatus `db:"status" json:"status"`
	FromCurrency    Currency          `db:"from_currency" json:"from_currency"`
	ToCurrency      *Currency         `db:"to_currency" json:"to_currency"`
	Amount          *Units            `db:"amount" json:"amount"`
	ConvertedAmount *Units            `db:"converted_amount" json:"converted_amount"`
	ExchangeRate    *string           `db:"exchange_rate" json:"exchange_rate"` // exact rate used, 10 decimal places
	Description     *string           `db:"description" json:"description"`
	IdempotencyKey  string            `db:"idempotency_key" json:"idempotency_key"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}

// NewTransaction creates a Transaction record ready for insertion. An empty
// idempotencyKey gets a generated one.
func NewTransaction(
	userID string,
	txType TransactionType,
	fromCurrency Currency,
	toCurrency *Currency,
	amount *Units,
	convertedAmount *Units,
	exchangeRate *string,
	description *string,
	idempotencyKey string,
) *Transaction {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	return &Transaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            txType,
		Status:          TransactionStatusCompleted,
		FromCurrency:    fromCurrency,
		ToCurrency:      toCurrency,
		Amount:          amount,
		ConvertedAmount: convertedAmount,
		ExchangeRate:    exchangeRate,
		Description:     description,
		IdempotencyKey:  idempotencyKey,
		CreatedAt:       time.Now().UTC(),
	}
}
