// internal/notifier/notifier.go
package notifier

import (
	"context"
	"time"
)

// Event names published by the wallet core.
const (
	EventWalletFunded         = "wallet.funded"
	EventTransactionCompleted = "transaction.completed"
)

// TransactionEvent is the payload published after a transaction commits.
// Amounts are decimal strings in the event's human-facing currencies.
type TransactionEvent struct {
	Event         string    `json:"event"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type"`
	FromCurrency  string    `json:"from_currency"`
	ToCurrency    string    `json:"to_currency,omitempty"`
	Amount        string    `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// Notifier delivers post-commit events to interested consumers. Delivery
// failures must never unwind the already-committed transaction, so
// implementations report errors for logging only.
type Notifier interface {
	Publish(ctx context.Context, event TransactionEvent) error
	Close() error
}

// Noop discards all events. Used in tests and broker-less deployments.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event TransactionEvent) error { return nil }
func (Noop) Close() error                                              { return nil }
