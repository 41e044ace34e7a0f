// internal/domain/wallet.go
package domain

import (
	"time"
)

// WalletBalance is a user's balance in one currency. A user holds at most
// one row per currency; rows are created lazily on first credit and only
// mutated through the wallet repository inside a database transaction.
type WalletBalance struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Currency  Currency  `db:"currency" json:"currency"`
	Balance   *Units    `db:"balance" json:"balance"` // smallest units, never negative once committed
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewWalletBalance creates a zero-balance WalletBalance staged for creation.
func NewWalletBalance(userID string, currency Currency) *WalletBalance {
	now := time.Now().UTC()
	return &WalletBalance{
		UserID:    userID,
		Currency:  currency,
		Balance:   NewUnits(0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
