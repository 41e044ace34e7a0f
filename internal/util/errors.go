// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidAmount       = errors.New("amount must be greater than 0")
	ErrInvalidCurrency     = errors.New("unsupported currency")
	ErrInvalidInput        = errors.New("invalid input provided")
	ErrSameCurrency        = errors.New("source and destination currency must differ")
	ErrWalletNotFound      = errors.New("source wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateOperation  = errors.New("duplicate operation detected")
	ErrDuplicateKey        = errors.New("idempotency key already exists")
	ErrRateUnavailable     = errors.New("exchange rate not available for currency pair")
	ErrRateSourceFailure   = errors.New("exchange rate source unreachable")
)

// IsError reports whether err matches target in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
