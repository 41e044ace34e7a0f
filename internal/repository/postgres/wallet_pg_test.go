// internal/repository/postgres/wallet_pg_test.go
package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/util"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func walletRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "currency", "balance", "created_at", "updated_at"})
}

func TestWalletGetForUpdate(t *testing.T) {
	ctx := context.Background()
	repo := &WalletRepository{}

	t.Run("LocksAndReturnsRow", func(t *testing.T) {
		db, mock := newMockDB(t)
		now := time.Now().UTC()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, currency, balance, created_at, updated_at FROM wallet_balances WHERE user_id = $1 AND currency = $2 FOR UPDATE`)).
			WithArgs("user-1", domain.CurrencyNGN).
			WillReturnRows(walletRows().AddRow(int64(1), "user-1", "NGN", "5000000", now, now))

		wallet, err := repo.GetForUpdate(ctx, db, "user-1", domain.CurrencyNGN)

		require.NoError(t, err)
		assert.Equal(t, int64(1), wallet.ID)
		assert.Equal(t, domain.CurrencyNGN, wallet.Currency)
		assert.Equal(t, int64(5_000_000), wallet.Balance.Int64())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingRowIsNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
			WithArgs("user-1", domain.CurrencyUSD).
			WillReturnRows(walletRows())

		wallet, err := repo.GetForUpdate(ctx, db, "user-1", domain.CurrencyUSD)

		assert.ErrorIs(t, err, util.ErrNotFound)
		assert.Nil(t, wallet)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletGetByUserAndCurrency(t *testing.T) {
	ctx := context.Background()
	repo := &WalletRepository{}

	t.Run("ReadsWithoutLocking", func(t *testing.T) {
		db, mock := newMockDB(t)
		now := time.Now().UTC()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, currency, balance, created_at, updated_at FROM wallet_balances WHERE user_id = $1 AND currency = $2`)).
			WithArgs("user-1", domain.CurrencyUSD).
			WillReturnRows(walletRows().AddRow(int64(2), "user-1", "USD", "625", now, now))

		wallet, err := repo.GetByUserAndCurrency(ctx, db, "user-1", domain.CurrencyUSD)

		require.NoError(t, err)
		assert.Equal(t, int64(625), wallet.Balance.Int64())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletListByUser(t *testing.T) {
	ctx := context.Background()
	repo := &WalletRepository{}

	t.Run("OrdersByCurrency", func(t *testing.T) {
		db, mock := newMockDB(t)
		now := time.Now().UTC()

		mock.ExpectQuery(regexp.QuoteMeta(`FROM wallet_balances WHERE user_id = $1 ORDER BY currency ASC`)).
			WithArgs("user-1").
			WillReturnRows(walletRows().
				AddRow(int64(1), "user-1", "NGN", "4000000", now, now).
				AddRow(int64(2), "user-1", "USD", "625", now, now))

		wallets, err := repo.ListByUser(ctx, db, "user-1")

		require.NoError(t, err)
		require.Len(t, wallets, 2)
		assert.Equal(t, domain.CurrencyNGN, wallets[0].Currency)
		assert.Equal(t, domain.CurrencyUSD, wallets[1].Currency)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoWalletsIsEmptySlice", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM wallet_balances WHERE user_id = $1`)).
			WithArgs("user-2").
			WillReturnRows(walletRows())

		wallets, err := repo.ListByUser(ctx, db, "user-2")

		require.NoError(t, err)
		assert.Empty(t, wallets)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletCreate(t *testing.T) {
	ctx := context.Background()
	repo := &WalletRepository{}

	t.Run("AssignsGeneratedID", func(t *testing.T) {
		db, mock := newMockDB(t)
		wallet := domain.NewWalletBalance("user-1", domain.CurrencyEUR)

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO wallet_balances (user_id, currency, balance, created_at, updated_at)`)).
			WithArgs("user-1", domain.CurrencyEUR, wallet.Balance, wallet.CreatedAt, wallet.UpdatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

		err := repo.Create(ctx, db, wallet)

		require.NoError(t, err)
		assert.Equal(t, int64(7), wallet.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletSetBalance(t *testing.T) {
	ctx := context.Background()
	repo := &WalletRepository{}

	t.Run("UpdatesBalanceAndTimestamp", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE wallet_balances SET balance = $1, updated_at = $2 WHERE id = $3`)).
			WithArgs(domain.NewUnits(4_000_000), sqlmock.AnyArg(), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetBalance(ctx, db, 1, domain.NewUnits(4_000_000))

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingRowIsNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE wallet_balances`)).
			WithArgs(domain.NewUnits(100), sqlmock.AnyArg(), int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetBalance(ctx, db, 99, domain.NewUnits(100))

		assert.ErrorIs(t, err, util.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
