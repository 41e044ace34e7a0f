// internal/service/wallet_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/fx"
	"fxwallet/internal/notifier"
	"fxwallet/internal/repository"
	"fxwallet/internal/util"
	"fxwallet/pkg/db"

	"github.com/shopspring/decimal"
)

// FundRequest is the input of a wallet funding operation.
type FundRequest struct {
	Currency    domain.Currency
	Amount      decimal.Decimal
	Description string
}

// FundResult reports the outcome of a funding operation.
type FundResult struct {
	Transaction         *domain.Transaction
	NewBalance          decimal.Decimal
	NewBalanceFormatted string
}

// ExchangeRequest is the input of a conversion or trade operation.
type ExchangeRequest struct {
	FromCurrency   domain.Currency
	ToCurrency     domain.Currency
	Amount         decimal.Decimal
	IdempotencyKey string
}

// ExchangeResult reports both post-operation balances.
type ExchangeResult struct {
	Transaction          *domain.Transaction
	FromBalance          decimal.Decimal
	ToBalance            decimal.Decimal
	FromBalanceFormatted string
	ToBalanceFormatted   string
}

// BalanceView is a read-model of one wallet balance.
type BalanceView struct {
	Currency  domain.Currency `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Formatted string          `json:"formatted"`
}

// WalletService defines the interface for wallet-related business logic.
// Fund, Convert and Trade each run as one atomic unit of work: all balance
// mutations and the transaction-log append commit together or not at all.
type WalletService interface {
	InitializeWallet(ctx context.Context, userID string) error
	GetBalances(ctx context.Context, userID string) ([]BalanceView, error)
	Fund(ctx context.Context, userID string, req FundRequest) (*FundResult, error)
	Convert(ctx context.Context, userID string, req ExchangeRequest) (*ExchangeResult, error)
	Trade(ctx context.Context, userID string, req ExchangeRequest) (*ExchangeResult, error)
	GetTransactions(ctx context.Context, userID string, filter repository.TransactionFilter) ([]domain.Transaction, int64, error)
}

// walletService implements the WalletService interface.
type walletService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	rates           fx.RateProvider
	events          notifier.Notifier
	logger          *slog.Logger
	lockTimeout     time.Duration
	initialNGN      decimal.Decimal
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	rates fx.RateProvider,
	events notifier.Notifier,
	logger *slog.Logger,
	lockTimeout time.Duration,
	initialNGN decimal.Decimal,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) WalletService {
	return &walletService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		rates:           rates,
		events:          events,
		logger:          logger,
		lockTimeout:     lockTimeout,
		initialNGN:      initialNGN,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
	}
}

// begin starts a transaction, bounds its lock waits, and returns it with an
// executor view for the repositories.
func (s *walletService) begin(ctx context.Context) (db.TxController, repository.DBExecutor, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		s.rollbackTx(txController)
		return nil, nil, fmt.Errorf("transaction controller does not implement DBExecutor")
	}

	if s.lockTimeout > 0 {
		if err := db.SetLocalLockTimeout(ctx, txController, s.lockTimeout); err != nil {
			s.rollbackTx(txController)
			return nil, nil, err
		}
	}

	return txController, txExecutor, nil
}

// InitializeWallet creates the user's NGN wallet and credits the configured
// initial balance. Called once when a user becomes funding-eligible.
func (s *walletService) InitializeWallet(ctx context.Context, userID string) error {
	if s.initialNGN.LessThanOrEqual(decimal.Zero) {
		txController, txExecutor, err := s.begin(ctx)
		if err != nil {
			return fmt.Errorf("initialize wallet: %w", err)
		}
		defer s.rollbackTx(txController)

		if _, err := s.lockOrCreateWallet(ctx, txExecutor, userID, domain.CurrencyNGN); err != nil {
			return fmt.Errorf("initialize wallet: %w", err)
		}
		if err := s.commitTx(txController); err != nil {
			return fmt.Errorf("initialize wallet: failed to commit transaction: %w", err)
		}
		return nil
	}

	description := "Initial wallet funding"
	result, err := s.Fund(ctx, userID, FundRequest{
		Currency:    domain.CurrencyNGN,
		Amount:      s.initialNGN,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("initialize wallet: %w", err)
	}

	s.publish(ctx, notifier.EventWalletFunded, result.Transaction)
	s.logger.Info("Wallet initialized", "user_id", userID, "balance", result.NewBalanceFormatted)
	return nil
}

// GetBalances returns all of a user's wallet balances, ordered by currency.
func (s *walletService) GetBalances(ctx context.Context, userID string) ([]BalanceView, error) {
	wallets, err := s.walletRepo.ListByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get balances: %w", err)
	}

	views := make([]BalanceView, 0, len(wallets))
	for _, w := range wallets {
		views = append(views, BalanceView{
			Currency:  w.Currency,
			Balance:   domain.FromSmallestUnit(w.Balance, w.Currency),
			Formatted: domain.Format(w.Balance, w.Currency),
		})
	}
	return views, nil
}

// Fund credits a user's wallet in the given currency, creating the wallet
// on first use. Fund generates its own idempotency key; it does not honor a
// caller-supplied one.
func (s *walletService) Fund(ctx context.Context, userID string, req FundRequest) (*FundResult, error) {
	if !req.Currency.IsValid() {
		return nil, util.ErrInvalidCurrency
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}

	amount := domain.ToSmallestUnit(req.Amount, req.Currency)

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("fund: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err := s.lockOrCreateWallet(ctx, txExecutor, userID, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("fund: %w", err)
	}

	newBalance := wallet.Balance.Add(amount)
	if err := s.walletRepo.SetBalance(ctx, txExecutor, wallet.ID, newBalance); err != nil {
		return nil, fmt.Errorf("fund: failed to credit wallet: %w", err)
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Wallet funding in %s", req.Currency)
	}
	transaction := domain.NewTransaction(
		userID,
		domain.TransactionTypeFunding,
		req.Currency,
		nil,
		amount,
		nil,
		nil,
		&description,
		"", // fund generates its own key
	)
	if err := s.transactionRepo.Create(ctx, txExecutor, transaction); err != nil {
		return nil, fmt.Errorf("fund: failed to record transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("fund: failed to commit transaction: %w", err)
	}

	s.publish(ctx, notifier.EventTransactionCompleted, transaction)
	s.logger.Info("Wallet funded", "user_id", userID, "amount", domain.Format(amount, req.Currency))

	return &FundResult{
		Transaction:         transaction,
		NewBalance:          domain.FromSmallestUnit(newBalance, req.Currency),
		NewBalanceFormatted: domain.Format(newBalance, req.Currency),
	}, nil
}

// Convert moves value between two of the user's currency balances at the
// current exchange rate.
func (s *walletService) Convert(ctx context.Context, userID string, req ExchangeRequest) (*ExchangeResult, error) {
	return s.exchange(ctx, userID, domain.TransactionTypeConversion, req)
}

// Trade is contractually identical to Convert; the operations are recorded
// as distinct transaction types for audit purposes.
func (s *walletService) Trade(ctx context.Context, userID string, req ExchangeRequest) (*ExchangeResult, error) {
	return s.exchange(ctx, userID, domain.TransactionTypeTrade, req)
}

// exchange is the shared implementation of Convert and Trade, parameterized
// by the transaction type.
func (s *walletService) exchange(ctx context.Context, userID string, txType domain.TransactionType, req ExchangeRequest) (*ExchangeResult, error) {
	if !req.FromCurrency.IsValid() || !req.ToCurrency.IsValid() {
		return nil, util.ErrInvalidCurrency
	}
	if req.FromCurrency == req.ToCurrency {
		return nil, util.ErrSameCurrency
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}

	// Pre-check the idempotency key. This is an optimization for the common
	// retry; the unique constraint on the log is the real guarantee.
	if req.IdempotencyKey != "" {
		_, err := s.transactionRepo.FindByIdempotencyKey(ctx, s.dbExecutor, req.IdempotencyKey)
		if err == nil {
			return nil, util.ErrDuplicateOperation
		}
		if !errors.Is(err, util.ErrNotFound) {
			return nil, fmt.Errorf("exchange: idempotency lookup failed: %w", err)
		}
	}

	amount := domain.ToSmallestUnit(req.Amount, req.FromCurrency)

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange: %w", err)
	}
	defer s.rollbackTx(txController)

	fromWallet, toWallet, err := s.lockWalletPair(ctx, txExecutor, userID, req.FromCurrency, req.ToCurrency)
	if err != nil {
		return nil, err
	}

	if fromWallet.Balance.LessThan(amount) {
		return nil, util.ErrInsufficientBalance
	}

	rate, err := s.rates.GetRate(ctx, req.FromCurrency, req.ToCurrency)
	if err != nil {
		return nil, fmt.Errorf("exchange: %w", err)
	}
	convertedAmount := domain.MultiplyByRate(amount, rate)

	newFromBalance := fromWallet.Balance.Sub(amount)
	if err := s.walletRepo.SetBalance(ctx, txExecutor, fromWallet.ID, newFromBalance); err != nil {
		return nil, fmt.Errorf("exchange: failed to debit source wallet: %w", err)
	}

	newToBalance := toWallet.Balance.Add(convertedAmount)
	if err := s.walletRepo.SetBalance(ctx, txExecutor, toWallet.ID, newToBalance); err != nil {
		return nil, fmt.Errorf("exchange: failed to credit destination wallet: %w", err)
	}

	rateString := domain.FormatRate(rate)
	description := s.exchangeDescription(txType, amount, convertedAmount, req.FromCurrency, req.ToCurrency)
	toCurrency := req.ToCurrency
	transaction := domain.NewTransaction(
		userID,
		txType,
		req.FromCurrency,
		&toCurrency,
		amount,
		convertedAmount,
		&rateString,
		&description,
		req.IdempotencyKey,
	)
	if err := s.transactionRepo.Create(ctx, txExecutor, transaction); err != nil {
		if errors.Is(err, util.ErrDuplicateKey) {
			// A racing request with the same key committed first.
			return nil, util.ErrDuplicateOperation
		}
		return nil, fmt.Errorf("exchange: failed to record transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("exchange: failed to commit transaction: %w", err)
	}

	s.publish(ctx, notifier.EventTransactionCompleted, transaction)
	s.logger.Info("Currency exchanged",
		"user_id", userID,
		"type", txType,
		"from", domain.Format(amount, req.FromCurrency),
		"to", domain.Format(convertedAmount, req.ToCurrency),
		"rate", rateString,
	)

	return &ExchangeResult{
		Transaction:          transaction,
		FromBalance:          domain.FromSmallestUnit(newFromBalance, req.FromCurrency),
		ToBalance:            domain.FromSmallestUnit(newToBalance, req.ToCurrency),
		FromBalanceFormatted: domain.Format(newFromBalance, req.FromCurrency),
		ToBalanceFormatted:   domain.Format(newToBalance, req.ToCurrency),
	}, nil
}

// lockWalletPair acquires exclusive locks on the source and destination
// wallets in lexicographic currency order, so two operations exchanging in
// opposite directions cannot deadlock. The source wallet must exist; the
// destination is created empty when absent.
func (s *walletService) lockWalletPair(ctx context.Context, q repository.DBExecutor, userID string, fromCurrency, toCurrency domain.Currency) (*domain.WalletBalance, *domain.WalletBalance, error) {
	lock := func(currency domain.Currency) (*domain.WalletBalance, error) {
		if currency == fromCurrency {
			wallet, err := s.walletRepo.GetForUpdate(ctx, q, userID, currency)
			if err != nil {
				if errors.Is(err, util.ErrNotFound) {
					return nil, util.ErrWalletNotFound
				}
				return nil, fmt.Errorf("exchange: %w", err)
			}
			return wallet, nil
		}
		wallet, err := s.lockOrCreateWallet(ctx, q, userID, currency)
		if err != nil {
			return nil, fmt.Errorf("exchange: %w", err)
		}
		return wallet, nil
	}

	first, second := fromCurrency, toCurrency
	if second < first {
		first, second = second, first
	}

	firstWallet, err := lock(first)
	if err != nil {
		return nil, nil, err
	}
	secondWallet, err := lock(second)
	if err != nil {
		return nil, nil, err
	}

	if first == fromCurrency {
		return firstWallet, secondWallet, nil
	}
	return secondWallet, firstWallet, nil
}

// lockOrCreateWallet locks the user's wallet in the given currency, staging
// a zero-balance row when none exists. An inserted row is already exclusive
// to the inserting transaction, so no separate lock is needed.
func (s *walletService) lockOrCreateWallet(ctx context.Context, q repository.DBExecutor, userID string, currency domain.Currency) (*domain.WalletBalance, error) {
	wallet, err := s.walletRepo.GetForUpdate(ctx, q, userID, currency)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, err
	}

	wallet = domain.NewWalletBalance(userID, currency)
	if err := s.walletRepo.Create(ctx, q, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// GetTransactions retrieves a paginated slice of the user's transaction
// history, newest first.
func (s *walletService) GetTransactions(ctx context.Context, userID string, filter repository.TransactionFilter) ([]domain.Transaction, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	transactions, totalCount, err := s.transactionRepo.ListByUser(ctx, s.dbExecutor, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("get transactions: %w", err)
	}
	return transactions, totalCount, nil
}

func (s *walletService) exchangeDescription(txType domain.TransactionType, amount, convertedAmount *domain.Units, from, to domain.Currency) string {
	verb := "Converted"
	joiner := "to"
	if txType == domain.TransactionTypeTrade {
		verb = "Traded"
		joiner = "for"
	}
	return fmt.Sprintf("%s %s %s %s", verb, domain.Format(amount, from), joiner, domain.Format(convertedAmount, to))
}

// publish emits a post-commit event. Delivery failures are logged and never
// unwind the already-committed transaction.
func (s *walletService) publish(ctx context.Context, event string, transaction *domain.Transaction) {
	toCurrency := ""
	if transaction.ToCurrency != nil {
		toCurrency = string(*transaction.ToCurrency)
	}
	err := s.events.Publish(ctx, notifier.TransactionEvent{
		Event:         event,
		UserID:        transaction.UserID,
		TransactionID: transaction.ID,
		Type:          string(transaction.Type),
		FromCurrency:  string(transaction.FromCurrency),
		ToCurrency:    toCurrency,
		Amount:        domain.FromSmallestUnit(transaction.Amount, transaction.FromCurrency).String(),
		Timestamp:     transaction.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("Failed to publish wallet event", "event", event, "transaction_id", transaction.ID, "error", err)
	}
}
