// internal/api/handler/wallet.go
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fxwallet/internal/api/types"
	"fxwallet/internal/domain"
	"fxwallet/internal/repository"
	"fxwallet/internal/service"
	"fxwallet/internal/util"
)

// DefaultTimeout bounds request handling end to end.
const DefaultTimeout = 30 * time.Second

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	service  service.WalletService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		service:  svc,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *WalletHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError classifies a service error. Client-correctable failures
// carry their message; operational failures are reported generically and
// logged with full context.
func (h *WalletHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error. Please try again later."

	switch {
	case util.IsError(err, util.ErrInvalidAmount),
		util.IsError(err, util.ErrInvalidCurrency),
		util.IsError(err, util.ErrSameCurrency),
		util.IsError(err, util.ErrInvalidInput),
		util.IsError(err, util.ErrRateUnavailable):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrWalletNotFound), util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Wallet not found"
	case util.IsError(err, util.ErrInsufficientBalance):
		statusCode = http.StatusPaymentRequired
		message = "Insufficient balance"
	case util.IsError(err, util.ErrDuplicateOperation):
		statusCode = http.StatusConflict
		message = "Duplicate operation detected"
	case util.IsError(err, util.ErrRateSourceFailure):
		statusCode = http.StatusBadGateway
		message = "Unable to fetch exchange rates. Please try again later."
		h.logger.Error("Exchange rate source failure", "error", err)
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// FundRequest represents the request body for funding a wallet.
type FundRequest struct {
	Currency    string          `json:"currency" validate:"required,len=3"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"omitempty,max=255"`
}

// ExchangeRequest represents the request body for convert and trade.
type ExchangeRequest struct {
	FromCurrency   string          `json:"from_currency" validate:"required,len=3"`
	ToCurrency     string          `json:"to_currency" validate:"required,len=3"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key" validate:"omitempty,max=255"`
}

// GetBalances handles the wallet balances request.
// GET /wallet
func (h *WalletHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
		return
	}

	balances, err := h.service.GetBalances(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"balances": balances})
}

// Fund handles the wallet funding request.
// POST /wallet/fund
func (h *WalletHandler) Fund(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
		return
	}

	var req FundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		h.respondWithError(w, util.ErrInvalidAmount)
		return
	}

	result, err := h.service.Fund(r.Context(), userID, service.FundRequest{
		Currency:    domain.Currency(req.Currency),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":               "Wallet funded successfully",
		"transaction":           result.Transaction,
		"new_balance":           result.NewBalance,
		"new_balance_formatted": result.NewBalanceFormatted,
	})
}

// Convert handles the currency conversion request.
// POST /wallet/convert
func (h *WalletHandler) Convert(w http.ResponseWriter, r *http.Request) {
	h.handleExchange(w, r, h.service.Convert, "Currency converted successfully")
}

// Trade handles the currency trade request.
// POST /wallet/trade
func (h *WalletHandler) Trade(w http.ResponseWriter, r *http.Request) {
	h.handleExchange(w, r, h.service.Trade, "Currency traded successfully")
}

type exchangeFunc func(ctx context.Context, userID string, req service.ExchangeRequest) (*service.ExchangeResult, error)

func (h *WalletHandler) handleExchange(w http.ResponseWriter, r *http.Request, op exchangeFunc, successMessage string) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
		return
	}

	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		h.respondWithError(w, util.ErrInvalidAmount)
		return
	}

	result, err := op(r.Context(), userID, service.ExchangeRequest{
		FromCurrency:   domain.Currency(req.FromCurrency),
		ToCurrency:     domain.Currency(req.ToCurrency),
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":                successMessage,
		"transaction":            result.Transaction,
		"from_balance":           result.FromBalance,
		"to_balance":             result.ToBalance,
		"from_balance_formatted": result.FromBalanceFormatted,
		"to_balance_formatted":   result.ToBalanceFormatted,
	})
}

// GetTransactions handles the transaction history request.
// GET /transactions?type=&status=&page=&limit=
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing user identity"})
		return
	}

	filter := repository.TransactionFilter{Page: 1, Limit: 20}

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if v := r.URL.Query().Get("type"); v != "" {
		txType := domain.TransactionType(v)
		filter.Type = &txType
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.TransactionStatus(v)
		filter.Status = &status
	}

	transactions, totalCount, err := h.service.GetTransactions(r.Context(), userID, filter)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalCount: totalCount,
	})
}
