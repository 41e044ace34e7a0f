// internal/api/handler/wallet_test.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fxwallet/internal/domain"
	"fxwallet/internal/repository"
	"fxwallet/internal/service"
	"fxwallet/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockWalletService is a mock implementation of service.WalletService.
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) InitializeWallet(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockWalletService) GetBalances(ctx context.Context, userID string) ([]service.BalanceView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.BalanceView), args.Error(1)
}

func (m *MockWalletService) Fund(ctx context.Context, userID string, req service.FundRequest) (*service.FundResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FundResult), args.Error(1)
}

func (m *MockWalletService) Convert(ctx context.Context, userID string, req service.ExchangeRequest) (*service.ExchangeResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExchangeResult), args.Error(1)
}

func (m *MockWalletService) Trade(ctx context.Context, userID string, req service.ExchangeRequest) (*service.ExchangeResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExchangeResult), args.Error(1)
}

func (m *MockWalletService) GetTransactions(ctx context.Context, userID string, filter repository.TransactionFilter) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

const testUserID = "user-1"

// serve routes the request through the identity middleware into the handler,
// the same shape the router wires in production.
func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	Identity(h).ServeHTTP(recorder, req)
	return recorder
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set(UserIDHeader, testUserID)
	return req
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

func TestIdentityMiddleware(t *testing.T) {
	t.Run("RejectsRequestWithoutUserID", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
		recorder := serve(h.GetBalances, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		mockService.AssertNotCalled(t, "GetBalances", mock.Anything, mock.Anything)
	})

	t.Run("PassesUserIDThroughContext", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		mockService.On("GetBalances", mock.Anything, testUserID).Return([]service.BalanceView{}, nil).Once()

		recorder := serve(h.GetBalances, authedRequest(http.MethodGet, "/wallet", ""))

		assert.Equal(t, http.StatusOK, recorder.Code)
		mockService.AssertExpectations(t)
	})
}

func TestFundHandler(t *testing.T) {
	t.Run("SuccessfulFund", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		result := &service.FundResult{
			Transaction: domain.NewTransaction(testUserID, domain.TransactionTypeFunding,
				domain.CurrencyNGN, nil, domain.NewUnits(1000050), nil, nil, nil, ""),
			NewBalance:          decimal.NewFromFloat(10000.50),
			NewBalanceFormatted: "₦10,000.50",
		}
		mockService.On("Fund", mock.Anything, testUserID, mock.MatchedBy(func(req service.FundRequest) bool {
			return req.Currency == domain.CurrencyNGN && req.Amount.Equal(decimal.NewFromFloat(10000.50))
		})).Return(result, nil).Once()

		recorder := serve(h.Fund, authedRequest(http.MethodPost, "/wallet/fund",
			`{"currency":"NGN","amount":10000.50}`))

		assert.Equal(t, http.StatusCreated, recorder.Code)
		body := decodeBody(t, recorder)
		assert.Equal(t, "Wallet funded successfully", body["message"])
		assert.Equal(t, "₦10,000.50", body["new_balance_formatted"])
		mockService.AssertExpectations(t)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		recorder := serve(h.Fund, authedRequest(http.MethodPost, "/wallet/fund", `{"currency":`))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockService.AssertNotCalled(t, "Fund", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingCurrency", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		recorder := serve(h.Fund, authedRequest(http.MethodPost, "/wallet/fund", `{"amount":100}`))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		for _, body := range []string{
			`{"currency":"NGN","amount":0}`,
			`{"currency":"NGN","amount":-5}`,
		} {
			recorder := serve(h.Fund, authedRequest(http.MethodPost, "/wallet/fund", body))
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		}
		mockService.AssertNotCalled(t, "Fund", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConvertHandler(t *testing.T) {
	exchangeBody := `{"from_currency":"NGN","to_currency":"USD","amount":10000,"idempotency_key":"key-1"}`

	expectedRequest := mock.MatchedBy(func(req service.ExchangeRequest) bool {
		return req.FromCurrency == domain.CurrencyNGN &&
			req.ToCurrency == domain.CurrencyUSD &&
			req.Amount.Equal(decimal.NewFromInt(10000)) &&
			req.IdempotencyKey == "key-1"
	})

	t.Run("SuccessfulConversion", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		toCurrency := domain.CurrencyUSD
		rate := "0.0006250000"
		result := &service.ExchangeResult{
			Transaction: domain.NewTransaction(testUserID, domain.TransactionTypeConversion,
				domain.CurrencyNGN, &toCurrency, domain.NewUnits(1_000_000), domain.NewUnits(625), &rate, nil, "key-1"),
			FromBalance:          decimal.NewFromInt(40000),
			ToBalance:            decimal.NewFromFloat(6.25),
			FromBalanceFormatted: "₦40,000.00",
			ToBalanceFormatted:   "$6.25",
		}
		mockService.On("Convert", mock.Anything, testUserID, expectedRequest).Return(result, nil).Once()

		recorder := serve(h.Convert, authedRequest(http.MethodPost, "/wallet/convert", exchangeBody))

		assert.Equal(t, http.StatusCreated, recorder.Code)
		body := decodeBody(t, recorder)
		assert.Equal(t, "Currency converted successfully", body["message"])
		assert.Equal(t, "₦40,000.00", body["from_balance_formatted"])
		assert.Equal(t, "$6.25", body["to_balance_formatted"])
		mockService.AssertExpectations(t)
	})

	t.Run("ErrorMapping", func(t *testing.T) {
		cases := []struct {
			name       string
			serviceErr error
			wantStatus int
		}{
			{"SameCurrency", util.ErrSameCurrency, http.StatusBadRequest},
			{"InvalidCurrency", util.ErrInvalidCurrency, http.StatusBadRequest},
			{"RateUnavailable", util.ErrRateUnavailable, http.StatusBadRequest},
			{"WalletNotFound", util.ErrWalletNotFound, http.StatusNotFound},
			{"InsufficientBalance", util.ErrInsufficientBalance, http.StatusPaymentRequired},
			{"DuplicateOperation", util.ErrDuplicateOperation, http.StatusConflict},
			{"RateSourceFailure", util.ErrRateSourceFailure, http.StatusBadGateway},
			{"Unclassified", assert.AnError, http.StatusInternalServerError},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				mockService := new(MockWalletService)
				h := NewWalletHandler(mockService, util.GetLogger())

				mockService.On("Convert", mock.Anything, testUserID, expectedRequest).Return(nil, tc.serviceErr).Once()

				recorder := serve(h.Convert, authedRequest(http.MethodPost, "/wallet/convert", exchangeBody))

				assert.Equal(t, tc.wantStatus, recorder.Code)
				mockService.AssertExpectations(t)
			})
		}
	})

	t.Run("OperationalErrorsHideDetails", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		mockService.On("Convert", mock.Anything, testUserID, expectedRequest).
			Return(nil, util.ErrRateSourceFailure).Once()

		recorder := serve(h.Convert, authedRequest(http.MethodPost, "/wallet/convert", exchangeBody))

		body := decodeBody(t, recorder)
		assert.Equal(t, "Unable to fetch exchange rates. Please try again later.", body["error"])
		mockService.AssertExpectations(t)
	})
}

func TestTradeHandler(t *testing.T) {
	t.Run("DelegatesToTrade", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		toCurrency := domain.CurrencyUSD
		result := &service.ExchangeResult{
			Transaction: domain.NewTransaction(testUserID, domain.TransactionTypeTrade,
				domain.CurrencyNGN, &toCurrency, domain.NewUnits(1_000_000), domain.NewUnits(625), nil, nil, ""),
		}
		mockService.On("Trade", mock.Anything, testUserID, mock.AnythingOfType("service.ExchangeRequest")).
			Return(result, nil).Once()

		recorder := serve(h.Trade, authedRequest(http.MethodPost, "/wallet/trade",
			`{"from_currency":"NGN","to_currency":"USD","amount":10000}`))

		assert.Equal(t, http.StatusCreated, recorder.Code)
		body := decodeBody(t, recorder)
		assert.Equal(t, "Currency traded successfully", body["message"])
		mockService.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything)
		mockService.AssertExpectations(t)
	})
}

func TestGetBalancesHandler(t *testing.T) {
	t.Run("ReturnsAllBalances", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		views := []service.BalanceView{
			{Currency: domain.CurrencyNGN, Balance: decimal.NewFromInt(40000), Formatted: "₦40,000.00"},
			{Currency: domain.CurrencyUSD, Balance: decimal.NewFromFloat(6.25), Formatted: "$6.25"},
		}
		mockService.On("GetBalances", mock.Anything, testUserID).Return(views, nil).Once()

		recorder := serve(h.GetBalances, authedRequest(http.MethodGet, "/wallet", ""))

		assert.Equal(t, http.StatusOK, recorder.Code)
		body := decodeBody(t, recorder)
		balances := body["balances"].([]interface{})
		assert.Len(t, balances, 2)
		mockService.AssertExpectations(t)
	})
}

func TestGetTransactionsHandler(t *testing.T) {
	t.Run("AppliesQueryFilters", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		txType := domain.TransactionTypeConversion
		expected := repository.TransactionFilter{Type: &txType, Page: 2, Limit: 50}
		mockService.On("GetTransactions", mock.Anything, testUserID,
			mock.MatchedBy(func(f repository.TransactionFilter) bool {
				return f.Page == expected.Page && f.Limit == expected.Limit &&
					f.Type != nil && *f.Type == txType && f.Status == nil
			})).Return([]domain.Transaction{}, int64(0), nil).Once()

		recorder := serve(h.GetTransactions,
			authedRequest(http.MethodGet, "/transactions?type=CONVERSION&page=2&limit=50", ""))

		assert.Equal(t, http.StatusOK, recorder.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ClampsInvalidPagination", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		mockService.On("GetTransactions", mock.Anything, testUserID,
			mock.MatchedBy(func(f repository.TransactionFilter) bool {
				return f.Page == 1 && f.Limit == 20
			})).Return([]domain.Transaction{}, int64(0), nil).Once()

		recorder := serve(h.GetTransactions,
			authedRequest(http.MethodGet, "/transactions?page=-3&limit=5000", ""))

		assert.Equal(t, http.StatusOK, recorder.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ReturnsPaginatedEnvelope", func(t *testing.T) {
		mockService := new(MockWalletService)
		h := NewWalletHandler(mockService, util.GetLogger())

		transactions := []domain.Transaction{
			*domain.NewTransaction(testUserID, domain.TransactionTypeFunding,
				domain.CurrencyNGN, nil, domain.NewUnits(1000050), nil, nil, nil, ""),
		}
		mockService.On("GetTransactions", mock.Anything, testUserID, mock.Anything).
			Return(transactions, int64(37), nil).Once()

		recorder := serve(h.GetTransactions, authedRequest(http.MethodGet, "/transactions", ""))

		assert.Equal(t, http.StatusOK, recorder.Code)
		body := decodeBody(t, recorder)
		assert.Equal(t, float64(37), body["total_count"])
		assert.Equal(t, float64(1), body["page"])
		assert.Len(t, body["data"].([]interface{}), 1)
		mockService.AssertExpectations(t)
	})
}
