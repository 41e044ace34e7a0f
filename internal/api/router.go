// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fxwallet/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(walletHandler *handler.WalletHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Authenticated wallet routes; identity comes from the upstream auth layer.
	r.Group(func(r chi.Router) {
		r.Use(handler.Identity)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", walletHandler.GetBalances)
			r.Post("/fund", walletHandler.Fund)
			r.Post("/convert", walletHandler.Convert)
			r.Post("/trade", walletHandler.Trade)
		})

		r.Get("/transactions", walletHandler.GetTransactions)
	})

	return r
}
