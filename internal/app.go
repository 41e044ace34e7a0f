// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "fxwallet/internal/api"
	"fxwallet/internal/api/handler"
	"fxwallet/internal/config"
	"fxwallet/internal/fx"
	"fxwallet/internal/notifier"
	"fxwallet/internal/repository"
	"fxwallet/internal/repository/postgres"
	"fxwallet/internal/service"
	"fxwallet/internal/util"
	"fxwallet/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository

	// Collaborators
	RateProvider fx.RateProvider
	Notifier     notifier.Notifier

	// Services
	WalletService service.WalletService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Initialize Repositories
	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize collaborators: exchange-rate provider and notifier
	rateCache := fx.NewRateCache(app.Config.Fx.CacheTTL)
	app.RateProvider = fx.NewClient(app.Config.Fx.APIURL, app.Config.Fx.APIKey, app.Config.Fx.Timeout, rateCache, app.Logger)

	if len(app.Config.Kafka.Brokers) > 0 {
		app.Notifier = notifier.NewKafkaNotifier(app.Config.Kafka.Brokers, app.Config.Kafka.Topic, app.Logger)
	} else {
		app.Logger.Warn("No Kafka brokers configured; wallet events will be discarded.")
		app.Notifier = notifier.Noop{}
	}

	// 6. Initialize Services
	app.WalletService = service.NewWalletService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.WalletRepository,
		app.TransactionRepository,
		app.RateProvider,
		app.Notifier,
		app.Logger,
		app.Config.DB.LockTimeout,
		app.Config.InitialNGNBalance,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	walletHandler := handler.NewWalletHandler(app.WalletService, app.Logger)
	app.HTTPHandler = router.NewRouter(walletHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Notifier != nil {
		if err := app.Notifier.Close(); err != nil {
			app.Logger.Error("Failed to close notifier", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
