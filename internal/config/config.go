// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fxwallet/pkg/db"

	"github.com/shopspring/decimal"
)

// FxConfig holds exchange-rate source settings.
type FxConfig struct {
	APIURL   string
	APIKey   string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// KafkaConfig holds notification sink settings. An empty broker list
// disables Kafka and falls back to a no-op notifier.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort        string
	DB                db.Config
	Fx                FxConfig
	Kafka             KafkaConfig
	InitialNGNBalance decimal.Decimal // credited to new users' NGN wallet
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	lockTimeout, err := getEnvDuration("DB_LOCK_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvDuration("FX_RATE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	fxTimeout, err := getEnvDuration("FX_RATE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	initialBalance := decimal.Zero
	if v := os.Getenv("INITIAL_NGN_BALANCE"); v != "" {
		initialBalance, err = decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid INITIAL_NGN_BALANCE: %w", err)
		}
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}

	return &AppConfig{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DB: db.Config{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "user"),
			Password:    getEnv("DB_PASSWORD", "password"),
			DBName:      getEnv("DB_NAME", "fxwallet"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			LockTimeout: lockTimeout,
		},
		Fx: FxConfig{
			APIURL:   getEnv("FX_RATE_API_URL", "https://v6.exchangerate-api.com/v6"),
			APIKey:   os.Getenv("FX_RATE_API_KEY"),
			CacheTTL: cacheTTL,
			Timeout:  fxTimeout,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   getEnv("KAFKA_TOPIC", "wallet-events"),
		},
		InitialNGNBalance: initialBalance,
	}, nil
}
