package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Payment    PaymentConfig
	Settlement SettlementConfig
	Auth       AuthConfig
}

type AppConfig struct {
	Port                  string
	BaseURL               string
	Environment           string
	LogFilePath           string
	ReconciliationLogPath string
	CorsAllowedOrigins    string
	NatsURL               string
	RedisURL              string
	StorageDriver         string // "postgres" or "memory"
	OtelEndpoint          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type PaymentConfig struct {
	MidtransServerKey  string
	MidtransProduction bool
	GatewayTimeout     time.Duration
	MaxAttempts        int
	RetryBaseDelay     time.Duration
}

type SettlementConfig struct {
	Currency         string
	ProcessingFeeBps int64
	ProcessingFeeCap decimal.Decimal
	DeadlineOffset   time.Duration
	LockTTL          time.Duration
	IdempotencyTTL   time.Duration
	AdminEmail       string
}

type AuthConfig struct {
	JWTSecret string
}

// MidtransCurrency is the only currency Midtrans refunds in.
const MidtransCurrency = "IDR"

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Validate rejects combinations the payment provider cannot settle.
func (c *Config) Validate() error {
	if c.Payment.MidtransServerKey != "" && c.Settlement.Currency != MidtransCurrency {
		return fmt.Errorf("SETTLEMENT_CURRENCY is %q but Midtrans refunds in %s only", c.Settlement.Currency, MidtransCurrency)
	}
	return nil
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	midtransKey := getEnv("MIDTRANS_SERVER_KEY", "")
	defaultCurrency := "USD"
	if midtransKey != "" {
		defaultCurrency = MidtransCurrency
	}

	return &Config{
		App: AppConfig{
			Port:                  getEnv("APP_PORT", "3000"),
			BaseURL:               getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:           getEnv("GO_ENV", "development"),
			LogFilePath:           getEnv("LOG_FILE_PATH", "logs/app.log"),
			ReconciliationLogPath: getEnv("RECONCILIATION_LOG_PATH", "logs/reconciliation.log"),
			CorsAllowedOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:               getEnv("NATS_URL", ""),
			RedisURL:              getEnv("REDIS_URL", ""),
			StorageDriver:         getEnv("STORAGE_DRIVER", "postgres"),
			OtelEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Booking Settlement"),
		},
		Payment: PaymentConfig{
			MidtransServerKey:  midtransKey,
			MidtransProduction: getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			GatewayTimeout:     getEnvAsDuration("GATEWAY_TIMEOUT", 10*time.Second),
			MaxAttempts:        getEnvAsInt("GATEWAY_MAX_ATTEMPTS", 3),
			RetryBaseDelay:     getEnvAsDuration("GATEWAY_RETRY_BASE_DELAY", 200*time.Millisecond),
		},
		Settlement: SettlementConfig{
			Currency:         getEnv("SETTLEMENT_CURRENCY", defaultCurrency),
			ProcessingFeeBps: int64(getEnvAsInt("PROCESSING_FEE_BPS", 300)),
			ProcessingFeeCap: getEnvAsDecimal("PROCESSING_FEE_CAP", decimal.NewFromInt(25)),
			DeadlineOffset:   getEnvAsDuration("CANCELLATION_DEADLINE_OFFSET", 24*time.Hour),
			LockTTL:          getEnvAsDuration("BOOKING_LOCK_TTL", 30*time.Second),
			IdempotencyTTL:   getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			AdminEmail:       getEnv("ADMIN_NOTIFICATION_EMAIL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	strValue := getEnv(key, "")
	if value, err := decimal.NewFromString(strValue); err == nil {
		return value
	}
	return fallback
}
