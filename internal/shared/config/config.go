package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	EventBus  EventBusConfig
	Notify    NotifyConfig
	Legacy    LegacyConfig
	RateLimit RateLimitConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string
}

// StorageConfig holds settings for the S3-compatible attachment store.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PresignExpirySeconds controls how long returned attachment URLs stay valid.
	PresignExpirySeconds int
}

// EventBusConfig holds configuration for the EventStoreDB lifecycle event stream.
type EventBusConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

// NotifyConfig holds settings for the email and SMS channels.
type NotifyConfig struct {
	// SMTP settings for the email channel
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	FromName string
	FromAddr string

	// HTTP gateway settings for the SMS channel
	SMSGatewayURL string
	SMSAPIKey     string
	SMSSender     string

	// Worker pool and log retention
	Workers       int
	BufferSize    int
	MaxLogEntries int
}

// LegacyConfig holds settings for the legacy municipal directory import (MSSQL).
type LegacyConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

type SeedConfig struct {
	OnStart bool
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "sevalink"),
			Password: getEnv("DB_PASSWORD", "sevalink"),
			Database: getEnv("DB_NAME", "sevalink"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		Storage: StorageConfig{
			Endpoint:             getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey:            getEnv("S3_ACCESS_KEY", "minioadmin"),
			SecretKey:            getEnv("S3_SECRET_KEY", "minioadmin"),
			Bucket:               getEnv("S3_BUCKET", "sevalink-attachments"),
			Region:               getEnv("S3_REGION", "ap-south-1"),
			UseSSL:               getEnvBool("S3_USE_SSL", false),
			PresignExpirySeconds: getEnvInt("S3_PRESIGN_EXPIRY_SECONDS", 7*24*3600),
		},
		EventBus: EventBusConfig{
			Enabled:  getEnvBool("EVENTSTORE_ENABLED", true),
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
		},
		Notify: NotifyConfig{
			SMTPHost:      getEnv("SMTP_HOST", ""),
			SMTPPort:      getEnvInt("SMTP_PORT", 587),
			SMTPUser:      getEnv("SMTP_USER", ""),
			SMTPPass:      getEnv("SMTP_PASS", ""),
			FromName:      getEnv("SMTP_FROM_NAME", "SevaLink"),
			FromAddr:      getEnv("SMTP_FROM_ADDR", "no-reply@sevalink.gov.in"),
			SMSGatewayURL: getEnv("SMS_GATEWAY_URL", ""),
			SMSAPIKey:     getEnv("SMS_API_KEY", ""),
			SMSSender:     getEnv("SMS_SENDER", "SVLINK"),
			Workers:       getEnvInt("NOTIFY_WORKERS", 4),
			BufferSize:    getEnvInt("NOTIFY_BUFFER_SIZE", 1000),
			MaxLogEntries: getEnvInt("NOTIFY_MAX_LOG_ENTRIES", 1000),
		},
		Legacy: LegacyConfig{
			Enabled:  getEnvBool("LEGACY_IMPORT_ENABLED", false),
			Host:     getEnv("LEGACY_DB_HOST", "localhost"),
			Port:     getEnvInt("LEGACY_DB_PORT", 1433),
			User:     getEnv("LEGACY_DB_USER", ""),
			Password: getEnv("LEGACY_DB_PASSWORD", ""),
			Database: getEnv("LEGACY_DB_NAME", "MunicipalRegistry"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvInt("RATE_LIMIT_RPS", 5),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Seed: SeedConfig{
			OnStart: getEnvBool("SEED_ON_START", true),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
