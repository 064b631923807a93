package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	Email          EmailConfig
	Storage        StorageConfig
	OTP            OTPConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	AdminBootstrap AdminBootstrapConfig
	Logging        LoggingConfig
	Environment    string
}

type ServerConfig struct {
	Host        string
	Port        int
	BaseURL     string
	FrontendURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
	// ProtectCRUD puts registration reads and content mutations behind
	// admin auth. Off by default: the resource endpoints ship open, the
	// way the public site consumes them.
	ProtectCRUD bool
}

type EmailConfig struct {
	Enabled bool
	APIKey  string
	From    string
}

// StorageConfig configures the S3-compatible blob store. Leaving the
// endpoint or credentials empty disables uploads.
type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// OTPConfig selects the OTP challenge store backend. An empty RedisAddr
// keeps challenges in process memory.
type OTPConfig struct {
	RedisAddr     string
	RedisPassword string
	TTL           time.Duration
}

type RateLimitConfig struct {
	PublicPerMinute int
	LoginPerMinute  int
	OTPPerMinute    int
	// TrustedProxyCIDRs lists proxies whose X-Forwarded-For is believed.
	TrustedProxyCIDRs []string
}

// CORSConfig controls cross-origin access. With no explicit origins
// configured, development and test environments allow everything.
type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

type AdminBootstrapConfig struct {
	Username string
	Password string
	Email    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			BaseURL:     getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			AccessExpiry:  time.Duration(getEnvInt("JWT_ACCESS_EXPIRY_MINUTES", 60)) * time.Minute,
			RefreshExpiry: time.Duration(getEnvInt("JWT_REFRESH_EXPIRY_HOURS", 24)) * time.Hour,
			Issuer:        getEnv("JWT_ISSUER", "expotrade"),
			ProtectCRUD:   getEnvBool("CRUD_REQUIRE_ADMIN", false),
		},
		Email: EmailConfig{
			Enabled: getEnvBool("EMAIL_ENABLED", false),
			APIKey:  getEnv("RESEND_API_KEY", ""),
			From:    getEnv("EMAIL_FROM", "no-reply@expotrade.events"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			Region:    getEnv("STORAGE_REGION", "us-east-1"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "expotrade-media"),
			PublicURL: getEnv("STORAGE_PUBLIC_URL", ""),
		},
		OTP: OTPConfig{
			RedisAddr:     getEnv("OTP_REDIS_ADDR", ""),
			RedisPassword: getEnv("OTP_REDIS_PASSWORD", ""),
			TTL:           time.Duration(getEnvInt("OTP_TTL_MINUTES", 5)) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 120),
			LoginPerMinute:    getEnvInt("RATE_LIMIT_LOGIN", 10),
			OTPPerMinute:      getEnvInt("RATE_LIMIT_OTP", 20),
			TrustedProxyCIDRs: getEnvList("RATE_LIMIT_TRUSTED_PROXIES"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Username: getEnv("ADMIN_USERNAME", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Email.Enabled && cfg.Email.APIKey == "" {
		return Config{}, fmt.Errorf("RESEND_API_KEY is required when EMAIL_ENABLED is true")
	}

	if len(cfg.CORS.AllowedOrigins) == 0 && cfg.Environment != "production" {
		cfg.CORS.AllowAllOrigins = true
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
