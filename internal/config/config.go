package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Email     EmailConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth

	// TrustProxyHeaders enables X-Forwarded-For / X-Real-IP handling. Only
	// set it when a reverse proxy overwrites those headers.
	TrustProxyHeaders bool
}

type DatabaseConfig struct {
	Driver         string // postgres or sqlite
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
	SQLitePath     string
	AutoMigrate    bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

type AuthConfig struct {
	TokenFormat string // paseto or jwt
	// PASETO symmetric key (32 bytes for v4.local)
	PasetoKey  []byte
	JWTSecret  []byte
	SessionTTL time.Duration

	CookieName   string
	CookieSecret []byte

	// ExposeVerificationToken returns the raw verification secret in the register response.
	ExposeVerificationToken bool
	// ConcealUnknownAccounts makes login answer an unknown email like a wrong password.
	ConcealUnknownAccounts bool

	Argon2Time    uint32
	Argon2Memory  uint32 // KiB
	Argon2Threads uint8
}

type EmailConfig struct {
	SMTPHost        string
	SMTPPort        string
	SMTPUser        string
	SMTPPassword    string
	FromEmail       string
	FrontendURL     string // origin used in verification links
	DispatchTimeout time.Duration
}

const (
	TokenFormatPaseto = "paseto"
	TokenFormatJWT    = "jwt"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	pasetoKey, err := decodeKey(getEnv("PASETO_KEY", ""))
	if err != nil {
		return nil, fmt.Errorf("PASETO_KEY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),

			TrustProxyHeaders: getBoolEnv("TRUST_PROXY_HEADERS", false),
		},
		Database: DatabaseConfig{
			Driver:         getEnv("DB_DRIVER", DriverPostgres),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "authflow"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
			SQLitePath:     getEnv("SQLITE_PATH", "file:authflow.db?cache=shared"),
			AutoMigrate:    getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("RATE_LIMIT_ENABLED", false),
			Limit:   getIntEnv("RATE_LIMIT_REQUESTS", 10),
			Window:  getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Auth: AuthConfig{
			TokenFormat:             strings.ToLower(getEnv("AUTH_TOKEN_FORMAT", TokenFormatPaseto)),
			PasetoKey:               pasetoKey,
			JWTSecret:               []byte(getEnv("JWT_SECRET", "")),
			SessionTTL:              getDurationEnv("SESSION_TTL", 24*time.Hour),
			CookieName:              getEnv("COOKIE_NAME", "token"),
			CookieSecret:            []byte(getEnv("COOKIE_SECRET", "")),
			ExposeVerificationToken: getBoolEnv("AUTH_EXPOSE_VERIFICATION_TOKEN", true),
			ConcealUnknownAccounts:  getBoolEnv("AUTH_CONCEAL_UNKNOWN_ACCOUNTS", false),
			Argon2Time:              uint32(getIntEnv("ARGON2_TIME", 3)),
			Argon2Memory:            uint32(getIntEnv("ARGON2_MEMORY_KB", 64*1024)),
			Argon2Threads:           uint8(getIntEnv("ARGON2_THREADS", 4)),
		},
		Email: EmailConfig{
			SMTPHost:        getEnv("SMTP_HOST", ""),
			SMTPPort:        getEnv("SMTP_PORT", "587"),
			SMTPUser:        getEnv("SMTP_USER", ""),
			SMTPPassword:    getEnv("SMTP_PASS", ""),
			FromEmail:       getEnv("SMTP_FROM", ""),
			FrontendURL:     strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
			DispatchTimeout: getDurationEnv("EMAIL_DISPATCH_TIMEOUT", 5*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the invariants the rest of the application relies on.
func (c *Config) Validate() error {
	switch c.Auth.TokenFormat {
	case TokenFormatPaseto:
		if len(c.Auth.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
		}
	case TokenFormatJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.Auth.JWTSecret))
		}
	default:
		return fmt.Errorf("unsupported AUTH_TOKEN_FORMAT %q", c.Auth.TokenFormat)
	}

	if len(c.Auth.CookieSecret) < 32 {
		return fmt.Errorf("COOKIE_SECRET must be at least 32 bytes, got %d", len(c.Auth.CookieSecret))
	}
	// Cookie Max-Age and the securecookie timestamp check work in whole seconds.
	if c.Auth.SessionTTL < time.Second {
		return fmt.Errorf("SESSION_TTL must be at least 1s, got %s", c.Auth.SessionTTL)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

// IsProduction returns true if the environment is set to prod
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// decodeKey accepts either a raw 32 byte string or its 64 character hex form.
func decodeKey(value string) ([]byte, error) {
	if len(value) == 64 {
		key, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("invalid hex key: %w", err)
		}
		return key, nil
	}
	return []byte(value), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getDurationEnv reads a duration given either in seconds ("900") or Go syntax ("15m").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return d
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
