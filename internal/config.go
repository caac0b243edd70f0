package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const EnvProduction = "production"

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Payment       PaymentConfig       `mapstructure:"payment"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	// Environment selects production hardening; anything other than
	// "production" allows the development vault key.
	Environment string `mapstructure:"environment"`
	// EncryptionKey is the 32-byte AES-256 key protecting gateway secret keys.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type PaymentConfig struct {
	GatewayBaseURL         string        `mapstructure:"gateway_base_url"`
	GatewayTimeout         time.Duration `mapstructure:"gateway_timeout"`
	NotificationBaseURL    string        `mapstructure:"notification_base_url"`
	WebhookTolerance       time.Duration `mapstructure:"webhook_tolerance"`
	AllowInactiveCampaigns bool          `mapstructure:"allow_inactive_campaigns"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *Config) IsProduction() bool {
	return c.Security.Environment == EnvProduction
}

// NotificationURL is the absolute webhook URL handed to the gateway with each charge.
func (c *PaymentConfig) NotificationURL() string {
	return strings.TrimRight(c.NotificationBaseURL, "/") + "/api/v1/webhooks/pagou"
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds a Config from environment variables for container deployments.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("HTTP_BASE_URL", ""),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			Environment:   getEnv("APP_ENV", "development"),
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Payment: PaymentConfig{
			GatewayBaseURL:         getEnv("PAGOU_BASE_URL", "https://api.pagou.com/v1"),
			GatewayTimeout:         getEnvAsDuration("PAGOU_TIMEOUT", 10*time.Second),
			NotificationBaseURL:    getEnv("NOTIFICATION_BASE_URL", "http://localhost:8080"),
			WebhookTolerance:       getEnvAsDuration("WEBHOOK_TOLERANCE", 300*time.Second),
			AllowInactiveCampaigns: getEnv("ALLOW_INACTIVE_CAMPAIGNS", "") == "true",
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Payment.Validate(c.IsProduction()); err != nil {
		errs = append(errs, fmt.Sprintf("payment config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

// Validate only checks the key when running in production; the vault itself
// decides how to handle a missing key elsewhere.
func (c *SecurityConfig) Validate() error {
	if c.Environment == EnvProduction && len(c.EncryptionKey) != 32 {
		return errors.New("encryption_key must be exactly 32 bytes in production")
	}
	return nil
}

func (c *PaymentConfig) Validate(production bool) error {
	if c.GatewayBaseURL == "" {
		return errors.New("gateway_base_url is required")
	}
	if _, err := url.ParseRequestURI(c.GatewayBaseURL); err != nil {
		return fmt.Errorf("invalid gateway_base_url: %w", err)
	}
	if c.NotificationBaseURL == "" {
		return errors.New("notification_base_url is required")
	}
	if c.GatewayTimeout <= 0 {
		return errors.New("gateway_timeout must be positive")
	}
	if production && c.AllowInactiveCampaigns {
		return errors.New("allow_inactive_campaigns cannot be enabled in production")
	}
	return nil
}
