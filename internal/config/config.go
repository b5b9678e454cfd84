package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

var globalConfig *Config

// Config holds all environment backed configuration for conversation-api.
type Config struct {
	// HTTP Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// PostgreSQL
	DBPostgresqlRead1DSN string        `env:"DB_POSTGRESQL_READ1_DSN"`
	DBMaxIdleConns       int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBMaxOpenConns       int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBConnMaxLifetime    time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	DBTablePrefix        string        `env:"DB_TABLE_PREFIX" envDefault:"conversation_api."`

	// Auth
	JWKSURL          string        `env:"KEYCLOAK_JWKS_URL"`
	Issuer           string        `env:"ISSUER"`
	Audience         string        `env:"AUDIENCE"`
	AuthClockSkew    time.Duration `env:"AUTH_CLOCK_SKEW" envDefault:"60s"`
	AuthTrustHeaders bool          `env:"AUTH_TRUST_HEADERS" envDefault:"false"`

	// Observability / Logging
	OTELEnabled      bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string `env:"SERVICE_NAME" envDefault:"conversation-api"`
	ServiceNamespace string `env:"SERVICE_NAMESPACE" envDefault:"jan"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate                bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	ConversationSharingEnabled bool   `env:"CONVERSATION_SHARING_ENABLED" envDefault:"true"`
	ShareBaseURL               string `env:"SHARE_BASE_URL"`
	MaxContentLength           int    `env:"MAX_CONTENT_LENGTH" envDefault:"100000"`

	// Pointer reconciler
	PointerReconcileEnabled         bool `env:"POINTER_RECONCILE_ENABLED" envDefault:"true"`
	PointerReconcileIntervalMinutes int  `env:"POINTER_RECONCILE_INTERVAL_MINUTES" envDefault:"10"`
	PointerReconcileBatchSize       int  `env:"POINTER_RECONCILE_BATCH_SIZE" envDefault:"200"`

	// Internal
	EnvReloadedAt time.Time
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWKSURL != "" {
		if _, err := url.ParseRequestURI(cfg.JWKSURL); err != nil {
			return nil, fmt.Errorf("invalid KEYCLOAK_JWKS_URL: %w", err)
		}
	}
	if cfg.JWKSURL == "" && !cfg.AuthTrustHeaders {
		return nil, fmt.Errorf("either KEYCLOAK_JWKS_URL or AUTH_TRUST_HEADERS must be set")
	}

	if cfg.ShareBaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.ShareBaseURL); err != nil {
			return nil, fmt.Errorf("invalid SHARE_BASE_URL: %w", err)
		}
		cfg.ShareBaseURL = strings.TrimRight(cfg.ShareBaseURL, "/")
	}

	if cfg.PointerReconcileIntervalMinutes <= 0 {
		cfg.PointerReconcileIntervalMinutes = 10
	}
	if cfg.PointerReconcileBatchSize <= 0 {
		cfg.PointerReconcileBatchSize = 200
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.EnvReloadedAt = time.Now()

	globalConfig = cfg

	return cfg, nil
}

// SchemaName returns the postgres schema implied by DBTablePrefix ("conversation_api." -> "conversation_api").
func (c *Config) SchemaName() string {
	return strings.TrimSuffix(c.DBTablePrefix, ".")
}

// GetGlobal returns the config loaded by the last successful Load call.
func GetGlobal() *Config {
	return globalConfig
}

// GetEnvReloadedAt returns when the environment was last reloaded
func GetEnvReloadedAt() time.Time {
	if globalConfig != nil {
		return globalConfig.EnvReloadedAt
	}
	return time.Time{}
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
