package infrastructure

import (
	"context"
	"strings"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"jan-server/services/conversation-api/internal/config"
	"jan-server/services/conversation-api/internal/infrastructure/auth"
	"jan-server/services/conversation-api/internal/infrastructure/crontab"
	"jan-server/services/conversation-api/internal/infrastructure/database"
	"jan-server/services/conversation-api/internal/infrastructure/database/repository"
	"jan-server/services/conversation-api/internal/infrastructure/database/transaction"
	"jan-server/services/conversation-api/internal/infrastructure/logger"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideLogger configures the global logger from LOG_LEVEL and LOG_FORMAT
func ProvideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

// ProvideTokenValidator returns nil when only trusted headers are configured.
func ProvideTokenValidator(cfg *config.Config, log zerolog.Logger) (auth.TokenValidator, error) {
	if cfg.JWKSURL == "" {
		log.Warn().Msg("KEYCLOAK_JWKS_URL not set, trusting identity headers")
		return nil, nil
	}
	return auth.NewKeycloakValidator(
		context.Background(),
		cfg.JWKSURL,
		cfg.Issuer,
		cfg.Audience,
		cfg.AuthClockSkew,
		log,
	)
}

// ProvideDatabase provides a database connection
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	var replicas []string
	if cfg.DBPostgresqlRead1DSN != "" {
		replicas = append(replicas, cfg.DBPostgresqlRead1DSN)
	}

	level := gormlogger.Silent
	if strings.EqualFold(cfg.LogLevel, "debug") {
		level = gormlogger.Info
	}

	db, err := database.Connect(database.Config{
		DatabaseURL: cfg.DatabaseURL,
		ReplicaURLs: replicas,
		TablePrefix: cfg.DBTablePrefix,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:    level,
	})
	if err != nil {
		return nil, err
	}

	// Run migrations if AUTO_MIGRATE is enabled
	if cfg.AutoMigrate {
		log.Info().Msg("Running database migrations...")
		if err := database.AutoMigrate(db, cfg.SchemaName()); err != nil {
			log.Error().Err(err).Msg("Failed to run database migrations")
			return nil, err
		}
		log.Info().Msg("Database migrations completed successfully")
	}

	return db, nil
}

// ProvideTransactionDatabase provides a transaction database wrapper
func ProvideTransactionDatabase(db *gorm.DB) *transaction.Database {
	return transaction.NewDatabase(db)
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,
	ProvideLogger,

	// Database
	ProvideDatabase,
	ProvideTransactionDatabase,

	// Repositories
	repository.RepositoryProvider,

	// Auth
	ProvideTokenValidator,

	// Crontab for pointer reconciliation
	crontab.NewCrontab,
)
