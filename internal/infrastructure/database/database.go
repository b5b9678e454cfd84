package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"

	"jan-server/services/conversation-api/internal/infrastructure/logger"
)

// Config holds database configuration
type Config struct {
	DatabaseURL string
	ReplicaURLs []string
	TablePrefix string
	MaxIdle     int
	MaxOpen     int
	MaxLifetime time.Duration
	LogLevel    gormlogger.LogLevel
}

// GormConfig returns the gorm settings shared by every dialect the service opens.
func GormConfig(tablePrefix string, level gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   tablePrefix,
			SingularTable: false,
		},
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	}
}

// Connect creates a new database connection with the given configuration
func Connect(cfg Config) (*gorm.DB, error) {
	log := logger.GetLogger()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), GormConfig(cfg.TablePrefix, cfg.LogLevel))
	if err != nil {
		log.Error().
			Str("error_code", "e850c288-12fe-454f-9373-4218a696b879").
			Err(err).
			Msg("unable to connect to database")
		return nil, err
	}

	if len(cfg.ReplicaURLs) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.ReplicaURLs))
		for _, dsn := range cfg.ReplicaURLs {
			replicas = append(replicas, postgres.Open(dsn))
		}
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxIdleConns(cfg.MaxIdle).
			SetMaxOpenConns(cfg.MaxOpen).
			SetConnMaxLifetime(cfg.MaxLifetime))
		if err != nil {
			log.Error().
				Str("error_code", "eba9b92a-9f8d-4a97-8ab5-1036a63a92eb").
				Err(err).
				Msg("unable to register read replicas")
			return nil, err
		}
		log.Info().Int("replicas", len(replicas)).Msg("Registered read replicas")
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info().Msg("Successfully connected to database")
	return db, nil
}
