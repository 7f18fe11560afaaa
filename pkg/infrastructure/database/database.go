package database

import (
	"fmt"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vsinha/production/pkg/infrastructure/config"
)

const embeddedPassword = "postgres"

// DB wraps gorm.DB and the embedded PostgreSQL process when one was started
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
	logger   *zap.Logger
}

// Connect opens the configured PostgreSQL database. With Embedded set, a
// local PostgreSQL is started in EmbeddedPath on the configured port first.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var embedded *embeddedpostgres.EmbeddedPostgres
	if cfg.Embedded {
		log.Info("starting embedded PostgreSQL",
			zap.String("path", cfg.EmbeddedPath),
			zap.Int("port", cfg.Port))

		embedded = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			DataPath(cfg.EmbeddedPath).
			Port(uint32(cfg.Port)).
			Database(cfg.DBName).
			Username(cfg.User).
			Password(embeddedPassword))
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}
		cfg.Host = "localhost"
		cfg.Password = embeddedPassword
	} else {
		log.Info("connecting to PostgreSQL", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("database connection established", zap.String("dbname", cfg.DBName))
	return &DB{DB: db, embedded: embedded, logger: log}, nil
}

// Close closes the pool and stops the embedded process if there is one
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			db.logger.Warn("failed to close connection pool", zap.Error(cerr))
		}
	}
	if db.embedded != nil {
		db.logger.Info("stopping embedded PostgreSQL")
		if err := db.embedded.Stop(); err != nil {
			return fmt.Errorf("failed to stop embedded database: %w", err)
		}
	}
	return nil
}
