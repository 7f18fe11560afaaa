package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/application/services/production"
	"github.com/vsinha/production/pkg/domain/repositories"
	"github.com/vsinha/production/pkg/infrastructure/config"
	"github.com/vsinha/production/pkg/infrastructure/database"
	"github.com/vsinha/production/pkg/infrastructure/events"
	"github.com/vsinha/production/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/production/pkg/infrastructure/repositories/postgres"
)

// App holds what every command needs: configuration, a logger and a
// production service over the configured store
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   repositories.Store
	Events  *events.MemoryBus
	Service *production.Service
	Out     io.Writer

	db *database.DB
}

// NewApp opens the store selected by cfg.Store.Driver. The postgres driver
// connects (starting an embedded server if configured) and migrates the
// schema.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := database.Connect(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db.DB); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		app := NewAppWithStore(cfg, logger, postgres.NewStore(db.DB))
		app.db = db
		return app, nil
	case config.DriverMemory:
		return NewAppWithStore(cfg, logger, memory.NewStore()), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func NewAppWithStore(cfg *config.Config, logger *zap.Logger, store repositories.Store) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := events.NewMemoryBus(logger)
	return &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Events: bus,
		Service: production.NewServiceWithConfig(store, production.ServiceConfig{
			Logger: logger,
			Events: bus,
		}),
		Out: os.Stdout,
	}
}

// Persistent reports whether state outlives the process
func (a *App) Persistent() bool {
	return a.db != nil
}

func (a *App) Close() error {
	a.Events.Wait()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
