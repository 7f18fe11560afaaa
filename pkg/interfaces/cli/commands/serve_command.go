package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/interfaces/api"
)

// ServeCommand exposes the production service over HTTP until the process
// is interrupted
type ServeCommand struct {
	app *App
}

func NewServeCommand(app *App) *ServeCommand {
	return &ServeCommand{app: app}
}

func (c *ServeCommand) Execute(ctx context.Context) error {
	cfg := c.app.Config.Server
	if !c.app.Persistent() {
		c.app.Logger.Warn("serving from the in-memory store, state is lost on exit")
	}

	router := api.NewRouter(c.app.Service, c.app.Logger, cfg.Mode)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		c.app.Logger.Info("Server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	c.app.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	c.app.Logger.Info("Server exited")
	return nil
}
