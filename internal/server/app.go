// Package server initializes and runs the backend application: database and
// repositories, application services and the HTTP API, with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mpopescu/autochecks/internal/logging"
	"github.com/mpopescu/autochecks/internal/server/config"
	"github.com/mpopescu/autochecks/internal/server/httpapi"
	"github.com/mpopescu/autochecks/internal/server/services"
	"github.com/mpopescu/autochecks/internal/server/shared/db"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	manager         db.RepositoryManager
	userService     *services.UserService
	snapshotService *services.SnapshotService
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	manager, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(manager.Users(), manager.RefreshTokens(), c)
	ss := services.NewSnapshotService(manager.Snapshots())

	return &App{
		config:          c,
		logger:          logger,
		manager:         manager,
		userService:     us,
		snapshotService: ss,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")
	app.initSignalHandler(cancelFunc)

	srv := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.userService, app.snapshotService)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server stopped", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
