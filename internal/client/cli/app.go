package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"time"

	"github.com/mpopescu/autochecks/internal/client/client"
	"github.com/mpopescu/autochecks/internal/client/config"
	"github.com/mpopescu/autochecks/internal/client/netqueue"
	"github.com/mpopescu/autochecks/internal/client/services"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/client/sync"
	"github.com/mpopescu/autochecks/internal/client/syncstatus"
	"github.com/mpopescu/autochecks/internal/client/watch"
	"github.com/mpopescu/autochecks/internal/logging"
	"github.com/mpopescu/autochecks/internal/netx"
)

// App wires the AutoChecks CLI together: local store, backend client, sync
// engine, change watcher and the interactive commands on top of them.
type App struct {
	config *config.Config
	logger logging.Logger

	db      *sql.DB
	store   *store.Store
	client  *client.HTTPClient
	status  *syncstatus.Publisher
	orch    *sync.Orchestrator
	queue   *netqueue.Queue
	prober  netx.Prober
	watcher *watch.Watcher

	auth     *services.AuthService
	vehicles *services.VehicleService
	checks   *services.CheckService
	settings *services.SettingsService

	reader *bufio.Reader
	out    io.Writer

	online bool
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	st := store.New(db)
	apiClient := client.NewHTTPClient(cfg.ServerEndpointURL)
	status := syncstatus.NewPublisher()
	codec := sync.NewCodec(logger)
	orch := sync.NewOrchestrator(st, apiClient, codec, status, logger)
	queue := netqueue.NewQueue(db, logger)
	prober := netx.NewHTTPProber(cfg.ServerEndpointURL+"/api/v1/ping", 0)
	watcher := watch.NewWatcher(st, orch, queue, prober, status, logger, cfg.DebounceInterval)

	a := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		store:    st,
		client:   apiClient,
		status:   status,
		orch:     orch,
		queue:    queue,
		prober:   prober,
		watcher:  watcher,
		auth:     services.NewAuthService(st, apiClient, orch, logger),
		vehicles: services.NewVehicleService(st, logger),
		checks:   services.NewCheckService(st, logger),
		settings: services.NewSettingsService(st, logger),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	return a, nil
}

// Run starts the change watcher, the connectivity watcher and the REPL, and
// blocks until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	a.watcher.Start(ctx)
	defer a.watcher.Stop()

	go a.startOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.client.Session().AccountID != ""
}

// startOnlineStatusWatcher probes the backend on a fixed interval and fires
// the reconnect hook on each offline-to-online transition.
func (a *App) startOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			online := a.prober.Online(ctx)
			if online && !a.online {
				a.logger.Info(ctx, "connectivity restored")
				a.watcher.ConnectivityRestored(ctx)
			}
			a.online = online

		case <-ctx.Done():
			return
		}
	}
}
