package cli

import (
	"bufio"
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/config"
	"github.com/dmitrijs2005/bizkeeper/internal/client/legacy"
	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/client/remote"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/state"
	"github.com/dmitrijs2005/bizkeeper/internal/client/storage"
	"github.com/dmitrijs2005/bizkeeper/internal/client/syncer"
	"github.com/dmitrijs2005/bizkeeper/internal/client/trigger"
	"github.com/dmitrijs2005/bizkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	api        *remote.Client
	records    records.Repository
	state      state.Repository
	migrator   *legacy.Migrator
	controller *trigger.Controller
	ownerID    string
	userName   string
	Mode       Mode
	reader     *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	repos, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	api := remote.NewClient(c.ServerEndpointAddr)

	migrator := legacy.NewMigrator(repos.Records, repos.State, c.LegacySnapshotPath, logger, nil)

	store := syncer.StoreFunc(func(col models.Collection, ownerID string) syncer.CollectionStore {
		return records.NewScoped(repos.Records, col, ownerID)
	})
	orchestrator := syncer.NewOrchestrator(store, api, logger, nil)
	controller := trigger.NewController(orchestrator, repos.State, logger, c.SyncStaleness)

	return &App{
		config:     c,
		logger:     logger,
		api:        api,
		records:    repos.Records,
		state:      repos.State,
		migrator:   migrator,
		controller: controller,
		Mode:       ModeOffline,
		reader:     bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.api.Close()

	// One-shot legacy import happens before anything reads the store.
	if res, err := a.migrator.Migrate(ctx); err != nil {
		log.Printf("legacy migration failed (will retry next launch): %v", err)
	} else if !res.RanAlready && len(res.MigratedCounts) > 0 {
		log.Printf("migrated legacy data: %v (skipped %d)", res.MigratedCounts, res.Skipped)
	}

	a.restoreSession(ctx)

	go a.controller.Run(ctx, a.config.SyncInterval)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.ownerID != ""
}

// restoreSession rebinds identity and tokens persisted by a previous login,
// so the app is usable offline without re-entering credentials.
func (a *App) restoreSession(ctx context.Context) {
	userID, err := a.state.Get(ctx, state.KeyLocalUserID)
	if err != nil || len(userID) == 0 {
		return
	}
	userName, _ := a.state.Get(ctx, state.KeyUsername)
	access, _ := a.state.Get(ctx, state.KeyAccessToken)
	refresh, _ := a.state.Get(ctx, state.KeyRefreshToken)

	a.ownerID = string(userID)
	a.userName = string(userName)
	a.api.SetTokens(string(access), string(refresh))
	a.controller.SetIdentity(a.ownerID)
}

// StartOnlineStatusWatcher probes the server periodically and feeds
// connectivity transitions into the trigger controller.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(probeCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
					a.controller.Notify(trigger.Disconnected{})
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
					a.controller.Notify(trigger.Reconnected{})
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
