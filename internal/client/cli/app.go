package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/client/binding"
	"github.com/dmitrijs2005/vinocave/internal/client/cache"
	"github.com/dmitrijs2005/vinocave/internal/client/client"
	"github.com/dmitrijs2005/vinocave/internal/client/config"
	"github.com/dmitrijs2005/vinocave/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/vinocave/internal/client/repositories/mirror"
	"github.com/dmitrijs2005/vinocave/internal/client/services"
	"github.com/dmitrijs2005/vinocave/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	client client.Client

	cache     *cache.Cache
	state     *binding.State
	ownership services.OwnershipService
	cellar    services.CellarService
	importer  *services.ImportService
	backup    *services.BackupService
	drawer    *services.Drawer

	modeMu sync.RWMutex
	mode   Mode

	reader    *bufio.Reader
	out       io.Writer
	promptOut io.Writer
	now       func() time.Time
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	state := binding.New()
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, state, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cc := cache.New(mirror.NewSQLiteMirror(db), logger)
	store := metadata.NewOwnerStore(metadata.NewSQLiteRepository(db))

	a := newApp(c, logger, apiClient, cc, state, store, bufio.NewReader(os.Stdin), os.Stdout)
	a.db = db
	return a, nil
}

// newApp wires the services around already built dependencies.
func newApp(c *config.Config, logger logging.Logger, apiClient client.Client, cc *cache.Cache,
	state *binding.State, store services.OwnerStore, r *bufio.Reader, w io.Writer) *App {

	ownership := services.NewOwnershipService(apiClient, cc, state, store, c.OwnerName, logger)
	cellar := services.NewCellarService(apiClient, cc, ownership, logger)

	return &App{
		config:    c,
		logger:    logger.With("module", "cli"),
		client:    apiClient,
		cache:     cc,
		state:     state,
		ownership: ownership,
		cellar:    cellar,
		importer:  services.NewImportService(cellar, cc, logger),
		backup:    services.NewBackupService(apiClient, cc, state, &http.Client{Timeout: c.RequestTimeout}, logger),
		drawer:    services.NewDrawer(nil),
		mode:      ModeOffline,
		reader:    r,
		out:       w,
		promptOut: w,
		now:       time.Now,
	}
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "mode changed", "mode", mode)
		printlnFn("Switched to", mode, "mode")
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.client.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
