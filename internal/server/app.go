// Package server wires the document store together: PostgreSQL with
// migrations, the owner/document/backup services, the gRPC endpoint and the
// Prometheus metrics listener.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/logging"
	"github.com/dmitrijs2005/vinocave/internal/server/config"
	"github.com/dmitrijs2005/vinocave/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vinocave/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/vinocave/internal/server/grpc"
)

// seams for tests
var (
	sqlOpen        = sql.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	metrics         *gs.Metrics
	ownerService    *services.OwnerService
	documentService *services.DocumentService
	backupService   *services.BackupService
}

// NewApp connects to the database, applies migrations and builds services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		metrics:         gs.NewMetrics(),
		ownerService:    services.NewOwnerService(db, rm, c),
		documentService: services.NewDocumentService(db, rm),
		backupService:   services.NewBackupService(c),
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.ownerService, app.documentService,
		app.backupService, app.config.SecretKey, app.metrics)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a listener fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "closing db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
