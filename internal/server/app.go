// Package server initializes and runs the famhub application server: it
// opens the database, runs migrations, wires the sync engine, anti-forgery
// service, event adapters and document storage, and serves the HTTP API
// until interrupted.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/famhub/famhub/internal/logging"
	"github.com/famhub/famhub/internal/server/adapters"
	"github.com/famhub/famhub/internal/server/config"
	"github.com/famhub/famhub/internal/server/csrf"
	"github.com/famhub/famhub/internal/server/httpapi"
	"github.com/famhub/famhub/internal/server/repositories/repomanager"
	"github.com/famhub/famhub/internal/server/services"
	"github.com/famhub/famhub/internal/server/sync"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	router http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	gin.SetMode(gin.ReleaseMode)
	logger := logging.NewDefault()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	syncService := sync.NewService(db, rm, logger)
	csrfService := csrf.NewService(rm.CSRFTokens(db), csrf.NewMemoryStore(), logger, cfg.CSRFTokenTTL)
	registry := adapters.NewRegistry(syncService)
	documentService := services.NewDocumentService(cfg)

	router := httpapi.NewRouter(httpapi.Deps{
		Config:    cfg,
		Logger:    logger,
		CSRF:      csrfService,
		Sync:      syncService,
		Adapters:  registry,
		Documents: documentService,
	})

	return &App{config: cfg, logger: logger, db: db, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the HTTP API until the context is cancelled or an OS signal
// arrives, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.router,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddrHTTP)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "http shutdown error", "error", err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}

	return nil
}
