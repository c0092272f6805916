// Package server wires the medauth service together: configuration, the
// profile store, the identity provider client, the HTTP surface and the gRPC
// health endpoint, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/medauth/internal/logging"
	"github.com/dmitrijs2005/medauth/internal/server/config"
	"github.com/dmitrijs2005/medauth/internal/server/httpapi"
	"github.com/dmitrijs2005/medauth/internal/server/onboarding"
	"github.com/dmitrijs2005/medauth/internal/server/provider"
	"github.com/dmitrijs2005/medauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/medauth/internal/server/services"
	"github.com/dmitrijs2005/medauth/internal/telemetry"

	gs "github.com/dmitrijs2005/medauth/internal/server/grpc"
)

const serviceName = "medauth"

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	httpServer      *http.Server
	healthServer    *gs.HealthServer
	shutdownTracing func(context.Context) error
}

// NewLogger builds the JSON stdout logger at the configured level. Unknown
// levels fall back to info.
func NewLogger(level string) logging.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return logging.NewJSONLogger(os.Stdout, l)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := NewLogger(c.LogLevel)

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, c.OTELEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	idp, err := provider.NewClient(c.ProviderURL, c.ProviderAPIKey, c.ProviderTimeout, nil, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	resolver := services.NewCallbackResolver(db, rm, idp, logger,
		services.WithPollBudget(c.ProfilePollAttempts, c.ProfilePollDelay),
		services.WithNewSignupFunc(onboarding.WindowHeuristic(c.NewSignupWindow)),
	)
	signup := services.NewSignupService(db, rm, idp, logger)
	profile := services.NewProfileService(db, rm, idp, c.NewSignupWindow, logger)
	store := rm.Profiles(db)

	api := httpapi.NewServer(httpapi.Config{
		SiteURL:            c.SiteURL,
		CodeVerifierCookie: c.CodeVerifierCookie,
		SecureCookies:      c.SecureCookies,
		AuthorizeURL:       strings.TrimRight(c.ProviderURL, "/") + "/authorize",
	}, resolver, signup, profile, store, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		httpServer: &http.Server{
			Addr:              c.HTTPAddr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		healthServer:    gs.NewHealthServer(c.GRPCHealthAddr, store, logger),
		shutdownTracing: shutdownTracing,
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.healthServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a shutdown signal arrives, ctx is cancelled or one of the
// servers fails, then releases the database and flushes traces.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHealthServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.shutdownTracing(flushCtx); err != nil {
		app.logger.Error(ctx, "tracing shutdown error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
