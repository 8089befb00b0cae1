package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/konbase/konbase/internal/domain"
	httpapi "github.com/konbase/konbase/internal/http"
	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/internal/store/drivers/postgres"
	"github.com/konbase/konbase/internal/store/drivers/sqlite"
	"github.com/konbase/konbase/pkg/jwtx"
	"github.com/konbase/konbase/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the KonBase service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	signer jwtx.Signer

	// Services
	userService         *service.UserService
	sessionService      *service.SessionService
	mfaService          *service.MFAService
	reauthService       *service.ReauthService
	elevationService    *service.ElevationService
	associationService  *service.AssociationService
	auditService        *service.AuditService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "konbase",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initSigner(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("konbase starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"db_driver", app.cfg.DBDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down konbase...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("konbase stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := app.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	report, err := db.ApplyMigrations(ctx)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logMigrations(report)

	return nil
}

func (app *Application) openStore(ctx context.Context) (store.Store, error) {
	switch app.cfg.DBDriver {
	case "postgres":
		if app.cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		return postgres.NewStore(ctx, app.cfg.DatabaseURL)
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.SQLiteFile)
		return sqlite.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", app.cfg.DBDriver)
	}
}

func (app *Application) logMigrations(report domain.MigrationReport) {
	for _, name := range report.Applied {
		app.logger.Info("migration applied", "file", name)
	}
	app.logger.Info("database migrations complete",
		"applied", len(report.Applied),
		"skipped", len(report.Skipped),
	)
}

// initSigner loads the session signing key, or generates an ephemeral one
// when no key file is configured. Ephemeral keys invalidate all sessions on
// restart, which is fine for dev and tests.
func (app *Application) initSigner() error {
	if app.cfg.SigningKeyFile != "" {
		signer, err := jwtx.LoadOrGenerateSigner(app.cfg.SigningKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load signing key: %w", err)
		}
		app.signer = signer
		return nil
	}

	signer, err := jwtx.NewEphemeralSigner()
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}
	app.signer = signer
	app.logger.Warn("using ephemeral signing key; sessions will not survive a restart")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.userService = &service.UserService{
		Store:  app.db,
		Logger: app.logger,
	}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}
	app.sessionService = &service.SessionService{
		Store:  app.db,
		MFA:    app.mfaService,
		Signer: app.signer,
		Issuer: app.cfg.Issuer,
		TTL:    app.cfg.SessionTTL,
	}
	app.auditService = &service.AuditService{Store: app.db}
	app.elevationService = &service.ElevationService{
		Store:  app.db,
		Audit:  app.auditService,
		Logger: app.logger,
		Secret: app.cfg.ElevationSecret,
	}
	app.associationService = &service.AssociationService{Store: app.db}

	app.reauthService = service.NewReauthService(
		app.db,
		app.mfaService,
		app.logger,
		app.cfg.ReauthWindow,
	)
	app.registerReauthExecutors()

	app.housekeepingService = service.NewHousekeepingService(
		app.reauthService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	if app.cfg.ElevationSecret == "" {
		app.logger.Warn("elevation secret not configured; role elevation is disabled")
	}
}

// registerReauthExecutors binds the sensitive actions that sit behind the
// step-up gate to the service calls that carry them out.
func (app *Application) registerReauthExecutors() {
	app.reauthService.RegisterExecutor("demote_self",
		func(ctx context.Context, userID string, _ domain.PendingIntent) error {
			_, err := app.elevationService.Demote(ctx, userID)
			return err
		})

	app.reauthService.RegisterExecutor("disable_two_factor",
		func(ctx context.Context, userID string, _ domain.PendingIntent) error {
			return app.mfaService.Disable(ctx, userID)
		})

	app.reauthService.RegisterExecutor("remove_member",
		func(ctx context.Context, _ string, intent domain.PendingIntent) error {
			return app.associationService.RemoveMember(ctx,
				intent.Params["association_id"], intent.Params["user_id"])
		})
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		jwtx.NewVerifier(app.signer, app.cfg.Issuer),
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.UserService = app.userService
	router.SessionService = app.sessionService
	router.MFAService = app.mfaService
	router.ReauthService = app.reauthService
	router.ElevationService = app.elevationService
	router.AssociationService = app.associationService
	router.AuditService = app.auditService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
