package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpapi "github.com/ethnicdev/gatehouse/internal/identity/http"
	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/internal/identity/store"
	"github.com/ethnicdev/gatehouse/internal/identity/store/drivers/sqlite"
	"github.com/ethnicdev/gatehouse/pkg/cryptox"
	"github.com/ethnicdev/gatehouse/pkg/jwtx"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the identity service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	codec  *jwtx.Codec
	hasher *cryptox.PasswordHasher

	authority           *service.TokenAuthority
	userService         *service.UserService
	rolesService        *service.RolesService
	permissionsService  *service.PermissionsService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg, opens and migrates the database, seeds the built in
// roles and admin, and builds the HTTP server.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	codec, err := jwtx.NewCodec([]byte(cfg.SignerKey), cfg.Issuer, cfg.ValidDuration)
	if err != nil {
		return nil, err
	}
	app.codec = codec

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewPasswordHasher(pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := app.bootstrapService.Seed(ctx); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to seed roles and admin: %w", err)
	}

	app.initHTTP()
	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves until ctx is cancelled or the listener fails. Cancellation
// triggers a graceful Shutdown.
func (app *Application) Run(ctx context.Context) error {
	app.housekeepingService.Start()

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown requested", "cause", context.Cause(ctx))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

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

	app.logger.Info("identity service stopped")
	return nil
}

// Close releases the database without touching the server; for callers
// that never invoked Run.
func (app *Application) Close() error { return app.db.Close() }

func (app *Application) initDatabase() error {
	dsn := app.cfg.DatabaseFile
	if dsn != MemoryDatabase {
		dsn = sqlite.FileDSN(dsn)
	}

	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.authority = &service.TokenAuthority{
		Store:               app.db,
		Codec:               app.codec,
		Hasher:              app.hasher,
		RefreshableDuration: app.cfg.RefreshableDuration,
	}

	app.userService = &service.UserService{Store: app.db, Hasher: app.hasher}
	app.rolesService = &service.RolesService{Store: app.db}
	app.permissionsService = &service.PermissionsService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{
		Store:         app.db,
		Hasher:        app.hasher,
		AdminPassword: app.cfg.AdminPassword,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.RefreshableDuration,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.Authority = app.authority
	router.UserService = app.userService
	router.RolesService = app.rolesService
	router.PermissionsService = app.permissionsService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
