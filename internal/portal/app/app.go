package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/cooldown"
	httpapi "github.com/aussiebroadwan/portal/internal/portal/http"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	gotruedriver "github.com/aussiebroadwan/portal/internal/portal/identity/drivers/gotrue"
	"github.com/aussiebroadwan/portal/internal/portal/identity/drivers/memory"
	"github.com/aussiebroadwan/portal/internal/portal/notify"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/postgres"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/postgrest"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/gotrue"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/retryx"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the portal with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Backends
	identity identity.Provider
	db       store.Store
	cooldown cooldown.Tracker
	notifier notify.Notifier
	mailer   *notify.Mailer
	sweepers map[string]service.Sweeper
	closers  []io.Closer

	// Services
	registrationService *service.RegistrationService
	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New validates cfg and builds every backend it selects. Backends opened
// before a failure are closed again.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		sweepers: map[string]service.Sweeper{},
	}

	ctx := context.Background()
	steps := []func(context.Context) error{
		app.initIdentity,
		app.initDatabase,
		app.initCooldown,
		app.initDelivery,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = app.closeAll()
			return nil, err
		}
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("portal starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"identity_driver", app.cfg.IdentityDriver,
		"profile_driver", app.cfg.ProfileDriver,
		"delivery_target", string(app.cfg.DeliveryTarget),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.closeAll()
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

// Shutdown drains in-flight requests, stops housekeeping and closes every
// backend connection.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeAll(); err != nil {
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

// closeAll closes backends in reverse order of opening and returns the
// joined errors.
func (app *Application) closeAll() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error("error closing backend", "error", err)
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *Application) initIdentity(_ context.Context) error {
	switch app.cfg.IdentityDriver {
	case IdentityMemory:
		if app.cfg.PasswordPepper != "" {
			cryptox.SetPepper(app.cfg.PasswordPepper)
		}
		mem, err := memory.New(memory.Config{
			Secret:      app.cfg.MockJWTSecret,
			AutoConfirm: app.cfg.MockAutoConfirm,
			Logger:      app.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize memory identity: %w", err)
		}
		app.identity = mem
		app.sweepers["identity"] = mem
		app.logger.Warn("using in-memory identity backend, accounts are lost on restart")

	default:
		client := gotrue.NewClient(app.cfg.SupabaseURL, app.cfg.SupabaseAnonKey)
		if app.cfg.SupabaseServiceRoleKey != "" {
			client = client.WithServiceKey(app.cfg.SupabaseServiceRoleKey)
		}
		app.identity = gotruedriver.New(client)
	}
	return nil
}

// initDatabase opens the profile store and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.ProfileDriver {
	case ProfileSQLite:
		db, err = sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", app.cfg.DatabaseFile))
	case ProfilePostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		// The service role key bypasses row level security when present;
		// otherwise the signed-in user's token is attached per request.
		key := app.cfg.SupabaseServiceRoleKey
		if key == "" {
			key = app.cfg.SupabaseAnonKey
		}
		db, err = postgrest.NewStore(postgrest.Config{BaseURL: app.cfg.SupabaseURL, APIKey: key})
	}
	if err != nil {
		return fmt.Errorf("failed to initialize profile store: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db)

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("profile store ready", "driver", app.cfg.ProfileDriver)
	return nil
}

func (app *Application) initCooldown(ctx context.Context) error {
	switch app.cfg.CooldownDriver {
	case CooldownRedis:
		r, err := cooldown.NewRedis(ctx, cooldown.RedisConfig{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
			Prefix:   "portal:cooldown:",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize cooldown store: %w", err)
		}
		app.cooldown = r
	default:
		m := cooldown.NewMemory()
		app.cooldown = m
		app.sweepers["cooldown"] = m
	}
	app.closers = append(app.closers, app.cooldown)
	return nil
}

// initDelivery builds the welcome mailer, which is always available to the
// welcome endpoint, and the notifier for DELIVERY_TARGET.
func (app *Application) initDelivery(_ context.Context) error {
	app.mailer = notify.NewMailer(notify.MailerConfig{
		APIKey:  app.cfg.ResendAPIKey,
		From:    app.cfg.EmailFrom,
		Brand:   app.cfg.Brand,
		SiteURL: app.cfg.SiteURL,
	})

	switch app.cfg.DeliveryTarget {
	case notify.TargetEmail:
		app.notifier = app.mailer
	case notify.TargetWebhook:
		wh, err := notify.NewWebhook(app.cfg.WebhookURL, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize webhook: %w", err)
		}
		app.notifier = wh
	case notify.TargetQueue:
		q, err := notify.DialQueue(app.cfg.AMQPURL, app.cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		app.notifier = q
		app.closers = append(app.closers, q)
	}
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	retry := retryx.DefaultConfig
	retry.MaxRetries = app.cfg.DeliveryMaxRetries

	app.registrationService = &service.RegistrationService{
		Identity:              app.identity,
		Profiles:              app.db.Profiles(),
		Cooldown:              app.cooldown,
		Delivery:              notify.NewDispatcher(app.cfg.DeliveryTarget, app.notifier, retry),
		SiteURL:               app.cfg.SiteURL,
		SkipEmailConfirmation: app.cfg.SkipEmailConfirmation,
		CooldownWindow:        app.cfg.RegistrationCooldown,
	}

	app.sessionService = &service.SessionService{
		Identity:     app.identity,
		Profiles:     app.db.Profiles(),
		Mailer:       app.mailer,
		TokenContext: app.tokenContext(),
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.sweepers,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// tokenContext returns how profile reads and writes run as the signed-in
// user. Only PostgREST without the service role key needs it.
func (app *Application) tokenContext() func(context.Context, string) context.Context {
	if app.cfg.ProfileDriver == ProfilePostgREST && app.cfg.SupabaseServiceRoleKey == "" {
		return postgrest.WithAccessToken
	}
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.identity, app.logger)

	router.RegistrationService = app.registrationService
	router.SessionService = app.sessionService
	router.Cookies = httpx.CookieOptions{Secure: app.cfg.SecureCookies}
	router.Brand = app.cfg.Brand
	router.TokenContext = app.tokenContext()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
