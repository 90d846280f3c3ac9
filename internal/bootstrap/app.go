package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"summit/internal/admin"
	"summit/internal/backend"
	"summit/internal/config"
	"summit/internal/content"
	"summit/internal/logging"
	"summit/internal/observability"
	"summit/internal/site"
)

// Services are the read and write sides of the site over an open backend.
type Services struct {
	Backend *Backend
	Catalog *content.Catalog
	Actions *admin.Actions
}

// Close releases the backend.
func (s *Services) Close() {
	if s != nil {
		s.Backend.Close()
	}
}

// OpenServices opens the backend and wraps it for reads and admin actions.
// A nil telemetry leaves the backend uninstrumented.
func OpenServices(ctx context.Context, cfg config.Config, telemetry *Telemetry, logger logging.Logger) (*Services, error) {
	b, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newServices(b, telemetry), nil
}

func newServices(b *Backend, telemetry *Telemetry) *Services {
	client := b.Client
	if telemetry != nil {
		client = backend.Instrument(client, telemetry.Backend, telemetry.Tracer)
	}
	return &Services{
		Backend: b,
		Catalog: content.NewCatalog(client, logging.NewComponentLogger("Catalog")),
		Actions: admin.NewActions(client, logging.NewComponentLogger("Admin")),
	}
}

// App is the assembled site.
type App struct {
	Config    config.Config
	Services  *Services
	Telemetry *Telemetry
	Server    *site.Server
	Degraded  *DegradedComponents
	logger    logging.Logger
}

// Build assembles the site from cfg.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewComponentLogger("Main")
	degraded := NewDegradedComponents()
	telemetry := InitTelemetry(cfg, degraded, logger)

	app := &App{Config: cfg, Telemetry: telemetry, Degraded: degraded, logger: logger}
	stages := []Stage{
		{
			Name: "backend", Required: true,
			Init: func() error {
				services, err := OpenServices(ctx, cfg, telemetry, logger)
				if err != nil {
					return err
				}
				app.Services = services
				return nil
			},
		},
		{
			Name: "http", Required: true,
			Init: func() error {
				server, err := newServer(cfg, app.Services, telemetry)
				if err != nil {
					return err
				}
				app.Server = server
				return nil
			},
		},
	}
	if err := RunStages(stages, degraded, logger); err != nil {
		app.Close()
		return nil, err
	}
	if !degraded.IsEmpty() {
		logger.Warn("[Bootstrap] Starting in degraded mode: %v", degraded.Names())
	}
	return app, nil
}

func newServer(cfg config.Config, services *Services, telemetry *Telemetry) (*site.Server, error) {
	if services == nil || services.Backend == nil {
		return nil, errNoBackend
	}
	deps := site.Deps{
		Catalog: services.Catalog,
		Actions: services.Actions,
		Logger:  logging.NewComponentLogger("HTTP"),
	}
	if services.Backend.Objects != nil {
		deps.Objects = services.Backend.Objects
	}
	if telemetry != nil {
		deps.HTTPMetrics = telemetry.HTTPMetrics
		deps.Tracer = telemetry.Tracer
		if telemetry.Registry != nil {
			deps.Gatherer = telemetry.Registry
		}
	}
	return site.NewServer(site.Config{
		Addr:           cfg.Server.Addr,
		PublicURL:      cfg.Server.PublicURL,
		Debug:          cfg.Server.Debug,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		SiteName:       cfg.Site.Name,
		AdminToken:     cfg.Admin.Token,
		StorageBaseURL: cfg.StorageBaseURL(),
		Placeholder:    cfg.Site.Placeholder,
	}, deps)
}

// Close releases everything Build opened.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.Services.Close()
	a.Telemetry.Shutdown(a.logger)
}

// Run serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests for up to ten seconds.
func (a *App) Run(ctx context.Context) error {
	logger := a.logger
	logger.Info("Admin surfaces %s", enabledText(a.Config.AdminEnabled()))
	logger.Info("Backend driver=%s key=%s", a.Config.Backend.Driver, observability.SanitizeAPIKey(a.Config.Backend.APIKey))

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("goroutine panic [server.listen]: %v, stack: %s", r, debug.Stack())
				errCh <- fmt.Errorf("server panic: %v", r)
			}
		}()
		errCh <- a.Server.Start()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr := a.Server.Shutdown(shutdownCtx)
		serveErr := <-errCh
		if shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
		if serveErr != nil {
			return fmt.Errorf("server error: %w", serveErr)
		}
		logger.Info("Server stopped")
		return nil
	}
}

// RunServer builds the site from cfg and serves it until a shutdown signal.
func RunServer(ctx context.Context, cfg config.Config) error {
	app, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(ctx)
}

func enabledText(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled (no admin token)"
}
