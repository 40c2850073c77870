package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"infrapulse/internal/config"
	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/infrastructure"
	customMiddleware "infrapulse/internal/middleware"
	"infrapulse/internal/operations"
	"infrapulse/internal/series"
	"infrapulse/internal/services"
	"infrapulse/internal/snapshot"
	"infrapulse/internal/sources"
	transport "infrapulse/internal/transport/http"
	ws "infrapulse/internal/websocket"
)

// Options override collaborators New would otherwise build from config
type Options struct {
	// HTTPClient is shared by region providers and series clients
	HTTPClient *http.Client
	// Collector replaces the FRED/EIA/Census collector
	Collector operations.SeriesCollector
	Now       func() time.Time
}

// Application represents the main application container
type Application struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	OTel    *infrastructure.OTelProviders
	Metrics *infrastructure.PipelineMetrics

	Hub     *ws.Hub
	Engine  *operations.Engine
	Store   snapshot.Store
	Reports *services.ReportService
	Health  *services.HealthService

	Router *chi.Mux
	Server *http.Server
}

// New builds the application. On error everything acquired so far is
// released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (_ *Application, err error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	logger = infrastructure.WithComponent(logger, "app")

	a := &Application{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if a.Paths, err = cfg.Paths.Resolve(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err = a.Paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	a.Paths.LogPathResolution(logger)

	if a.OTel, err = infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	if a.Metrics, err = infrastructure.NewPipelineMetrics(a.OTel.Meter); err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	monitor, err := infrastructure.NewRuntimeMonitor(a.OTel.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime monitor: %w", err)
	}

	regions, err := sources.NewCatalog(cfg.Sources, opts.HTTPClient).Regions(cfg.Regions)
	if err != nil {
		return nil, fmt.Errorf("failed to build region providers: %w", err)
	}
	collector := opts.Collector
	if collector == nil {
		collector = series.NewCollector(cfg.Series, cfg.Regions, opts.HTTPClient, logger)
	}

	if a.Store, err = snapshot.Open(ctx, a.Paths); err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	a.Hub = ws.NewHub(logger, a.Metrics)
	a.Hub.Start()

	if a.Engine, err = operations.NewEngine(cfg, operations.Deps{
		Regions:   regions,
		Collector: collector,
		Metrics:   a.Metrics,
		Hub:       a.Hub,
		Logger:    logger,
		Now:       opts.Now,
	}); err != nil {
		return nil, err
	}

	a.Reports = services.NewReportService(a.Engine, a.Store, snapshot.NewRunLock(a.Paths.LockFile), a.Paths, cfg.Regions, logger)
	a.Health = services.NewHealthService(a.Reports, monitor, a.Hub, config.ReportStaleAfter, logger)

	a.setupRouter()
	a.createServer()
	return a, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger)

	// these do not wrap the ResponseWriter, so the upgrade on /ws still works
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.HandleFunc("/ws", ws.Handler(a.Hub, a.Logger))

	if a.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTel.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Telemetry(a.OTel.Tracer, a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.corsConfig()))
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			health := transport.NewHealthHandler(a.Health)
			r.Get("/health", health.HealthCheck)
			r.Get("/version", health.Version)

			reports := transport.NewReportHandler(a.Reports, errorHandler, a.Logger)
			r.Route("/v1", func(r chi.Router) {
				r.Mount("/report", reports.Routes())
				r.Get("/history", reports.History)
				r.Mount("/runs", transport.NewRunsHandler(a.Reports, errorHandler, a.Logger).Routes())
				r.Mount("/regions", transport.NewRegionsHandler(a.Reports, errorHandler).Routes())
			})
		})
	})

	a.Router = r
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Serve listens until ctx is cancelled or the listener fails, then shuts
// the server down gracefully
func (a *Application) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("version", config.AppVersion))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Close waits for background runs and releases the hub, the store and the
// telemetry providers. It is safe on a partially built Application.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Reports != nil {
		if err := a.Reports.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close snapshot store: %w", err))
		}
	}
	if a.OTel != nil {
		if err := a.OTel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
