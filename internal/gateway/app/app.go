package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ethnicdev/gatehouse/internal/gateway/filter"
	"github.com/ethnicdev/gatehouse/internal/gateway/proxy"
	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
	"github.com/ethnicdev/gatehouse/pkg/resilience"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

const BuildVersion = "v0.1.0"

// Application is the edge gateway: authentication filter in front of a
// prefix-routed reverse proxy.
type Application struct {
	cfg       Config
	logger    *slog.Logger
	startTime time.Time

	registry *prometheus.Registry
	identity *identitysdk.Client
	breaker  *resilience.Breaker
	auth     *filter.Authentication
	proxy    *proxy.Proxy

	handler http.Handler
	server  *http.Server
}

func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:       cfg,
		startTime: time.Now(),
		logger: slogx.New(slogx.Config{
			Service: "gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	p, err := proxy.New(cfg.APIPrefix, cfg.Routes, nil)
	if err != nil {
		return nil, err
	}
	app.proxy = p

	app.identity = identitysdk.NewClient(cfg.Identity.URL,
		identitysdk.WithTimeout(cfg.Identity.IntrospectTimeout),
		identitysdk.WithHeader("User-Agent", "gatehouse-gateway/"+BuildVersion),
	)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	breakerState := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gatehouse",
		Subsystem: "gateway",
		Name:      "identity_breaker_state",
		Help:      "Identity circuit breaker state (0=closed, 1=open, 2=half-open).",
	})
	app.registry.MustRegister(breakerState)

	app.breaker = resilience.NewBreaker(resilience.BreakerConfig{
		MaxFailures:  cfg.Identity.BreakerMaxFailures,
		ResetTimeout: cfg.Identity.BreakerResetTimeout,
		OnStateChange: func(from, to resilience.State) {
			breakerState.Set(float64(to))
			app.logger.Warn("identity circuit breaker changed state",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	app.auth = filter.NewAuthentication(app.identity, filter.Options{
		PublicEndpoints: cfg.PublicEndpoints,
		Timeout:         cfg.Identity.IntrospectTimeout,
		Breaker:         app.breaker,
		Metrics:         filter.NewMetrics(app.registry),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", app.handleLivez)
	mux.HandleFunc("GET /readyz", app.handleReadyz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	mux.Handle("/", httpx.Chain(app.proxy, app.auth.Middleware))

	app.handler = slogx.HTTPMiddleware(app.logger)(mux)
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.handler,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return app, nil
}

// Handler exposes the full middleware stack, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.handler }

// Run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests for up to the shutdown grace period.
func (app *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("gateway starting",
			"port", app.cfg.Port,
			"identity", app.cfg.Identity.URL,
			"routes", len(app.cfg.Routes),
		)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		app.logger.Info("shutting down gateway...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
		defer cancel()

		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("graceful server shutdown failed", "error", err)
			_ = app.server.Close()
			return err
		}
		app.logger.Info("gateway stopped")
		return nil
	})

	return g.Wait()
}

func (app *Application) handleLivez(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, identitysdk.HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(app.startTime).String(),
		Version: BuildVersion,
	})
}

// handleReadyz reports degraded while the identity service is unreachable,
// since every authenticated request would be refused.
func (app *Application) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), app.cfg.Identity.IntrospectTimeout)
	defer cancel()

	checks := &identitysdk.HealthChecks{Identity: "ok"}
	status, code := "ok", http.StatusOK

	if _, err := app.identity.Liveness(ctx); err != nil {
		checks.Identity = "error: " + err.Error()
		status, code = "degraded", http.StatusServiceUnavailable
	} else if app.breaker.State() == resilience.StateOpen {
		checks.Identity = "circuit open"
		status, code = "degraded", http.StatusServiceUnavailable
	}

	httpx.WriteJSON(w, code, identitysdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(app.startTime).String(),
		Version: BuildVersion,
		Checks:  checks,
	})
}
