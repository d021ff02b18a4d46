package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/ssplaza/plaza-api/config"
	redisadapter "github.com/ssplaza/plaza-api/internal/adapters/redis"
	"github.com/ssplaza/plaza-api/internal/data"
	httpx "github.com/ssplaza/plaza-api/internal/http"
	"github.com/ssplaza/plaza-api/internal/observability/metrics"
	"github.com/ssplaza/plaza-api/internal/observability/notify"
	"github.com/ssplaza/plaza-api/internal/observability/notify/slack"
	"github.com/ssplaza/plaza-api/internal/ports"
	"github.com/ssplaza/plaza-api/internal/service"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ServiceDeps contains the infrastructure the application is assembled from.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger

	// Profiles overrides the Postgres profile repository.
	Profiles ports.ProfileRepository
}

// App is the assembled service: auth backend, session manager, notification
// relay and the HTTP handler that exposes them.
type App struct {
	Auth     *service.AuthService
	Sessions *service.SessionManager
	Relay    *service.NotificationRelay
	Profiles *service.ProfileService
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Handler  http.Handler

	cfg    *config.AppConfig
	logger *slog.Logger
}

// NewApp wires every component from deps.
func NewApp(ctx context.Context, deps *ServiceDeps) (*App, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("app config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	profiles := deps.Profiles
	if profiles == nil {
		if deps.DB == nil {
			return nil, errors.New("database is required for the profile repository")
		}
		profiles = data.NewProfileRepo(deps.DB)
	}

	app := &App{cfg: cfg, logger: logger}
	if cfg.Observability.Metrics.Enabled {
		app.Registry = prometheus.NewRegistry()
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		app.Metrics = metrics.New(app.Registry)
	}

	auth, err := BuildAuthService(ctx, AuthConfig{
		Auth:        cfg.Auth,
		Sessions:    cfg.Sessions,
		KeyPrefix:   cfg.Redis.KeyPrefix,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth service: %w", err)
	}
	app.Auth = auth

	resolver := service.NewProfileResolver(service.ProfileResolverOptions{
		Profiles:      profiles,
		Policy:        cfg.Sessions.ProfileFailurePolicy,
		Notifier:      buildApprovalNotifier(logger, cfg.Observability.Notifications),
		Metrics:       app.Metrics,
		Logger:        logger,
		NotifyTimeout: cfg.Observability.Notifications.Timeout,
	})

	app.Sessions = service.NewSessionManager(service.SessionManagerOptions{
		Backend:        auth,
		Resolver:       resolver,
		Metrics:        app.Metrics,
		Logger:         logger,
		MaxSessions:    cfg.Sessions.MaxTracked,
		EntryTTL:       cfg.Sessions.EntryTTL,
		ResolveTimeout: cfg.Sessions.ResolveTimeout,
	})

	flash := redisadapter.NewFlashStoreWithPrefix(deps.RedisClient, cfg.Redis.KeyPrefix+"flash:", cfg.Sessions.FlashTTL)
	app.Relay = service.NewNotificationRelay(service.NotificationRelayOptions{
		Source:  app.Sessions,
		Flash:   flash,
		Metrics: app.Metrics,
		Logger:  logger,
	})

	app.Profiles = service.NewProfileService(service.ProfileServiceOptions{
		Repo:      profiles,
		Publisher: auth,
		Logger:    logger,
	})

	routerServices := httpx.RouterServices{
		Auth:             auth,
		Sessions:         app.Sessions,
		Refresher:        auth,
		Profiles:         app.Profiles,
		Flash:            flash,
		Metrics:          app.Metrics,
		Readiness:        readinessChecks(deps.DB, deps.RedisClient),
		CookieDomain:     cfg.HTTP.CookieDomain,
		GuardWait:        cfg.Sessions.GuardWait,
		CompressionLevel: cfg.HTTP.CompressionLevel,
		RateLimit: httpx.RateLimitConfig{
			Rate:           rate.Limit(cfg.HTTP.RateLimit.PerSecond),
			Burst:          cfg.HTTP.RateLimit.Burst,
			TrustForwarded: cfg.HTTP.RateLimit.TrustForwarded,
			MaxClients:     cfg.HTTP.RateLimit.MaxClients,
			IdleTTL:        cfg.HTTP.RateLimit.IdleTTL,
		},
		Logger: logger,
	}
	if app.Registry != nil {
		routerServices.Gatherer = app.Registry
	}
	app.Handler = httpx.NewRouter(routerServices)

	return app, nil
}

// buildApprovalNotifier returns nil when no sink is enabled.
//
//nolint:ireturn // a nil interface disables notifications in the resolver.
func buildApprovalNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) ports.ApprovalNotifier {
	if !cfg.Enabled {
		return nil
	}

	var sinks notify.Fanout
	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:     cfg.Slack.WebhookURL,
			Channel:        cfg.Slack.Channel,
			Username:       cfg.Slack.Username,
			Timeout:        cfg.Timeout,
			RetryLimit:     cfg.RetryLimit,
			AdminURLPrefix: cfg.Slack.AdminURLPrefix,
		})
		if err != nil {
			logger.Error("slack notifier disabled", "error", err)
		} else {
			sinks = append(sinks, client)
		}
	}

	if len(sinks) == 0 {
		logger.Warn("approval notifications enabled but no sinks configured")
		return nil
	}
	logger.Info("approval notifications enabled", "sinks", len(sinks))
	return sinks
}

func readinessChecks(db *sql.DB, client redis.UniversalClient) map[string]httpx.ReadinessCheck {
	checks := make(map[string]httpx.ReadinessCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}

// Run serves HTTP and runs the session manager and notification relay until
// ctx is cancelled or one of them fails. The session manager is closed on the
// way out so pending probes settle before Run returns.
func (a *App) Run(ctx context.Context) error {
	server := NewHTTPServer(a.cfg.HTTP, a.Handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.Sessions.Start(gctx); err != nil {
			return fmt.Errorf("start session manager: %w", err)
		}
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		return a.Relay.Run(gctx)
	})
	g.Go(func() error {
		a.logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(server, a.cfg.HTTP.ShutdownTimeout, a.logger)
	})

	err := g.Wait()
	a.Sessions.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunWithShutdown runs app until SIGINT or SIGTERM.
func RunWithShutdown(ctx context.Context, app *App) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.Run(sigCtx)
	app.logger.Info("services stopped")
	return err
}
