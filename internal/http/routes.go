package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/observability/metrics"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth      LoginService
	Sessions  SessionController
	Refresher SessionRefresher // Optional: sliding expiry on guarded routes
	Profiles  ProfileAdmin     // Optional: admin routes are skipped when nil
	Flash     ports.FlashStore // Optional

	Metrics   *metrics.Metrics          // Optional
	Gatherer  prometheus.Gatherer       // Optional: serves /metrics when set
	Readiness map[string]ReadinessCheck // Optional: /readyz checks

	CookieDomain     string
	GuardWait        time.Duration
	CompressionLevel int
	RateLimit        RateLimitConfig
	Logger           *slog.Logger
}

// NewRouter creates the HTTP handler with the full middleware chain.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	mux.Handle("GET /readyz", readinessHandler(services.Readiness, logger))
	if services.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(services.Gatherer))
	}

	guard := GuardOptions{Wait: services.GuardWait}
	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		Sessions:     services.Sessions,
		Flash:        services.Flash,
		CookieDomain: services.CookieDomain,
		StatusWait:   services.GuardWait,
		Logger:       logger,
	}
	registerAuthRoutes(mux, authHandlers, services)

	apiHandlers := &APIHandlers{Flash: services.Flash, CookieDomain: services.CookieDomain, Logger: logger}
	optional := OptionalSession(services.Sessions, guard)
	mux.Handle("GET /api/me", optional(http.HandlerFunc(apiHandlers.Me)))
	mux.Handle("GET /api/navigation", optional(http.HandlerFunc(apiHandlers.Navigation)))
	mux.Handle("GET /api/notifications", optional(http.HandlerFunc(apiHandlers.Notifications)))

	refresh := RefreshSession(services.Refresher, services.CookieDomain, logger)
	required := func(next http.Handler) http.Handler {
		return RequireSession(services.Sessions, guard)(refresh(next))
	}
	mux.Handle("GET /app/", required(http.HandlerFunc(apiHandlers.App)))
	mux.Handle("GET /{$}", http.RedirectHandler(defaultLandingPath, http.StatusFound))

	if services.Profiles != nil {
		registerProfileRoutes(mux, &ProfileHandlers{Svc: services.Profiles}, required)
	}

	return Chain(mux,
		Recover(logger),
		Logging(logger),
		Compression(CompressionConfig{Level: services.CompressionLevel, Logger: logger}),
		CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain}),
		Instrument(services.Metrics),
	)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, services RouterServices) {
	rlCfg := services.RateLimit
	if rlCfg.Metrics == nil {
		rlCfg.Metrics = services.Metrics
	}
	limit := NewRateLimiter(rlCfg).Middleware

	mux.Handle("GET /auth/login", limit(http.HandlerFunc(h.Login)))
	mux.Handle("GET /auth/callback", limit(http.HandlerFunc(h.Callback)))
	mux.Handle("POST /auth/logout", limit(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /auth/status", http.HandlerFunc(h.Status))
	mux.Handle("GET /auth/signed-out", http.HandlerFunc(h.SignedOut))
}

func registerProfileRoutes(mux *http.ServeMux, h *ProfileHandlers, required func(http.Handler) http.Handler) {
	admin := func(fn http.HandlerFunc) http.Handler {
		return Chain(fn, required, RequireApproved(), RequirePermission(domainauth.CanManageUsers))
	}
	mux.Handle("GET /api/admin/profiles", admin(h.List))
	mux.Handle("GET /api/admin/profiles/{userID}", admin(h.Get))
	mux.Handle("POST /api/admin/profiles/{userID}/approve", admin(h.Approve))
	mux.Handle("POST /api/admin/profiles/{userID}/reject", admin(h.Reject))
	mux.Handle("PUT /api/admin/profiles/{userID}/role", admin(h.ChangeRole))
}
