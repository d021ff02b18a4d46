package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ssplaza/plaza-api/internal/observability/metrics"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	// Rate is the number of requests allowed per second.
	Rate rate.Limit
	// Burst is the maximum burst size.
	Burst int
	// TrustForwarded keys clients by the first X-Forwarded-For hop. Enable
	// only behind a proxy that overwrites the header.
	TrustForwarded bool
	// MaxClients bounds the number of tracked clients.
	MaxClients int
	// IdleTTL evicts a client's limiter after this long without requests.
	IdleTTL time.Duration
	Metrics *metrics.Metrics // Optional
	Route   string           // label for the rate-limited metric
}

// RateLimiter provides per-IP token buckets. Limiters live in an expiring LRU,
// so idle clients are forgotten without a sweeper goroutine.
type RateLimiter struct {
	cfg      RateLimitConfig
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter creates a new per-IP rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}
	if cfg.Route == "" {
		cfg.Route = "auth"
	}
	return &RateLimiter{
		cfg:      cfg,
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxClients, nil, cfg.IdleTTL),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)
	rl.limiters.Add(key, l)
	return l
}

// Middleware enforces the limit, answering 429 with Retry-After.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter(rl.clientKey(r)).Allow() {
			rl.cfg.Metrics.RecordRateLimited(rl.cfg.Route)
			retryAfter := max(int(1.0/float64(rl.cfg.Rate)), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":   "rate_limited",
				"message": "Too many requests. Please try again shortly.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) clientKey(r *http.Request) string {
	if rl.cfg.TrustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
