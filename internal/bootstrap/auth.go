package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/ssplaza/plaza-api/config"
	"github.com/ssplaza/plaza-api/internal/adapters/devauth"
	"github.com/ssplaza/plaza-api/internal/adapters/memory"
	"github.com/ssplaza/plaza-api/internal/adapters/oidc"
	redisadapter "github.com/ssplaza/plaza-api/internal/adapters/redis"
	"github.com/ssplaza/plaza-api/internal/ports"
	"github.com/ssplaza/plaza-api/internal/service"
)

// AuthConfig contains configuration for the auth backend.
type AuthConfig struct {
	Auth        config.AuthConfig
	Sessions    config.SessionsConfig
	KeyPrefix   string
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// ErrRedisRequired is returned when the auth backend is built without Redis.
var ErrRedisRequired = errors.New("auth backend requires a redis client")

// BuildAuthService creates the auth backend for the configured mode. Sessions
// always live in Redis; events go over Redis pub/sub in oauth mode and stay in
// process in mock mode.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, ErrRedisRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := BuildAuthProvider(ctx, cfg.Auth)
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:      provider,
		Sessions:      redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.KeyPrefix+"session:"),
		Events:        buildEventBus(cfg, logger),
		Logger:        logger,
		SessionTTL:    cfg.Sessions.TTL,
		RefreshWindow: cfg.Sessions.RefreshWindow,
	}), nil
}

// BuildAuthProvider returns the identity provider for the configured mode.
//
//nolint:ireturn // the provider is selected at runtime.
func BuildAuthProvider(ctx context.Context, cfg config.AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:    cfg.DevAuth.UserID,
			Email:     cfg.DevAuth.Email,
			FirstName: cfg.DevAuth.FirstName,
			LastName:  cfg.DevAuth.LastName,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth, "":
		oauth := cfg.OAuth
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			Claims: oidc.ClaimPaths{
				UserID:    oauth.Claims.UserID,
				Email:     oauth.Claims.Email,
				FirstName: oauth.Claims.FirstName,
				LastName:  oauth.Claims.LastName,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

//nolint:ireturn // the bus is selected by auth mode.
func buildEventBus(cfg AuthConfig, logger *slog.Logger) ports.AuthEventBus {
	if cfg.Auth.Mode == config.AuthModeMock {
		logger.Info("auth events stay in process", "mode", cfg.Auth.Mode)
		return memory.NewEventBus(0).WithLogger(logger)
	}
	return redisadapter.NewEventBus(redisadapter.EventBusOptions{
		Client:  cfg.RedisClient,
		Channel: EventChannel(cfg.KeyPrefix),
		Logger:  logger,
	})
}

// EventChannel is the Redis pub/sub channel auth events travel on.
func EventChannel(keyPrefix string) string {
	return keyPrefix + "auth-events"
}
