package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/ssplaza/plaza-api/internal/bootstrap"
	redisadapter "github.com/ssplaza/plaza-api/internal/adapters/redis"
	"github.com/ssplaza/plaza-api/internal/data"
	"github.com/ssplaza/plaza-api/internal/service"
)

func connectDB(cmdCtx *commandContext) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

// openProfileService connects Postgres and, when reachable, Redis so profile
// changes reach live sessions on running servers. Without Redis the change is
// still written and sessions pick it up on their next probe.
func openProfileService(cmdCtx *commandContext) (*service.ProfileService, func(), error) {
	db, err := connectDB(cmdCtx)
	if err != nil {
		return nil, nil, err
	}

	opts := service.ProfileServiceOptions{
		Repo:   data.NewProfileRepo(db),
		Logger: cmdCtx.Logger,
	}

	var client redis.UniversalClient
	client, err = bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		cmdCtx.Logger.Warn("redis unavailable; live sessions will not be notified", "error", err)
	} else {
		opts.Publisher = service.NewAuthService(service.AuthServiceOptions{
			Events: redisadapter.NewEventBus(redisadapter.EventBusOptions{
				Client:  client,
				Channel: bootstrap.EventChannel(cmdCtx.Config.Redis.KeyPrefix),
				Logger:  cmdCtx.Logger,
			}),
			Logger: cmdCtx.Logger,
		})
	}

	closeFn := func() {
		if closeErr := closeInfra(db, client); closeErr != nil {
			cmdCtx.Logger.Warn("close infrastructure failed", "error", closeErr)
		}
	}
	return service.NewProfileService(opts), closeFn, nil
}

func closeInfra(db *sql.DB, redisClient redis.UniversalClient) error {
	var closeErr error
	if db != nil {
		if err := db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

func closeLogged(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn(name+" close failed", "error", err)
	}
}
