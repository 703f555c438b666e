package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/siamkarim/2mro-admin/config"
	"github.com/siamkarim/2mro-admin/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.SetLogLevel(cfg.LogLevel)

	logStartupInfo(ctx, logger, &cfg)

	redisClient, err := initRedis(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	console, err := bootstrap.BuildConsole(bootstrap.ConsoleDeps{
		Config: &cfg,
		Redis:  redisClient,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.Serve(ctx, bootstrap.ServeConfig{
		HTTP:    cfg.HTTP,
		Handler: console.Handler,
		Logger:  logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting admin console",
		"addr", cfg.HTTP.Addr,
		"api_base_url", cfg.API.BaseURL,
		"identity_strategy", cfg.Auth.IdentityStrategy,
		"redis_enabled", cfg.Redis.Enabled,
		"metrics_enabled", cfg.Observability.Metrics.IsEnabled(),
		"dev", cfg.IsDev)
}

// initRedis connects the shared identity cache when it is enabled.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initRedis(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	if !cfg.Redis.Enabled {
		return nil, nil //nolint:nilnil // redis is optional
	}
	client, err := bootstrap.ConnectRedis(ctx, bootstrap.RedisConnectConfig{Redis: cfg.Redis, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
