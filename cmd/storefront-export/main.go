// Command storefront-export writes the store's visible products and content
// pages, with their custom fields and template files, to a single CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/storefront-export/internal/config"
	"github.com/Sternrassler/storefront-export/pkg/client"
	"github.com/Sternrassler/storefront-export/pkg/exporter"
	"github.com/Sternrassler/storefront-export/pkg/logging"
	"github.com/Sternrassler/storefront-export/pkg/metrics"
	"github.com/Sternrassler/storefront-export/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.Config{Level: logging.LevelInfo, Pretty: true, Output: os.Stderr})
		log.Error().Err(err).Msg("Invalid configuration")
		return exitConfig
	}
	logging.Setup(cfg.Logging())

	return runExport(ctx, cfg)
}

func runExport(ctx context.Context, cfg config.Config) int {
	logger := logging.NewLogger(logging.ComponentCLI)

	clientCfg := cfg.Client()
	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Redis")
			return exitConfig
		}
		defer redisClient.Close()

		clientCfg.QuotaStore = ratelimit.NewRedisStore(redisClient, quotaKey(cfg))
		logger.Info().Msg("Sharing quota state through Redis")
	}

	storeClient, err := client.New(clientCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create store client")
		return exitConfig
	}
	defer storeClient.Close()

	dir, err := cfg.OutputDir()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve output directory")
		return exitConfig
	}

	exp, err := exporter.New(storeClient, cfg.Exporter(dir), logging.NewLogger(logging.ComponentExporter))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create exporter")
		return exitConfig
	}

	_, runErr := exp.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, nil); err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics file")
		} else {
			logger.Debug().Str("path", cfg.MetricsFile).Msg("Metrics written")
		}
	}

	if runErr != nil {
		return exitFailed
	}
	return exitOK
}

func connectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return redisClient, nil
}

// quotaKey identifies the store whose quota is shared.
func quotaKey(cfg config.Config) string {
	if cfg.StoreHash != "" {
		return cfg.StoreHash
	}
	return cfg.BaseURL()
}
