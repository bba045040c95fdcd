package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/curvebot/internal/blob/s3"
	"github.com/alanyoungcy/curvebot/internal/cache"
	"github.com/alanyoungcy/curvebot/internal/cache/redis"
	"github.com/alanyoungcy/curvebot/internal/config"
	"github.com/alanyoungcy/curvebot/internal/domain"
	"github.com/alanyoungcy/curvebot/internal/notify"
	"github.com/alanyoungcy/curvebot/internal/platform/pumpfun"
	"github.com/alanyoungcy/curvebot/internal/store/postgres"
)

// maxQuoteStaleness bounds how old a cached quote may be when the venue is
// unreachable during a monitoring tick.
const maxQuoteStaleness = 2 * time.Minute

// Dependencies bundles every collaborator the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Venue access. Prices may be decorated with the Redis cache.
	Venue     *pumpfun.Client
	Prices    domain.PriceSource
	Liquidity domain.LiquiditySource

	// Optional Redis-backed components; nil when Redis is not configured.
	PriceCache  domain.PriceCache
	RateLimiter domain.RateLimiter

	// Optional persistence; nil when Postgres is not configured.
	Journal domain.ClosedTradeStore
	Audit   domain.AuditStore

	// Optional archival; nil when S3 is not configured.
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver

	Notifier *notify.Notifier
}

// Wire constructs the concrete dependency implementations from the given
// configuration. Postgres, Redis, and S3 are each optional; the modes
// degrade gracefully when a backend is absent.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Venue client ---
	deps.Venue = pumpfun.NewClient(cfg.Venue.APIHost, cfg.Venue.APIKey, logger)
	deps.Prices = deps.Venue
	deps.Liquidity = deps.Venue

	// --- PostgreSQL journal ---
	if cfg.Postgres.Enabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Journal = postgres.NewClosedTradeStore(pool)
		deps.Audit = postgres.NewAuditStore(pool)
	}

	// --- Redis price cache and rate limiter ---
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.Prices = cache.NewCachedPriceSource(deps.Venue, deps.PriceCache, maxQuoteStaleness, logger)
	}

	// --- S3 trade archive ---
	if cfg.S3.Enabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		if deps.Journal != nil {
			deps.Archiver = s3blob.NewTradeArchiver(deps.BlobWriter, deps.Journal, deps.Audit)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
