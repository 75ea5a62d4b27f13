package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/cache"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
)

// Database is the pool the repositories share; Ping backs the health check.
type Database interface {
	db.Pool
	Ping(ctx context.Context) error
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the asset janitor and closes the cache.
func buildDependencies(ctx context.Context, pool Database, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	sessions := auth.NewManager(auth.Options{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	}, users)

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Tokens:        sessions,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Prober:        media.NewProber(cfg.Media.FFProbePath, cfg.Media.ProbeTimeout),
		DB:            pool,
		Uploads:       handlers.Uploads{Dir: cfg.Media.UploadDir, MaxBytes: cfg.Media.MaxUploadBytes},
		ChannelTTL:    cfg.ChannelTTL,
		SecureCookies: cfg.Auth.SecureCookies,
		Limiter: middleware.NewIPRateLimiter(
			cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, 10*cfg.RateLimit.Window),
	}

	var closers []func(context.Context) error
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}

	cacheClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}
	if cacheClient != nil {
		deps.Cache = cacheClient
		closers = append(closers, func(context.Context) error { return cacheClient.Close() })
	} else {
		logger.Warn("redis url not set, channel profiles are served uncached")
	}

	if strings.TrimSpace(cfg.ObjectStore.Bucket) == "" {
		logger.Warn("object store bucket not set, uploads are disabled")
		return deps, cleanup, nil
	}

	storage, err := media.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		_ = cleanup(ctx)
		return handlers.Dependencies{}, nil, err
	}
	janitor := media.NewJanitor(storage, media.JanitorConfig{
		Workers:   cfg.Janitor.Workers,
		QueueSize: cfg.Janitor.QueueSize,
	}, logger)

	deps.Media = storage
	deps.Janitor = janitor
	closers = append(closers, janitor.Shutdown)

	return deps, cleanup, nil
}
