package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"route-navigation-service/internal/adapters/cache"
	"route-navigation-service/internal/adapters/repositories"
	"route-navigation-service/internal/adapters/routing"
	"route-navigation-service/internal/api"
	"route-navigation-service/internal/config"
	"route-navigation-service/internal/platform/db"
	"route-navigation-service/internal/platform/obs"
	"route-navigation-service/internal/ports"
	"route-navigation-service/internal/services"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pruneInterval = time.Hour

// main is the application composition root.
// It wires concrete adapters (router provider, caches, SQL store) behind ports
// and starts the HTTP server.
func main() {
	cfg, err := config.Load(config.Get("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	obs.SetLogger(logger)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, dialect, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := repositories.InitSchema(store, dialect); err != nil {
		return err
	}
	repo := repositories.NewSQLRouteRepository(store, dialect)
	if cfg.Storage.SeedPath != "" {
		n, err := repositories.SeedRoutesFromJSON(ctx, repo, cfg.Storage.SeedPath)
		if err != nil {
			return err
		}
		logger.Info("saved routes seeded", zap.Int("count", n), zap.String("path", cfg.Storage.SeedPath))
	}

	segments, closeCache, err := openSegmentCache(ctx, cfg.Cache, store, dialect, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	provider, err := newRouter(cfg.Routing)
	if err != nil {
		return err
	}
	router := routing.NewCachedRouter(provider, segments)

	// Geocoding is an ORS feature; other providers take coordinates only.
	var geocoder ports.Geocoder
	if cfg.Routing.Provider == "ors" {
		geocoder, err = routing.NewORSGeocoder(cfg.Routing.APIKey, orsOptions(cfg.Routing),
			cfg.Routing.GeocodeCountry, cache.NewSQLGeocodeCache(store, dialect))
		if err != nil {
			return err
		}
	}

	registry := services.NewRegistry(router, cfg.Settings(), logger.Named("edit"))
	defer registry.CloseAll()
	if ttl := cfg.Navigation.SessionIdleTTL; ttl > 0 {
		go registry.SweepIdle(ctx, ttl)
	}

	handler := api.NewRouter(api.Deps{
		Registry:    registry,
		Repo:        repo,
		Geocoder:    geocoder,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Timeouts are tuned for cold-cache routing (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.Routing.Provider),
			zap.String("cache", cfg.Cache.Backend),
			zap.String("store", dialect.String()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore opens Postgres when a database URL is configured, SQLite otherwise.
func openStore(cfg config.StorageConfig) (*sql.DB, db.Dialect, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, db.Postgres, err
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, db.SQLite, fmt.Errorf("open store: create %q: %w", dir, err)
		}
	}
	conn, err := db.OpenSQLite(cfg.SQLitePath)
	return conn, db.SQLite, err
}

// openSegmentCache returns nil (no caching) for the "none" backend.
func openSegmentCache(
	ctx context.Context,
	cfg config.CacheConfig,
	store *sql.DB,
	dialect db.Dialect,
	logger *zap.Logger,
) (ports.SegmentCache, func(), error) {
	switch cfg.Backend {
	case "none":
		return nil, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("open segment cache: redis %s: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedisSegmentCache(client, cfg.RedisPrefix, cfg.TTL), func() { client.Close() }, nil
	default:
		if want := cfg.Backend; want != dialect.String() {
			logger.Warn("segment cache uses the configured store",
				zap.String("backend", want), zap.String("store", dialect.String()))
		}
		c := cache.NewSQLSegmentCache(store, dialect, cfg.TTL)
		go pruneLoop(ctx, c, logger)
		return c, func() {}, nil
	}
}

func pruneLoop(ctx context.Context, c *cache.SQLSegmentCache, logger *zap.Logger) {
	t := time.NewTicker(pruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := c.Prune(ctx)
			if err != nil {
				logger.Warn("segment cache prune failed", zap.Error(err))
				continue
			}
			logger.Debug("segment cache pruned", zap.Int64("removed", n))
		}
	}
}

func newRouter(cfg config.RoutingConfig) (ports.Router, error) {
	switch cfg.Provider {
	case "ors":
		return routing.NewORSRouter(cfg.APIKey, orsOptions(cfg))
	case "osrm":
		return routing.NewOSRMRouter(cfg.BaseURL, cfg.Profile, cfg.Timeout)
	case "mock":
		return routing.NewMockRouter(), nil
	}
	return nil, fmt.Errorf("unknown routing provider %q", cfg.Provider)
}

func orsOptions(cfg config.RoutingConfig) routing.ORSOptions {
	return routing.ORSOptions{BaseURL: cfg.BaseURL, Profile: cfg.Profile, Timeout: cfg.Timeout}
}
