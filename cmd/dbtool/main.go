package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"route-navigation-service/internal/adapters/cache"
	"route-navigation-service/internal/adapters/repositories"
	"route-navigation-service/internal/config"
	"route-navigation-service/internal/platform/db"
	"route-navigation-service/internal/platform/obs"
	"time"

	"go.uber.org/zap"
)

// dbtool prepares the SQL store: schema, demo routes and cache pruning.
//
//	dbtool [-seed path] [-prune] [-ttl 168h]
//
// DATABASE_URL selects Postgres; DB_PATH (default data/app.db) selects SQLite.
func main() {
	seedPath := flag.String("seed", config.Get("SEED_PATH", ""), "JSON file of saved routes to insert")
	prune := flag.Bool("prune", false, "delete segment cache entries older than -ttl")
	ttl := flag.Duration("ttl", 7*24*time.Hour, "segment cache entry lifetime")
	flag.Parse()

	cfg, err := config.Load(config.Get("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}
	logger, err := obs.NewLogger("console", cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	obs.SetLogger(logger)
	defer logger.Sync()

	conn, dialect, err := open(cfg.Storage)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()

	logger.Info("initializing database schema", zap.String("store", dialect.String()))
	if err := repositories.InitSchema(conn, dialect); err != nil {
		logger.Fatal("schema initialization failed", zap.Error(err))
	}
	logger.Info("schema ready")

	if *seedPath != "" {
		repo := repositories.NewSQLRouteRepository(conn, dialect)
		n, err := repositories.SeedRoutesFromJSON(ctx, repo, *seedPath)
		if err != nil {
			logger.Fatal("seeding failed", zap.Error(err))
		}
		logger.Info("seeding complete", zap.Int("routes", n))
	}

	if *prune {
		n, err := cache.NewSQLSegmentCache(conn, dialect, *ttl).Prune(ctx)
		if err != nil {
			logger.Fatal("prune failed", zap.Error(err))
		}
		logger.Info("segment cache pruned", zap.Int64("removed", n))
	}
}

func open(cfg config.StorageConfig) (*sql.DB, db.Dialect, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, db.Postgres, err
	}
	if cfg.SQLitePath == "" {
		return nil, db.SQLite, errors.New("no database configured")
	}
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, db.SQLite, fmt.Errorf("create %q: %w", dir, err)
		}
	}
	conn, err := db.OpenSQLite(cfg.SQLitePath)
	return conn, db.SQLite, err
}
