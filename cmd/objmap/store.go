package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"       // sqlite3 database/sql driver
	_ "github.com/rqlite/gorqlite/stdlib" // rqlite database/sql driver

	"github.com/JonMunkholm/objmap/internal/billing"
	"github.com/JonMunkholm/objmap/internal/config"
	"github.com/JonMunkholm/objmap/internal/core"
	"github.com/JonMunkholm/objmap/internal/store/memstore"
	"github.com/JonMunkholm/objmap/internal/store/pgstore"
	"github.com/JonMunkholm/objmap/internal/store/sqlstore"
)

// storage is a backend serving both statement preparation and execution.
type storage interface {
	core.QueryProvider
	core.QueryExecutor
}

// openStore connects to the configured driver and applies the billing
// schema. The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config) (storage, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverSQLite:
		return openSQL(ctx, cfg, sqlstore.DriverSQLite, "sqlite")
	case config.DriverRQLite:
		return openSQL(ctx, cfg, sqlstore.DriverRQLite, "rqlite")
	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on exit")
		return memstore.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

func openPostgres(ctx context.Context, cfg *config.Config) (storage, func(), error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	for _, stmt := range billing.Schema(config.DriverPostgres) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return pgstore.New(pool, pgstore.WithDistributedTx(cfg.Mapping.DistributedTx)), pool.Close, nil
}

func openSQL(ctx context.Context, cfg *config.Config, driverName, dialect string) (storage, func(), error) {
	db, err := sql.Open(driverName, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(cfg.Database.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.Database.MaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	for _, stmt := range billing.Schema(dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	slog.Info("connected to database", "driver", driverName)
	return sqlstore.New(db, sqlstore.WithDistributedTx(cfg.Mapping.DistributedTx)), func() { db.Close() }, nil
}
