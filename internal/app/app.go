// Package app wires configuration into running backends: the document store,
// the photo store and the services built on them. Both binaries start here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/riyahid/travel-go/internal/blobstore"
	"github.com/riyahid/travel-go/internal/config"
	"github.com/riyahid/travel-go/internal/docstore"
	"github.com/riyahid/travel-go/internal/service"
	"github.com/riyahid/travel-go/migrations"
)

// memoryBlobBaseURL prefixes in-memory photo URLs when no public base URL
// is configured.
const memoryBlobBaseURL = "memory://photos"

// Backends holds the stores and services for one process.
type Backends struct {
	Docs     docstore.Store
	Blobs    blobstore.Store
	Trips    *service.TripService
	Journal  *service.JournalService
	FoodLogs *service.FoodLogService

	// Pool is nil when the document store is in memory.
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (b *Backends) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}

// Open builds the configured stores and the services on top of them.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Backends, error) {
	b := &Backends{}

	switch cfg.DocStore.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory document store; data is lost on exit")
		b.Docs = docstore.NewMemory()
	case config.DriverPostgres:
		if cfg.Database.Migrate {
			if err := Migrate(ctx, cfg.Database.URL, log); err != nil {
				return nil, err
			}
		}
		pool, err := NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.Pool = pool
		b.Docs = docstore.NewPostgres(pool)
	default:
		return nil, fmt.Errorf("app.Open: unknown docstore driver %q", cfg.DocStore.Driver)
	}

	switch cfg.Blob.Driver {
	case config.DriverMemory:
		base := cfg.Blob.PublicBaseURL
		if base == "" {
			base = memoryBlobBaseURL
		}
		b.Blobs = blobstore.NewMemory(base)
	case config.DriverS3:
		s3, err := blobstore.NewS3(ctx, blobstore.S3Config{
			Bucket:          cfg.Blob.Bucket,
			Region:          cfg.Blob.Region,
			Endpoint:        cfg.Blob.Endpoint,
			PublicBaseURL:   cfg.Blob.PublicBaseURL,
			AccessKeyID:     cfg.Blob.AccessKeyID,
			SecretAccessKey: cfg.Blob.SecretAccessKey,
		})
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("app.Open: %w", err)
		}
		b.Blobs = s3
	default:
		b.Close()
		return nil, fmt.Errorf("app.Open: unknown blob driver %q", cfg.Blob.Driver)
	}

	b.Trips = service.NewTripService(b.Docs, log, nil)
	b.Journal = service.NewJournalService(b.Docs, b.Blobs, log, nil)
	b.FoodLogs = service.NewFoodLogService(b.Docs, b.Blobs, log, nil)
	return b, nil
}

// NewPool opens a pgx pool and verifies the database is reachable before
// anything is served.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("app.NewPool: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("app.NewPool: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("app.NewPool: ping: %w", err)
	}
	return pool, nil
}

// Migrate applies every pending goose migration embedded in the binary.
func Migrate(ctx context.Context, dsn string, log *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("app.Migrate: open: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("app.Migrate: create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("app.Migrate: up: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
