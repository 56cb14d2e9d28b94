// Package db owns the shared Postgres pool. Persistence is optional:
// without DATABASE_URL the service runs from in-memory state only.
package db

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

var (
	openPool = pgxpool.New
	pingPool = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres connects the package-level pool. Returns false when no
// DATABASE_URL is configured; a configured but unreachable database is
// fatal.
func InitPostgres(ctx context.Context) bool {
	dsn := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(dsn) == "" {
		log.Println("DATABASE_URL not set, running without persistence")
		return false
	}

	pool, err := openPool(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to open Postgres pool: %v", err)
	}
	if err := pingPool(ctx, pool); err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}

	Pool = pool
	log.Println("Connected to Postgres")
	return true
}
