package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the shared connection pool. An empty URL leaves the pool
// nil so stores run on the file fallback.
func InitDB(ctx context.Context, dbURL string) error {
	if dbURL == "" {
		return nil
	}

	var err error
	once.Do(func() {
		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return
		}
		if pingErr := pool.Ping(ctx); pingErr != nil {
			pool.Close()
			pool = nil
			err = fmt.Errorf("failed to ping database: %w", pingErr)
		}
	})
	return err
}

// GetPool returns the database connection pool, or nil when none is configured.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// Schema creates the document table used by LedgerStore.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_documents (
	organization_id TEXT NOT NULL,
	kind            TEXT NOT NULL,
	doc_key         TEXT NOT NULL,
	data            JSONB NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (organization_id, kind, doc_key)
)`

// Migrate applies Schema.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	if p == nil {
		return nil
	}
	if _, err := p.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate ledger_documents: %w", err)
	}
	return nil
}
