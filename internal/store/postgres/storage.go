package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/homebrief/internal/store"
)

const defaultTable = "kv_entries"

// Storage implements store.Storage using a PostgreSQL table.
type Storage struct {
	pool *pgxpool.Pool
	cfg  *StorageConfig
}

// NewStorage creates a PostgreSQL-backed storage on an existing pool,
// running migrations first when cfg.AutoMigrate is set.
func NewStorage(ctx context.Context, pool *pgxpool.Pool, cfg *StorageConfig) (*Storage, error) {
	if cfg == nil {
		cfg = &StorageConfig{}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &Storage{pool: pool, cfg: cfg}, nil
}

// Get retrieves the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, mapPostgresError(err))
	}

	return value, nil
}

// Put inserts or replaces the value stored under key.
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, mapPostgresError(err))
	}

	log.Debug().Str("key", key).Int("bytes", len(value)).Msg("Stored value")

	return nil
}

// Delete removes key if present.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, mapPostgresError(err))
	}

	return nil
}

// queryContext applies the configured per-query timeout.
func (s *Storage) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeoutSeconds <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(s.cfg.QueryTimeoutSeconds)*time.Second)
}
