package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/homebrief/internal/store"
	filestore "github.com/wolfeidau/homebrief/internal/store/file"
	memorystore "github.com/wolfeidau/homebrief/internal/store/memory"
	postgresstore "github.com/wolfeidau/homebrief/internal/store/postgres"
	redisstore "github.com/wolfeidau/homebrief/internal/store/redis"
)

// StoreFlags selects and configures where the session record is kept.
type StoreFlags struct {
	StoreType string `name:"store" help:"session storage (file, memory, postgres or redis)" default:"file" env:"HOMEBRIEF_STORE" enum:"file,memory,postgres,redis"`
	StateDir  string `help:"directory for file storage, ~/.homebrief/state when empty" default:"" env:"HOMEBRIEF_STATE_DIR"`

	Postgres PostgresStoreFlags `embed:"" prefix:"postgres-"`
	Redis    RedisStoreFlags    `embed:"" prefix:"redis-"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"4"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"5m"`

	// Migration Configuration
	AutoMigrate bool `help:"create the key-value table on startup" default:"true" env:"HOMEBRIEF_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

type RedisStoreFlags struct {
	URL    string `help:"Redis URL, e.g. redis://localhost:6379/0" env:"HOMEBRIEF_REDIS_URL"`
	Prefix string `help:"prefix for Redis keys" default:"homebrief:"`
}

func (s *RedisStoreFlags) validate() error {
	if s.URL == "" {
		return errors.New("Redis URL is required (--redis-url or HOMEBRIEF_REDIS_URL)")
	}
	return nil
}

// Open creates the selected storage. The returned func releases it.
func (s *StoreFlags) Open(ctx context.Context) (store.Storage, func(), error) {
	switch s.StoreType {
	case "memory":
		log.Debug().Msg("Using memory storage, the session ends with the process")
		return memorystore.NewStorage(), func() {}, nil

	case "postgres":
		if err := s.Postgres.validate(); err != nil {
			return nil, nil, err
		}

		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      s.Postgres.ConnString,
			MaxConns:        s.Postgres.MaxConns,
			MaxConnIdleTime: s.Postgres.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		storage, err := postgresstore.NewStorage(ctx, pool, &postgresstore.StorageConfig{AutoMigrate: s.Postgres.AutoMigrate})
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to create postgres storage: %w", err)
		}

		log.Debug().Msg("Using PostgreSQL storage")
		return storage, pool.Close, nil

	case "redis":
		if err := s.Redis.validate(); err != nil {
			return nil, nil, err
		}

		client, err := redisstore.Connect(ctx, s.Redis.URL)
		if err != nil {
			return nil, nil, err
		}

		log.Debug().Str("prefix", s.Redis.Prefix).Msg("Using Redis storage")
		return redisstore.NewStorage(client, s.Redis.Prefix), func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close redis client")
			}
		}, nil

	default:
		storage, err := filestore.NewStorage(s.StateDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create file storage: %w", err)
		}

		log.Debug().Str("dir", storage.BaseDir()).Msg("Using file storage")
		return storage, func() {}, nil
	}
}
