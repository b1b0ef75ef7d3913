package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/homebrief/internal/store"
)

// DefaultPrefix namespaces homebrief keys in a shared Redis database.
const DefaultPrefix = "homebrief:"

// Connect parses a redis:// or rediss:// URL and pings the server before returning the client.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Debug().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis")

	return client, nil
}

// Storage implements store.Storage on top of Redis string values.
type Storage struct {
	client goredis.UniversalClient
	prefix string
}

// NewStorage creates a Redis-backed storage. An empty prefix uses DefaultPrefix.
func NewStorage(client goredis.UniversalClient, prefix string) *Storage {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Storage{
		client: client,
		prefix: prefix,
	}
}

func (s *Storage) key(key string) string {
	return s.prefix + key
}

// Get retrieves the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, nil
}

// Put stores value under key with no expiry.
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
