package redis

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("requires url", func(t *testing.T) {
		_, err := Connect(context.Background(), "")
		require.ErrorContains(t, err, "required")
	})

	t.Run("rejects unsupported scheme", func(t *testing.T) {
		_, err := Connect(context.Background(), "http://localhost:6379/0")
		require.ErrorContains(t, err, "parse redis url")
	})
}

func TestNewStorage_Prefix(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, "homebrief:real_estate.session", NewStorage(client, "").key("real_estate.session"))
	assert.Equal(t, "tenant-a:k", NewStorage(client, "tenant-a:").key("k"))
}
