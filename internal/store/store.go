package store

import (
	"context"
	"errors"
)

// Sentinel errors for common error conditions
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrInvalidKey  = errors.New("invalid key")
)

// Storage is a durable key-value store holding opaque values.
// It plays the role a browser origin's local storage plays for the web client:
// a handful of well-known keys, each holding one serialized record.
type Storage interface {
	// Get returns the stored value, or ErrKeyNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects keys that no backend can store.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
