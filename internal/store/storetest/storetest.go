// Package storetest holds conformance tests shared by every store.Storage backend.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/homebrief/internal/store"
)

// RunStorageTests exercises the store.Storage contract against a fresh backend
// returned by newStorage for each subtest.
func RunStorageTests(t *testing.T, newStorage func(t *testing.T) store.Storage) {
	t.Helper()

	t.Run("get missing key returns ErrKeyNotFound", func(t *testing.T) {
		st := newStorage(t)

		_, err := st.Get(context.Background(), "missing")
		require.ErrorIs(t, err, store.ErrKeyNotFound)
	})

	t.Run("put then get returns value", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		require.NoError(t, st.Put(ctx, "real_estate.session", []byte(`{"type":"guest"}`)))

		value, err := st.Get(ctx, "real_estate.session")
		require.NoError(t, err)
		assert.Equal(t, `{"type":"guest"}`, string(value))
	})

	t.Run("put overwrites existing value", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		require.NoError(t, st.Put(ctx, "k", []byte("first")))
		require.NoError(t, st.Put(ctx, "k", []byte("second")))

		value, err := st.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", string(value))
	})

	t.Run("delete removes key", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		require.NoError(t, st.Put(ctx, "k", []byte("v")))
		require.NoError(t, st.Delete(ctx, "k"))

		_, err := st.Get(ctx, "k")
		require.ErrorIs(t, err, store.ErrKeyNotFound)
	})

	t.Run("delete missing key is a no-op", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		require.NoError(t, st.Delete(ctx, "missing"))
		require.NoError(t, st.Delete(ctx, "missing"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		require.NoError(t, st.Put(ctx, "a", []byte("1")))
		require.NoError(t, st.Put(ctx, "b", []byte("2")))
		require.NoError(t, st.Delete(ctx, "a"))

		value, err := st.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "2", string(value))
	})

	t.Run("stored value is not aliased", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		value := []byte("abc")
		require.NoError(t, st.Put(ctx, "k", value))
		value[0] = 'x'

		got, err := st.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		require.ErrorIs(t, st.Put(ctx, "", []byte("v")), store.ErrInvalidKey)
		_, err := st.Get(ctx, "")
		require.ErrorIs(t, err, store.ErrInvalidKey)
	})
}
