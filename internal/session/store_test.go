package session

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/homebrief/internal/models"
	"github.com/wolfeidau/homebrief/internal/store"
	"github.com/wolfeidau/homebrief/internal/store/memory"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *memory.Storage) {
	t.Helper()
	storage := memory.NewStorage()
	return NewStore(storage), storage
}

func guestSession(viewed ...string) *models.Session {
	s := models.NewGuestSession(testNow)
	s.ViewedPropertyIDs = append(s.ViewedPropertyIDs, viewed...)
	return s
}

func userSession(viewed ...string) *models.Session {
	s := models.NewUserSession(testNow, models.User{ID: "user:jane", Username: "jane"})
	s.ViewedPropertyIDs = append(s.ViewedPropertyIDs, viewed...)
	return s
}

func TestStore_Get(t *testing.T) {
	t.Run("empty storage returns absent", func(t *testing.T) {
		st, _ := newTestStore(t)

		sess, err := st.Get(context.Background())
		require.NoError(t, err)
		assert.Nil(t, sess)
	})

	t.Run("returns what set stored", func(t *testing.T) {
		for _, want := range []*models.Session{guestSession(), guestSession("p1", "p2"), userSession(), userSession("p9")} {
			st, _ := newTestStore(t)
			ctx := context.Background()

			require.NoError(t, st.Set(ctx, want))

			got, err := st.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("uses the well known key", func(t *testing.T) {
		st, storage := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, guestSession()))

		raw, err := storage.Get(ctx, "real_estate.session")
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"guest","createdAt":"2024-01-01T00:00:00Z","viewedPropertyIds":[]}`, string(raw))
	})

	t.Run("reads records written by another client", func(t *testing.T) {
		st, storage := newTestStore(t)
		ctx := context.Background()

		raw := `{"type":"user","createdAt":"2024-03-05T10:11:12.345Z","user":{"id":"user:sam","username":"sam"},"viewedPropertyIds":["a","b"]}`
		require.NoError(t, storage.Put(ctx, StorageKey, []byte(raw)))

		sess, err := st.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, models.SessionTypeUser, sess.Type)
		assert.Equal(t, "sam", sess.User.Username)
		assert.Equal(t, []string{"a", "b"}, sess.ViewedPropertyIDs)
		assert.True(t, sess.CreatedAt.Equal(time.Date(2024, 3, 5, 10, 11, 12, 345_000_000, time.UTC)))
	})
}

func TestStore_GetCorruptRecord(t *testing.T) {
	corrupt := map[string]string{
		"not json":              `{not json`,
		"empty":                 ``,
		"json null":             `null`,
		"array":                 `[]`,
		"unknown type":          `{"type":"admin","createdAt":"2024-01-01T00:00:00Z","viewedPropertyIds":[]}`,
		"missing type":          `{"createdAt":"2024-01-01T00:00:00Z","viewedPropertyIds":[]}`,
		"bad timestamp":         `{"type":"guest","createdAt":"yesterday","viewedPropertyIds":[]}`,
		"missing timestamp":     `{"type":"guest","viewedPropertyIds":[]}`,
		"user without identity": `{"type":"user","createdAt":"2024-01-01T00:00:00Z","viewedPropertyIds":[]}`,
		"guest with identity":   `{"type":"guest","createdAt":"2024-01-01T00:00:00Z","user":{"id":"u","username":"u"},"viewedPropertyIds":[]}`,
		"missing viewed list":   `{"type":"guest","createdAt":"2024-01-01T00:00:00Z"}`,
		"viewed list not array": `{"type":"guest","createdAt":"2024-01-01T00:00:00Z","viewedPropertyIds":"p1"}`,
		"duplicate viewed ids":  `{"type":"guest","createdAt":"2024-01-01T00:00:00Z","viewedPropertyIds":["p1","p1"]}`,
		"trailing garbage":      `{"type":"guest","createdAt":"2024-01-01T00:00:00Z","viewedPropertyIds":[]} x`,
	}

	for name, raw := range corrupt {
		t.Run(name, func(t *testing.T) {
			st, storage := newTestStore(t)
			ctx := context.Background()

			require.NoError(t, storage.Put(ctx, StorageKey, []byte(raw)))

			sess, err := st.Get(ctx)
			require.NoError(t, err)
			assert.Nil(t, sess)

			_, err = storage.Get(ctx, StorageKey)
			assert.ErrorIs(t, err, store.ErrKeyNotFound, "corrupt record should be deleted")

			sess, err = st.Get(ctx)
			require.NoError(t, err)
			assert.Nil(t, sess)
		})
	}
}

func TestStore_Set(t *testing.T) {
	t.Run("overwrites existing session", func(t *testing.T) {
		st, _ := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, userSession("p1")))
		require.NoError(t, st.Set(ctx, guestSession()))

		got, err := st.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, guestSession(), got)
	})

	t.Run("rejects invalid session without writing", func(t *testing.T) {
		st, storage := newTestStore(t)
		ctx := context.Background()

		err := st.Set(ctx, &models.Session{Type: models.SessionTypeUser, CreatedAt: testNow, ViewedPropertyIDs: []string{}})
		require.ErrorIs(t, err, ErrInvalidSession)

		require.ErrorIs(t, st.Set(ctx, nil), ErrInvalidSession)
		assert.Equal(t, 0, storage.Len())
	})
}

func TestStore_Clear(t *testing.T) {
	t.Run("removes session", func(t *testing.T) {
		st, _ := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, userSession("p1")))
		require.NoError(t, st.Clear(ctx))

		sess, err := st.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, sess)
	})

	t.Run("is a no-op when absent", func(t *testing.T) {
		st, storage := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, st.Clear(ctx))
		require.NoError(t, st.Clear(ctx))
		assert.Equal(t, 0, storage.Len())
	})
}

func TestStore_AddViewedPropertyID(t *testing.T) {
	t.Run("appends in insertion order and skips duplicates", func(t *testing.T) {
		st, _ := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, guestSession()))
		require.NoError(t, st.AddViewedPropertyID(ctx, "p1"))
		require.NoError(t, st.AddViewedPropertyID(ctx, "p2"))
		require.NoError(t, st.AddViewedPropertyID(ctx, "p1"))

		sess, err := st.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, []string{"p1", "p2"}, sess.ViewedPropertyIDs)
	})

	t.Run("preserves variant and other fields", func(t *testing.T) {
		st, _ := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, userSession("p1")))
		require.NoError(t, st.AddViewedPropertyID(ctx, "p2"))

		sess, err := st.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, userSession("p1", "p2"), sess)
	})

	t.Run("does not create a session", func(t *testing.T) {
		st, storage := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, st.AddViewedPropertyID(ctx, "p1"))

		assert.Equal(t, 0, storage.Len())
		sess, err := st.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, sess)
	})

	t.Run("heals a corrupt record without recreating it", func(t *testing.T) {
		st, storage := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, storage.Put(ctx, StorageKey, []byte("{not json")))
		require.NoError(t, st.AddViewedPropertyID(ctx, "p1"))

		assert.Equal(t, 0, storage.Len())
	})

	t.Run("rejects empty id", func(t *testing.T) {
		st, _ := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, guestSession("p1")))
		require.ErrorIs(t, st.AddViewedPropertyID(ctx, ""), ErrInvalidPropertyID)

		sess, err := st.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, sess.ViewedPropertyIDs)
	})
}

// TestStore_AddViewedPropertyIDModel compares random operation sequences with a
// plain slice model of the history.
func TestStore_AddViewedPropertyIDModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"p1", "p2", "p3", "p4", "p5", "p6"}

	for run := 0; run < 50; run++ {
		st, _ := newTestStore(t)
		ctx := context.Background()

		var model []string
		present := false

		for step := 0; step < 30; step++ {
			switch op := rng.Intn(10); {
			case op == 0:
				require.NoError(t, st.Clear(ctx))
				model, present = nil, false
			case op == 1:
				require.NoError(t, st.Set(ctx, guestSession()))
				model, present = []string{}, true
			default:
				id := ids[rng.Intn(len(ids))]
				require.NoError(t, st.AddViewedPropertyID(ctx, id))
				if present && !slices.Contains(model, id) {
					model = append(model, id)
				}
			}

			sess, err := st.Get(ctx)
			require.NoError(t, err)
			if !present {
				require.Nil(t, sess, "run %d step %d", run, step)
				continue
			}
			require.NotNil(t, sess, "run %d step %d", run, step)
			require.Equal(t, model, sess.ViewedPropertyIDs, "run %d step %d", run, step)
		}
	}
}

// interleavingStorage runs beforePut once, just before the first Put reaches
// the wrapped storage.
type interleavingStorage struct {
	store.Storage
	beforePut func()
}

func (s *interleavingStorage) Put(ctx context.Context, key string, value []byte) error {
	if hook := s.beforePut; hook != nil {
		s.beforePut = nil
		hook()
	}
	return s.Storage.Put(ctx, key, value)
}

// Two writers sharing one storage each read, append and write back. The second
// writer's append is overwritten by the first writer's stale copy.
func TestStore_ConcurrentAppendsCanLoseUpdates(t *testing.T) {
	ctx := context.Background()
	shared := memory.NewStorage()

	other := NewStore(shared)
	require.NoError(t, other.Set(ctx, guestSession()))

	racing := &interleavingStorage{Storage: shared}
	racing.beforePut = func() {
		require.NoError(t, other.AddViewedPropertyID(ctx, "p2"))
	}
	first := NewStore(racing)

	require.NoError(t, first.AddViewedPropertyID(ctx, "p1"))

	sess, err := other.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, sess.ViewedPropertyIDs, "p2 was lost to the read-modify-write race")
}

type failingStorage struct {
	err error
}

func (f failingStorage) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStorage) Put(context.Context, string, []byte) error   { return f.err }
func (f failingStorage) Delete(context.Context, string) error        { return f.err }

func TestStore_StorageFailures(t *testing.T) {
	boom := errors.New("disk on fire")
	st := NewStore(failingStorage{err: boom})
	ctx := context.Background()

	_, err := st.Get(ctx)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, st.Set(ctx, guestSession()), boom)
	require.ErrorIs(t, st.Clear(ctx), boom)
	require.ErrorIs(t, st.AddViewedPropertyID(ctx, "p1"), boom)
}

func TestStore_WithKey(t *testing.T) {
	storage := memory.NewStorage()
	ctx := context.Background()

	a := NewStore(storage, WithKey("profile-a"))
	b := NewStore(storage, WithKey("profile-b"))

	require.NoError(t, a.Set(ctx, guestSession()))
	require.NoError(t, a.AddViewedPropertyID(ctx, "p1"))

	sess, err := b.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	_, err = storage.Get(ctx, "profile-a")
	require.NoError(t, err)
	assert.Equal(t, 1, storage.Len())
}
