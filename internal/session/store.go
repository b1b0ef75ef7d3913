// Package session persists the single visitor session record: who is visiting
// (a guest or an authenticated user) and which properties they have opened.
//
// The Store holds no state of its own. Every call reads or rewrites the
// backing store.Storage, so several Store values over the same storage observe
// each other's writes. AddViewedPropertyID is a read-modify-write without any
// cross-process lock: two processes appending at the same time can lose one of
// the appends.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/homebrief/internal/models"
	"github.com/wolfeidau/homebrief/internal/store"
	"github.com/wolfeidau/homebrief/internal/telemetry"
)

// StorageKey is the well-known key the session record lives under.
const StorageKey = "real_estate.session"

var (
	// ErrInvalidSession is returned by Set for a session that fails validation.
	ErrInvalidSession = errors.New("invalid session")

	// ErrInvalidPropertyID is returned when recording an empty property id.
	ErrInvalidPropertyID = errors.New("invalid property id")
)

// Store reads and writes the visitor session.
type Store struct {
	storage store.Storage
	key     string
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides StorageKey, which lets several sessions share one storage.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// NewStore creates a session store over storage.
func NewStore(storage store.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     StorageKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current session, or nil when nobody is signed in.
//
// A record that does not decode into a valid session is deleted and reported
// as absent. Only failures of the storage itself are returned as errors.
func (s *Store) Get(ctx context.Context) (*models.Session, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	sess, err := decode(raw)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Int("bytes", len(raw)).Msg("discarding corrupt session record")
		telemetry.GetMetrics().SessionCorruptRecordsTotal.Add(ctx, 1)

		if err := s.storage.Delete(ctx, s.key); err != nil {
			return nil, fmt.Errorf("failed to discard corrupt session: %w", err)
		}
		return nil, nil
	}

	return sess, nil
}

// Set replaces the stored session.
func (s *Store) Set(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return fmt.Errorf("%w: nil session", ErrInvalidSession)
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.storage.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	log.Debug().Str("type", string(sess.Type)).Int("viewed", len(sess.ViewedPropertyIDs)).Msg("session stored")

	return nil
}

// Clear removes the stored session. Clearing when signed out is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// AddViewedPropertyID appends propertyID to the viewing history.
// It does nothing when there is no session or the id is already recorded.
func (s *Store) AddViewedPropertyID(ctx context.Context, propertyID string) error {
	if propertyID == "" {
		return ErrInvalidPropertyID
	}

	sess, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if sess == nil || sess.HasViewed(propertyID) {
		return nil
	}

	next := sess.Clone()
	next.ViewedPropertyIDs = append(next.ViewedPropertyIDs, propertyID)

	if err := s.Set(ctx, next); err != nil {
		return err
	}

	telemetry.GetMetrics().SessionViewsRecordedTotal.Add(ctx, 1)

	return nil
}

// decode parses and validates a stored record.
func decode(raw []byte) (*models.Session, error) {
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	return &sess, nil
}
