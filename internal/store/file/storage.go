package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/homebrief/internal/store"
)

// Storage implements store.Storage with one file per key under a base directory.
//
// Writes go to a temp file which is fsynced and renamed over the target, so a
// reader sees either the old or the new value. Each individual write or delete
// holds an exclusive flock on "<file>.lock" so concurrent processes don't
// interleave their temp files. Read-modify-write sequences built on top of
// Get and Put are not serialized across processes.
type Storage struct {
	baseDir string
}

// NewStorage creates a file storage rooted at baseDir.
// If baseDir is empty, uses ~/.homebrief/state/
func NewStorage(baseDir string) (*Storage, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".homebrief", "state")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("file storage initialized")

	return &Storage{baseDir: baseDir}, nil
}

// BaseDir returns the directory holding the stored values.
func (s *Storage) BaseDir() string {
	return s.baseDir
}

// Get reads the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return data, nil
}

// Put atomically replaces the value stored under key.
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	return withFileLock(path, func() error {
		return writeAtomic(path, value)
	})
}

// Delete removes the value stored under key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	return withFileLock(path, func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
		return nil
	})
}

// path maps a key onto a file name inside baseDir.
func (s *Storage) path(key string) (string, error) {
	if err := store.ValidateKey(key); err != nil {
		return "", err
	}
	if key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", store.ErrInvalidKey, key)
	}

	return filepath.Join(s.baseDir, url.PathEscape(key)), nil
}

// withFileLock runs fn while holding an exclusive lock on path+".lock".
func withFileLock(path string, fn func() error) error {
	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	return fn()
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it
// over the target path. On any error the temp file is cleaned up.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
