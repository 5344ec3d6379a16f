// Package storage keeps uploaded chat-log files on an afero filesystem.
// Files are addressed by opaque keys generated at upload time.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	// ErrTooLarge is returned by Save when the upload exceeds the size limit.
	ErrTooLarge = errors.New("upload exceeds size limit")
	// ErrNotFound is returned when no blob exists for a key.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidKey is returned for keys that were not produced by Save.
	ErrInvalidKey = errors.New("invalid storage key")
)

const blobExt = ".txt"

// Store saves, opens and deletes chat-log blobs.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir on fs, creating the directory if needed.
func NewStore(fs afero.Fs, dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %q: %w", dir, err)
	}
	return &Store{
		fs:     fs,
		dir:    dir,
		logger: logger.With("component", "blob_storage"),
	}, nil
}

// NewOSStore is a Store on the local filesystem.
func NewOSStore(dir string, logger *slog.Logger) (*Store, error) {
	return NewStore(afero.NewOsFs(), dir, logger)
}

// Save copies r into a new blob and returns its key and size. A maxBytes of
// zero or less disables the limit. Partial files are removed on failure.
func (s *Store) Save(ctx context.Context, r io.Reader, maxBytes int64) (string, int64, error) {
	key := uuid.NewString()
	name := s.pathFor(key)

	f, err := s.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create blob: %w", err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("failed to write blob: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("failed to close blob: %w", closeErr)
	case maxBytes > 0 && n > maxBytes:
		err = ErrTooLarge
	}
	if err != nil {
		if rmErr := s.fs.Remove(name); rmErr != nil {
			s.logger.WarnContext(ctx, "Failed to remove partial blob", "key", key, "error", rmErr)
		}
		return "", 0, err
	}

	s.logger.DebugContext(ctx, "Blob saved", "key", key, "bytes", n)
	return key, n, nil
}

// Open returns a reader for the blob stored under key.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	return f, nil
}

// Delete removes the blob stored under key. Deleting a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.fs.Remove(s.pathFor(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	s.logger.DebugContext(ctx, "Blob deleted", "key", key)
	return nil
}

func (s *Store) pathFor(key string) string {
	return path.Join(s.dir, key+blobExt)
}

func validateKey(key string) error {
	if _, err := uuid.Parse(key); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
