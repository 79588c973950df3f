package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore is the blob boundary for project uploads. The engine stores and
// deletes blobs by opaque reference only; file bytes never cross into the
// domain layer.
type FileStore interface {
	// Save writes the blob and returns its reference. The original name is
	// only used for the extension; references are unguessable.
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Delete removes a blob. Deleting an unknown reference is not an error.
	Delete(ctx context.Context, ref string) error

	// Open streams a stored blob.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// LocalFileStore keeps blobs on the local filesystem under a single flat
// directory.
type LocalFileStore struct {
	dir string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalFileStore{dir: dir}, nil
}

func (s *LocalFileStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	ref := uuid.NewString() + filepath.Ext(name)

	f, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return ref, nil
}

func (s *LocalFileStore) Delete(ctx context.Context, ref string) error {
	// Refuse path traversal; references are flat names.
	if filepath.Base(ref) != ref {
		return fmt.Errorf("invalid blob reference: %s", ref)
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *LocalFileStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if filepath.Base(ref) != ref {
		return nil, fmt.Errorf("invalid blob reference: %s", ref)
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}
