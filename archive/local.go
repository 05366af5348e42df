package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalArchive implements Archiver on the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a new local archive instance
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &LocalArchive{basePath: basePath}, nil
}

// Put stores a snapshot on the local filesystem
func (a *LocalArchive) Put(ctx context.Context, key string, data io.Reader) error {
	fullPath := filepath.Join(a.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath) // Clean up on error
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Get retrieves a snapshot from the local filesystem
func (a *LocalArchive) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := filepath.Join(a.basePath, filepath.FromSlash(key))

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}
