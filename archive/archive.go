package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Archiver stores export snapshots so judgement exports survive outside the
// database.
type Archiver interface {
	// Put stores a snapshot under the given key
	Put(ctx context.Context, key string, data io.Reader) error

	// Get retrieves a snapshot by key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Backend represents the archive backend type
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)

// Config holds configuration for the archive
type Config struct {
	Backend      Backend
	LocalPath    string // for local archive
	S3Bucket     string // for S3 archive
	S3Region     string // for S3 archive
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a new archiver based on configuration
func New(cfg Config) (Archiver, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalArchive(cfg.LocalPath)
	case BackendS3:
		return NewS3Archive(cfg)
	default:
		return nil, fmt.Errorf("unknown archive backend: %s", cfg.Backend)
	}
}

// NewFromEnv creates an archiver from environment variables
func NewFromEnv() (Archiver, error) {
	backend := os.Getenv("ARCHIVE_BACKEND")
	if backend == "" {
		backend = "local" // Default to local for development
	}

	cfg := Config{
		Backend: Backend(backend),
	}

	switch Backend(backend) {
	case BackendLocal:
		localPath := os.Getenv("ARCHIVE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./archive/exports"
		}
		cfg.LocalPath = localPath
		return NewLocalArchive(cfg.LocalPath)

	case BackendS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 archive")
		}

		return NewS3Archive(cfg)

	default:
		return nil, fmt.Errorf("unknown archive backend: %s", backend)
	}
}
