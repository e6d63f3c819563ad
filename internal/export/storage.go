// internal/export/storage.go
package export

import (
	"context"
	"fmt"

	"github.com/newthinker/finrag/internal/config"
)

// Storage is a flat object store addressed by slash-separated keys.
type Storage interface {
	// Write stores data under key, replacing any previous object
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves the object stored under key
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns the keys under prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)
}

// NewStorage builds the backend selected by cfg.Type.
func NewStorage(cfg config.ExportConfig) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown export type %q", cfg.Type)
	}
}
