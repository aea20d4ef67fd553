package port

import (
	"context"
	"time"
)

// FileStorage defines file storage operations
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string

	// DeleteOlderThan removes files under prefix last modified before cutoff
	// and returns how many were removed
	DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}
