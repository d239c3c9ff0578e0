// Package storage provides the asset store backends for uploaded images
package storage

import (
	"context"
	"io"
)

// Provider defines the interface for asset store backends. The caller
// supplies the storage name; providers never derive names themselves so
// collision avoidance stays in one place.
type Provider interface {
	// Initialize sets up the provider with configuration
	Initialize(config map[string]string) error

	// Store writes an asset under the given name and returns its id
	Store(ctx context.Context, name string, content io.Reader, size int64) (string, error)

	// Open returns a reader for a stored asset
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes a stored asset
	Delete(ctx context.Context, id string) error

	// List returns the assets whose names match the given prefix
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Location returns a client-facing location hint for a stored asset:
	// a filesystem path for local storage, an s3:// or gs:// URI otherwise
	Location(id string) string
}

// ObjectInfo describes a stored asset.
type ObjectInfo struct {
	ID         string
	Name       string
	Size       int64
	ModifiedAt int64
}
