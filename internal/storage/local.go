package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores assets as plain files under a base directory.
type Local struct {
	basePath string
}

// NewLocal creates a local storage provider
func NewLocal() *Local {
	return &Local{}
}

// Initialize sets up the local storage with configuration
func (l *Local) Initialize(config map[string]string) error {
	if path, ok := config["basePath"]; ok && path != "" {
		l.basePath = path
	} else {
		l.basePath = "./uploaded_images"
	}

	if err := os.MkdirAll(l.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// Store writes an asset under the given name. A partial write never leaves a
// half-written file behind.
func (l *Local) Store(ctx context.Context, name string, content io.Reader, size int64) (string, error) {
	path := filepath.Join(l.basePath, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file content: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to flush file content: %w", err)
	}

	return name, nil
}

// Open returns a reader for a stored asset
func (l *Local) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(l.basePath, id))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored asset
func (l *Local) Delete(ctx context.Context, id string) error {
	if err := os.Remove(filepath.Join(l.basePath, id)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List returns the assets under the base directory matching the prefix
func (l *Local) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var objects []ObjectInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if prefix != "" && !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		objects = append(objects, ObjectInfo{
			ID:         entry.Name(),
			Name:       entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().Unix(),
		})
	}

	return objects, nil
}

// Location returns the filesystem path of a stored asset
func (l *Local) Location(id string) string {
	return filepath.Join(l.basePath, id)
}

// BasePath returns the base directory of this provider
func (l *Local) BasePath() string {
	return l.basePath
}
