package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GoogleCloud stores assets as objects in a Google Cloud Storage bucket.
type GoogleCloud struct {
	client     *storage.Client
	bucketName string
	prefix     string
}

// NewGoogleCloud creates a Google Cloud Storage provider
func NewGoogleCloud() *GoogleCloud {
	return &GoogleCloud{}
}

// Initialize sets up the Google Cloud Storage with configuration
func (g *GoogleCloud) Initialize(config map[string]string) error {
	var opts []option.ClientOption
	if credFile, ok := config["credentialFile"]; ok && credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create Google Cloud Storage client: %w", err)
	}
	g.client = client

	bucketName, ok := config["bucket"]
	if !ok || bucketName == "" {
		return fmt.Errorf("bucket is required for Google Cloud Storage")
	}
	g.bucketName = bucketName
	g.prefix = config["prefix"]

	return nil
}

// Store uploads an asset under the given name
func (g *GoogleCloud) Store(ctx context.Context, name string, content io.Reader, size int64) (string, error) {
	objectName := g.prefix + name

	writer := g.client.Bucket(g.bucketName).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(writer, content); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write asset to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize asset upload to GCS: %w", err)
	}

	return objectName, nil
}

// Open returns a reader for a stored asset
func (g *GoogleCloud) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	reader, err := g.client.Bucket(g.bucketName).Object(id).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset from GCS: %w", err)
	}
	return reader, nil
}

// Delete removes a stored asset
func (g *GoogleCloud) Delete(ctx context.Context, id string) error {
	if err := g.client.Bucket(g.bucketName).Object(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete asset from GCS: %w", err)
	}
	return nil
}

// List returns the assets in the bucket matching the prefix
func (g *GoogleCloud) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := g.client.Bucket(g.bucketName).Objects(ctx, &storage.Query{Prefix: g.prefix + prefix})

	var objects []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list assets from GCS: %w", err)
		}

		objects = append(objects, ObjectInfo{
			ID:         attrs.Name,
			Name:       filepath.Base(attrs.Name),
			Size:       attrs.Size,
			ModifiedAt: attrs.Updated.Unix(),
		})
	}

	return objects, nil
}

// Location returns the gs:// URI of a stored asset
func (g *GoogleCloud) Location(id string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucketName, id)
}
