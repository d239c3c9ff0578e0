package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// AmazonS3 stores assets as objects in an S3 bucket.
type AmazonS3 struct {
	bucket   string
	prefix   string
	s3Client *s3.S3
	uploader *s3manager.Uploader
}

// NewAmazonS3 creates an Amazon S3 storage provider
func NewAmazonS3() *AmazonS3 {
	return &AmazonS3{}
}

// Initialize sets up the Amazon S3 storage with configuration
func (a *AmazonS3) Initialize(config map[string]string) error {
	region, ok := config["region"]
	if !ok || region == "" {
		return fmt.Errorf("region is required for Amazon S3 storage")
	}

	bucket, ok := config["bucket"]
	if !ok || bucket == "" {
		return fmt.Errorf("bucket is required for Amazon S3 storage")
	}
	a.bucket = bucket
	a.prefix = config["prefix"]

	// Static credentials when provided, otherwise env/instance profile
	var sess *session.Session
	var err error

	accessKey, hasAccessKey := config["accessKey"]
	secretKey, hasSecretKey := config["secretKey"]

	if hasAccessKey && hasSecretKey {
		sess, err = session.NewSession(&aws.Config{
			Region:      aws.String(region),
			Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
		})
	} else {
		sess, err = session.NewSession(&aws.Config{
			Region: aws.String(region),
		})
	}

	if err != nil {
		return fmt.Errorf("failed to create AWS session: %w", err)
	}

	a.s3Client = s3.New(sess)
	a.uploader = s3manager.NewUploader(sess)

	return nil
}

// Store uploads an asset under the given name
func (a *AmazonS3) Store(ctx context.Context, name string, content io.Reader, size int64) (string, error) {
	key := a.prefix + name

	_, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   content,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset to S3: %w", err)
	}

	return key, nil
}

// Open returns a reader for a stored asset
func (a *AmazonS3) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	output, err := a.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve asset from S3: %w", err)
	}
	return output.Body, nil
}

// Delete removes a stored asset
func (a *AmazonS3) Delete(ctx context.Context, id string) error {
	_, err := a.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset from S3: %w", err)
	}
	return nil
}

// List returns the assets in the bucket matching the prefix
func (a *AmazonS3) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(a.prefix + prefix),
	}

	var objects []ObjectInfo
	err := a.s3Client.ListObjectsV2PagesWithContext(ctx, input, func(output *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range output.Contents {
			objects = append(objects, ObjectInfo{
				ID:         *obj.Key,
				Name:       filepath.Base(*obj.Key),
				Size:       *obj.Size,
				ModifiedAt: obj.LastModified.Unix(),
			})
		}
		return !lastPage
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets from S3: %w", err)
	}

	return objects, nil
}

// Location returns the s3:// URI of a stored asset
func (a *AmazonS3) Location(id string) string {
	return fmt.Sprintf("s3://%s/%s", a.bucket, id)
}
