// Package assets validates, stores and serves uploaded image files
package assets

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	// Codec registration for image.Decode / image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/example/chatgateway/internal/freshness"
	"github.com/example/chatgateway/internal/storage"
)

// Sentinel errors for upload and serve validation. None of these touch the
// network; rejections happen before anything is written.
var (
	ErrNoFile    = errors.New("no file provided")
	ErrNotFound  = errors.New("file not found")
	ErrNotAFile  = errors.New("path is not a file")
	ErrEmptyPath = freshness.ErrEmptyPath
)

// UnsupportedTypeError indicates a file extension outside the allow-list.
type UnsupportedTypeError struct {
	Ext string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported image format: %s", e.Ext)
}

const thumbMaxDim = 200

// uploadExts is the allow-list for stored uploads. serveExts additionally
// admits svg, which can be served but never decoded.
var (
	uploadExts = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".bmp": true, ".webp": true,
	}
	serveExts = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".bmp": true, ".webp": true, ".svg": true,
	}
)

// AssetInfo describes a stored upload.
type AssetInfo struct {
	Path   string `json:"file_path"`
	Name   string `json:"file_name"`
	Size   int64  `json:"file_size"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
	URL    string `json:"url"`
}

// Service validates, stores and serves image assets.
type Service struct {
	provider   storage.Provider
	thumbnails bool
	log        *zap.SugaredLogger
}

// NewService creates an asset service backed by the given storage provider.
func NewService(provider storage.Provider, thumbnails bool, logger *zap.SugaredLogger) *Service {
	return &Service{
		provider:   provider,
		thumbnails: thumbnails,
		log:        logger,
	}
}

// Upload validates and stores an uploaded image. Dimension metadata and
// thumbnails are advisory: a decode failure never rolls back a successful
// store.
func (s *Service) Upload(ctx context.Context, fileName string, content io.Reader, size int64) (*AssetInfo, error) {
	if fileName == "" || content == nil {
		return nil, ErrNoFile
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !uploadExts[ext] {
		return nil, &UnsupportedTypeError{Ext: ext}
	}

	// Random identifier plus the original base name: collision-free and
	// immune to client-supplied path segments.
	storedName := randomID() + "_" + filepath.Base(fileName)

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	id, err := s.provider.Store(ctx, storedName, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	location := s.provider.Location(id)
	info := &AssetInfo{
		Path: location,
		Name: fileName,
		Size: int64(len(data)),
		URL:  "/api/serve_image?path=" + location,
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		w, h := cfg.Width, cfg.Height
		info.Width = &w
		info.Height = &h
	} else {
		s.log.Warnw("could not read image dimensions", "file", fileName, "error", err)
	}

	if s.thumbnails {
		if err := s.storeThumbnail(ctx, id, data); err != nil {
			s.log.Warnw("could not generate thumbnail", "file", fileName, "error", err)
		}
	}

	s.log.Infow("image uploaded", "path", location, "size", info.Size)
	return info, nil
}

// storeThumbnail decodes the asset and stores a bounded PNG rendition next
// to it.
func (s *Service) storeThumbnail(ctx context.Context, id string, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := resize.Thumbnail(thumbMaxDim, thumbMaxDim, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := encodePNG(&buf, thumb); err != nil {
		return err
	}

	_, err = s.provider.Store(ctx, id+".thumb.png", &buf, int64(buf.Len()))
	return err
}

// Serve resolves a raw path the same way the freshness cache does and
// returns a reader over the file's bytes with its content type.
func (s *Service) Serve(rawPath string) (io.ReadCloser, string, error) {
	path, err := freshness.Normalize(rawPath)
	if err != nil {
		return nil, "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !serveExts[ext] {
		return nil, "", &UnsupportedTypeError{Ext: ext}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, contentTypeFor(ext), nil
}

// contentTypeFor maps a lowercased extension to its MIME type.
func contentTypeFor(ext string) string {
	switch ext {
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// randomID returns a fresh hex identifier for a stored asset name.
func randomID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the platform entropy source is broken
		panic(err)
	}
	return hex.EncodeToString(b)
}
