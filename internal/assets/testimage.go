package assets

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/chatgateway/internal/freshness"
)

const testImageSize = 200

// namedColors are the colors accepted by ReplaceWithSolidColor.
var namedColors = map[string]color.RGBA{
	"red":    {R: 255, A: 255},
	"green":  {G: 128, A: 255},
	"blue":   {B: 255, A: 255},
	"yellow": {R: 255, G: 255, A: 255},
	"orange": {R: 255, G: 165, A: 255},
	"purple": {R: 128, B: 128, A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"black":  {A: 255},
	"gray":   {R: 128, G: 128, B: 128, A: 255},
}

// ReplaceWithSolidColor overwrites the target path with a fixed-size
// solid-color image, creating parent directories as needed. It exists to
// manufacture a detectable modification-time change for freshness-check
// demonstrations.
func (s *Service) ReplaceWithSolidColor(rawPath, colorName string) error {
	path, err := freshness.Normalize(rawPath)
	if err != nil {
		return err
	}

	fill, ok := namedColors[strings.ToLower(colorName)]
	if !ok {
		return fmt.Errorf("unknown color: %s", colorName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, testImageSize, testImageSize))
	for y := 0; y < testImageSize; y++ {
		for x := 0; x < testImageSize; x++ {
			img.Set(x, y, fill)
		}
	}

	// Write to a temp file and rename so a concurrent serve never reads a
	// partial image.
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := encodeByExt(file, img, strings.ToLower(filepath.Ext(path))); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode image: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to flush image file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace image file: %w", err)
	}

	s.log.Infow("test image replaced", "path", path, "color", colorName)
	return nil
}

// encodeByExt picks the encoder from the target extension, defaulting to PNG.
func encodeByExt(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, nil)
	default:
		return encodePNG(w, img)
	}
}

func encodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
