package render

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/soniakeys/quant/median"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// DefaultJPEGQuality is used when Save is given a quality outside 1..100.
const DefaultJPEGQuality = 90

// gifColors is the palette size used for GIF output.
const gifColors = 256

// Formats lists the file extensions Save understands.
func Formats() []string {
	return []string{"png", "jpg", "jpeg", "tif", "tiff", "bmp", "gif"}
}

// WithFormat appends "."+format to path when it has no extension.
func WithFormat(path, format string) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return path + "." + strings.TrimPrefix(format, ".")
}

// Save writes img to path in the format named by its extension.
func Save(img image.Image, path string, quality int) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !supported(format) {
		return fmt.Errorf("unsupported image format %q", format)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch format {
	case "png":
		err = png.Encode(file, img)
	case "jpg", "jpeg":
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
	case "tif", "tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	case "bmp":
		err = bmp.Encode(file, img)
	case "gif":
		err = gif.Encode(file, paletted(img), nil)
	}
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	return file.Close()
}

// SaveSequence writes one file per image into dir, named
// prefix_000.ext, prefix_001.ext and so on. It returns the paths written.
func SaveSequence(images []image.Image, dir, prefix, format string, quality int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(images))
	for i, img := range images {
		path := filepath.Join(dir, fmt.Sprintf("%s_%03d.%s", prefix, i, format))
		if err := Save(img, path, quality); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// paletted reduces img to a median-cut palette for GIF output.
func paletted(img image.Image) *image.Paletted {
	q := median.Quantizer(gifColors)
	p := q.Paletted(img)
	draw.Draw(p, img.Bounds(), img, img.Bounds().Min, draw.Src)
	return p
}

func supported(format string) bool {
	for _, f := range Formats() {
		if f == format {
			return true
		}
	}
	return false
}
