// Package convert normalizes uploaded raster images to single-page PDFs so
// the rest of the pipeline only ever sees PDF input.
package convert

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
)

// imageExts is the raster set accepted for conversion.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// IsImage reports whether ext names a supported raster image format.
func IsImage(ext string) bool {
	return imageExts[strings.ToLower(ext)]
}

// IsSupported reports whether ext is accepted by the pipeline at all.
func IsSupported(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == ".pdf" || imageExts[ext]
}

// ToPDF renders the raster image at path as the sole page of a new PDF
// written beside the source, and returns the new path. The source file is
// left untouched.
func ToPDF(path string) (string, error) {
	src := path
	ext := strings.ToLower(filepath.Ext(path))

	// pdfcpu imports PNG and JPEG directly. GIF and BMP are re-encoded to
	// an intermediate PNG first.
	if ext == ".gif" || ext == ".bmp" {
		tmp, err := reencodePNG(path)
		if err != nil {
			return "", fmt.Errorf("re-encoding %s: %w", path, err)
		}
		defer os.Remove(tmp)
		src = tmp
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf"
	if err := api.ImportImagesFile([]string{src}, out, nil, nil); err != nil {
		return "", fmt.Errorf("importing image %s: %w", path, err)
	}
	return out, nil
}

// reencodePNG decodes the image at path and writes it as a sibling PNG.
func reencodePNG(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	tmp := path + ".png"
	out, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("encoding png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}
