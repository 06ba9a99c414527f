// Package inspect performs client-side preflight checks on images before any
// bytes are sent to the service: file type and size validation, pixel
// dimensions, and print-size estimates at the service's 300 DPI output.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"

	"github.com/cgyc6688/aspect-ratio-automator/internal/ratio"
)

const (
	// MaxFileSize is the hard upload cap.
	MaxFileSize = 50 << 20
	// SoftWarnSize is the threshold above which the user must confirm.
	SoftWarnSize = 10 << 20

	// PrintDPI is the resolution the service writes into its output files.
	PrintDPI = 300

	thumbnailSize = 300
)

var (
	ErrNotAnImage = errors.New("file is not a supported image (use JPG, PNG, or TIFF)")
	ErrTooLarge   = errors.New("file exceeds the 50MB upload limit")
)

var allowedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// FileInfo is the result of preflight validation.
type FileInfo struct {
	Path        string
	Size        int64
	ContentType string
	// LargeFile is set above the soft 10MB threshold; callers should ask
	// for confirmation before uploading.
	LargeFile bool
}

// PrintCheck reports whether the source has enough pixels for one ratio's
// print-ready output without upscaling.
type PrintCheck struct {
	Ratio  string
	Target string
	OK     bool
}

// Report describes a local image in full.
type Report struct {
	FileInfo
	Width       int
	Height      int
	Format      string
	PrintChecks []PrintCheck
}

// ValidateFile rejects non-image files and files over the hard size cap.
// No network traffic happens here.
func ValidateFile(path string) (*FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExts[ext] {
		return nil, ErrNotAnImage
	}
	if fi.Size() > MaxFileSize {
		return nil, ErrTooLarge
	}

	contentType, err := sniffContentType(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") && !isTIFF(path) {
		return nil, ErrNotAnImage
	}
	if isTIFF(path) {
		contentType = "image/tiff"
	}

	return &FileInfo{
		Path:        path,
		Size:        fi.Size(),
		ContentType: contentType,
		LargeFile:   fi.Size() > SoftWarnSize,
	}, nil
}

// Describe validates the file and adds pixel dimensions plus a per-ratio
// print-size check. An image that cannot cover a ratio's target at 300 DPI
// is the local counterpart of the server's low-resolution warning.
func Describe(path string) (*Report, error) {
	info, err := ValidateFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	report := &Report{
		FileInfo: *info,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
	}
	for _, t := range ratio.All() {
		report.PrintChecks = append(report.PrintChecks, PrintCheck{
			Ratio:  t.Key,
			Target: t.Dimensions(),
			OK:     coversTarget(cfg.Width, cfg.Height, t),
		})
	}
	return report, nil
}

// Thumbnail writes a small local thumbnail of src, matching the preview size
// the service generates. Used for the source tile in the preview cache.
func Thumbnail(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	thumb := imaging.Thumbnail(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

// coversTarget applies the same center-crop math the service uses and checks
// the cropped region has at least the target's pixels.
func coversTarget(width, height int, t ratio.Target) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	targetRatio := t.AspectRatio()
	imgRatio := float64(width) / float64(height)

	var cropW, cropH int
	if imgRatio > targetRatio {
		cropH = height
		cropW = int(float64(cropH) * targetRatio)
	} else {
		cropW = width
		cropH = int(float64(cropW) / targetRatio)
	}
	return cropW >= t.Width && cropH >= t.Height
}

func sniffContentType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return "", fmt.Errorf("failed to read file header: %w", err)
	}
	return http.DetectContentType(header[:n]), nil
}

// isTIFF checks the TIFF magic bytes; http.DetectContentType does not know
// the format.
func isTIFF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false
	}
	return bytes.Equal(magic, []byte("II*\x00")) || bytes.Equal(magic, []byte("MM\x00*"))
}
