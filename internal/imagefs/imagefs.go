// Package imagefs reads image files from local disk, reports the properties
// the catalog stores, and writes resized renditions.
package imagefs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"

	"github.com/tphakala/imagecurator/internal/errors"
	"github.com/tphakala/imagecurator/internal/logger"
)

// ErrUnsupportedFormat is returned for files no registered decoder accepts
var ErrUnsupportedFormat = errors.NewStd("unsupported image format")

// Info describes an image file.
type Info struct {
	Path       string
	Width      int
	Height     int
	Format     string // upper-case decoder name, e.g. PNG, JPEG
	Mode       string // channel layout: RGB, RGBA, L, I;16, P, CMYK
	HasAlpha   bool
	Filename   string
	Extension  string // lower-case with leading dot
	ColorSpace string
	ICCProfile []byte
	PHash      string // 64-bit DCT perceptual hash, 16 hex digits
}

// Config configures Local.
type Config struct {
	OutputDir   string // renditions are written here
	Format      string // png or jpeg, empty keeps png
	JPEGQuality int
}

// Local is the file-system collaborator backed by the local disk.
type Local struct {
	outputDir   string
	format      imaging.Format
	jpegQuality int
	log         logger.Logger
}

// NewLocal creates a Local. The output directory is created on first write.
func NewLocal(cfg Config, log logger.Logger) (*Local, error) {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}

	format := imaging.PNG
	if cfg.Format != "" {
		f, err := imaging.FormatFromExtension(cfg.Format)
		if err != nil || (f != imaging.PNG && f != imaging.JPEG) {
			return nil, errors.New(fmt.Errorf("%w: output format %q", ErrUnsupportedFormat, cfg.Format)).
				Component("imagefs").
				Category(errors.CategoryConfiguration).
				Build()
		}
		format = f
	}

	quality := cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 95
	}

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "processed"
	}

	return &Local{
		outputDir:   outputDir,
		format:      format,
		jpegQuality: quality,
		log:         log,
	}, nil
}

// OutputDir returns the rendition directory
func (l *Local) OutputDir() string {
	return l.outputDir
}

// Inspect decodes path and reports its properties and perceptual hash.
func (l *Local) Inspect(ctx context.Context, path string) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("read image: %w", err)).
			Component("imagefs").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)).
			Component("imagefs").
			Category(errors.CategoryImageProcessing).
			Context("path", path).
			Build()
	}

	// Dimensions and hash follow the EXIF orientation so they agree with
	// Resize. Mode and alpha come from the stored pixel layout.
	oriented := img
	if format == "jpeg" {
		oriented, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, errors.New(fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)).
				Component("imagefs").
				Category(errors.CategoryImageProcessing).
				Context("path", path).
				Build()
		}
	}

	hash, err := perceptualHash(oriented)
	if err != nil {
		return nil, errors.New(fmt.Errorf("perceptual hash: %w", err)).
			Component("imagefs").
			Category(errors.CategoryImageProcessing).
			Context("path", path).
			Build()
	}

	bounds := oriented.Bounds()
	mode := modeOf(img)
	icc := extractICC(format, data)

	info := &Info{
		Path:       path,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     strings.ToUpper(format),
		Mode:       mode,
		HasAlpha:   hasAlpha(img),
		Filename:   filepath.Base(path),
		Extension:  strings.ToLower(filepath.Ext(path)),
		ColorSpace: colorSpace(icc, mode),
		ICCProfile: icc,
		PHash:      hash,
	}

	l.log.Debug("image inspected",
		logger.String("path", path),
		logger.String("format", info.Format),
		logger.Int("width", info.Width),
		logger.Int("height", info.Height),
		logger.String("phash", hash))
	return info, nil
}

// Resize writes a rendition of path whose long edge is at most resolution
// pixels. Images already within bounds keep their size. The rendition is
// named <stem>_<resolution>.<ext> inside the key subdirectory of the output
// directory, so sources sharing a file name never overwrite each other.
func (l *Local) Resize(ctx context.Context, path, key string, resolution int) (*Info, error) {
	if resolution <= 0 {
		return nil, errors.Newf("resolution must be positive, got %d", resolution).
			Component("imagefs").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.New(fmt.Errorf("open image: %w", err)).
			Component("imagefs").
			Category(errors.CategoryImageProcessing).
			Context("path", path).
			Build()
	}

	// Fit never upscales.
	dst := imaging.Fit(src, resolution, resolution, imaging.Lanczos)

	out := l.renditionPath(path, key, resolution)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("create output directory: %w", err)).
			Component("imagefs").
			Category(errors.CategoryFileIO).
			Context("output_dir", filepath.Dir(out)).
			Build()
	}

	if err := imaging.Save(dst, out, imaging.JPEGQuality(l.jpegQuality)); err != nil {
		return nil, errors.New(fmt.Errorf("save rendition: %w", err)).
			Component("imagefs").
			Category(errors.CategoryFileIO).
			Context("path", out).
			Build()
	}

	l.log.Debug("rendition written",
		logger.String("source", path),
		logger.String("path", out),
		logger.Int("resolution", resolution))

	bounds := dst.Bounds()
	mode := modeOf(dst)
	if l.format == imaging.JPEG {
		mode = "RGB"
	}
	return &Info{
		Path:       out,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     strings.ToUpper(l.format.String()),
		Mode:       mode,
		HasAlpha:   l.format == imaging.PNG && hasAlpha(dst),
		Filename:   filepath.Base(out),
		Extension:  strings.ToLower(filepath.Ext(out)),
		ColorSpace: colorSpace(nil, mode),
	}, nil
}

func (l *Local) renditionPath(src, key string, resolution int) string {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	ext := ".png"
	if l.format == imaging.JPEG {
		ext = ".jpg"
	}
	// filepath.Base keeps a hostile key from escaping the output directory.
	return filepath.Join(l.outputDir, filepath.Base(filepath.Clean("/"+key)), stem+"_"+strconv.Itoa(resolution)+ext)
}

func perceptualHash(img image.Image) (string, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.GetHash()), nil
}
