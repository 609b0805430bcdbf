// Package imgio reads and writes carrier images in lossless raster formats.
package imgio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	// WebP is accepted as input when losslessly coded; it cannot be written.
	WebP Format = "webp"
)

var (
	// ErrUnsupportedFormat is returned for formats that cannot carry a
	// message bit-exactly, such as JPEG (lossy) and GIF (paletted).
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

var (
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	gifMagic  = []byte("GIF8")
)

// Decode reads an image and reports its format.
func Decode(r io.Reader) (image.Image, Format, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, jpegMagic):
		return nil, "", fmt.Errorf("%w: jpeg is lossy", ErrUnsupportedFormat)
	case bytes.HasPrefix(head, gifMagic):
		return nil, "", fmt.Errorf("%w: gif is paletted", ErrUnsupportedFormat)
	}

	img, name, err := image.Decode(br)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	f := Format(name)
	if f == WebP {
		// VP8L decodes to NRGBA, lossy VP8 to YCbCr
		if _, ok := img.(*image.NRGBA); !ok {
			return nil, "", fmt.Errorf("%w: lossy webp", ErrUnsupportedFormat)
		}
	}
	return img, f, nil
}

// Encode writes img in format f. BMP takes opaque images only.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		// bmp drops alpha, and with it any bits carried there
		if !opaque(img) {
			return fmt.Errorf("%w: bmp cannot store transparency", ErrUnsupportedFormat)
		}
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: cannot write %q", ErrUnsupportedFormat, f)
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// Load decodes the image file at path.
func Load(path string) (image.Image, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	img, format, err := Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return img, format, nil
}

// Save encodes img to path in the format its extension names. The file is
// written to a temporary sibling first and renamed into place, so a failed
// encode never leaves a partial carrier behind.
func Save(path string, img image.Image) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, img, f); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// FormatFromPath maps a file extension to a format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	case ".webp":
		return WebP, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// Writable returns f if it can be written, PNG otherwise.
func Writable(f Format) Format {
	if f == WebP {
		return PNG
	}
	return f
}

// Ext returns the canonical file extension for f.
func (f Format) Ext() string {
	return "." + string(f)
}
