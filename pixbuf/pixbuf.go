// Package pixbuf holds decoded images as a flat sequence of 8-bit channel
// values, the form the steganographic codec reads and writes.
package pixbuf

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	ErrInvalidBuffer = errors.New("invalid pixel buffer")
)

// Buffer is a row-major sequence of channel bytes. Within a pixel the
// channels are ordered R, G, B, A (or a single gray value).
//
// Buffers built by New or FromImage satisfy len(Pix) == Width*Height*Channels.
// A shorter Pix describes a carrier that lost its tail after writing.
type Buffer struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int

	bounds image.Rectangle
	// alpha keeps the transparency of an RGB buffer whose source had one.
	// It is never exposed to the codec.
	alpha []uint8
}

// New returns a zeroed buffer. channels must be 1, 3 or 4.
func New(width, height, channels int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrInvalidBuffer, width, height)
	}
	if !validChannels(channels) {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrInvalidBuffer, channels)
	}
	return &Buffer{
		Pix:      make([]uint8, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
		bounds:   image.Rect(0, 0, width, height),
	}, nil
}

// FromImage converts src into a buffer.
//
// Gray images become 1-channel buffers. Color images become 3-channel RGB
// buffers, or 4-channel RGBA buffers when withAlpha is set. Color values are
// taken non-premultiplied so that every channel byte survives a lossless
// encode/decode cycle unchanged.
func FromImage(src image.Image, withAlpha bool) *Buffer {
	var b Buffer
	b.bounds = src.Bounds()
	b.Width, b.Height = b.bounds.Dx(), b.bounds.Dy()
	area := b.Width * b.Height

	switch src.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		b.Channels = 1
		b.Pix = make([]uint8, area)
		idx := 0
		for y := b.bounds.Min.Y; y < b.bounds.Max.Y; y++ {
			for x := b.bounds.Min.X; x < b.bounds.Max.X; x++ {
				b.Pix[idx] = color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y
				idx++
			}
		}
		return &b
	}

	b.Channels = 3
	if withAlpha {
		b.Channels = 4
	}
	b.Pix = make([]uint8, area*b.Channels)
	alpha := make([]uint8, area)
	opaque := true
	idx := 0
	for y := b.bounds.Min.Y; y < b.bounds.Max.Y; y++ {
		for x := b.bounds.Min.X; x < b.bounds.Max.X; x++ {
			c := nrgbaAt(src, x, y)
			b.Pix[idx*b.Channels+0] = c.R
			b.Pix[idx*b.Channels+1] = c.G
			b.Pix[idx*b.Channels+2] = c.B
			if withAlpha {
				b.Pix[idx*b.Channels+3] = c.A
			}
			alpha[idx] = c.A
			if c.A != 0xff {
				opaque = false
			}
			idx++
		}
	}
	if !withAlpha && !opaque {
		b.alpha = alpha
	}
	return &b
}

func nrgbaAt(src image.Image, x, y int) color.NRGBA {
	if img, ok := src.(*image.NRGBA); ok {
		return img.NRGBAAt(x, y)
	}
	return color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
}

// Len returns the number of channel bytes the buffer's geometry describes.
// It differs from len(Pix) only for truncated buffers.
func (b *Buffer) Len() int {
	return b.Width * b.Height * b.Channels
}

// Validate reports whether the buffer satisfies its size invariant.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if !validChannels(b.Channels) {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidBuffer, b.Channels)
	}
	if want := b.Len(); len(b.Pix) != want {
		return fmt.Errorf("%w: %d channel bytes, want %d", ErrInvalidBuffer, len(b.Pix), want)
	}
	return nil
}

// Copy returns a deep copy of the buffer.
func (b *Buffer) Copy() *Buffer {
	c := *b
	c.Pix = make([]uint8, len(b.Pix))
	_ = copy(c.Pix, b.Pix)
	if b.alpha != nil {
		c.alpha = make([]uint8, len(b.alpha))
		_ = copy(c.alpha, b.alpha)
	}
	return &c
}

// Image rebuilds an image from the buffer, keeping the original bounds.
// Gray buffers produce *image.Gray, all others *image.NRGBA.
func (b *Buffer) Image() image.Image {
	bounds := b.bounds
	if bounds.Empty() {
		bounds = image.Rect(0, 0, b.Width, b.Height)
	}
	if b.Channels == 1 {
		dist := image.NewGray(bounds)
		_ = copy(dist.Pix, b.Pix)
		return dist
	}

	dist := image.NewNRGBA(bounds)
	area := b.Width * b.Height
	for i := range area {
		src := b.Pix[min(i*b.Channels, len(b.Pix)):min((i+1)*b.Channels, len(b.Pix))]
		if len(src) < b.Channels {
			break
		}
		dst := dist.Pix[i*4 : i*4+4 : i*4+4]
		dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		switch {
		case b.Channels == 4:
			dst[3] = src[3]
		case b.alpha != nil:
			dst[3] = b.alpha[i]
		default:
			dst[3] = 0xff
		}
	}
	return dist
}

func validChannels(n int) bool {
	return n == 1 || n == 3 || n == 4
}
