// Package steg hides a message in the low-order bits of an image's pixels
// and recovers it again.
package steg

import (
	"context"
	"fmt"
	"image"

	"github.com/yyyoichi/steg_zero/internal/ecc"
	"github.com/yyyoichi/steg_zero/internal/header"
	"github.com/yyyoichi/steg_zero/internal/lsb"
	"github.com/yyyoichi/steg_zero/internal/payload"
	"github.com/yyyoichi/steg_zero/pixbuf"
)

// Embed hides msg in src with the specified options.
// This is a convenience function that creates a Steg instance and calls its Embed method.
func Embed(ctx context.Context, src image.Image, msg []byte, opts ...Option) (image.Image, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return s.Embed(ctx, src, msg)
}

// Extract recovers the message hidden in src with the specified options.
// This is a convenience function that creates a Steg instance and calls its Extract method.
func Extract(ctx context.Context, src image.Image, opts ...Option) ([]byte, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return s.Extract(ctx, src)
}

// Steg holds the embedding configuration. It is not modified after New and
// may be shared between goroutines.
type Steg struct {
	bitsPerChannel int
	alpha          bool
	checksum       bool
	compress       bool
	golay          bool
	seed           int64
}

// New initializes a codec. Without options it writes one bit per RGB (or
// gray) channel byte with no framing.
func New(opts ...Option) (*Steg, error) {
	s := new(Steg)
	if err := s.init(opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// Capacity returns the largest message, in bytes, that Embed accepts for src.
// Compression is not taken into account.
func (s *Steg) Capacity(src image.Image) (int, error) {
	return s.CapacityBuffer(pixbuf.FromImage(src, s.alpha))
}

// CapacityBuffer is Capacity for a decoded pixel buffer.
func (s *Steg) CapacityBuffer(buf *pixbuf.Buffer) (int, error) {
	p, err := lsb.NewPlan(buf, s.bitsPerChannel)
	if err != nil {
		return 0, err
	}
	if err := p.Enable(); err != nil {
		return 0, err
	}
	n := ecc.MaxBody(s.codec(s.golay), p.UsableBits()) - payload.Overhead(s.checksum)
	if n < 0 {
		return 0, fmt.Errorf("%w: no room left after framing", ErrTooSmall)
	}
	return n, nil
}

// Embed returns a copy of src with msg hidden in it. src is not modified.
//
// Process:
//  1. Converts the image to a buffer of channel bytes.
//  2. Frames the message (compression, checksum) and optionally Golay encodes it.
//  3. Checks that the header and the encoded body fit.
//  4. Writes both into the low-order bits of a copy of the buffer.
//  5. Reconstructs the image.
//
// Returns a *CapacityError if the message does not fit, and ErrTooSmall if
// not even the header does.
func (s *Steg) Embed(ctx context.Context, src image.Image, msg []byte) (image.Image, error) {
	dist, err := s.EmbedBuffer(ctx, pixbuf.FromImage(src, s.alpha), msg)
	if err != nil {
		return nil, err
	}
	return dist.Image(), nil
}

// EmbedBuffer is Embed for a decoded pixel buffer. buf is not modified.
func (s *Steg) EmbedBuffer(ctx context.Context, buf *pixbuf.Buffer, msg []byte) (*pixbuf.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	capacity, err := s.CapacityBuffer(buf)
	if err != nil {
		return nil, err
	}
	body, err := payload.Pack(msg, s.checksum, s.compress)
	if err != nil {
		return nil, err
	}
	if stored := len(body) - payload.Overhead(s.checksum); stored > capacity {
		return nil, &CapacityError{Required: stored, Available: capacity}
	}

	h, err := header.New(len(body), s.bitsPerChannel, s.flags(buf))
	if err != nil {
		return nil, err
	}
	bits, err := s.codec(s.golay).Encode(body)
	if err != nil {
		return nil, err
	}
	dist := buf.Copy()
	if err := lsb.Embed(dist, h, bits); err != nil {
		return nil, err
	}
	return dist, nil
}

// Extract recovers the message hidden in src.
//
// Process:
//  1. Converts the image to a buffer of channel bytes.
//  2. Reads and checks the header.
//  3. Reads exactly the body the header declares.
//  4. Reverses Golay coding, compression and checksum as the header flags say.
//
// Returns ErrNoMessage for images that carry nothing, ErrCorrupt for a
// message that cannot be recovered intact and ErrTruncated for pixel data
// that ends too early.
func (s *Steg) Extract(ctx context.Context, src image.Image) ([]byte, error) {
	return s.ExtractBuffer(ctx, pixbuf.FromImage(src, s.alpha))
}

// ExtractBuffer is Extract for a decoded pixel buffer. buf is not modified.
func (s *Steg) ExtractBuffer(ctx context.Context, buf *pixbuf.Buffer) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", pixbuf.ErrInvalidBuffer)
	}
	h, bits, err := lsb.Extract(buf, s.bitsPerChannel, func(h header.Header) int {
		return s.codec(h.Flags.Has(header.FlagGolay)).EncodedBits(int(h.Length))
	})
	if err != nil {
		return nil, err
	}
	if h.Flags.Has(header.FlagAlpha) != (buf.Channels == 4) {
		return nil, fmt.Errorf("%w: written with alpha=%t, read with %d channels",
			ErrCorrupt, h.Flags.Has(header.FlagAlpha), buf.Channels)
	}

	body, err := s.codec(h.Flags.Has(header.FlagGolay)).Decode(bits, int(h.Length))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	msg, err := payload.Unpack(body, h.Flags.Has(header.FlagChecksum), h.Flags.Has(header.FlagCompressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return msg, nil
}

// Info describes the message an image carries, as far as the header tells.
type Info struct {
	Version        int
	BitsPerChannel int
	// Length is the stored body length in bytes, including any checksum.
	Length     int
	Checksum   bool
	Compressed bool
	Golay      bool
	Alpha      bool
}

// Inspect reads only the header hidden in src.
func (s *Steg) Inspect(src image.Image) (Info, error) {
	h, err := lsb.ReadHeader(pixbuf.FromImage(src, s.alpha), s.bitsPerChannel)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Version:        int(h.Version),
		BitsPerChannel: h.BitsPerChannel,
		Length:         int(h.Length),
		Checksum:       h.Flags.Has(header.FlagChecksum),
		Compressed:     h.Flags.Has(header.FlagCompressed),
		Golay:          h.Flags.Has(header.FlagGolay),
		Alpha:          h.Flags.Has(header.FlagAlpha),
	}, nil
}

func (s *Steg) flags(buf *pixbuf.Buffer) header.Flags {
	var f header.Flags
	if s.checksum {
		f |= header.FlagChecksum
	}
	if s.compress {
		f |= header.FlagCompressed
	}
	if s.golay {
		f |= header.FlagGolay
	}
	if buf.Channels == 4 {
		f |= header.FlagAlpha
	}
	return f
}

func (s *Steg) codec(golay bool) ecc.Codec {
	if golay {
		return ecc.ShuffledGolay(s.seed)
	}
	return ecc.None{}
}

func (s *Steg) init(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return err
		}
	}
	if s.bitsPerChannel == 0 {
		s.bitsPerChannel = 1
	}
	if s.golay {
		// a Golay decode never fails, so only the checksum can tell a wrong seed
		s.checksum = true
	} else {
		// used to read messages written with the default seed
		s.seed = DefaultShuffleSeed
	}
	return nil
}
