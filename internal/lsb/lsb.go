package lsb

import (
	"errors"
	"fmt"

	"github.com/yyyoichi/steg_zero/internal/bitconv"
	"github.com/yyyoichi/steg_zero/internal/header"
	"github.com/yyyoichi/steg_zero/pixbuf"
)

var (
	ErrTooSmall        = errors.New("image is too small to carry a header")
	ErrPayloadTooLarge = errors.New("payload exceeds image capacity")
	ErrTruncated       = errors.New("embedded message is truncated")
	ErrBitsPerChannel  = errors.New("bits per channel must be between 1 and 8")
)

// CapacityError reports a payload that does not fit, in bytes.
type CapacityError struct {
	Required  int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: required %d bytes, available %d bytes", ErrPayloadTooLarge, e.Required, e.Available)
}

func (e *CapacityError) Unwrap() error {
	return ErrPayloadTooLarge
}

// Plan holds the facts about one buffer that embedding and extraction
// derive their limits from.
type Plan struct {
	ChannelBytes   int
	BitsPerChannel int
}

// NewPlan derives the plan from the buffer geometry, not from len(buf.Pix).
func NewPlan(buf *pixbuf.Buffer, bitsPerChannel int) (Plan, error) {
	if bitsPerChannel < 1 || bitsPerChannel > 8 {
		return Plan{}, fmt.Errorf("%w: %d", ErrBitsPerChannel, bitsPerChannel)
	}
	if buf == nil {
		return Plan{}, fmt.Errorf("%w: nil buffer", pixbuf.ErrInvalidBuffer)
	}
	return Plan{ChannelBytes: buf.Len(), BitsPerChannel: bitsPerChannel}, nil
}

// TotalBits is the number of bits the carrier holds.
func (p Plan) TotalBits() int {
	return p.ChannelBytes * p.BitsPerChannel
}

// UsableBits is the number of bits left after the header. It is negative
// when the header itself does not fit.
func (p Plan) UsableBits() int {
	return p.TotalBits() - header.Bits
}

// Enable checks that the header fits in the carrier.
func (p Plan) Enable() error {
	if p.UsableBits() < 0 {
		return fmt.Errorf("%w: %d channel bytes at %d bits hold %d bits, header needs %d",
			ErrTooSmall, p.ChannelBytes, p.BitsPerChannel, p.TotalBits(), header.Bits)
	}
	return nil
}

// Capacity returns how many payload bytes buf can carry behind a header.
func Capacity(buf *pixbuf.Buffer, bitsPerChannel int) (int, error) {
	p, err := NewPlan(buf, bitsPerChannel)
	if err != nil {
		return 0, err
	}
	if err := p.Enable(); err != nil {
		return 0, err
	}
	return p.UsableBits() / 8, nil
}

// Embed writes h followed by body into the low-order bits of buf, in place.
//
// Channel bytes are visited in buffer order. Each one takes the next
// h.BitsPerChannel stream bits, the first of them in the highest of its low
// bits. Bytes past the end of the stream are not touched, and neither are the
// low bits of the last byte that the stream does not reach.
//
// Nothing is written unless the whole stream fits.
func Embed(buf *pixbuf.Buffer, h header.Header, body []bool) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	p, err := NewPlan(buf, h.BitsPerChannel)
	if err != nil {
		return err
	}
	if err := p.Enable(); err != nil {
		return err
	}
	if len(body) > p.UsableBits() {
		return &CapacityError{Required: (len(body) + 7) / 8, Available: p.UsableBits() / 8}
	}
	hb, err := h.MarshalBinary()
	if err != nil {
		return err
	}

	bpc := h.BitsPerChannel
	set := func(at int, bit bool) {
		mask := uint8(1) << (bpc - 1 - at%bpc)
		if bit {
			buf.Pix[at/bpc] |= mask
		} else {
			buf.Pix[at/bpc] &^= mask
		}
	}
	for at, bit := range bitconv.BytesToBools(hb) {
		set(at, bit)
	}
	for at, bit := range body {
		set(header.Bits+at, bit)
	}
	return nil
}

// BodyBits reports how many embedded bits follow a given header.
type BodyBits func(h header.Header) int

// ReadHeader decodes the header of buf without reading the body.
func ReadHeader(buf *pixbuf.Buffer, bitsPerChannel int) (header.Header, error) {
	p, err := NewPlan(buf, bitsPerChannel)
	if err != nil {
		return header.Header{}, err
	}
	if err := p.Enable(); err != nil {
		// nothing can have been written to a carrier this small
		return header.Header{}, fmt.Errorf("%w: %w", header.ErrNoMessage, err)
	}
	r := reader{pix: buf.Pix, bpc: bitsPerChannel}
	bits, n := r.read(0, header.Bits)
	if n < header.Bits {
		return header.Header{}, fmt.Errorf("%w: carrier ends inside the header", ErrTruncated)
	}
	h, err := header.Decode(bitconv.BoolsToBytes(bits))
	if err != nil {
		return header.Header{}, err
	}
	if h.BitsPerChannel != bitsPerChannel {
		return header.Header{}, fmt.Errorf("%w: written at %d bits per channel, read at %d",
			header.ErrCorrupt, h.BitsPerChannel, bitsPerChannel)
	}
	return h, nil
}

// Extract reads the header and then exactly the body bits it declares.
//
// A declared body larger than the carrier geometry allows is ErrCorrupt.
// A body that fits the geometry but runs past the end of buf.Pix is
// ErrTruncated. buf is never modified.
func Extract(buf *pixbuf.Buffer, bitsPerChannel int, bodyBits BodyBits) (header.Header, []bool, error) {
	h, err := ReadHeader(buf, bitsPerChannel)
	if err != nil {
		return header.Header{}, nil, err
	}
	p, _ := NewPlan(buf, bitsPerChannel)
	want := bodyBits(h)
	if err := h.Validate(want, p.UsableBits()); err != nil {
		return header.Header{}, nil, err
	}

	r := reader{pix: buf.Pix, bpc: bitsPerChannel}
	body, n := r.read(header.Bits, want)
	if n < want {
		return header.Header{}, nil, fmt.Errorf("%w: carrier ends after %d of %d body bits", ErrTruncated, n, want)
	}
	return h, body, nil
}

type reader struct {
	pix []uint8
	bpc int
}

// read returns up to n stream bits starting at bit offset from, and how many
// it could read before the channel bytes ran out.
func (r reader) read(from, n int) ([]bool, int) {
	bits := make([]bool, n)
	for i := range bits {
		at := from + i
		if at/r.bpc >= len(r.pix) {
			return bits[:i], i
		}
		mask := uint8(1) << (r.bpc - 1 - at%r.bpc)
		bits[i] = r.pix[at/r.bpc]&mask != 0
	}
	return bits, n
}
