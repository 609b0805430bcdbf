package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// Size is the width of an encoded header, in bytes.
	Size = 8
	// Bits is the width of an encoded header, in bits.
	Bits = Size * 8

	// Version is the only format version this package writes and reads.
	Version uint8 = 1

	magic0 = 0x53 // 'S'
	magic1 = 0x5a // 'Z'
)

// Flags describe how the body following the header was framed.
type Flags uint8

const (
	FlagChecksum Flags = 1 << iota
	FlagCompressed
	FlagGolay
	FlagAlpha

	knownFlags = FlagChecksum | FlagCompressed | FlagGolay | FlagAlpha
)

func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

var (
	// ErrNoMessage means the carrier never had a message written to it.
	ErrNoMessage = errors.New("no embedded message")
	// ErrCorrupt means a message was written but can no longer be trusted.
	ErrCorrupt = errors.New("embedded message is corrupt")
)

// Header is the fixed-size record preceding every embedded body.
//
//	2bytes magic "SZ" + 4bit version + 4bit bits-per-channel + 1byte flags + 4bytes body length
//	= 8bytes
type Header struct {
	Version        uint8
	BitsPerChannel int
	Flags          Flags
	// Length is the body length in bytes, before error correction.
	Length uint32
}

// New returns a current-version header for a body of bodyLen bytes.
func New(bodyLen int, bitsPerChannel int, flags Flags) (Header, error) {
	if bodyLen < 0 || uint64(bodyLen) > math.MaxUint32 {
		return Header{}, fmt.Errorf("body length %d does not fit in header", bodyLen)
	}
	h := Header{
		Version:        Version,
		BitsPerChannel: bitsPerChannel,
		Flags:          flags,
		Length:         uint32(bodyLen),
	}
	if err := h.check(); err != nil {
		return Header{}, err
	}
	return h, nil
}

func (h Header) MarshalBinary() ([]byte, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	b := make([]byte, Size)
	b[0], b[1] = magic0, magic1
	b[2] = h.Version<<4 | uint8(h.BitsPerChannel)&0x0f
	b[3] = uint8(h.Flags)
	binary.BigEndian.PutUint32(b[4:8], h.Length)
	return b, nil
}

// Decode parses the first Size bytes of b.
// A missing marker yields ErrNoMessage; a present marker followed by fields
// this version cannot have written yields ErrCorrupt.
func Decode(b []byte) (Header, error) {
	if len(b) < Size {
		return Header{}, fmt.Errorf("%w: %d header bytes", ErrNoMessage, len(b))
	}
	if b[0] != magic0 || b[1] != magic1 {
		return Header{}, ErrNoMessage
	}
	h := Header{
		Version:        b[2] >> 4,
		BitsPerChannel: int(b[2] & 0x0f),
		Flags:          Flags(b[3]),
		Length:         binary.BigEndian.Uint32(b[4:8]),
	}
	if err := h.check(); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return h, nil
}

// Validate checks the declared body against the carrier: bodyBits is the
// number of bits the body occupies once framed, availableBits what the
// carrier holds after the header.
func (h Header) Validate(bodyBits, availableBits int) error {
	if bodyBits > availableBits {
		return fmt.Errorf("%w: declared body of %d bytes needs %d bits, carrier holds %d",
			ErrCorrupt, h.Length, bodyBits, availableBits)
	}
	return nil
}

func (h Header) check() error {
	if h.Version != Version {
		return fmt.Errorf("unsupported version %d", h.Version)
	}
	if h.BitsPerChannel < 1 || h.BitsPerChannel > 8 {
		return fmt.Errorf("bits per channel %d out of range", h.BitsPerChannel)
	}
	if h.Flags&^knownFlags != 0 {
		return fmt.Errorf("unknown flags %08b", uint8(h.Flags))
	}
	return nil
}
