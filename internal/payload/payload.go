// Package payload frames a message into the body stored behind the header:
// an optional zstd frame of the message followed by an optional CRC-32 of
// the original message.
package payload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	// ChecksumSize is the number of bytes a checksum adds to the body.
	ChecksumSize = 4
	// MaxMessageSize bounds a decompressed message, as the header bounds a
	// stored one.
	MaxMessageSize = math.MaxUint32
)

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrDecompress       = errors.New("cannot decompress payload")
)

var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithZeroFrames(true),
		)
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return newDecoder(MaxMessageSize)
	})
)

func newDecoder(limit uint64) (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(limit))
}

// Overhead returns the fixed number of bytes framing adds, not counting
// compression.
func Overhead(checksum bool) int {
	if checksum {
		return ChecksumSize
	}
	return 0
}

// Pack builds the body for msg.
func Pack(msg []byte, checksum, compress bool) ([]byte, error) {
	stored := msg
	if compress {
		enc, err := encoder()
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		stored = enc.EncodeAll(msg, nil)
	}
	body := make([]byte, len(stored), len(stored)+Overhead(checksum))
	_ = copy(body, stored)
	if checksum {
		body = binary.BigEndian.AppendUint32(body, crc32.ChecksumIEEE(msg))
	}
	return body, nil
}

// Unpack recovers the message from body.
func Unpack(body []byte, checksum, compress bool) ([]byte, error) {
	dec, err := decoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return unpack(dec, body, checksum, compress)
}

func unpack(dec *zstd.Decoder, body []byte, checksum, compress bool) ([]byte, error) {
	stored := body
	var sum uint32
	if checksum {
		if len(body) < ChecksumSize {
			return nil, fmt.Errorf("%w: body of %d bytes has no room for a checksum", ErrChecksumMismatch, len(body))
		}
		stored = body[:len(body)-ChecksumSize]
		sum = binary.BigEndian.Uint32(body[len(body)-ChecksumSize:])
	}

	msg := stored
	if compress {
		var err error
		msg, err = dec.DecodeAll(stored, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
		}
	}
	if checksum {
		if got := crc32.ChecksumIEEE(msg); got != sum {
			return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksumMismatch, got, sum)
		}
	}
	if msg == nil {
		msg = []byte{}
	}
	return msg, nil
}
