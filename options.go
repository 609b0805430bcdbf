package steg

import "fmt"

// DefaultShuffleSeed is the seed WithGolay callers use when they have no
// reason to pick their own. Writer and reader must agree on it.
const DefaultShuffleSeed int64 = 1234567890

type Option func(*Steg) error

// WithBitsPerChannel sets how many low-order bits of every channel byte carry
// message bits. Higher values raise capacity and visible noise alike.
// The value must be between 1 and 8; the default is 1.
func WithBitsPerChannel(n int) Option {
	return func(s *Steg) error {
		if n < 1 || n > 8 {
			return fmt.Errorf("%w: %d", ErrBitsPerChannel, n)
		}
		s.bitsPerChannel = n
		return nil
	}
}

// WithAlpha uses the alpha channel of color images as a carrier too.
// Without it, transparency is preserved as it is.
func WithAlpha() Option {
	return func(s *Steg) error {
		s.alpha = true
		return nil
	}
}

// WithChecksum appends a CRC-32 of the message so that damage is reported
// as ErrCorrupt instead of returning altered bytes.
func WithChecksum() Option {
	return func(s *Steg) error {
		s.checksum = true
		return nil
	}
}

// WithCompression stores the message as a zstd frame.
func WithCompression() Option {
	return func(s *Steg) error {
		s.compress = true
		return nil
	}
}

// WithGolay protects the stored bits with a Golay code, shuffled by seed.
// It corrects up to three flipped bits in every 23, at the cost of a little
// over half the capacity.
//
// seed is the seed value for shuffling the encoded bits. The reader needs the
// same seed. WithGolay implies WithChecksum, so that a message read with
// another seed is reported as ErrCorrupt.
func WithGolay(seed int64) Option {
	return func(s *Steg) error {
		s.golay = true
		s.seed = seed
		return nil
	}
}
