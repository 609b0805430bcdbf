package ecc

import (
	"fmt"
	"math/rand"

	"github.com/yyyoichi/bitstream-go"
	"github.com/yyyoichi/golay"
	"github.com/yyyoichi/steg_zero/internal/bitconv"
)

// Codec turns a body into the bits that are embedded, and back.
type Codec interface {
	Encode(body []byte) ([]bool, error)
	Decode(bits []bool, bodyLen int) ([]byte, error)
	// EncodedBits is the number of bits Encode produces for a body of bodyLen bytes.
	EncodedBits(bodyLen int) int
}

var _ Codec = (*ShuffledGolay)(nil)

// ShuffledGolay encodes the body with the binary Golay code and then
// permutes the encoded bits with a seeded shuffle, so that a run of damaged
// channel bytes is spread over many code words.
type ShuffledGolay int64

func (sg ShuffledGolay) Encode(body []byte) ([]bool, error) {
	if len(body) == 0 {
		return []bool{}, nil
	}
	data, size := bitconv.BytesToWords(body)
	var encoded []uint64
	enc := golay.NewEncoder(&encoded)
	if err := enc.Encode(data, size); err != nil {
		return nil, fmt.Errorf("golay encode: %w", err)
	}
	encodedLen := enc.Bits()
	index := sg.permutation(encodedLen)

	r := bitstream.NewBitReader(encoded, 0, 0)
	bits := make([]bool, encodedLen)
	for i := range bits {
		bits[i], _ = r.ReadBitAt(index[i])
	}
	return bits, nil
}

func (sg ShuffledGolay) Decode(bits []bool, bodyLen int) ([]byte, error) {
	if bodyLen == 0 {
		return []byte{}, nil
	}
	// reverse shuffle: create same permutation then apply inverse
	index := sg.permutation(len(bits))
	w := bitstream.NewBitWriter[uint64](0, 0)
	for i := range bits {
		w.WriteBitAt(index[i], bits[i])
	}

	var decoded []uint64
	dec := golay.NewDecoder(w.Data(), w.Bits())
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("golay decode: %w", err)
	}
	return bitconv.WordsToBytes(decoded, bodyLen), nil
}

func (sg ShuffledGolay) EncodedBits(bodyLen int) int {
	if bodyLen == 0 {
		return 0
	}
	return golay.EncodedBits(bodyLen * 8)
}

func (sg ShuffledGolay) permutation(length int) []int {
	index := make([]int, length)
	for i := range index {
		index[i] = i
	}
	rd := rand.New(rand.NewSource(int64(sg)))
	rd.Shuffle(length, func(i, j int) {
		index[i], index[j] = index[j], index[i]
	})
	return index
}

var _ Codec = (*None)(nil)

// None embeds the body bits as they are.
type None struct{}

func (None) Encode(body []byte) ([]bool, error) {
	return bitconv.BytesToBools(body), nil
}

func (None) Decode(bits []bool, bodyLen int) ([]byte, error) {
	if len(bits) < bodyLen*8 {
		return nil, fmt.Errorf("%d bits cannot hold %d bytes", len(bits), bodyLen)
	}
	return bitconv.BoolsToBytes(bits[:bodyLen*8]), nil
}

func (None) EncodedBits(bodyLen int) int {
	return bodyLen * 8
}

// MaxBody returns the largest body length, in bytes, whose encoding fits in
// bits. It returns -1 when bits is negative.
func MaxBody(c Codec, bits int) int {
	if bits < 0 {
		return -1
	}
	lo, hi := 0, bits/8
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.EncodedBits(mid) <= bits {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
