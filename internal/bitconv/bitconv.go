// Package bitconv converts between bytes, packed words and bit slices.
// Bits are always MSB-first within a byte.
package bitconv

import "github.com/yyyoichi/bitstream-go"

func BytesToBools(b []byte) []bool {
	data, n := BytesToWords(b)
	return WordsToBools(data, n)
}

func BoolsToBytes(bits []bool) []byte {
	data, n := BoolsToWords(bits)
	return WordsToBytes(data, (n+7)/8)
}

// BytesToWords packs b into 64-bit words and returns them with the bit count.
func BytesToWords(b []byte) ([]uint64, int) {
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range b {
		w.Write8(0, 8, v)
	}
	return w.Data(), w.Bits()
}

// BoolsToWords packs bits into 64-bit words and returns them with the bit count.
func BoolsToWords(bits []bool) ([]uint64, int) {
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range bits {
		w.WriteBool(v)
	}
	return w.Data(), w.Bits()
}

// WordsToBools unpacks the first n bits of data.
func WordsToBools(data []uint64, n int) []bool {
	bits := make([]bool, n)
	if n == 0 {
		return bits
	}
	r := bitstream.NewBitReader(data, 0, 0)
	r.SetBits(n)
	for i := range bits {
		bits[i], _ = r.ReadBitAt(i)
	}
	return bits
}

// WordsToBytes unpacks the first size bytes of data.
// Missing trailing bits read as zero.
func WordsToBytes(data []uint64, size int) []byte {
	out := make([]byte, size)
	if size == 0 {
		return out
	}
	// pad so that every requested byte is backed by a word
	for len(data)*8 < size {
		data = append(data, 0)
	}
	r := bitstream.NewBitReader(data, 0, 0)
	r.SetBits(size * 8)
	for i := range out {
		out[i] = r.Read8R(8, i)
	}
	return out
}
