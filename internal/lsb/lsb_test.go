package lsb

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/steg_zero/internal/bitconv"
	"github.com/yyyoichi/steg_zero/internal/header"
	"github.com/yyyoichi/steg_zero/pixbuf"
)

func plainBits(h header.Header) int { return int(h.Length) * 8 }

func TestCapacity(t *testing.T) {
	test := []struct {
		name     string
		w, h, ch int
		bpc      int
		want     int
		wantErr  error
	}{
		{"4x4 rgb 1bit", 4, 4, 3, 1, 0, ErrTooSmall},
		{"4x4 rgb 2bit", 4, 4, 3, 2, 4, nil},
		{"4x4 rgb 4bit", 4, 4, 3, 4, 16, nil},
		{"header only", 8, 8, 1, 1, 0, nil},
		{"16x16 rgb 1bit", 16, 16, 3, 1, 88, nil},
		{"16x16 rgba 1bit", 16, 16, 4, 1, 120, nil},
		{"8bit", 10, 10, 3, 8, 292, nil},
		{"empty image", 0, 0, 3, 1, 0, ErrTooSmall},
		{"zero bits", 4, 4, 3, 0, 0, ErrBitsPerChannel},
		{"nine bits", 4, 4, 3, 9, 0, ErrBitsPerChannel},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			buf := newBuffer(t, tt.w, tt.h, tt.ch, 0)
			got, err := Capacity(buf, tt.bpc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbedExtract(t *testing.T) {
	for _, ch := range []int{1, 3, 4} {
		for bpc := 1; bpc <= 8; bpc++ {
			buf := newBuffer(t, 12, 9, ch, 1)
			capacity, err := Capacity(buf, bpc)
			require.NoError(t, err)

			for _, n := range []int{0, 1, capacity / 2, capacity} {
				body := randomBytes(n, int64(n+bpc))
				h, err := header.New(n, bpc, 0)
				require.NoError(t, err)

				carrier := buf.Copy()
				require.NoError(t, Embed(carrier, h, bitconv.BytesToBools(body)))

				got, bits, err := Extract(carrier, bpc, plainBits)
				require.NoError(t, err, "channels=%d bpc=%d len=%d", ch, bpc, n)
				assert.Equal(t, h, got)
				assert.Equal(t, body, bitconv.BoolsToBytes(bits), "channels=%d bpc=%d len=%d", ch, bpc, n)
			}
		}
	}
}

func TestEmbedLayout(t *testing.T) {
	t.Run("one bit per channel", func(t *testing.T) {
		buf := newBuffer(t, 8, 8, 1, 0)
		for i := range buf.Pix {
			buf.Pix[i] = 0b1010_1010
		}
		h, err := header.New(0, 1, 0)
		require.NoError(t, err)
		require.NoError(t, Embed(buf, h, nil))

		// 'S' = 0b0101_0011, MSB first, only the lowest bit changes
		assert.Equal(t, []uint8{
			0b1010_1010, 0b1010_1011, 0b1010_1010, 0b1010_1011,
			0b1010_1010, 0b1010_1010, 0b1010_1011, 0b1010_1011,
		}, buf.Pix[:8])
	})

	t.Run("two bits per channel", func(t *testing.T) {
		buf := newBuffer(t, 8, 8, 1, 0)
		h, err := header.New(0, 2, 0)
		require.NoError(t, err)
		require.NoError(t, Embed(buf, h, nil))

		// 'S' = 01 01 00 11
		assert.Equal(t, []uint8{0b01, 0b01, 0b00, 0b11}, buf.Pix[:4])
	})

	t.Run("partial last channel", func(t *testing.T) {
		buf := newBuffer(t, 10, 10, 1, 0)
		for i := range buf.Pix {
			buf.Pix[i] = 0xff
		}
		h, err := header.New(1, 3, 0)
		require.NoError(t, err)
		// 64 header bits + 7 body bits end inside the 24th channel byte
		body := make([]bool, 7)
		require.NoError(t, Embed(buf, h, body))

		assert.Equal(t, uint8(0b1111_1001), buf.Pix[23], "only the two stream bits change")
		for i, v := range buf.Pix[24:] {
			assert.Equal(t, uint8(0xff), v, "channel %d", 24+i)
		}
	})
}

func TestUntouchedTail(t *testing.T) {
	for bpc := 1; bpc <= 8; bpc++ {
		orig := newBuffer(t, 16, 16, 3, 7)
		carrier := orig.Copy()
		body := randomBytes(10, 3)
		h, err := header.New(len(body), bpc, 0)
		require.NoError(t, err)
		require.NoError(t, Embed(carrier, h, bitconv.BytesToBools(body)))

		used := (header.Bits + len(body)*8 + bpc - 1) / bpc
		assert.Equal(t, orig.Pix[used:], carrier.Pix[used:], "bpc=%d", bpc)
		keep := ^uint8(0) << bpc
		for i := range used {
			assert.Equal(t, orig.Pix[i]&keep, carrier.Pix[i]&keep, "high bits of channel %d, bpc=%d", i, bpc)
		}
	}
}

func TestEmbedTooLarge(t *testing.T) {
	buf := newBuffer(t, 16, 16, 3, 5)
	capacity, err := Capacity(buf, 1)
	require.NoError(t, err)
	orig := buf.Copy()

	h, err := header.New(capacity+1, 1, 0)
	require.NoError(t, err)
	err = Embed(buf, h, make([]bool, (capacity+1)*8))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, capacity+1, capErr.Required)
	assert.Equal(t, capacity, capErr.Available)
	assert.Equal(t, orig.Pix, buf.Pix, "carrier must not change")

	small := newBuffer(t, 4, 4, 3, 5)
	h, err = header.New(0, 1, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, Embed(small, h, nil), ErrTooSmall)

	short := newBuffer(t, 16, 16, 3, 5)
	short.Pix = short.Pix[:10]
	assert.ErrorIs(t, Embed(short, h, nil), pixbuf.ErrInvalidBuffer)
}

func TestExtractErrors(t *testing.T) {
	t.Run("blank carrier", func(t *testing.T) {
		_, _, err := Extract(newBuffer(t, 16, 16, 3, 0), 1, plainBits)
		assert.ErrorIs(t, err, header.ErrNoMessage)
	})

	t.Run("noise carrier", func(t *testing.T) {
		for seed := range int64(20) {
			_, _, err := Extract(newBuffer(t, 16, 16, 3, seed+1), 1, plainBits)
			assert.ErrorIs(t, err, header.ErrNoMessage, "seed %d", seed)
		}
	})

	t.Run("too small to hold a header", func(t *testing.T) {
		_, _, err := Extract(newBuffer(t, 4, 4, 3, 0), 1, plainBits)
		assert.ErrorIs(t, err, header.ErrNoMessage)
		assert.ErrorIs(t, err, ErrTooSmall)
	})

	t.Run("read at another rate", func(t *testing.T) {
		buf := newBuffer(t, 16, 16, 3, 0)
		h, err := header.New(0, 2, 0)
		require.NoError(t, err)
		require.NoError(t, Embed(buf, h, nil))
		_, _, err = Extract(buf, 1, plainBits)
		assert.ErrorIs(t, err, header.ErrNoMessage)
	})

	t.Run("declared length beyond carrier", func(t *testing.T) {
		buf := newBuffer(t, 16, 16, 3, 0)
		h, err := header.New(1000, 1, 0)
		require.NoError(t, err)
		require.NoError(t, Embed(buf, h, nil))
		_, _, err = Extract(buf, 1, plainBits)
		assert.ErrorIs(t, err, header.ErrCorrupt)
		assert.NotErrorIs(t, err, ErrTruncated)
	})

	t.Run("truncated carrier", func(t *testing.T) {
		buf := newBuffer(t, 16, 16, 3, 9)
		body := randomBytes(40, 2)
		h, err := header.New(len(body), 1, 0)
		require.NoError(t, err)
		require.NoError(t, Embed(buf, h, bitconv.BytesToBools(body)))

		for _, keep := range []int{header.Bits + 1, header.Bits + 8*20, header.Bits + 8*40 - 1} {
			cut := buf.Copy()
			cut.Pix = cut.Pix[:keep]
			_, _, err = Extract(cut, 1, plainBits)
			assert.ErrorIs(t, err, ErrTruncated, "keep %d", keep)
		}

		cut := buf.Copy()
		cut.Pix = cut.Pix[:header.Bits/2]
		_, _, err = Extract(cut, 1, plainBits)
		assert.ErrorIs(t, err, ErrTruncated)

		// the untouched tail is not needed
		cut = buf.Copy()
		cut.Pix = cut.Pix[:header.Bits+8*40]
		_, bits, err := Extract(cut, 1, plainBits)
		require.NoError(t, err)
		assert.Equal(t, body, bitconv.BoolsToBytes(bits))
	})

	t.Run("extract does not modify", func(t *testing.T) {
		buf := newBuffer(t, 16, 16, 3, 4)
		h, err := header.New(3, 1, 0)
		require.NoError(t, err)
		require.NoError(t, Embed(buf, h, bitconv.BytesToBools([]byte("abc"))))
		before := buf.Copy()
		_, _, err = Extract(buf, 1, plainBits)
		require.NoError(t, err)
		assert.Equal(t, before.Pix, buf.Pix)
	})
}

func newBuffer(t *testing.T, w, h, ch int, seed int64) *pixbuf.Buffer {
	t.Helper()
	buf, err := pixbuf.New(w, h, ch)
	require.NoError(t, err)
	if seed != 0 {
		rd := rand.New(rand.NewSource(seed))
		_, _ = rd.Read(buf.Pix)
	}
	return buf
}

func randomBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rd := rand.New(rand.NewSource(seed))
	_, _ = rd.Read(b)
	return b
}
