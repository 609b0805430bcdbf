// Package quality measures how far a carrier drifted from its original.
package quality

import (
	"errors"
	"fmt"
	"math"

	"github.com/yyyoichi/steg_zero/internal/yuv"
	"github.com/yyyoichi/steg_zero/pixbuf"
	"gonum.org/v1/gonum/floats"
)

const peak = 255.0

var ErrMismatch = errors.New("buffers differ in shape")

type Report struct {
	// MSE and PSNR over every channel byte.
	MSE  float64
	PSNR float64
	// LumaPSNR over the Y plane only.
	LumaPSNR float64
	// Changed counts channel bytes that differ.
	Changed int
	Total   int
}

// Compare reports the distortion of b relative to a.
// PSNR values are +Inf for identical buffers.
func Compare(a, b *pixbuf.Buffer) (Report, error) {
	if err := a.Validate(); err != nil {
		return Report{}, err
	}
	if err := b.Validate(); err != nil {
		return Report{}, err
	}
	if a.Width != b.Width || a.Height != b.Height || a.Channels != b.Channels {
		return Report{}, fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", ErrMismatch,
			a.Width, a.Height, a.Channels, b.Width, b.Height, b.Channels)
	}

	r := Report{Total: len(a.Pix)}
	if r.Total == 0 {
		r.PSNR, r.LumaPSNR = math.Inf(1), math.Inf(1)
		return r, nil
	}
	x := make([]float64, len(a.Pix))
	y := make([]float64, len(b.Pix))
	for i := range a.Pix {
		x[i], y[i] = float64(a.Pix[i]), float64(b.Pix[i])
		if a.Pix[i] != b.Pix[i] {
			r.Changed++
		}
	}
	r.MSE = mse(x, y)
	r.PSNR = psnr(r.MSE)

	area := a.Width * a.Height
	ya := make([]float64, area)
	yb := make([]float64, area)
	yuv.LumaBatch(a.Pix, a.Channels, ya)
	yuv.LumaBatch(b.Pix, b.Channels, yb)
	r.LumaPSNR = psnr(mse(ya, yb))
	return r, nil
}

func mse(x, y []float64) float64 {
	d := floats.Distance(x, y, 2)
	return d * d / float64(len(x))
}

func psnr(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(peak*peak/mse)
}
