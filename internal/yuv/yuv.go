package yuv

// https://github.com/opencv/opencv/blob/0e88b49a53842f0f7cdc4c61b98c283be7e5057c/modules/imgproc/src/opencl/color_yuv.cl#L148-L234

const (
	yr = 0.299
	yg = 0.587
	yb = 0.114
)

// LumaBatch writes the Y component of every pixel of a channel-interleaved
// 8-bit plane into y. Gray planes (channels == 1) are copied as they are;
// an alpha channel is ignored.
func LumaBatch(pix []uint8, channels int, y []float64) {
	if channels == 1 {
		for i := range y {
			y[i] = float64(pix[i])
		}
		return
	}
	for i := range y {
		px := pix[i*channels : i*channels+3 : i*channels+3]
		r := float64(px[0])
		g := float64(px[1])
		b := float64(px[2])
		y[i] = yr*r + yg*g + yb*b
	}
}
