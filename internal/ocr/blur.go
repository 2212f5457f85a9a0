package ocr

import "image"

const DefaultBlurThreshold = 100.0

// LaplacianVariance measures sharpness as the variance of the 4-neighbour
// Laplacian over the grayscale image. Blurry images score low.
func LaplacianVariance(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// ITU-R BT.601 luma on 8-bit values.
			gray[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 257
		}
	}

	var sum, sumSq float64
	n := float64((w - 2) * (h - 2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			lap := gray[i-w] + gray[i+w] + gray[i-1] + gray[i+1] - 4*gray[i]
			sum += lap
			sumSq += lap * lap
		}
	}

	mean := sum / n
	return sumSq/n - mean*mean
}

// IsBlurry reports whether the image's sharpness falls below threshold.
func IsBlurry(img image.Image, threshold float64) (bool, float64) {
	v := LaplacianVariance(img)
	return v < threshold, v
}
