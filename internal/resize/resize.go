// Package resize performs the fixed-size bilinear resampling the perceptual
// hash producers need (32x32 for pHash, 512x512 for PDQ; PDQ's 64x64 stage
// is the box average in BoxDownsample, not a bilinear resize). The filter
// choice is pinned to bilinear with half-pixel centers so hash output is
// reproducible across runs and platforms.
package resize

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// ToGray wraps a raw row-major grayscale buffer in an *image.Gray without
// copying the backing slice.
func ToGray(buf types.PixelBuffer) *image.Gray {
	return &image.Gray{
		Pix:    buf.Pix,
		Stride: buf.Width,
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}
}

// Square resizes src to an n x n grayscale image using bilinear
// interpolation with half-pixel sample centers (golang.org/x/image/draw's
// BiLinear scaler samples at pixel centers, keeping resize output
// reproducible across runs).
func Square(src *image.Gray, n int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, n, n))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Rect resizes src to a w x h grayscale image using the same bilinear
// scaler, for non-square intermediate stages.
func Rect(src *image.Gray, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ToFloat64 copies a grayscale image into a row-major float64 matrix scaled
// to [0, 255], the input format the DCT stage expects.
func ToFloat64(img *image.Gray) [][]float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		base := y * img.Stride
		for x := 0; x < w; x++ {
			row[x] = float64(img.Pix[base+x])
		}
		out[y] = row
	}
	return out
}
