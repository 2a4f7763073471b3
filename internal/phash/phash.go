// Package phash computes the 64-bit perceptual hash: a 32x32 bilinear
// resize, a separable 8x8-truncated type-II DCT, and a median threshold
// over the low-frequency block.
package phash

import (
	"sort"

	"github.com/pixeldedup/pixeldedup/internal/dctmat"
	"github.com/pixeldedup/pixeldedup/internal/resize"
	"github.com/pixeldedup/pixeldedup/pkg/types"
)

const (
	resizeDim = 32
	blockDim  = 8
)

// Compute produces the 64-bit pHash of a grayscale pixel buffer.
func Compute(buf types.PixelBuffer) (types.Fingerprint, error) {
	if buf.Width <= 0 || buf.Height <= 0 || len(buf.Pix) != buf.Width*buf.Height {
		return types.Fingerprint{}, types.ErrInputError
	}

	gray := resize.ToGray(buf)
	small := resize.Square(gray, resizeDim)
	matrix := dctmat.FromRows(resize.ToFloat64(small))
	coeffs := dctmat.DCT2D(matrix)

	hash, degenerate := hashFromCoeffs(coeffs)
	if degenerate {
		return types.NewFingerprint64(0), types.ErrDegenerateImage
	}
	return types.NewFingerprint64(hash), nil
}

// hashFromCoeffs extracts the 8x8 low-frequency block, thresholds it at the
// median of all 64 values (DC included), and packs the result row-major
// with bit 0 (coefficient (0,0)) as the most significant bit. degenerate is
// true when every coefficient in the block is identical, signalling a
// zero-variance (all-zero-hash) input.
func hashFromCoeffs(coeffs *dctmat.Matrix) (uint64, bool) {
	values := make([]float64, 0, blockDim*blockDim)
	for u := 0; u < blockDim; u++ {
		for v := 0; v < blockDim; v++ {
			values = append(values, coeffs.At(u, v))
		}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	median := medianOf(sorted)

	degenerate := sorted[0] == sorted[len(sorted)-1]

	var hash uint64
	for _, v := range values {
		var bit uint64
		if v >= median {
			bit = 1
		}
		hash = (hash << 1) | bit
	}
	return hash, degenerate
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ComputeRotationInvariant computes pHash-64 over the image's four 90-degree
// rotations in DCT coefficient space and returns the lexicographically
// smallest.
func ComputeRotationInvariant(buf types.PixelBuffer) (types.Fingerprint, error) {
	if buf.Width <= 0 || buf.Height <= 0 || len(buf.Pix) != buf.Width*buf.Height {
		return types.Fingerprint{}, types.ErrInputError
	}

	gray := resize.ToGray(buf)
	small := resize.Square(gray, resizeDim)
	matrix := dctmat.FromRows(resize.ToFloat64(small))
	coeffs := dctmat.DCT2D(matrix)

	variants := [4]*dctmat.Matrix{
		coeffs,
		dctmat.Rotate90(coeffs),
		dctmat.Rotate180(coeffs),
		dctmat.Rotate270(coeffs),
	}

	var best uint64
	haveBest := false
	allDegenerate := true
	for _, v := range variants {
		h, degenerate := hashFromCoeffs(v)
		if degenerate {
			continue
		}
		allDegenerate = false
		if !haveBest || h < best {
			best = h
			haveBest = true
		}
	}

	if allDegenerate {
		return types.NewFingerprint64(0), types.ErrDegenerateImage
	}
	return types.NewFingerprint64(best), nil
}
