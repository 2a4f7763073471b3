// Package pdq computes the 256-bit PDQ-family perceptual hash: a box-blurred
// downsample to a 64x64 luminance grid, a full 64-point separable DCT-II, a
// 16x16 low-frequency block, and a median threshold over all 256 values.
package pdq

import (
	"sort"

	"github.com/pixeldedup/pixeldedup/internal/bitpack"
	"github.com/pixeldedup/pixeldedup/internal/dctmat"
	"github.com/pixeldedup/pixeldedup/internal/resize"
	"github.com/pixeldedup/pixeldedup/pkg/types"
)

const (
	intermediateDim = 512
	dctDim          = 64
	blockDim        = 16
)

// Compute produces the 256-bit PDQ fingerprint of a grayscale pixel buffer.
func Compute(buf types.PixelBuffer) (types.Fingerprint, error) {
	if buf.Width <= 0 || buf.Height <= 0 || len(buf.Pix) != buf.Width*buf.Height {
		return types.Fingerprint{}, types.ErrInputError
	}

	coeffs := dctOf(buf)

	limbs, degenerate := hashFromCoeffs(coeffs)
	if degenerate {
		return types.NewFingerprint256([4]uint64{}), types.ErrDegenerateImage
	}
	return types.NewFingerprint256(limbs), nil
}

// dctOf runs the fixed PDQ pipeline up to (and including) the 64x64 DCT:
// bilinear resize to 512x512, box-average downsample to 64x64, separable
// DCT-II. The 16x16 low-frequency extraction is left to the caller so the
// dihedral family can reuse this single coefficient matrix.
func dctOf(buf types.PixelBuffer) *dctmat.Matrix {
	gray := resize.ToGray(buf)
	large := resize.Square(gray, intermediateDim)
	full := resize.ToFloat64(large)
	small := resize.BoxDownsample(full, dctDim, dctDim)
	matrix := dctmat.FromRows(small)
	return dctmat.DCT2D(matrix)
}

// hashFromCoeffs extracts the 16x16 low-frequency block (all 256 values,
// DC included), thresholds at the median, and packs the result row-major
// with coefficient (0,0) as the most significant bit overall. degenerate is
// true when every value in the block is identical.
func hashFromCoeffs(coeffs *dctmat.Matrix) ([4]uint64, bool) {
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

	packed := bitpack.FromThreshold(values, median)
	var limbs [4]uint64
	copy(limbs[:], packed)
	return limbs, degenerate
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Dihedral returns the eight D4-symmetric 256-bit fingerprints derived from
// a single DCT pass, in the fixed order dctmat.Dihedral defines: identity,
// rotate90, rotate180, rotate270, flipH, flipV, transpose, antiTranspose.
// A degenerate member is reported via ok[i] == false rather than an error,
// since a caller comparing whole families wants to keep every position.
func Dihedral(buf types.PixelBuffer) (fingerprints [8]types.Fingerprint, ok [8]bool, err error) {
	if buf.Width <= 0 || buf.Height <= 0 || len(buf.Pix) != buf.Width*buf.Height {
		return fingerprints, ok, types.ErrInputError
	}

	coeffs := dctOf(buf)
	variants := dctmat.Dihedral(coeffs)

	for i, v := range variants {
		limbs, degenerate := hashFromCoeffs(v)
		if degenerate {
			limbs = [4]uint64{}
		}
		fingerprints[i] = types.NewFingerprint256(limbs)
		ok[i] = !degenerate
	}
	return fingerprints, ok, nil
}

// ComputeRotationInvariant returns the lexicographically smallest hash among
// the four axis-aligned rotations (identity, 90, 180, 270), the canonical
// form used when the grouper should not distinguish an image from its
// rotations.
func ComputeRotationInvariant(buf types.PixelBuffer) (types.Fingerprint, error) {
	if buf.Width <= 0 || buf.Height <= 0 || len(buf.Pix) != buf.Width*buf.Height {
		return types.Fingerprint{}, types.ErrInputError
	}

	coeffs := dctOf(buf)
	variants := [4]*dctmat.Matrix{
		coeffs,
		dctmat.Rotate90(coeffs),
		dctmat.Rotate180(coeffs),
		dctmat.Rotate270(coeffs),
	}

	var best [4]uint64
	haveBest := false
	allDegenerate := true
	for _, v := range variants {
		limbs, degenerate := hashFromCoeffs(v)
		if degenerate {
			continue
		}
		allDegenerate = false
		if !haveBest || lessLimbs(limbs, best) {
			best = limbs
			haveBest = true
		}
	}

	if allDegenerate {
		return types.NewFingerprint256([4]uint64{}), types.ErrDegenerateImage
	}
	return types.NewFingerprint256(best), nil
}

// lessLimbs compares two 4-limb 256-bit values as unsigned big integers,
// limb 3 being most significant.
func lessLimbs(a, b [4]uint64) bool {
	for i := 3; i >= 0; i-- {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
