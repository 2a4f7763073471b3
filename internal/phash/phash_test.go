package phash

import (
	"math/bits"
	"testing"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

func gradientBuffer(w, h int) types.PixelBuffer {
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = uint8((x*7 + y*13) % 256)
		}
	}
	return types.PixelBuffer{Width: w, Height: h, Pix: pix}
}

func solidBuffer(w, h int, value uint8) types.PixelBuffer {
	pix := make([]uint8, w*h)
	for i := range pix {
		pix[i] = value
	}
	return types.PixelBuffer{Width: w, Height: h, Pix: pix}
}

func TestComputeRejectsInconsistentDimensions(t *testing.T) {
	buf := types.PixelBuffer{Width: 4, Height: 4, Pix: make([]uint8, 10)}
	if _, err := Compute(buf); err != types.ErrInputError {
		t.Errorf("expected ErrInputError, got %v", err)
	}
}

func TestComputeDeterministic(t *testing.T) {
	buf := gradientBuffer(64, 64)
	a, err := Compute(buf)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	b, err := Compute(buf)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if !a.Equal(b) {
		t.Error("Compute should be a pure function of its input")
	}
	if a.Width != 64 {
		t.Errorf("expected 64-bit fingerprint, got width %d", a.Width)
	}
}

func TestComputeDegenerateFlatImage(t *testing.T) {
	// An all-zero buffer keeps every DCT coefficient, including DC, at
	// zero: the degenerate case. A nonzero flat buffer only zeroes the AC
	// coefficients and leaves DC nonzero, so it does not trip degenerate.
	buf := solidBuffer(32, 32, 0)
	fp, err := Compute(buf)
	if err != types.ErrDegenerateImage {
		t.Fatalf("expected ErrDegenerateImage, got %v", err)
	}
	if fp.Limbs[0] != 0 {
		t.Errorf("expected all-zero hash for degenerate image, got %x", fp.Limbs[0])
	}
}

func TestComputeDifferentImagesDiffer(t *testing.T) {
	a, err := Compute(gradientBuffer(64, 64))
	if err != nil {
		t.Fatalf("Compute a failed: %v", err)
	}
	pixB := make([]uint8, 64*64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			pixB[y*64+x] = uint8((x*3 + y*31) % 256)
		}
	}
	b, err := Compute(types.PixelBuffer{Width: 64, Height: 64, Pix: pixB})
	if err != nil {
		t.Fatalf("Compute b failed: %v", err)
	}
	if a.Equal(b) {
		t.Error("visually different images should not hash identically")
	}
}

func TestComputeRotationInvariantIsLexicographicallySmallest(t *testing.T) {
	buf := gradientBuffer(64, 64)
	fp, err := ComputeRotationInvariant(buf)
	if err != nil {
		t.Fatalf("ComputeRotationInvariant failed: %v", err)
	}

	direct, err := Compute(buf)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if fp.Limbs[0] > direct.Limbs[0] {
		t.Error("rotation-invariant hash should never exceed the identity rotation's hash")
	}
}

func TestMedianOf(t *testing.T) {
	odd := []float64{1, 2, 3}
	if medianOf(odd) != 2 {
		t.Errorf("odd median: got %v, want 2", medianOf(odd))
	}
	even := []float64{1, 2, 3, 4}
	if medianOf(even) != 2.5 {
		t.Errorf("even median: got %v, want 2.5", medianOf(even))
	}
}

func TestHashFromCoeffsBitCountIsBounded(t *testing.T) {
	buf := gradientBuffer(64, 64)
	fp, err := Compute(buf)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	// The median threshold should never set all or none of the 64 bits for
	// a non-degenerate image with real variance.
	count := bits.OnesCount64(fp.Limbs[0])
	if count == 0 || count == 64 {
		t.Errorf("expected a mixed bit pattern, got popcount %d", count)
	}
}
