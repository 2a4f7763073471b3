package bitpack

import "testing"

func TestFromThresholdSingleLimb(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	median := 3.5
	limbs := FromThreshold(values, median)
	if len(limbs) != 1 {
		t.Fatalf("expected 1 limb for 8 values, got %d", len(limbs))
	}
	// values >= 3.5 are indices 4..7 (0-indexed), which should set the 4
	// low-order bits of the single limb since they are the last 4 positions.
	want := uint64(0b00001111)
	if limbs[0] != want {
		t.Errorf("got %08b, want %08b", limbs[0], want)
	}
}

func TestFromThresholdMultiLimb(t *testing.T) {
	n := 130
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	median := float64(n) / 2
	limbs := FromThreshold(values, median)
	if len(limbs) != 3 {
		t.Fatalf("expected 3 limbs for 130 values, got %d", len(limbs))
	}
}

func TestFromThresholdAllBelowMedianIsZero(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	limbs := FromThreshold(values, 100)
	if limbs[0] != 0 {
		t.Errorf("expected all-zero limb, got %x", limbs[0])
	}
}

func TestFromThresholdAllAboveMedianIsAllOnes(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	limbs := FromThreshold(values, 0)
	want := uint64(0b1111)
	if limbs[0] != want {
		t.Errorf("got %04b, want %04b", limbs[0], want)
	}
}

func TestFromThresholdBitOrderMSBFirst(t *testing.T) {
	// Only the first value is >= median: it should land on the highest bit
	// of the bitstring, i.e. bit (n-1) of limb 0 for n <= 64.
	values := []float64{10, 0, 0, 0}
	limbs := FromThreshold(values, 5)
	want := uint64(1) << 3
	if limbs[0] != want {
		t.Errorf("got %04b, want %04b", limbs[0], want)
	}
}
