// Package bitpack packs a row-major sequence of thresholded coefficients
// into the little-endian 64-bit limb representation types.Fingerprint uses,
// keeping the "MSB = (0,0)" bit-ordering convention consistent for both the
// 64-bit and 256-bit hash producers.
package bitpack

// FromThreshold packs len(values) bits (1 where v >= median, else 0) into
// ceil(len(values)/64) little-endian uint64 limbs. Bit 0 of the logical
// sequence is the most significant bit of the overall bitstring: it ends up
// as the top bit of the highest-index limb.
func FromThreshold(values []float64, median float64) []uint64 {
	n := len(values)
	limbCount := (n + 63) / 64
	limbs := make([]uint64, limbCount)

	for i, v := range values {
		var bit uint64
		if v >= median {
			bit = 1
		}
		// Position i counting from the start is bit (n-1-i) of the overall
		// big-endian bitstring, i.e. limb (n-1-i)/64, shift (n-1-i)%64.
		pos := n - 1 - i
		limb := pos / 64
		shift := uint(pos % 64)
		limbs[limb] |= bit << shift
	}
	return limbs
}
