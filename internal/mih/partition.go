// Package mih implements the Multi-Index Hashing index: an MIH fingerprint
// is partitioned into m = r+1 disjoint bit-contiguous substrings so that any
// two fingerprints within Hamming distance r agree exactly on at least one
// substring (pigeonhole), then each substring is used as a hash-table key
// to find candidate neighbors without a full O(N^2) scan.
package mih

import (
	"fmt"
	"math/bits"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// PartitionPlan fixes the bit-contiguous partition boundaries for a given
// fingerprint width and the maximum radius the index will ever be queried
// at. Offsets are measured from bit 0 (the least-significant bit of limb 0).
type PartitionPlan struct {
	Width     int
	MaxRadius int
	Offsets   []int
	Widths    []int
}

// NewPartitionPlan builds the m = maxRadius+1 partition plan for a width-bit
// fingerprint. Partition widths differ by at most one bit: width%m
// partitions get ⌈width/m⌉ bits, the rest get ⌊width/m⌋.
func NewPartitionPlan(width, maxRadius int) *PartitionPlan {
	m := maxRadius + 1
	base := width / m
	extra := width % m

	offsets := make([]int, m)
	widths := make([]int, m)
	offset := 0
	for i := 0; i < m; i++ {
		w := base
		if i < extra {
			w++
		}
		offsets[i] = offset
		widths[i] = w
		offset += w
	}
	return &PartitionPlan{Width: width, MaxRadius: maxRadius, Offsets: offsets, Widths: widths}
}

// Partitions returns m, the number of partitions in the plan.
func (p *PartitionPlan) Partitions() int {
	return len(p.Offsets)
}

// ValidateRadius rejects a (width, n, radius) combination at freeze time
// when m = radius+1 partitions would leave any partition with fewer than
// ceil(log2 n) bits, the Oversize condition.
func ValidateRadius(width, n, radius int) error {
	if n <= 1 {
		return nil
	}
	m := radius + 1
	minWidth := width / m // the narrowest partition in the plan
	required := bits.Len(uint(n - 1))
	if minWidth < required {
		return fmt.Errorf("mih: radius %d over width %d gives partitions as narrow as %d bits, need >= %d for %d fingerprints", radius, width, minWidth, required, n)
	}
	return nil
}

// bucketKey is a fixed-width, zero-padded representation of a substring,
// wide enough for the largest supported fingerprint (256 bits). Narrow
// partitions (<=64 bits) only ever populate key[0].
type bucketKey [4]uint64

// narrow reports whether width bits fit in a single uint64 limb, the case
// bucket tables special-case with a plain map[uint64] for speed.
func narrow(width int) bool {
	return width <= 64
}

// extractSubstring pulls width bits starting at offset (from fp's bit 0)
// into a right-aligned, zero-padded bucketKey.
func extractSubstring(fp types.Fingerprint, offset, width int) bucketKey {
	var key bucketKey
	for i := 0; i < width; i++ {
		bit := fp.Bit(offset + i)
		limb := i / 64
		key[limb] |= bit << uint(i%64)
	}
	return key
}

// errorBudget returns, for m fixed partitions and a query radius r <=
// MaxRadius, the per-partition substring-error allowance: r/m errors for
// m-(r%m) partitions and r/m+1 for the remaining r%m partitions, summing to
// exactly r. The partitions fixed by the index's MaxRadius still satisfy
// the pigeonhole bound for any r <= MaxRadius since the bound only gets
// tighter as r shrinks.
func errorBudget(m, r int) []int {
	q, rem := r/m, r%m
	budget := make([]int, m)
	for i := 0; i < m; i++ {
		if i < rem {
			budget[i] = q + 1
		} else {
			budget[i] = q
		}
	}
	return budget
}

// masksUpToWeight returns every distinct width-bit mask with popcount in
// [0, maxWeight], used to expand a substring into every value within
// maxWeight substitutions (the MIH Hamming-ball expansion per partition).
// Masks are single uint64 values: for width > 64 only bit positions below
// 64 are flipped, and each higher position adds a zero mask, so the result
// then holds repeats.
func masksUpToWeight(width, maxWeight int) []uint64 {
	if maxWeight > width {
		maxWeight = width
	}
	var masks []uint64
	masks = append(masks, 0)
	var combine func(start int, weight int, cur uint64)
	combine = func(start, weight int, cur uint64) {
		if weight == 0 {
			return
		}
		for i := start; i < width; i++ {
			next := cur | (uint64(1) << uint(i))
			masks = append(masks, next)
			combine(i+1, weight-1, next)
		}
	}
	combine(0, maxWeight, 0)
	return masks
}
