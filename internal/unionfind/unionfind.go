// Package unionfind implements a concurrent disjoint-set over a dense range
// of FingerprintIds using Rem's algorithm: atomic compare-and-swap on parent
// pointers, no union-by-rank. Multiple goroutines can call Union
// concurrently without external locking; find path-compresses optimistically
// via CAS, generalizing the same compare-and-swap-retry loop an atomic
// counter uses from a single int64 to a per-id parent slice.
package unionfind

import "sync/atomic"

// UnionFind is a lock-free disjoint-set over ids in [0, n).
type UnionFind struct {
	parent []uint32
}

// New creates a UnionFind over n singleton sets, one per id.
func New(n int) *UnionFind {
	parent := make([]uint32, n)
	for i := range parent {
		parent[i] = uint32(i)
	}
	return &UnionFind{parent: parent}
}

// Find returns the representative of id's set, path-compressing along the
// way via CAS so later Find calls shorten.
func (u *UnionFind) Find(id uint32) uint32 {
	for {
		p := u.loadParent(id)
		if p == id {
			return id
		}
		gp := u.loadParent(p)
		if gp != p {
			// Optimistic path halving: point id directly at its grandparent.
			// A failed CAS means a concurrent writer already moved id;
			// it is not retried, and the walk continues from p either way.
			atomic.CompareAndSwapUint32(&u.parent[id], p, gp)
		}
		id = p
	}
}

// Union merges the sets containing a and b using Rem's algorithm: repeatedly
// compare the two roots' parent pointers and swing the root with the larger
// value under the one with the smaller value, retrying on CAS failure. No
// rank or size bookkeeping is kept; this keeps Union allocation-free and
// safe to call from any number of concurrent workers.
func (u *UnionFind) Union(a, b uint32) {
	for {
		ra := u.Find(a)
		rb := u.Find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			ra, rb = rb, ra
		}
		// ra > rb: try to attach ra under rb.
		if atomic.CompareAndSwapUint32(&u.parent[ra], ra, rb) {
			return
		}
		// Lost the race (someone else changed ra's parent); retry.
	}
}

// Connected reports whether a and b are currently in the same set.
func (u *UnionFind) Connected(a, b uint32) bool {
	return u.Find(a) == u.Find(b)
}

// Components returns every id bucketed by its final representative, each
// bucket sorted ascending by id. Call only after all Union calls complete;
// it performs a single non-concurrent sweep.
func (u *UnionFind) Components() map[uint32][]uint32 {
	groups := make(map[uint32][]uint32)
	for id := range u.parent {
		root := u.Find(uint32(id))
		groups[root] = append(groups[root], uint32(id))
	}
	return groups
}

func (u *UnionFind) loadParent(id uint32) uint32 {
	return atomic.LoadUint32(&u.parent[id])
}
