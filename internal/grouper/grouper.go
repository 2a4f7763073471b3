// Package grouper turns a frozen fingerprint store and its MIH index into
// DuplicateGroups: it runs a parallel edge-discovery phase over a
// panjf2000/ants/v2 goroutine pool that feeds pairwise matches into a concurrent union-find, then a single
// sequential pass turning the resulting components into sorted,
// size-filtered groups. The two phases are intentionally split: discovery
// is embarrassingly parallel and order-independent, component extraction is
// a one-shot sweep that must run after every edge lands.
package grouper

import (
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/pixeldedup/pixeldedup/internal/mih"
	"github.com/pixeldedup/pixeldedup/internal/parallel"
	"github.com/pixeldedup/pixeldedup/internal/unionfind"
	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// Options configures a grouping pass.
type Options struct {
	Radius       int
	MinGroupSize int
	PoolSize     int
}

// Cancelled reports whether a previously started Run should stop early.
// Run checks it once per id at the top of each submitted task, built on the
// parallel.AtomicFlag idiom.
type Cancelled struct {
	flag *parallel.AtomicFlag
}

// NewCancelled returns an initially-clear cancellation flag.
func NewCancelled() *Cancelled {
	return &Cancelled{flag: parallel.NewAtomicFlag(false)}
}

// Cancel marks the flag set; any in-flight or future Run call checking it
// stops discovering new edges.
func (c *Cancelled) Cancel() {
	c.flag.Set()
}

// IsSet reports whether Cancel has been called.
func (c *Cancelled) IsSet() bool {
	return c.flag.IsSet()
}

// Run discovers every edge within opts.Radius across n fingerprints using
// idx, unions them, and returns the resulting DuplicateGroups filtered to
// opts.MinGroupSize and above, sorted by ascending smallest member id. The
// edge-discovery phase is parallel and its result is independent of worker
// count or scheduling order: Union is commutative and idempotent, so
// whichever goroutine discovers an edge first has no effect on the final
// partition.
func Run(idx *mih.Index, n int, opts Options, cancelled *Cancelled) ([]types.DuplicateGroup, error) {
	if n == 0 {
		return nil, nil
	}
	if cancelled == nil {
		cancelled = NewCancelled()
	}

	uf := unionfind.New(n)

	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for id := 0; id < n; id++ {
		id := id
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if cancelled.IsSet() {
				return
			}
			for _, neighbor := range idx.Neighbors(types.FingerprintId(id), opts.Radius) {
				uf.Union(uint32(id), uint32(neighbor))
			}
		})
		if submitErr != nil {
			wg.Done()
		}
	}
	wg.Wait()

	return extractGroups(uf, opts.MinGroupSize), nil
}

// extractGroups performs the sequential component-extraction phase: bucket
// every id by its union-find root, sort each bucket's members ascending,
// drop any bucket under minGroupSize, then sort the surviving groups by
// their smallest member so the result is a pure function of the edge set
// regardless of map iteration order.
func extractGroups(uf *unionfind.UnionFind, minGroupSize int) []types.DuplicateGroup {
	components := uf.Components()

	groups := make([]types.DuplicateGroup, 0, len(components))
	for _, members := range components {
		if len(members) < minGroupSize {
			continue
		}
		ids := make([]types.FingerprintId, len(members))
		for i, m := range members {
			ids[i] = types.FingerprintId(m)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, types.DuplicateGroup{Members: ids})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Members[0] < groups[j].Members[0]
	})
	return groups
}
