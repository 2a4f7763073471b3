package mih

import (
	"context"
	"sort"
	"sync"

	"github.com/pixeldedup/pixeldedup/internal/parallel"
	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// bucketTable maps a partition's substring to the sorted list of
// FingerprintIds sharing it. Two implementations exist for the two widths
// the design notes call for: a plain map[uint64] for partitions that fit in
// one limb (every practical r for both W=64 and W=256), and an
// array-keyed map for the rare wide-partition case (small r against
// W=256).
type bucketTable interface {
	insert(key bucketKey, id types.FingerprintId)
	lookup(key bucketKey) []types.FingerprintId
	sortBuckets()
}

type narrowTable struct {
	buckets map[uint64][]types.FingerprintId
}

func newNarrowTable() *narrowTable {
	return &narrowTable{buckets: make(map[uint64][]types.FingerprintId)}
}

func (t *narrowTable) insert(key bucketKey, id types.FingerprintId) {
	t.buckets[key[0]] = append(t.buckets[key[0]], id)
}

func (t *narrowTable) lookup(key bucketKey) []types.FingerprintId {
	return t.buckets[key[0]]
}

func (t *narrowTable) sortBuckets() {
	for k, ids := range t.buckets {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		t.buckets[k] = ids
	}
}

type wideTable struct {
	buckets map[bucketKey][]types.FingerprintId
}

func newWideTable() *wideTable {
	return &wideTable{buckets: make(map[bucketKey][]types.FingerprintId)}
}

func (t *wideTable) insert(key bucketKey, id types.FingerprintId) {
	t.buckets[key] = append(t.buckets[key], id)
}

func (t *wideTable) lookup(key bucketKey) []types.FingerprintId {
	return t.buckets[key]
}

func (t *wideTable) sortBuckets() {
	for k, ids := range t.buckets {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		t.buckets[k] = ids
	}
}

func newBucketTable(partitionWidth int) bucketTable {
	if narrow(partitionWidth) {
		return newNarrowTable()
	}
	return newWideTable()
}

// Index bundles the partition plan and the m substring tables built over a
// frozen set of fingerprints.
type Index struct {
	plan         *PartitionPlan
	tables       []bucketTable
	fingerprints []types.Fingerprint
}

// buildShard is the per-worker partial result Build's parallel pass
// produces: one bucketTable per partition, populated from a single id
// range, later merged into the index's final tables.
type buildShard struct {
	tables []bucketTable
}

// Build partitions fingerprints into m = maxRadius+1 substrings and
// populates the m substring tables. The pass is embarrassingly parallel
// across id ranges: each worker owns one shard's tables, merged by
// partition once every shard completes. All shards are submitted to the
// pool at once and built concurrently; only the final per-partition merge
// is sequential. Parallelism reuses the general-purpose parallel.WorkerPool,
// dispatched here over CPU-bound shard-build jobs instead of an
// HTTP-worker role.
func Build(fingerprints []types.Fingerprint, maxRadius, threads int) *Index {
	width := 64
	if len(fingerprints) > 0 {
		width = fingerprints[0].Width
	}
	plan := NewPartitionPlan(width, maxRadius)

	if threads < 1 {
		threads = 1
	}
	n := len(fingerprints)
	shardSize := (n + threads - 1) / threads
	if shardSize == 0 {
		shardSize = 1
	}

	type shardRange struct{ lo, hi int }
	var ranges []shardRange
	for lo := 0; lo < n; lo += shardSize {
		hi := lo + shardSize
		if hi > n {
			hi = n
		}
		ranges = append(ranges, shardRange{lo, hi})
	}

	handler := func(_ context.Context, task parallel.Task) parallel.Result {
		r := task.Payload.(shardRange)
		shard := &buildShard{tables: make([]bucketTable, plan.Partitions())}
		for i, w := range plan.Widths {
			shard.tables[i] = newBucketTable(w)
		}
		for id := r.lo; id < r.hi; id++ {
			fp := fingerprints[id]
			for i := range plan.Offsets {
				key := extractSubstring(fp, plan.Offsets[i], plan.Widths[i])
				shard.tables[i].insert(key, types.FingerprintId(id))
			}
		}
		return parallel.Result{Output: shard}
	}

	pool := parallel.NewWorkerPool(&parallel.WorkerPoolConfig{
		Workers:   threads,
		QueueSize: len(ranges) + 1,
	}, handler)
	defer pool.Stop()

	shards := make([]*buildShard, len(ranges))
	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for i, r := range ranges {
		i, r := i, r
		go func() {
			defer wg.Done()
			result, err := pool.SubmitWait(ctx, parallel.Task{Payload: r})
			if err == nil {
				shards[i] = result.Output.(*buildShard)
			}
		}()
	}
	wg.Wait()

	tables := make([]bucketTable, plan.Partitions())
	for i, w := range plan.Widths {
		tables[i] = newBucketTable(w)
	}
	for _, shard := range shards {
		if shard == nil {
			continue
		}
		for i := range tables {
			mergeInto(tables[i], shard.tables[i])
		}
	}
	for _, t := range tables {
		t.sortBuckets()
	}

	return &Index{plan: plan, tables: tables, fingerprints: fingerprints}
}

func mergeInto(dst, src bucketTable) {
	switch s := src.(type) {
	case *narrowTable:
		d := dst.(*narrowTable)
		for k, ids := range s.buckets {
			d.buckets[k] = append(d.buckets[k], ids...)
		}
	case *wideTable:
		d := dst.(*wideTable)
		for k, ids := range s.buckets {
			d.buckets[k] = append(d.buckets[k], ids...)
		}
	}
}

// Neighbors returns every FingerprintId with id' > id within Hamming
// distance radius of fingerprints[id], deduplicated so each candidate is
// verified (and charged a full-width Hamming computation) at most once:
// a candidate discovered while scanning partition i is skipped on every
// later partition j > i, crediting the match to the lowest-numbered
// partition that found it (de-duplication strategy (a)).
func (idx *Index) Neighbors(id types.FingerprintId, radius int) []types.FingerprintId {
	fp := idx.fingerprints[id]
	budget := errorBudget(idx.plan.Partitions(), radius)

	seen := make(map[types.FingerprintId]bool)
	var out []types.FingerprintId

	for i := range idx.plan.Offsets {
		width := idx.plan.Widths[i]
		base := extractSubstring(fp, idx.plan.Offsets[i], width)
		for _, mask := range masksUpToWeight(width, budget[i]) {
			var key bucketKey
			key[0] = base[0] ^ mask
			for j := 1; j < len(key); j++ {
				key[j] = base[j]
			}
			for _, cid := range idx.tables[i].lookup(key) {
				if cid <= id || seen[cid] {
					continue
				}
				seen[cid] = true
				if fp.Hamming(idx.fingerprints[cid]) <= radius {
					out = append(out, cid)
				}
			}
		}
	}
	return out
}

// MaxRadius returns the radius the index's partition plan was built for.
func (idx *Index) MaxRadius() int {
	return idx.plan.MaxRadius
}

