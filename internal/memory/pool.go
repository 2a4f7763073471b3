// Package memory pools float64 scratch buffers for the DCT stage the hash
// producers run on every call. Built on a sized sync.Pool idiom: one
// sync.Pool per exact slice length, created lazily on the first Get of that
// length.
package memory

import "sync"

// FloatSlicePool pools []float64 scratch buffers keyed by exact length. It
// backs MatrixPool, whose global instance supplies internal/dctmat.DCT2D's
// intermediate matrix.
type FloatSlicePool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
	stats *PoolStats
}

// PoolStats tracks slice pool traffic: cheap visibility into whether
// pooling is actually paying for itself under a given workload.
type PoolStats struct {
	Gets     int64
	Puts     int64
	News     int64
	Discards int64
}

// NewFloatSlicePool creates an empty pool; size classes are created lazily
// on first Get for that length.
func NewFloatSlicePool() *FloatSlicePool {
	return &FloatSlicePool{pools: make(map[int]*sync.Pool), stats: &PoolStats{}}
}

// Get returns a zeroed []float64 of exactly n elements.
func (p *FloatSlicePool) Get(n int) []float64 {
	pool := p.poolFor(n)
	s := pool.Get().([]float64)
	for i := range s {
		s[i] = 0
	}
	p.mu.Lock()
	p.stats.Gets++
	p.mu.Unlock()
	return s
}

// Put returns a slice obtained from Get back to its size class. A slice of
// a length the pool never handed out is discarded rather than pooled, since
// a later Get of that length would otherwise receive a mis-sized buffer.
func (p *FloatSlicePool) Put(s []float64) {
	if s == nil {
		return
	}
	p.mu.Lock()
	pool, ok := p.pools[len(s)]
	if ok {
		p.stats.Puts++
	} else {
		p.stats.Discards++
	}
	p.mu.Unlock()
	if ok {
		pool.Put(s) //nolint:staticcheck // size-homogeneous by construction
	}
}

// GetStats returns a snapshot of pool traffic counters.
func (p *FloatSlicePool) GetStats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.stats
}

func (p *FloatSlicePool) poolFor(n int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	pool, ok := p.pools[n]
	if !ok {
		pool = &sync.Pool{New: func() any {
			p.mu.Lock()
			p.stats.News++
			p.mu.Unlock()
			return make([]float64, n)
		}}
		p.pools[n] = pool
	}
	return pool
}

// MatrixPool pools internal/dctmat.Matrix-shaped backing slices (N*N
// float64 elements) so repeated DCT calls over the same resize dimension
// don't churn the allocator.
type MatrixPool struct {
	slices *FloatSlicePool
}

// NewMatrixPool creates an empty matrix pool.
func NewMatrixPool() *MatrixPool {
	return &MatrixPool{slices: NewFloatSlicePool()}
}

// Get returns a zeroed N*N backing slice for an N x N matrix.
func (p *MatrixPool) Get(n int) []float64 {
	return p.slices.Get(n * n)
}

// Put returns a backing slice obtained from Get.
func (p *MatrixPool) Put(s []float64) {
	p.slices.Put(s)
}

// GetStats returns the underlying slice pool's traffic counters.
func (p *MatrixPool) GetStats() PoolStats {
	return p.slices.GetStats()
}

// Global pool for convenience, exposed via the package-level
// GetMatrixBacking/PutMatrixBacking helpers below.
var (
	globalMatrixPool *MatrixPool
	initOnce         sync.Once
)

func initGlobalPool() {
	initOnce.Do(func() {
		globalMatrixPool = NewMatrixPool()
	})
}

// GetMatrixBacking returns an N*N float64 slice from the global matrix pool.
func GetMatrixBacking(n int) []float64 {
	initGlobalPool()
	return globalMatrixPool.Get(n)
}

// PutMatrixBacking returns a slice obtained from GetMatrixBacking.
func PutMatrixBacking(s []float64) {
	initGlobalPool()
	globalMatrixPool.Put(s)
}
