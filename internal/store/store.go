// Package store holds the dense, append-only fingerprint array a session
// ingests into: one FingerprintId per distinct content-hash, with hard-linked
// or pixel-identical payloads collapsing onto the same id. The guarded-map
// shape is adapted from an RWMutex-guarded LRU cache, stripped of eviction
// and TTL since a session's store only ever grows until freeze.
package store

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// ErrFrozen is returned by Ingest once Freeze has been called. core.Session
// maps this onto core.ErrInputError at the session boundary; the store
// itself stays independent of the core package's error taxonomy so core can
// import store without a cycle.
var ErrFrozen = errors.New("store: ingest after freeze")

// Stats gives cheap visibility into how much of ingestion is landing on the
// hard-link/content-hash fast path.
type Stats struct {
	Ingested  int64
	Deduped   int64
	ItemCount int
}

// FingerprintStore owns the sequence of fingerprints and the parallel
// sequence of opaque PayloadRef values ingest(...) appends. Safe for
// concurrent use; Ingest and Freeze are the only mutating calls and are
// guarded by a single mutex around the fingerprint slice and content-hash map.
type FingerprintStore struct {
	mu           sync.RWMutex
	fingerprints []types.Fingerprint
	payloads     []types.PayloadRef
	contentHash  []types.ContentHash
	byContent    map[types.ContentHash]types.FingerprintId
	frozen       bool
	stats        Stats
}

// New creates an empty store.
func New() *FingerprintStore {
	return &FingerprintStore{
		byContent: make(map[types.ContentHash]types.FingerprintId),
	}
}

// Ingest appends a fingerprint under the given payload reference and
// content-hash, returning the assigned id. If a prior Ingest call supplied
// the same content-hash, the existing id is returned and no new fingerprint
// is stored — the hard-link / bit-identical dedup guarantee.
func (s *FingerprintStore) Ingest(payload types.PayloadRef, contentHash types.ContentHash, fp types.Fingerprint) (types.FingerprintId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return 0, ErrFrozen
	}

	if id, ok := s.byContent[contentHash]; ok {
		s.stats.Deduped++
		return id, nil
	}

	id := types.FingerprintId(len(s.fingerprints))
	s.fingerprints = append(s.fingerprints, fp)
	s.payloads = append(s.payloads, payload)
	s.contentHash = append(s.contentHash, contentHash)
	s.byContent[contentHash] = id

	s.stats.Ingested++
	s.stats.ItemCount = len(s.fingerprints)
	return id, nil
}

// Freeze disallows further ingestion. After this point ids are immutable
// and safe to share read-only across goroutines without locking.
func (s *FingerprintStore) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// Frozen reports whether Freeze has been called.
func (s *FingerprintStore) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Get returns the fingerprint and payload reference for id. Only valid to
// call concurrently after Freeze; callers racing Ingest must hold their own
// synchronization (this mirrors the "frozen ids are safe to share" design).
func (s *FingerprintStore) Get(id types.FingerprintId) (types.Fingerprint, types.PayloadRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.fingerprints) {
		return types.Fingerprint{}, "", false
	}
	return s.fingerprints[id], s.payloads[id], true
}

// ContentHashOf returns the content-hash id was ingested under.
func (s *FingerprintStore) ContentHashOf(id types.FingerprintId) (types.ContentHash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.contentHash) {
		return types.ContentHash{}, false
	}
	return s.contentHash[id], true
}

// Len returns the number of distinct fingerprints ingested so far.
func (s *FingerprintStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fingerprints)
}

// All returns a snapshot of every ingested fingerprint, indexed by
// FingerprintId. Only safe to call after Freeze.
func (s *FingerprintStore) All() []types.Fingerprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Fingerprint, len(s.fingerprints))
	copy(out, s.fingerprints)
	return out
}

// GroupByContentHash returns every FingerprintId bucketed by its
// content-hash, the direct O(N) grouping FileBitIdentical mode uses instead
// of building an MIH index.
func (s *FingerprintStore) GroupByContentHash() map[types.ContentHash][]types.FingerprintId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make(map[types.ContentHash][]types.FingerprintId)
	for id, ch := range s.contentHash {
		groups[ch] = append(groups[ch], types.FingerprintId(id))
	}
	return groups
}

// GetStats returns a snapshot of ingestion traffic counters.
func (s *FingerprintStore) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// ComputeContentHash16bpp derives the content-hash PixelHash16bpp mode uses:
// BLAKE3 over the buffer widened to 16 bits per channel, row-major, prefixed
// with an 8-byte (width, height) header so two differently-sized images
// never collide even if their widened pixel bytes happen to coincide.
func ComputeContentHash16bpp(buf types.PixelBuffer) types.ContentHash {
	h := blake3.New()

	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(buf.Width))
	binary.BigEndian.PutUint32(header[4:8], uint32(buf.Height))
	h.Write(header[:])

	wide := make([]byte, 2)
	for _, p := range buf.Pix {
		v := uint16(p) * 257 // 8bpp -> 16bpp: replicate the byte (0xFF -> 0xFFFF)
		binary.BigEndian.PutUint16(wide, v)
		h.Write(wide)
	}

	var out types.ContentHash
	sum := h.Sum(nil)
	copy(out[:], sum)
	return out
}
