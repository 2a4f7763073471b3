package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pixeldedup/pixeldedup/internal/grouper"
	"github.com/pixeldedup/pixeldedup/internal/mih"
	"github.com/pixeldedup/pixeldedup/internal/pdq"
	"github.com/pixeldedup/pixeldedup/internal/phash"
	"github.com/pixeldedup/pixeldedup/internal/store"
	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// Session wires the fingerprint store, MIH index, and grouper into the
// four programmatic operations a caller drives: Ingest, FreezeAndIndex,
// FindDuplicates, and Cancel. One Session serves one query session; all of
// its state is released together when the caller discards it.
type Session struct {
	cfg types.Config

	store     *store.FingerprintStore
	report    *Report
	cancelled *grouper.Cancelled

	mu        sync.Mutex
	index     *mih.Index
	maxRadius uint8
	frozen    bool
}

// NewSession creates a Session over an empty store, ready for Ingest calls.
func NewSession(cfg types.Config) *Session {
	return &Session{
		cfg:       cfg,
		store:     store.New(),
		report:    NewReport(16),
		cancelled: grouper.NewCancelled(),
	}
}

// Ingest turns buf into a fingerprint according to the session's configured
// Mode and appends it to the store. In PixelHash16bpp mode the
// caller-supplied contentHash is ignored in favor of a hash computed from
// the normalized pixel buffer itself, since that mode's grouping criterion
// IS pixel-content equality. DecodeFailed and DegenerateImage are per-item:
// the error is recorded in the session's Report and the item is never added
// to the store.
func (s *Session) Ingest(payload types.PayloadRef, buf types.PixelBuffer, contentHash types.ContentHash) (types.FingerprintId, error) {
	var fp types.Fingerprint
	var hashErr error

	switch s.cfg.Mode {
	case types.Perceptual64:
		fp, hashErr = phash.Compute(buf)
	case types.Perceptual256:
		fp, hashErr = pdq.Compute(buf)
	case types.PixelHash16bpp:
		contentHash = store.ComputeContentHash16bpp(buf)
	case types.FileBitIdentical:
		// fingerprint unused; grouping reads contentHash directly.
	default:
		return 0, fmt.Errorf("core: ingest %s: %w: unknown mode %v", payload, ErrInputError, s.cfg.Mode)
	}

	if hashErr != nil {
		s.report.Add(payload, hashErr)
		return 0, hashErr
	}

	id, err := s.store.Ingest(payload, contentHash, fp)
	if err != nil {
		return 0, fmt.Errorf("core: ingest %s: %w", payload, translateStoreErr(err))
	}
	return id, nil
}

// Report returns the accumulated per-item error counts from Ingest calls.
func (s *Session) Report() *Report {
	return s.report
}

// FreezeAndIndex freezes the store against further ingestion and, for
// Perceptual64/Perceptual256 modes, builds the MIH index with m =
// max_radius+1 partitions. FileBitIdentical and PixelHash16bpp modes skip
// the index entirely since their grouping criterion is hash equality, not
// Hamming distance.
func (s *Session) FreezeAndIndex(maxRadius uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Freeze()
	s.frozen = true
	s.maxRadius = maxRadius

	if s.cfg.Mode != types.Perceptual64 && s.cfg.Mode != types.Perceptual256 {
		return nil
	}

	fingerprints := s.store.All()
	width := fingerprintWidth(s.cfg.Mode)
	if err := mih.ValidateRadius(width, len(fingerprints), int(maxRadius)); err != nil {
		return fmt.Errorf("core: %w: %v", ErrOversize, err)
	}

	threads := int(s.cfg.Threads)
	if threads < 1 {
		threads = 1
	}
	s.index = mih.Build(fingerprints, int(maxRadius), threads)
	return nil
}

// FindDuplicates returns every DuplicateGroup at the given radius and
// minimum size. For Perceptual64/Perceptual256 modes this drives the
// grouper over the MIH index; for FileBitIdentical/PixelHash16bpp modes it
// buckets directly by content-hash equality, bypassing the index. Returns
// ErrCancelled, the only outcome once Cancel has been called, in place of
// any partial result.
func (s *Session) FindDuplicates(radius uint8, minGroupSize uint16) ([]types.DuplicateGroup, error) {
	if s.cancelled.IsSet() {
		return nil, ErrCancelled
	}
	if !s.frozen {
		return nil, ErrNotFrozen
	}

	if s.cfg.Mode == types.FileBitIdentical || s.cfg.Mode == types.PixelHash16bpp {
		return groupsByContentHash(s.store, int(minGroupSize)), nil
	}

	if radius > s.maxRadius {
		return nil, ErrRadiusExceedsMax
	}

	threads := int(s.cfg.Threads)
	if threads < 1 {
		threads = 1
	}
	groups, err := grouper.Run(s.index, s.store.Len(), grouper.Options{
		Radius:       int(radius),
		MinGroupSize: int(minGroupSize),
		PoolSize:     threads,
	}, s.cancelled)
	if err != nil {
		return nil, fmt.Errorf("core: find duplicates: %w", err)
	}
	if s.cancelled.IsSet() {
		return nil, ErrCancelled
	}
	return groups, nil
}

// Cancel sets the session's cooperative cancellation flag. Idempotent; safe
// to call from any goroutine, including one racing an in-flight
// FindDuplicates call.
func (s *Session) Cancel() {
	s.cancelled.Cancel()
}

// Fingerprint returns the stored fingerprint for id, for callers (reporting,
// diagnostics) that want to display the distance between group members.
// Only meaningful to call after FreezeAndIndex.
func (s *Session) Fingerprint(id types.FingerprintId) (types.Fingerprint, bool) {
	fp, _, ok := s.store.Get(id)
	return fp, ok
}

// StoreStats returns the underlying store's ingest/dedup counters, for
// callers (reporting) that want to show how much of ingestion landed on the
// hard-link/content-hash fast path.
func (s *Session) StoreStats() store.Stats {
	return s.store.GetStats()
}

func fingerprintWidth(mode types.Mode) int {
	if mode == types.Perceptual256 {
		return 256
	}
	return 64
}

func translateStoreErr(err error) error {
	if err == store.ErrFrozen {
		return ErrInputError
	}
	return err
}

// groupsByContentHash buckets a frozen store's ids by content-hash,
// filters by minGroupSize, and sorts the result the same way the MIH-backed
// path does: ascending by smallest member id, members ascending within a
// group.
func groupsByContentHash(s *store.FingerprintStore, minGroupSize int) []types.DuplicateGroup {
	buckets := s.GroupByContentHash()

	groups := make([]types.DuplicateGroup, 0, len(buckets))
	for _, ids := range buckets {
		if len(ids) < minGroupSize {
			continue
		}
		sorted := append([]types.FingerprintId(nil), ids...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		groups = append(groups, types.DuplicateGroup{Members: sorted})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Members[0] < groups[j].Members[0]
	})
	return groups
}
