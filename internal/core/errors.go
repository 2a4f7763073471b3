// Package core wires the fingerprint store, MIH index, and grouper into the
// session's four operations: Ingest, FreezeAndIndex, FindDuplicates, and
// Cancel.
package core

import (
	"errors"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// Sentinel errors for the session error taxonomy. Wrap with fmt.Errorf's
// "%w" verb to attach per-call context, so callers can still match them with
// errors.Is.
var (
	// ErrInputError covers inconsistent pixel buffer dimensions or a radius
	// above the configured maximum. Surfaced to the caller; no retry. Alias
	// of types.ErrInputError so hash-producer errors compare equal here
	// without internal/phash and internal/pdq needing to import core.
	ErrInputError = types.ErrInputError

	// ErrDecodeFailed is returned by a hash producer that cannot interpret
	// the pixel buffer it was given.
	ErrDecodeFailed = types.ErrDecodeFailed

	// ErrDegenerateImage is returned by a hash producer when the DCT block
	// has zero variance; the caller still receives an all-zero hash.
	ErrDegenerateImage = types.ErrDegenerateImage

	// ErrOversize is returned at freeze time when m = radius+1 partitions
	// would leave any partition with fewer than ceil(log2 N) bits.
	ErrOversize = errors.New("core: radius oversize for index width")

	// ErrCancelled is the only outcome FindDuplicates returns once Cancel
	// has been called.
	ErrCancelled = errors.New("core: cancelled")

	// ErrNotFrozen is returned when FindDuplicates is called before
	// FreezeAndIndex.
	ErrNotFrozen = errors.New("core: session not frozen")

	// ErrRadiusExceedsMax is returned when FindDuplicates is asked for a
	// radius greater than the one FreezeAndIndex built the index for.
	ErrRadiusExceedsMax = errors.New("core: radius exceeds indexed max_radius")
)

// ItemError pairs a per-item failure with the payload it came from. Per-item
// errors are absorbed and aggregated into a Report; they never halt the
// pipeline.
type ItemError struct {
	Payload string
	Err     error
}

func (e ItemError) Error() string {
	return e.Payload + ": " + e.Err.Error()
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// Report aggregates per-item errors encountered during ingestion instead of
// halting it, mirroring the shape of this codebase's report.Statistics
// counters.
type Report struct {
	DecodeFailed    int
	DegenerateImage int
	Examples        []ItemError
	maxExamples     int
}

// NewReport creates a Report that retains up to maxExamples sample errors.
func NewReport(maxExamples int) *Report {
	if maxExamples <= 0 {
		maxExamples = 16
	}
	return &Report{maxExamples: maxExamples}
}

// Add records a per-item error under the appropriate counter.
func (r *Report) Add(payload string, err error) {
	switch {
	case errors.Is(err, ErrDecodeFailed):
		r.DecodeFailed++
	case errors.Is(err, ErrDegenerateImage):
		r.DegenerateImage++
	}
	if len(r.Examples) < r.maxExamples {
		r.Examples = append(r.Examples, ItemError{Payload: payload, Err: err})
	}
}

// Total returns the number of per-item failures recorded.
func (r *Report) Total() int {
	return r.DecodeFailed + r.DegenerateImage
}
