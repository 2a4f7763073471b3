package types

import "errors"

// Sentinel errors shared by the hash producers (phash, pdq) and the core
// session that consumes them. They live here, rather than in internal/core,
// so the hash producers can return them without importing core and creating
// an import cycle back from core to the producers it wires together.
var (
	// ErrInputError covers inconsistent pixel buffer dimensions.
	ErrInputError = errors.New("types: input error")

	// ErrDecodeFailed is returned by a hash producer that cannot interpret
	// the pixel buffer it was given.
	ErrDecodeFailed = errors.New("types: decode failed")

	// ErrDegenerateImage is returned by a hash producer when its DCT block
	// has zero variance; the caller still receives an all-zero hash.
	ErrDegenerateImage = errors.New("types: degenerate image")
)
