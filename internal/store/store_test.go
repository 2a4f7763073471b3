package store

import (
	"testing"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

func ch(tag byte) types.ContentHash {
	var h types.ContentHash
	h[0] = tag
	return h
}

func TestIngestAssignsDenseIncreasingIds(t *testing.T) {
	s := New()
	id0, err := s.Ingest("a.png", ch(1), types.NewFingerprint64(1))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	id1, err := s.Ingest("b.png", ch(2), types.NewFingerprint64(2))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if id0 != 0 || id1 != 1 {
		t.Errorf("expected dense ids 0, 1; got %d, %d", id0, id1)
	}
	if s.Len() != 2 {
		t.Errorf("expected Len() == 2, got %d", s.Len())
	}
}

func TestIngestHardLinkDedup(t *testing.T) {
	s := New()
	id0, err := s.Ingest("a.png", ch(1), types.NewFingerprint64(1))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	id1, err := s.Ingest("a-hardlink.png", ch(1), types.NewFingerprint64(99))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if id0 != id1 {
		t.Errorf("expected the same content-hash to collapse onto one id, got %d and %d", id0, id1)
	}
	if s.Len() != 1 {
		t.Errorf("expected Len() == 1 after dedup, got %d", s.Len())
	}

	stats := s.GetStats()
	if stats.Ingested != 1 || stats.Deduped != 1 {
		t.Errorf("expected 1 ingested, 1 deduped; got %+v", stats)
	}

	fp, payload, ok := s.Get(id0)
	if !ok {
		t.Fatal("Get reported missing id")
	}
	if payload != "a.png" {
		t.Errorf("expected the original payload ref to survive, got %q", payload)
	}
	if fp.Limbs[0] != 1 {
		t.Errorf("expected the original fingerprint to survive, got %v", fp)
	}
}

func TestIngestAfterFreezeRejected(t *testing.T) {
	s := New()
	s.Freeze()
	if !s.Frozen() {
		t.Fatal("expected Frozen() to report true after Freeze")
	}
	_, err := s.Ingest("a.png", ch(1), types.NewFingerprint64(1))
	if err != ErrFrozen {
		t.Errorf("expected ErrFrozen, got %v", err)
	}
}

func TestGetUnknownId(t *testing.T) {
	s := New()
	if _, _, ok := s.Get(types.FingerprintId(5)); ok {
		t.Error("expected Get to report false for an out-of-range id")
	}
}

func TestContentHashOf(t *testing.T) {
	s := New()
	id, err := s.Ingest("a.png", ch(7), types.NewFingerprint64(1))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	got, ok := s.ContentHashOf(id)
	if !ok {
		t.Fatal("expected ContentHashOf to find the id")
	}
	if got != ch(7) {
		t.Errorf("got %v, want %v", got, ch(7))
	}
}

func TestAllReturnsSnapshotNotAlias(t *testing.T) {
	s := New()
	s.Ingest("a.png", ch(1), types.NewFingerprint64(1))
	all := s.All()
	all[0] = types.NewFingerprint64(999)

	fp, _, _ := s.Get(types.FingerprintId(0))
	if fp.Limbs[0] == 999 {
		t.Error("All() should return a copy, not a slice aliasing internal state")
	}
}

func TestGroupByContentHash(t *testing.T) {
	s := New()
	s.Ingest("a.png", ch(1), types.NewFingerprint64(1))
	s.Ingest("b.png", ch(2), types.NewFingerprint64(2))
	s.Ingest("c.png", ch(1), types.NewFingerprint64(3)) // same hash as a.png, collapses to a's id

	groups := s.GroupByContentHash()
	if len(groups) != 2 {
		t.Fatalf("expected 2 distinct content-hash groups, got %d", len(groups))
	}
	if len(groups[ch(1)]) != 1 {
		t.Errorf("expected one id under the shared content-hash (dedup collapses the second ingest), got %v", groups[ch(1)])
	}
}

func TestComputeContentHash16bppDeterministic(t *testing.T) {
	buf := types.PixelBuffer{Width: 2, Height: 2, Pix: []uint8{10, 20, 30, 40}}
	a := ComputeContentHash16bpp(buf)
	b := ComputeContentHash16bpp(buf)
	if a != b {
		t.Error("ComputeContentHash16bpp should be a pure function of its input")
	}
}

func TestComputeContentHash16bppDistinguishesDimensions(t *testing.T) {
	square := types.PixelBuffer{Width: 2, Height: 2, Pix: []uint8{1, 2, 3, 4}}
	wide := types.PixelBuffer{Width: 4, Height: 1, Pix: []uint8{1, 2, 3, 4}}
	if ComputeContentHash16bpp(square) == ComputeContentHash16bpp(wide) {
		t.Error("same pixel bytes at different dimensions should not collide")
	}
}

func TestComputeContentHash16bppDistinguishesContent(t *testing.T) {
	a := types.PixelBuffer{Width: 2, Height: 2, Pix: []uint8{1, 2, 3, 4}}
	b := types.PixelBuffer{Width: 2, Height: 2, Pix: []uint8{1, 2, 3, 5}}
	if ComputeContentHash16bpp(a) == ComputeContentHash16bpp(b) {
		t.Error("different pixel content should not collide")
	}
}
