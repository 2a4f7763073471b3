package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func gradientRGBA(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*13) % 256)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestDecodeProducesCorrectDimensions(t *testing.T) {
	raw := encodePNG(t, gradientRGBA(16, 12))
	decoded, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Buffer.Width != 16 || decoded.Buffer.Height != 12 {
		t.Errorf("expected 16x12, got %dx%d", decoded.Buffer.Width, decoded.Buffer.Height)
	}
	if len(decoded.Buffer.Pix) != 16*12 {
		t.Errorf("expected %d pixels, got %d", 16*12, len(decoded.Buffer.Pix))
	}
	if decoded.Format != "png" {
		t.Errorf("expected format png, got %s", decoded.Format)
	}
}

func TestDecodeGrayscaleConversionIsAchromatic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	raw := encodePNG(t, img)

	decoded, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := color.GrayModel.Convert(color.RGBA{R: 255, G: 0, B: 0, A: 255}).(color.Gray).Y
	if decoded.Buffer.Pix[0] != want {
		t.Errorf("got %d, want %d", decoded.Buffer.Pix[0], want)
	}
}

func TestDecodeContentHashIsOverRawBytes(t *testing.T) {
	raw := encodePNG(t, gradientRGBA(8, 8))
	a, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	b, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if a.ContentHash != b.ContentHash {
		t.Error("expected identical raw bytes to produce identical content hashes")
	}

	other := encodePNG(t, gradientRGBA(8, 9))
	c, err := Decode(bytes.NewReader(other))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if a.ContentHash == c.ContentHash {
		t.Error("expected different raw bytes to produce different content hashes")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected an error decoding non-image bytes")
	}
}

func TestDecodeFileMissing(t *testing.T) {
	if _, err := DecodeFile("/nonexistent/path/does-not-exist.png"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
