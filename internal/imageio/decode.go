// Package imageio turns an on-disk image file into the grayscale
// types.PixelBuffer the hash producers consume, and computes the raw-bytes
// content hash FileBitIdentical mode groups by. Decoding is the one place in
// this codebase that has to deal with an open-ended set of container
// formats; everything downstream of it only ever sees a fixed-size
// grayscale buffer.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/zeebo/blake3"

	"github.com/pixeldedup/pixeldedup/pkg/types"
)

// Decoded pairs the grayscale pixel buffer a hash producer consumes with the
// BLAKE3 digest of the file's raw bytes, used for hard-link / bit-identical
// dedup regardless of which hash Mode the session is running.
type Decoded struct {
	Buffer      types.PixelBuffer
	ContentHash types.ContentHash
	Format      string
}

// DecodeFile reads and decodes path, registering jpeg/png/gif (stdlib) and
// bmp/tiff/webp (golang.org/x/image) as recognized container formats.
func DecodeFile(path string) (Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return Decoded{}, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads every byte from r, decodes the result as an image, and
// converts it to grayscale. The content hash is computed over the raw bytes
// read, before decoding, so two byte-identical files always hash identically
// even if decoding would normalize them differently.
func Decode(r io.Reader) (Decoded, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Decoded{}, fmt.Errorf("imageio: read: %w", types.ErrDecodeFailed)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Decoded{}, fmt.Errorf("imageio: decode: %w", types.ErrDecodeFailed)
	}

	return Decoded{
		Buffer:      toGrayBuffer(img),
		ContentHash: contentHashOf(raw),
		Format:      format,
	}, nil
}

// toGrayBuffer converts an arbitrary image.Image to a row-major 8-bit
// grayscale buffer using the standard library's luma conversion
// (color.GrayModel, ITU-R 601-2), so two differently-encoded but visually
// identical images land on the same grayscale values.
func toGrayBuffer(img image.Image) types.PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]uint8, w*h)

	if gray, ok := img.(*image.Gray); ok && gray.Rect == bounds {
		copy(pix, gray.Pix)
		return types.PixelBuffer{Width: w, Height: h, Pix: pix}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			pix[y*w+x] = c.Y
		}
	}
	return types.PixelBuffer{Width: w, Height: h, Pix: pix}
}

func contentHashOf(raw []byte) types.ContentHash {
	h := blake3.New()
	h.Write(raw)
	var out types.ContentHash
	copy(out[:], h.Sum(nil))
	return out
}
