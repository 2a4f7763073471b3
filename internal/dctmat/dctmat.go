// Package dctmat computes the separable 2D type-II DCT used by both hash
// producers and implements the D4 dihedral group exactly in coefficient
// space, avoiding the cost of re-decoding and re-resampling the source image
// eight times just to cover its rotations and mirrors.
//
// The coefficient-domain transforms below are not approximations: for an
// N-point DCT-II basis cos(pi*(2x+1)*u/(2N)), substituting x -> N-1-x gives
// cos(pi*u - pi*(2x+1)*u/(2N)) = (-1)^u * cos(pi*(2x+1)*u/(2N)), since u is
// an integer. Flipping one spatial axis therefore multiplies every
// coefficient along the corresponding frequency axis by (-1)^u exactly;
// composing an axis flip with a transpose yields the four rotations.
package dctmat

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/pixeldedup/pixeldedup/internal/memory"
)

// Matrix is a square row-major float64 matrix of side N.
type Matrix struct {
	N    int
	Data []float64 // row-major, len N*N
}

// NewMatrix allocates a zeroed N x N matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{N: n, Data: make([]float64, n*n)}
}

// At returns the value at (row, col).
func (m *Matrix) At(row, col int) float64 {
	return m.Data[row*m.N+col]
}

// Set stores a value at (row, col).
func (m *Matrix) Set(row, col int, v float64) {
	m.Data[row*m.N+col] = v
}

// FromRows builds a Matrix from a row-major [][]float64 of side N.
func FromRows(rows [][]float64) *Matrix {
	n := len(rows)
	m := NewMatrix(n)
	for r := 0; r < n; r++ {
		copy(m.Data[r*n:(r+1)*n], rows[r])
	}
	return m
}

// DCT2D computes the separable 2D DCT-II of src: a 1D DCT-II pass over
// every row, then over every column of the result. Scratch buffers come
// from internal/memory's pools, since both pHash and PDQ run this on every
// ingested image at a handful of fixed sizes (32, 64).
func DCT2D(src *Matrix) *Matrix {
	n := src.N
	dct := fourier.NewDCT(n)

	tmpData := memory.GetMatrixBacking(n)
	defer memory.PutMatrixBacking(tmpData)
	tmp := &Matrix{N: n, Data: tmpData}

	row := make([]float64, n)
	for r := 0; r < n; r++ {
		copy(row, src.Data[r*n:(r+1)*n])
		out := dct.Transform(nil, row)
		copy(tmp.Data[r*n:(r+1)*n], out)
	}

	dst := NewMatrix(n)
	col := make([]float64, n)
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			col[r] = tmp.At(r, c)
		}
		out := dct.Transform(nil, col)
		for r := 0; r < n; r++ {
			dst.Set(r, c, out[r])
		}
	}
	return dst
}

func sign(parity int) float64 {
	if parity%2 == 0 {
		return 1
	}
	return -1
}

// Transpose returns C(v,u) for every (u,v): the DCT of the spatially
// transposed image.
func Transpose(c *Matrix) *Matrix {
	n := c.N
	out := NewMatrix(n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			out.Set(u, v, c.At(v, u))
		}
	}
	return out
}

// FlipH returns the DCT of the image mirrored top-bottom (flip along the
// first spatial axis, the row index): C'(u,v) = (-1)^u * C(u,v).
func FlipH(c *Matrix) *Matrix {
	n := c.N
	out := NewMatrix(n)
	for u := 0; u < n; u++ {
		s := sign(u)
		for v := 0; v < n; v++ {
			out.Set(u, v, s*c.At(u, v))
		}
	}
	return out
}

// FlipV returns the DCT of the image mirrored left-right (flip along the
// second spatial axis, the column index): C'(u,v) = (-1)^v * C(u,v).
func FlipV(c *Matrix) *Matrix {
	n := c.N
	out := NewMatrix(n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			out.Set(u, v, sign(v)*c.At(u, v))
		}
	}
	return out
}

// Rotate90 returns the DCT of the image rotated 90 degrees clockwise:
// C'(u,v) = (-1)^v * C(v,u).
func Rotate90(c *Matrix) *Matrix {
	n := c.N
	out := NewMatrix(n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			out.Set(u, v, sign(v)*c.At(v, u))
		}
	}
	return out
}

// Rotate180 returns the DCT of the image rotated 180 degrees:
// C'(u,v) = (-1)^(u+v) * C(u,v).
func Rotate180(c *Matrix) *Matrix {
	n := c.N
	out := NewMatrix(n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			out.Set(u, v, sign(u+v)*c.At(u, v))
		}
	}
	return out
}

// Rotate270 returns the DCT of the image rotated 270 degrees clockwise:
// C'(u,v) = (-1)^u * C(v,u).
func Rotate270(c *Matrix) *Matrix {
	n := c.N
	out := NewMatrix(n)
	for u := 0; u < n; u++ {
		s := sign(u)
		for v := 0; v < n; v++ {
			out.Set(u, v, s*c.At(v, u))
		}
	}
	return out
}

// AntiTranspose (transpose about the secondary diagonal) composes a transpose
// with a 180 degree rotation: C'(u,v) = (-1)^(u+v) * C(v,u).
func AntiTranspose(c *Matrix) *Matrix {
	n := c.N
	out := NewMatrix(n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			out.Set(u, v, sign(u+v)*c.At(v, u))
		}
	}
	return out
}

// Dihedral returns the eight D4-symmetric coefficient matrices in a fixed
// order: identity, rotate90, rotate180, rotate270, flipH, flipV, transpose,
// antiTranspose. The order is arbitrary but must stay fixed across a
// session so dihedral family comparisons line up positionally.
func Dihedral(c *Matrix) [8]*Matrix {
	return [8]*Matrix{
		c,
		Rotate90(c),
		Rotate180(c),
		Rotate270(c),
		FlipH(c),
		FlipV(c),
		Transpose(c),
		AntiTranspose(c),
	}
}
