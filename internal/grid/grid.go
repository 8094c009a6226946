// Package grid provides the uniformly sampled 2D scalar and boolean grids
// that flow through the correction pipeline. A grid stores its origin and
// step so indices map deterministically to micron coordinates.
package grid

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle in micron coordinates.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Grid is a row-major 2D array of float64 samples over
// [MinX, MinX+(Cols-1)*Dx] x [MinY, MinY+(Rows-1)*Dx].
// Sample (r, c) sits at (MinX+c*Dx, MinY+r*Dx).
type Grid struct {
	MinX, MinY float64
	Dx         float64
	Rows, Cols int
	Data       []float64
}

// New returns a zeroed grid with the given origin, step and shape.
func New(minX, minY, dx float64, rows, cols int) *Grid {
	return &Grid{
		MinX: minX, MinY: minY, Dx: dx,
		Rows: rows, Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// At returns the sample at row r, column c.
func (g *Grid) At(r, c int) float64 { return g.Data[r*g.Cols+c] }

// Set stores v at row r, column c.
func (g *Grid) Set(r, c int, v float64) { g.Data[r*g.Cols+c] = v }

// Add accumulates v into the sample at row r, column c.
func (g *Grid) Add(r, c int, v float64) { g.Data[r*g.Cols+c] += v }

// X returns the micron x coordinate of column c.
func (g *Grid) X(c int) float64 { return g.MinX + float64(c)*g.Dx }

// Y returns the micron y coordinate of row r.
func (g *Grid) Y(r int) float64 { return g.MinY + float64(r)*g.Dx }

// CornerX returns the micron x coordinate of lattice corner column C.
// Corner (R, C) is the lower-left corner of cell (R, C), half a step
// below and left of the cell's sample point.
func (g *Grid) CornerX(c int) float64 { return g.MinX + (float64(c)-0.5)*g.Dx }

// CornerY returns the micron y coordinate of lattice corner row R.
func (g *Grid) CornerY(r int) float64 { return g.MinY + (float64(r)-0.5)*g.Dx }

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := New(g.MinX, g.MinY, g.Dx, g.Rows, g.Cols)
	copy(out.Data, g.Data)
	return out
}

// Sub returns a copy of the index window [r0, r0+rows) x [c0, c0+cols)
// with its origin adjusted so coordinates are preserved.
func (g *Grid) Sub(r0, c0, rows, cols int) (*Grid, error) {
	if r0 < 0 || c0 < 0 || r0+rows > g.Rows || c0+cols > g.Cols || rows < 1 || cols < 1 {
		return nil, fmt.Errorf("sub-grid window [%d:%d, %d:%d] outside %dx%d grid",
			r0, r0+rows, c0, c0+cols, g.Rows, g.Cols)
	}
	out := New(g.X(c0), g.Y(r0), g.Dx, rows, cols)
	for r := 0; r < rows; r++ {
		src := (r0+r)*g.Cols + c0
		copy(out.Data[r*cols:(r+1)*cols], g.Data[src:src+cols])
	}
	return out, nil
}

// CropTo returns the smallest sub-grid whose sample coordinates all lie
// within rect (with a half-step tolerance on each side).
func (g *Grid) CropTo(rect Rect) (*Grid, error) {
	r0, c0, rows, cols, err := cropWindow(g.MinX, g.MinY, g.Dx, g.Rows, g.Cols, rect)
	if err != nil {
		return nil, err
	}
	return g.Sub(r0, c0, rows, cols)
}

// Mask is a row-major 2D boolean grid with the same georeferencing as Grid.
type Mask struct {
	MinX, MinY float64
	Dx         float64
	Rows, Cols int
	Bits       []bool
}

// NewMask returns a cleared mask with the given origin, step and shape.
func NewMask(minX, minY, dx float64, rows, cols int) *Mask {
	return &Mask{
		MinX: minX, MinY: minY, Dx: dx,
		Rows: rows, Cols: cols,
		Bits: make([]bool, rows*cols),
	}
}

// Bit returns the bit at row r, column c.
func (m *Mask) Bit(r, c int) bool { return m.Bits[r*m.Cols+c] }

// SetBit stores b at row r, column c.
func (m *Mask) SetBit(r, c int, b bool) { m.Bits[r*m.Cols+c] = b }

// BitSafe returns the bit at row r, column c, or false when the index is
// outside the mask. Used by the fracturer's smear padding.
func (m *Mask) BitSafe(r, c int) bool {
	if r < 0 || r >= m.Rows || c < 0 || c >= m.Cols {
		return false
	}
	return m.Bits[r*m.Cols+c]
}

// X returns the micron x coordinate of column c.
func (m *Mask) X(c int) float64 { return m.MinX + float64(c)*m.Dx }

// Y returns the micron y coordinate of row r.
func (m *Mask) Y(r int) float64 { return m.MinY + float64(r)*m.Dx }

// CornerX returns the micron x coordinate of lattice corner column C.
func (m *Mask) CornerX(c int) float64 { return m.MinX + (float64(c)-0.5)*m.Dx }

// CornerY returns the micron y coordinate of lattice corner row R.
func (m *Mask) CornerY(r int) float64 { return m.MinY + (float64(r)-0.5)*m.Dx }

// Count returns the number of set bits.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.MinX, m.MinY, m.Dx, m.Rows, m.Cols)
	copy(out.Bits, m.Bits)
	return out
}

// Sub returns a copy of the index window [r0, r0+rows) x [c0, c0+cols)
// with its origin adjusted so coordinates are preserved.
func (m *Mask) Sub(r0, c0, rows, cols int) (*Mask, error) {
	if r0 < 0 || c0 < 0 || r0+rows > m.Rows || c0+cols > m.Cols || rows < 1 || cols < 1 {
		return nil, fmt.Errorf("sub-mask window [%d:%d, %d:%d] outside %dx%d mask",
			r0, r0+rows, c0, c0+cols, m.Rows, m.Cols)
	}
	out := NewMask(m.X(c0), m.Y(r0), m.Dx, rows, cols)
	for r := 0; r < rows; r++ {
		src := (r0+r)*m.Cols + c0
		copy(out.Bits[r*cols:(r+1)*cols], m.Bits[src:src+cols])
	}
	return out, nil
}

// CropTo returns the smallest sub-mask whose sample coordinates all lie
// within rect (with a half-step tolerance on each side).
func (m *Mask) CropTo(rect Rect) (*Mask, error) {
	r0, c0, rows, cols, err := cropWindow(m.MinX, m.MinY, m.Dx, m.Rows, m.Cols, rect)
	if err != nil {
		return nil, err
	}
	return m.Sub(r0, c0, rows, cols)
}

func cropWindow(minX, minY, dx float64, rows, cols int, rect Rect) (r0, c0, nr, nc int, err error) {
	const eps = 1e-9
	c0 = int(math.Ceil((rect.MinX-minX)/dx - eps))
	r0 = int(math.Ceil((rect.MinY-minY)/dx - eps))
	c1 := int(math.Floor((rect.MaxX-minX)/dx + eps))
	r1 := int(math.Floor((rect.MaxY-minY)/dx + eps))
	if c0 < 0 {
		c0 = 0
	}
	if r0 < 0 {
		r0 = 0
	}
	if c1 > cols-1 {
		c1 = cols - 1
	}
	if r1 > rows-1 {
		r1 = rows - 1
	}
	if c1 < c0 || r1 < r0 {
		return 0, 0, 0, 0, fmt.Errorf("crop rectangle [%g,%g]x[%g,%g] does not intersect grid",
			rect.MinX, rect.MaxX, rect.MinY, rect.MaxY)
	}
	return r0, c0, r1 - r0 + 1, c1 - c0 + 1, nil
}
