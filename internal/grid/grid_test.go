package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridIndexing(t *testing.T) {
	g := New(-5, -3, 0.5, 7, 9)

	assert.Equal(t, -5.0, g.X(0))
	assert.InDelta(t, -3.0+6*0.5, g.Y(6), 1e-12)
	assert.InDelta(t, -5.25, g.CornerX(0), 1e-12)
	assert.InDelta(t, -3.25, g.CornerY(0), 1e-12)

	g.Set(2, 3, 1.5)
	g.Add(2, 3, 0.5)
	assert.Equal(t, 2.0, g.At(2, 3))
	assert.Equal(t, 0.0, g.At(0, 0))
}

func TestGridSubPreservesCoordinates(t *testing.T) {
	g := New(0, 0, 1, 5, 5)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			g.Set(r, c, float64(r*10+c))
		}
	}
	sub, err := g.Sub(1, 2, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Rows)
	assert.Equal(t, 2, sub.Cols)
	assert.Equal(t, 2.0, sub.MinX)
	assert.Equal(t, 1.0, sub.MinY)
	assert.Equal(t, 12.0, sub.At(0, 0))
	assert.Equal(t, 33.0, sub.At(2, 1))

	_, err = g.Sub(4, 0, 3, 2)
	assert.Error(t, err)
}

func TestGridCropTo(t *testing.T) {
	// samples at x,y in {0,1,...,10}
	g := New(0, 0, 1, 11, 11)
	cropped, err := g.CropTo(Rect{MinX: 2, MinY: 3, MaxX: 7, MaxY: 9})
	require.NoError(t, err)
	assert.Equal(t, 2.0, cropped.MinX)
	assert.Equal(t, 3.0, cropped.MinY)
	assert.Equal(t, 6, cropped.Cols) // x = 2..7
	assert.Equal(t, 7, cropped.Rows) // y = 3..9

	// rectangle bigger than the grid clamps to the grid
	all, err := g.CropTo(Rect{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100})
	require.NoError(t, err)
	assert.Equal(t, 11, all.Rows)
	assert.Equal(t, 11, all.Cols)

	_, err = g.CropTo(Rect{MinX: 50, MinY: 50, MaxX: 60, MaxY: 60})
	assert.Error(t, err)
}

func TestMaskBasics(t *testing.T) {
	m := NewMask(0, 0, 0.1, 4, 6)
	assert.Equal(t, 0, m.Count())

	m.SetBit(1, 2, true)
	m.SetBit(3, 5, true)
	assert.True(t, m.Bit(1, 2))
	assert.False(t, m.Bit(0, 0))
	assert.Equal(t, 2, m.Count())

	// out-of-range reads are false, not a panic
	assert.False(t, m.BitSafe(-1, 0))
	assert.False(t, m.BitSafe(0, 99))
	assert.True(t, m.BitSafe(1, 2))

	clone := m.Clone()
	clone.SetBit(0, 0, true)
	assert.False(t, m.Bit(0, 0))
}

func TestMaskSubAndCrop(t *testing.T) {
	m := NewMask(0, 0, 1, 5, 5)
	m.SetBit(2, 2, true)

	sub, err := m.Sub(1, 1, 3, 3)
	require.NoError(t, err)
	assert.True(t, sub.Bit(1, 1))
	assert.Equal(t, 1.0, sub.MinX)

	cropped, err := m.CropTo(Rect{MinX: 2, MinY: 2, MaxX: 4, MaxY: 4})
	require.NoError(t, err)
	assert.True(t, cropped.Bit(0, 0))
	assert.Equal(t, 1, cropped.Count())
}
