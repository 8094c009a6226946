package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucamedeir/urpec/internal/geom"
	"github.com/lucamedeir/urpec/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func unitSquarePattern() *geom.PatternSet {
	return &geom.PatternSet{Polygons: []geom.Polygon{
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
	}}
}

func TestRasterizeUnitSquare(t *testing.T) {
	res, err := Rasterize(unitSquarePattern(), Params{Dx: 0.25})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Occupancy.Rows%2, "row count must be odd")
	assert.Equal(t, 1, res.Occupancy.Cols%2, "column count must be odd")
	assert.Equal(t, 0.25, res.Dx)
	assert.Equal(t, 0.0, res.PatternBounds.MinX)
	assert.Equal(t, 1.0, res.PatternBounds.MaxX)

	// grid points strictly inside (0,1)^2 land at {0.25, 0.5, 0.75}^2; edge
	// points may fall either way, so the count is bracketed by the strict
	// interior and the closed square.
	count := res.Shape.Count()
	assert.GreaterOrEqual(t, count, 9)
	assert.LessOrEqual(t, count, 25)

	// a point well outside the square is never occupied
	assert.Equal(t, 0.0, res.Occupancy.At(0, 0))
}

func TestRasterizeOverlapAccumulates(t *testing.T) {
	ps := &geom.PatternSet{Polygons: []geom.Polygon{
		{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}},
		{{X: 0.5, Y: 0.5}, {X: 1.5, Y: 0.5}, {X: 1.5, Y: 1.5}, {X: 0.5, Y: 1.5}},
	}}
	res, err := Rasterize(ps, Params{Dx: 0.25})
	require.NoError(t, err)

	// center of both squares
	r := 0
	c := 0
	for i := 0; i < res.Occupancy.Cols; i++ {
		if res.Occupancy.X(i) == 1.0 {
			c = i
		}
	}
	for i := 0; i < res.Occupancy.Rows; i++ {
		if res.Occupancy.Y(i) == 1.0 {
			r = i
		}
	}
	assert.Equal(t, 2.0, res.Occupancy.At(r, c), "overlapping polygons must stack counts")
}

func TestRasterizeDegeneratePolygonTolerated(t *testing.T) {
	ps := &geom.PatternSet{Polygons: []geom.Polygon{
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		{{X: 5, Y: 5}, {X: 6, Y: 6}}, // zero area, skipped
	}}
	res, err := Rasterize(ps, Params{Dx: 0.5})
	require.NoError(t, err)
	assert.Greater(t, res.Shape.Count(), 0)
}

func TestRasterizeEmptyPatternFatal(t *testing.T) {
	_, err := Rasterize(&geom.PatternSet{}, Params{Dx: 0.1})
	assert.ErrorIs(t, err, geom.ErrEmptyPattern)

	_, err = Rasterize(nil, Params{Dx: 0.1})
	assert.ErrorIs(t, err, geom.ErrEmptyPattern)
}

func TestRasterizeBadStep(t *testing.T) {
	_, err := Rasterize(unitSquarePattern(), Params{Dx: 0})
	assert.Error(t, err)
}

func TestAutoResRescalesTowardTarget(t *testing.T) {
	// 1x1 square with 5um margin: 11x11um domain. dx=0.1 gives 111x111 =
	// 12321 points against a target of 1000, so k = ceil(log2(sqrt(12.3)))
	// = 2 and dx becomes 0.4, landing 29x29 = 841 in [800, 1200].
	res, err := Rasterize(unitSquarePattern(), Params{
		Dx:           0.1,
		TargetPoints: 1000,
		AutoRes:      true,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, res.Dx, 1e-12)

	pts := res.Occupancy.Rows * res.Occupancy.Cols
	assert.GreaterOrEqual(t, pts, 800)
	assert.LessOrEqual(t, pts, 1200)
	assert.Equal(t, 1, res.Occupancy.Rows%2)
	assert.Equal(t, 1, res.Occupancy.Cols%2)
}

func TestAutoResWithinBandKeepsStep(t *testing.T) {
	// same domain at dx=0.1 is 12321 points; a matching target leaves dx alone
	res, err := Rasterize(unitSquarePattern(), Params{
		Dx:           0.1,
		TargetPoints: 12321,
		AutoRes:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.1, res.Dx)
}
