// Package raster converts a polygon pattern into an occupancy grid at a
// uniform step, with optional automatic resolution adjustment toward a
// target point budget.
package raster

import (
	"fmt"
	"math"

	"github.com/lucamedeir/urpec/internal/geom"
	"github.com/lucamedeir/urpec/internal/grid"
	"github.com/lucamedeir/urpec/internal/monitoring"
)

// DefaultMargin is the domain expansion in microns applied on all sides of
// the pattern bounding box, keeping PSF wrap-around artifacts away from
// the features.
const DefaultMargin = 5.0

// Params configures rasterization.
type Params struct {
	Dx           float64 // grid step in microns
	TargetPoints int     // resolution auto-tune target; ignored unless AutoRes
	AutoRes      bool
	Margin       float64 // domain expansion in microns; DefaultMargin when zero
}

// Result is the rasterizer output. Occupancy counts how many polygons
// cover each cell; Shape is the derived boolean mask (occupancy > 0).
// PatternBounds is the unexpanded bounding box used to crop the dose map
// after deconvolution.
type Result struct {
	Occupancy     *grid.Grid
	Shape         *grid.Mask
	Dx            float64
	PatternBounds grid.Rect
}

// Rasterize samples the pattern onto a grid at step p.Dx over the
// margin-expanded bounding box. Overlapping polygons accumulate counts.
// When AutoRes is set and the point count lands outside [0.8T, 1.2T] the
// step is rescaled once by a power of two and the grid rebuilt.
func Rasterize(ps *geom.PatternSet, p Params) (*Result, error) {
	if ps == nil || len(ps.Polygons) == 0 {
		return nil, geom.ErrEmptyPattern
	}
	if p.Dx <= 0 {
		return nil, fmt.Errorf("grid step must be positive, got %g", p.Dx)
	}
	margin := p.Margin
	if margin == 0 {
		margin = DefaultMargin
	}

	minX, minY, maxX, maxY := ps.BBox()
	if math.IsInf(minX, 1) {
		return nil, geom.ErrEmptyPattern
	}
	bounds := grid.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}

	dx := p.Dx
	occ := buildOccupancy(ps, bounds, margin, dx)

	if p.AutoRes && p.TargetPoints > 0 {
		pts := occ.Rows * occ.Cols
		lo := 0.8 * float64(p.TargetPoints)
		hi := 1.2 * float64(p.TargetPoints)
		if float64(pts) < lo || float64(pts) > hi {
			k := int(math.Ceil(math.Log2(math.Sqrt(float64(pts) / float64(p.TargetPoints)))))
			if k != 0 {
				dx = p.Dx * math.Pow(2, float64(k))
				monitoring.Logf("raster: %d points outside [%.0f, %.0f], rescaling dx %g -> %g (k=%d)",
					pts, lo, hi, p.Dx, dx, k)
				occ = buildOccupancy(ps, bounds, margin, dx)
			}
			if final := occ.Rows * occ.Cols; float64(final) < lo || float64(final) > hi {
				monitoring.Logf("raster: %d points still outside target band, proceeding at dx=%g", final, dx)
			}
		}
	}

	shape := grid.NewMask(occ.MinX, occ.MinY, occ.Dx, occ.Rows, occ.Cols)
	for i, v := range occ.Data {
		shape.Bits[i] = v > 0
	}

	return &Result{
		Occupancy:     occ,
		Shape:         shape,
		Dx:            dx,
		PatternBounds: bounds,
	}, nil
}

func buildOccupancy(ps *geom.PatternSet, bounds grid.Rect, margin, dx float64) *grid.Grid {
	minX := bounds.MinX - margin
	minY := bounds.MinY - margin
	maxX := bounds.MaxX + margin
	maxY := bounds.MaxY + margin

	cols := int(math.Floor((maxX-minX)/dx)) + 1
	rows := int(math.Floor((maxY-minY)/dx)) + 1
	// centered frequency-domain convolution needs odd axis lengths; extend
	// the domain by one step on the high side where needed
	if cols%2 == 0 {
		cols++
	}
	if rows%2 == 0 {
		rows++
	}

	occ := grid.New(minX, minY, dx, rows, cols)
	for _, poly := range ps.Polygons {
		if len(poly) < 3 || poly.Area() == 0 {
			// degenerate polygons contribute nothing
			continue
		}
		pMinX, pMinY, pMaxX, pMaxY := poly.BBox()
		c0 := clampIdx(int(math.Floor((pMinX-minX)/dx)), 0, cols-1)
		c1 := clampIdx(int(math.Ceil((pMaxX-minX)/dx)), 0, cols-1)
		r0 := clampIdx(int(math.Floor((pMinY-minY)/dx)), 0, rows-1)
		r1 := clampIdx(int(math.Ceil((pMaxY-minY)/dx)), 0, rows-1)
		for r := r0; r <= r1; r++ {
			y := occ.Y(r)
			for c := c0; c <= c1; c++ {
				if poly.Contains(occ.X(c), y) {
					occ.Add(r, c, 1)
				}
			}
		}
	}
	return occ
}

func clampIdx(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
