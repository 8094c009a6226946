// Package geom provides the 2D pattern geometry consumed by the
// rasterizer: polygons in micron coordinates, grouped into a PatternSet.
package geom

import "math"

// Point is a 2D point in microns.
type Point struct {
	X float64
	Y float64
}

// Polygon is an ordered sequence of points forming a closed polygon.
// The last point connects implicitly back to the first.
type Polygon []Point

// BBox returns the axis-aligned bounding box of the polygon.
// Returns zeroes for an empty polygon.
func (p Polygon) BBox() (minX, minY, maxX, maxY float64) {
	if len(p) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = p[0].X, p[0].X
	minY, maxY = p[0].Y, p[0].Y
	for _, pt := range p[1:] {
		minX = math.Min(minX, pt.X)
		maxX = math.Max(maxX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}
	return minX, minY, maxX, maxY
}

// Area returns the signed area of the polygon (shoelace formula).
// Counterclockwise polygons have positive area.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}

// Contains reports whether (x, y) lies inside the polygon using the
// even-odd ray crossing rule. Points exactly on an edge may fall on
// either side; the rasterizer tolerates this one-cell ambiguity.
func (p Polygon) Contains(x, y float64) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	j := len(p) - 1
	for i := 0; i < len(p); i++ {
		pi, pj := p[i], p[j]
		if (pi.Y > y) != (pj.Y > y) {
			xCross := (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if x < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
