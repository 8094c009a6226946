// Package fracture extracts closed boundary polygons from a dose layer's
// raster mask, tiling the grid and enforcing a hard vertex cap per output
// polygon via adaptive subfield subdivision.
package fracture

import (
	"errors"
	"fmt"

	"github.com/lucamedeir/urpec/internal/grid"
	"github.com/lucamedeir/urpec/internal/monitoring"
)

// MaxVertices is the hard vertex cap a pattern-generation tool accepts
// per polygon.
const MaxVertices = 200

// DefaultMaxAttempts bounds the subdivision backoff so a layer whose
// features cannot be captured within the vertex cap fails instead of
// shrinking subfields forever.
const DefaultMaxAttempts = 8

// ErrBackoffExhausted is returned when the subfield backoff runs out of
// attempts without satisfying the vertex cap.
var ErrBackoffExhausted = errors.New("fracture: subfield backoff exhausted")

// Vertex is a lattice corner in layer-local grid indices. Corner (R, C)
// is the lower-left corner of mask cell (R, C).
type Vertex struct {
	Row int
	Col int
}

// Boundary is a closed polygon of lattice corners. Holes are merged into
// their enclosing boundary through a zero-width slit, so a boundary may
// contain one duplicated vertex pair per merged hole.
type Boundary []Vertex

// Options configures fracturing of one layer mask.
type Options struct {
	SubfieldSize int // max tile edge in grid cells
	MaxVertices  int // per-polygon cap; MaxVertices when zero
	MaxAttempts  int // backoff bound; DefaultMaxAttempts when zero
}

// Fracture decomposes the mask into boundaries of at most MaxVertices
// vertices each. Tiling is a retry loop: when any boundary in a pass
// exceeds the cap, all boundaries accumulated for the layer are discarded
// and tiling restarts with the subfield edge recomputed as
// SubfieldSize/attempt.
func Fracture(m *grid.Mask, opt Options) ([]Boundary, error) {
	if m == nil {
		return nil, fmt.Errorf("fracture: nil mask")
	}
	if opt.SubfieldSize < 1 {
		return nil, fmt.Errorf("fracture: subfield size must be at least 1, got %d", opt.SubfieldSize)
	}
	maxVerts := opt.MaxVertices
	if maxVerts == 0 {
		maxVerts = MaxVertices
	}
	maxAttempts := opt.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		size := opt.SubfieldSize / attempt
		if size < 1 {
			size = 1
		}
		bounds, ok, err := fractureOnce(m, size, maxVerts)
		if err != nil {
			return nil, err
		}
		if ok {
			if attempt > 1 {
				monitoring.Logf("fracture: vertex cap met at subfield size %d after %d attempts", size, attempt)
			}
			return bounds, nil
		}
	}
	return nil, fmt.Errorf("no subfield size under %d attempts satisfies the %d-vertex cap: %w",
		maxAttempts, maxVerts, ErrBackoffExhausted)
}

// fractureOnce runs a single tiling pass. ok is false when some boundary
// exceeded the vertex cap and the caller must back off.
func fractureOnce(m *grid.Mask, size, maxVerts int) ([]Boundary, bool, error) {
	tilesR := (m.Rows + size - 1) / size
	tilesC := (m.Cols + size - 1) / size

	var out []Boundary
	for tr := 0; tr < tilesR; tr++ {
		for tc := 0; tc < tilesC; tc++ {
			y0 := tr * size
			x0 := tc * size
			h := minInt(size, m.Rows-y0)
			w := minInt(size, m.Cols-x0)

			bounds, ok, err := fractureTile(m, y0, x0, h, w, maxVerts)
			if err != nil {
				return nil, false, fmt.Errorf("tile (%d,%d): %w", tr, tc, err)
			}
			if !ok {
				return nil, false, nil
			}
			out = append(out, bounds...)
		}
	}
	return out, true, nil
}

// fractureTile extracts the boundaries of one tile. The tile sub-mask is
// padded by one cell on all sides with the neighboring mask values so
// boundaries from adjacent tiles meet at their shared border instead of
// leaving a one-cell gap.
func fractureTile(m *grid.Mask, y0, x0, h, w, maxVerts int) ([]Boundary, bool, error) {
	b := newBitmap(h+2, w+2)
	for r := 0; r < h+2; r++ {
		for c := 0; c < w+2; c++ {
			b.set(r, c, m.BitSafe(y0-1+r, x0-1+c))
		}
	}

	contours, err := traceContours(b)
	if err != nil {
		return nil, false, err
	}

	merged := reconcileHoles(contours)

	var out []Boundary
	for _, pts := range merged {
		bd := simplify(pts)
		if len(bd) < 3 {
			// degenerate after simplification, contributes nothing
			continue
		}
		if len(bd) > maxVerts {
			return nil, false, nil
		}
		for i := range bd {
			bd[i].Row += y0 - 1
			bd[i].Col += x0 - 1
		}
		out = append(out, bd)
	}
	return out, true, nil
}

// reconcileHoles builds a new boundary list in which every usable hole is
// merged into its smallest enclosing outer contour via a zero-width slit.
// Holes with no positive area, no enclosing contour, or self-intersecting
// traces are dropped.
func reconcileHoles(contours []contour) []Boundary {
	var outers []int
	var holes []int
	for i := range contours {
		if contours[i].isHole() {
			holes = append(holes, i)
		} else if contours[i].area > 0 {
			outers = append(outers, i)
		}
	}

	merged := make(map[int]Boundary, len(outers))
	for _, oi := range outers {
		merged[oi] = Boundary(contours[oi].pts)
	}

	for _, hi := range holes {
		hole := &contours[hi]
		if -hole.area <= 0 || !holeTraceSane(hole.pts) {
			continue
		}
		parent := findParent(contours, outers, hole)
		if parent < 0 {
			continue
		}
		merged[parent] = mergeHole(merged[parent], hole.pts)
	}

	out := make([]Boundary, 0, len(outers))
	for _, oi := range outers {
		out = append(out, merged[oi])
	}
	return out
}

// holeTraceSane rejects hole contours whose trace revisits more than one
// corner, the signature of a self-intersecting trace.
func holeTraceSane(pts []Vertex) bool {
	seen := make(map[Vertex]int, len(pts))
	dups := 0
	for _, p := range pts {
		seen[p]++
		if seen[p] == 2 {
			dups++
		}
		if seen[p] > 2 || dups > 1 {
			return false
		}
	}
	return true
}

// findParent returns the index of the smallest-area outer contour
// enclosing the hole's interior point, or -1.
func findParent(contours []contour, outers []int, hole *contour) int {
	// the interior point sits at the center of the empty cell adjacent to
	// the hole's start edge; half-integer coordinates avoid edge cases
	x := float64(hole.interiorCol) + 0.5
	y := float64(hole.interiorRow) + 0.5

	best := -1
	bestArea := 0.0
	for _, oi := range outers {
		if !containsPoint(contours[oi].pts, x, y) {
			continue
		}
		if best < 0 || contours[oi].area < bestArea {
			best = oi
			bestArea = contours[oi].area
		}
	}
	return best
}

// mergeHole splices the hole loop into the outer loop at the closest
// vertex pair, leaving a zero-width slit between them. The hole keeps its
// opposite winding so even-odd filling of the merged polygon excludes the
// hole interior.
func mergeHole(outer Boundary, hole []Vertex) Boundary {
	bi, bj := 0, 0
	bestDist := -1
	for i, ov := range outer {
		for j, hv := range hole {
			dr := ov.Row - hv.Row
			dc := ov.Col - hv.Col
			d := dr*dr + dc*dc
			if bestDist < 0 || d < bestDist {
				bestDist = d
				bi, bj = i, j
			}
		}
	}

	out := make(Boundary, 0, len(outer)+len(hole)+2)
	out = append(out, outer[:bi+1]...)
	for k := 0; k <= len(hole); k++ {
		out = append(out, hole[(bj+k)%len(hole)])
	}
	out = append(out, outer[bi:]...)
	return out
}

// simplify removes immediate duplicates and vertices collinear with
// their neighbors in the same travel direction. Slit reversal vertices
// are preserved: only forward-collinear runs collapse.
func simplify(b Boundary) Boundary {
	pts := b
	for {
		next := simplifyPass(pts)
		if len(next) == len(pts) {
			return next
		}
		pts = next
	}
}

func simplifyPass(pts Boundary) Boundary {
	n := len(pts)
	if n < 3 {
		return pts
	}
	keep := make(Boundary, 0, n)
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		cur := pts[i]
		next := pts[(i+1)%n]

		if cur == next {
			continue
		}
		d1r, d1c := cur.Row-prev.Row, cur.Col-prev.Col
		d2r, d2c := next.Row-cur.Row, next.Col-cur.Col
		cross := d1r*d2c - d1c*d2r
		dot := d1r*d2r + d1c*d2c
		if cross == 0 && dot > 0 {
			continue
		}
		keep = append(keep, cur)
	}
	return keep
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
