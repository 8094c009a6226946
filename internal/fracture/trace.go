package fracture

import "fmt"

// bitmap is a tile-local boolean raster used during tracing.
type bitmap struct {
	rows, cols int
	bits       []bool
}

func newBitmap(rows, cols int) *bitmap {
	return &bitmap{rows: rows, cols: cols, bits: make([]bool, rows*cols)}
}

// at reports the cell at (r, c), treating everything outside as empty.
func (b *bitmap) at(r, c int) bool {
	if r < 0 || r >= b.rows || c < 0 || c >= b.cols {
		return false
	}
	return b.bits[r*b.cols+c]
}

func (b *bitmap) set(r, c int, v bool) { b.bits[r*b.cols+c] = v }

// contour is one closed loop of lattice corners traced from a bitmap.
// Corner (R, C) is the top-left corner of cell (R, C). Outer boundaries
// have positive signed area in (col, row) coordinates; holes negative.
// interiorRow/interiorCol identify the empty cell adjacent to the start
// edge, which for a hole lies inside the enclosed empty region.
type contour struct {
	pts         []Vertex
	area        float64
	interiorRow int
	interiorCol int
}

func (ct *contour) isHole() bool { return ct.area < 0 }

// walk directions
const (
	dirE = iota
	dirS
	dirW
	dirN
)

// traceContours decomposes the bitmap's filled regions into closed corner
// loops. The walk keeps filled cells on the right of the travel
// direction, turning left at corners whose left-ahead cell is filled, so
// diagonally touching cells trace as one connected boundary. Every loop
// passes at least one eastward edge along the top of a filled cell with
// an empty cell above; those edges seed and deduplicate the scan.
func traceContours(b *bitmap) ([]contour, error) {
	visitedE := make([]bool, (b.rows+1)*(b.cols+1))
	eIdx := func(r, c int) int { return r*(b.cols+1) + c }

	var out []contour
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			if !b.at(r, c) || b.at(r-1, c) || visitedE[eIdx(r, c)] {
				continue
			}
			ct, err := walk(b, r, c, visitedE, eIdx)
			if err != nil {
				return nil, err
			}
			out = append(out, ct)
		}
	}
	return out, nil
}

// walk traces one closed loop starting from the eastward edge on top of
// cell (startR, startC).
func walk(b *bitmap, startR, startC int, visitedE []bool, eIdx func(r, c int) int) (contour, error) {
	ct := contour{interiorRow: startR - 1, interiorCol: startC}

	r, c := startR, startC
	dir := dirE
	// a loop can traverse each lattice edge at most once per direction
	limit := 4 * (b.rows + 1) * (b.cols + 1)
	for steps := 0; ; steps++ {
		if steps > limit {
			return ct, fmt.Errorf("boundary trace did not close at (%d,%d)", startR, startC)
		}
		ct.pts = append(ct.pts, Vertex{Row: r, Col: c})
		if dir == dirE {
			visitedE[eIdx(r, c)] = true
		}

		// advance along the current direction
		switch dir {
		case dirE:
			c++
		case dirS:
			r++
		case dirW:
			c--
		case dirN:
			r--
		}

		// pick the next direction from the 2x2 cells around the corner,
		// preferring a left turn when the left-ahead cell is filled
		var left, right bool
		switch dir {
		case dirE:
			left, right = b.at(r-1, c), b.at(r, c)
		case dirS:
			left, right = b.at(r, c), b.at(r, c-1)
		case dirW:
			left, right = b.at(r, c-1), b.at(r-1, c-1)
		case dirN:
			left, right = b.at(r-1, c-1), b.at(r-1, c)
		}
		switch {
		case left:
			dir = (dir + 3) % 4 // turn left
		case right:
			// straight on
		default:
			dir = (dir + 1) % 4 // turn right
		}

		if r == startR && c == startC && dir == dirE {
			break
		}
	}

	ct.area = signedArea(ct.pts)
	return ct, nil
}

// signedArea is the shoelace area of a corner loop in (col, row)
// coordinates. Outer loops are positive, holes negative.
func signedArea(pts []Vertex) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].Col*pts[j].Row - pts[j].Col*pts[i].Row
	}
	return float64(sum) / 2
}

// containsPoint reports whether the loop contains (x, y) under the
// even-odd rule, with x along columns and y along rows. Callers pass
// half-integer points so no edge coincidences arise.
func containsPoint(pts []Vertex, x, y float64) bool {
	inside := false
	j := len(pts) - 1
	for i := 0; i < len(pts); i++ {
		yi, yj := float64(pts[i].Row), float64(pts[j].Row)
		xi, xj := float64(pts[i].Col), float64(pts[j].Col)
		if (yi > y) != (yj > y) {
			xCross := (xj-xi)*(y-yi)/(yj-yi) + xi
			if x < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
