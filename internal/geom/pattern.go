package geom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrEmptyPattern is returned when the geometry input contains no polygons.
var ErrEmptyPattern = errors.New("pattern contains no polygons")

// PatternSet holds the input polygons in object-id order. Object ids are
// contiguous starting at 1; Polygons[i] is the polygon with id i+1.
type PatternSet struct {
	Polygons []Polygon
}

// BBox returns the bounding box over all polygons in the set.
func (ps *PatternSet) BBox() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range ps.Polygons {
		x0, y0, x1, y1 := p.BBox()
		if len(p) == 0 {
			continue
		}
		minX = math.Min(minX, x0)
		minY = math.Min(minY, y0)
		maxX = math.Max(maxX, x1)
		maxY = math.Max(maxY, y1)
	}
	return minX, minY, maxX, maxY
}

// ReadPattern parses a sequence of (objectId, x, y) triples, one per line,
// separated by whitespace or commas. Lines starting with '#' and blank
// lines are skipped. Each contiguous run of identical ids forms one closed
// polygon in microns. Ids must be contiguous starting at 1.
func ReadPattern(r io.Reader) (*PatternSet, error) {
	ps := &PatternSet{}
	var cur Polygon
	curID := 0

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields (id x y), got %d", lineNo, len(fields))
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad object id %q: %w", lineNo, fields[0], err)
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad x coordinate %q: %w", lineNo, fields[1], err)
		}
		y, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad y coordinate %q: %w", lineNo, fields[2], err)
		}

		switch {
		case id < 1:
			return nil, fmt.Errorf("line %d: object ids must be positive, got %d", lineNo, id)
		case id == curID:
			// same polygon continues
		case id == curID+1:
			if curID > 0 {
				ps.Polygons = append(ps.Polygons, cur)
			}
			cur = nil
			curID = id
		default:
			return nil, fmt.Errorf("line %d: object ids must be contiguous starting at 1, got %d after %d", lineNo, id, curID)
		}
		cur = append(cur, Point{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pattern: %w", err)
	}
	if curID > 0 {
		ps.Polygons = append(ps.Polygons, cur)
	}
	if len(ps.Polygons) == 0 {
		return nil, ErrEmptyPattern
	}
	return ps, nil
}

// ReadPatternFile reads a pattern from the named file.
func ReadPatternFile(path string) (*PatternSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pattern file: %w", err)
	}
	defer f.Close()
	ps, err := ReadPattern(f)
	if err != nil {
		return nil, fmt.Errorf("parse pattern file %s: %w", path, err)
	}
	return ps, nil
}
