// Package assemble turns fractured layer boundaries back into
// world-coordinate polygons and writes the exposure output files.
package assemble

import (
	"fmt"

	"github.com/lucamedeir/urpec/internal/fracture"
	"github.com/lucamedeir/urpec/internal/geom"
	"github.com/lucamedeir/urpec/internal/layers"
)

// LayerOutput is one dose layer ready for export: its polygons in
// microns and the exposure dose in multiples of dose-to-clear.
type LayerOutput struct {
	Index    int
	Dose     float64
	Polygons []geom.Polygon
}

// Build maps the layer's fractured boundaries from lattice-corner
// indices to world coordinates using the layer mask's georeferencing.
func Build(l layers.Layer, bounds []fracture.Boundary) (LayerOutput, error) {
	if l.Mask == nil {
		return LayerOutput{}, fmt.Errorf("assemble: layer %d has no mask", l.Index)
	}

	polys := make([]geom.Polygon, 0, len(bounds))
	for _, b := range bounds {
		poly := make(geom.Polygon, 0, len(b))
		for _, v := range b {
			poly = append(poly, geom.Point{
				X: l.Mask.CornerX(v.Col),
				Y: l.Mask.CornerY(v.Row),
			})
		}
		polys = append(polys, poly)
	}

	return LayerOutput{
		Index:    l.Index,
		Dose:     l.RepresentativeDose,
		Polygons: polys,
	}, nil
}

// VertexCount is the total number of vertices across the layer's
// polygons.
func (l LayerOutput) VertexCount() int {
	n := 0
	for _, p := range l.Polygons {
		n += len(p)
	}
	return n
}
