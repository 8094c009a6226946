package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucamedeir/urpec/internal/fracture"
	"github.com/lucamedeir/urpec/internal/fsutil"
	"github.com/lucamedeir/urpec/internal/geom"
	"github.com/lucamedeir/urpec/internal/grid"
	"github.com/lucamedeir/urpec/internal/layers"
)

func squareLayer(index int, dose float64) layers.Layer {
	return layers.Layer{
		Index:              index,
		NominalDose:        dose,
		RepresentativeDose: dose,
		Mask:               grid.NewMask(0, 0, 0.1, 5, 5),
	}
}

func TestBuildMapsCornersToWorld(t *testing.T) {
	l := squareLayer(1, 1.0)
	bounds := []fracture.Boundary{
		{{Row: 2, Col: 2}, {Row: 2, Col: 3}, {Row: 3, Col: 3}, {Row: 3, Col: 2}},
	}

	out, err := Build(l, bounds)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Index)
	assert.Equal(t, 1.0, out.Dose)
	require.Len(t, out.Polygons, 1)

	// corner (2, 2) of a grid with cell centers at multiples of 0.1
	// sits half a cell below the center, at 0.15
	want := geom.Polygon{
		{X: 0.15, Y: 0.15}, {X: 0.25, Y: 0.15}, {X: 0.25, Y: 0.25}, {X: 0.15, Y: 0.25},
	}
	assert.InDeltaSlice(t,
		[]float64{want[0].X, want[1].X, want[2].X, want[3].X},
		[]float64{out.Polygons[0][0].X, out.Polygons[0][1].X, out.Polygons[0][2].X, out.Polygons[0][3].X},
		1e-12)
	assert.InDelta(t, 0.01, out.Polygons[0].Area(), 1e-12, "unit cell area in square microns")
	assert.Equal(t, 4, out.VertexCount())
}

func TestBuildRequiresMask(t *testing.T) {
	_, err := Build(layers.Layer{Index: 3}, nil)
	assert.Error(t, err)
}

func TestTextWriterDescendingLayerOrder(t *testing.T) {
	outs := []LayerOutput{
		{Index: 1, Dose: 1.0, Polygons: []geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}},
		{Index: 3, Dose: 1.4, Polygons: []geom.Polygon{{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}}}},
		{Index: 2, Dose: 1.2, Polygons: nil},
	}

	var sb strings.Builder
	require.NoError(t, TextWriter{}.WritePattern(&sb, outs))
	text := sb.String()

	i3 := strings.Index(text, "layer 3 dose 1.400")
	i2 := strings.Index(text, "layer 2 dose 1.200")
	i1 := strings.Index(text, "layer 1 dose 1.000")
	require.True(t, i3 >= 0 && i2 >= 0 && i1 >= 0, "all layer headers present:\n%s", text)
	assert.Less(t, i3, i2)
	assert.Less(t, i2, i1)

	assert.Contains(t, text, "poly\n0.0000 0.0000\n2.0000 0.0000\n2.0000 2.0000\nend\n")
}

func TestWritePatternFile(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	outs := []LayerOutput{
		{Index: 1, Dose: 1.0, Polygons: []geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}}},
	}

	require.NoError(t, WritePatternFile(fsys, "out/layers.txt", TextWriter{}, outs))

	data, err := fsys.ReadFile("out/layers.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "layer 1 dose 1.000\n"))
}

func TestWriteDoseReportAscending(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	outs := []LayerOutput{
		{Index: 2, Dose: 1.25},
		{Index: 1, Dose: 1.0},
		{Index: 3, Dose: 1.4},
	}

	require.NoError(t, WriteDoseReport(fsys, "doses.txt", outs))

	data, err := fsys.ReadFile("doses.txt")
	require.NoError(t, err)
	assert.Equal(t, "1.000\n1.250\n1.400\n", string(data))
}
