package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucamedeir/urpec/internal/deconv"
	"github.com/lucamedeir/urpec/internal/fracture"
	"github.com/lucamedeir/urpec/internal/grid"
	"github.com/lucamedeir/urpec/internal/layers"
	"github.com/lucamedeir/urpec/internal/pipeline"
)

var _ pipeline.Observer = (*DosePlotter)(nil)

func sampleDose() *grid.Grid {
	g := grid.New(0, 0, 0.1, 5, 5)
	for i := range g.Data {
		g.Data[i] = 1.0 + 0.01*float64(i%7)
	}
	return g
}

func TestDosePlotterGeneratesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	dp := NewDosePlotter()
	require.NoError(t, dp.Start(dir))
	require.True(t, dp.IsEnabled())

	dp.OnDoseMap(sampleDose(), deconv.Stats{MaxCorrection: []float64{0.3, 0.1, 0.05}})
	dp.OnLayerFractured(layers.Layer{
		Index: 1, NominalDose: 1.0, RepresentativeDose: 0.98,
		Mask: grid.NewMask(0, 0, 0.1, 5, 5),
	}, []fracture.Boundary{{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}}})
	dp.Stop()

	n, err := dp.GeneratePlots()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, name := range []string{"dose_profile.png", "deconv_correction.png", "layer_doses.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestDosePlotterIgnoresWhenStopped(t *testing.T) {
	dp := NewDosePlotter()
	require.NoError(t, dp.Start(t.TempDir()))
	dp.Stop()

	dp.OnDoseMap(sampleDose(), deconv.Stats{MaxCorrection: []float64{0.1}})

	n, err := dp.GeneratePlots()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDosePlotterRequiresStart(t *testing.T) {
	dp := NewDosePlotter()
	_, err := dp.GeneratePlots()
	assert.Error(t, err)
}
