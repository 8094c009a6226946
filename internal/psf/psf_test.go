package psf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func validDescriptor() Descriptor {
	return Descriptor{Eta: 0.5, Alpha: 0.05, Beta: 2.0, Range: 5, Label: "pmma-30kv"}
}

func TestKernelNormalization(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
		dx   float64
	}{
		{"reference psf", validDescriptor(), 0.1},
		{"coarse step", validDescriptor(), 0.5},
		{"strong backscatter", Descriptor{Eta: 2.0, Alpha: 0.02, Beta: 3.0, Range: 6}, 0.2},
		{"no backscatter", Descriptor{Eta: 0, Alpha: 0.1, Beta: 1.0, Range: 2}, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Build(tt.desc, tt.dx, 10)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, floats.Sum(m.Kernel.Data), 1e-9,
				"kernel cells must sum to 1")
		})
	}
}

func TestKernelShape(t *testing.T) {
	m, err := Build(validDescriptor(), 0.1, 10)
	require.NoError(t, err)

	assert.Equal(t, 50, m.HalfWidth)
	assert.Equal(t, 101, m.Kernel.Rows)
	assert.Equal(t, 101, m.Kernel.Cols)
	assert.Equal(t, m.Kernel.Rows, m.Window.Rows)

	// radially decreasing from the center
	center := m.Kernel.At(50, 50)
	assert.Greater(t, center, m.Kernel.At(50, 60))
	assert.Greater(t, m.Kernel.At(50, 60), m.Kernel.At(50, 100))

	// window peaks at 1 in the center
	assert.InDelta(t, 1.0, m.Window.At(50, 50), 1e-12)
	assert.Less(t, m.Window.At(0, 0), 1.0)
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
		dx   float64
		win  float64
	}{
		{"negative eta", Descriptor{Eta: -1, Alpha: 0.05, Beta: 2, Range: 5}, 0.1, 10},
		{"alpha >= beta", Descriptor{Eta: 0.5, Alpha: 2, Beta: 0.05, Range: 5}, 0.1, 10},
		{"zero alpha", Descriptor{Eta: 0.5, Alpha: 0, Beta: 2, Range: 5}, 0.1, 10},
		{"zero range", Descriptor{Eta: 0.5, Alpha: 0.05, Beta: 2, Range: 0}, 0.1, 10},
		{"bad step", validDescriptor(), 0, 10},
		{"bad window factor", validDescriptor(), 0.1, 0},
		{"range below step", Descriptor{Eta: 0.5, Alpha: 0.05, Beta: 2, Range: 0.01}, 0.1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.desc, tt.dx, tt.win)
			assert.Error(t, err)
		})
	}
}

func TestLoadDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "psf.json")
	content := `{"eta": 0.5, "alpha": 0.05, "beta": 2.0, "range": 5, "label": "pmma-30kv"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := LoadDescriptor(path)
	require.NoError(t, err)
	assert.Equal(t, validDescriptor(), d)
}

func TestLoadDescriptorErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDescriptor(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{eta:"), 0o644))
		_, err := LoadDescriptor(path)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"eta":0.5,"alpha":3,"beta":2,"range":5}`), 0o644))
		_, err := LoadDescriptor(path)
		assert.Error(t, err)
	})
}
