// Package psf builds the discretized point-spread kernel and the
// ringing-suppression window from a compact two-Gaussian descriptor.
package psf

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/lucamedeir/urpec/internal/grid"
)

// Descriptor is the two-Gaussian radial scattering model produced by the
// external PSF extraction tool. Alpha is the forward-scattering width,
// Beta the backscattering width, Eta the backscattered energy ratio, and
// Range the applicability radius, all lengths in microns.
type Descriptor struct {
	Eta   float64 `json:"eta"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Range float64 `json:"range"`
	Label string  `json:"label"`
}

// Validate checks the descriptor for physical plausibility.
func (d Descriptor) Validate() error {
	if d.Eta < 0 {
		return fmt.Errorf("eta must be non-negative, got %g", d.Eta)
	}
	if d.Alpha <= 0 || d.Beta <= 0 {
		return fmt.Errorf("alpha and beta must be positive, got alpha=%g beta=%g", d.Alpha, d.Beta)
	}
	if d.Alpha >= d.Beta {
		return fmt.Errorf("forward width alpha (%g) must be smaller than backscatter width beta (%g)", d.Alpha, d.Beta)
	}
	if d.Range <= 0 {
		return fmt.Errorf("range must be positive, got %g", d.Range)
	}
	return nil
}

// LoadDescriptor reads a descriptor record from a JSON file.
func LoadDescriptor(path string) (Descriptor, error) {
	var d Descriptor
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return d, fmt.Errorf("read psf descriptor: %w", err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse psf descriptor %s: %w", cleanPath, err)
	}
	if err := d.Validate(); err != nil {
		return d, fmt.Errorf("psf descriptor %s: %w", cleanPath, err)
	}
	return d, nil
}

// Model is a discretized PSF: a kernel normalized to unit total
// probability and a matching ringing-suppression window, both odd square
// grids of half-width round(Range/dx) centered on the origin.
type Model struct {
	Desc      Descriptor
	Kernel    *grid.Grid
	Window    *grid.Grid
	HalfWidth int
}

// Build evaluates the descriptor on a grid at step dx. windowVal controls
// the width of the Gaussian apodization window: larger values narrow the
// window and suppress more ringing.
func Build(d Descriptor, dx, windowVal float64) (*Model, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if dx <= 0 {
		return nil, fmt.Errorf("grid step must be positive, got %g", dx)
	}
	if windowVal <= 0 {
		return nil, fmt.Errorf("window smoothing factor must be positive, got %g", windowVal)
	}
	h := int(math.Round(d.Range / dx))
	if h < 1 {
		return nil, fmt.Errorf("psf range %g too small for step %g", d.Range, dx)
	}
	n := 2*h + 1
	origin := -float64(h) * dx

	kernel := grid.New(origin, origin, dx, n, n)
	a2 := d.Alpha * d.Alpha
	b2 := d.Beta * d.Beta
	fwd := 1 / (math.Pi * a2)
	back := d.Eta / (math.Pi * b2)
	norm := 1 / (1 + d.Eta)
	for r := 0; r < n; r++ {
		dy := float64(r-h) * dx
		for c := 0; c < n; c++ {
			dxo := float64(c-h) * dx
			r2 := dxo*dxo + dy*dy
			kernel.Set(r, c, norm*(fwd*math.Exp(-r2/a2)+back*math.Exp(-r2/b2)))
		}
	}
	sum := floats.Sum(kernel.Data)
	if sum <= 0 {
		return nil, fmt.Errorf("psf kernel sums to %g, cannot normalize", sum)
	}
	floats.Scale(1/sum, kernel.Data)

	// Gaussian apodization over the kernel extent. The kernel is square so
	// the half-extent is the same on both axes.
	rw := float64(h) * dx
	sigma := rw / windowVal
	window := grid.New(origin, origin, dx, n, n)
	for r := 0; r < n; r++ {
		dy := float64(r-h) * dx
		for c := 0; c < n; c++ {
			dxo := float64(c-h) * dx
			window.Set(r, c, math.Exp(-(dxo*dxo+dy*dy)/(sigma*sigma)))
		}
	}

	return &Model{Desc: d, Kernel: kernel, Window: window, HalfWidth: h}, nil
}
