// Package deconv iteratively computes the programmed dose map that, once
// convolved with the PSF, delivers uniform target dose inside the shapes.
package deconv

import (
	"fmt"
	"math"

	"github.com/lucamedeir/urpec/internal/grid"
	"github.com/lucamedeir/urpec/internal/monitoring"
	"github.com/lucamedeir/urpec/internal/psf"
)

// Options configures a deconvolution run.
type Options struct {
	// MaxIter is the fixed number of correction iterations. There is no
	// convergence check; the loop always runs exactly MaxIter times.
	MaxIter int

	// Crop, when set, restricts the returned dose map and shape mask to
	// the given rectangle (the unpadded pattern bounding box).
	Crop *grid.Rect
}

// Stats records per-iteration diagnostics. MaxCorrection[i] is the
// largest absolute dose correction applied in iteration i; a growing
// sequence indicates the fixed-point iteration is diverging.
type Stats struct {
	MaxCorrection []float64
}

// Diverging reports whether the correction magnitude grew from the first
// to the last iteration.
func (s Stats) Diverging() bool {
	n := len(s.MaxCorrection)
	return n >= 2 && s.MaxCorrection[n-1] > s.MaxCorrection[0]
}

// Result is the engine output. Dose cells that are not physically
// realizable (programmed dose <= 0, or outside every shape) are NaN and
// excluded from all downstream layering.
type Result struct {
	Dose  *grid.Grid
	Shape *grid.Mask
	Stats Stats
}

// Run executes the fixed-point deconvolution of the shape mask against
// the PSF model. The kernel and mask are first reconciled to a common odd
// size: the smaller array is zero-padded symmetrically (the kernel is
// never cropped, since that would corrupt the physical PSF).
func Run(shape *grid.Mask, model *psf.Model, opt Options) (*Result, error) {
	if shape == nil || model == nil {
		return nil, fmt.Errorf("deconv: nil shape or model")
	}
	if opt.MaxIter < 0 {
		return nil, fmt.Errorf("deconv: iteration count must be non-negative, got %d", opt.MaxIter)
	}
	if shape.Rows%2 == 0 || shape.Cols%2 == 0 {
		return nil, fmt.Errorf("deconv: shape mask axes must be odd, got %dx%d", shape.Rows, shape.Cols)
	}

	rows := maxInt(shape.Rows, model.Kernel.Rows)
	cols := maxInt(shape.Cols, model.Kernel.Cols)
	if rows > shape.Rows || cols > shape.Cols {
		monitoring.Logf("deconv: kernel (%dx%d) exceeds domain (%dx%d), padding domain",
			model.Kernel.Rows, model.Kernel.Cols, shape.Rows, shape.Cols)
	}

	work := padMaskCentered(shape, rows, cols)
	kernel := padCentered(model.Kernel.Data, model.Kernel.Rows, model.Kernel.Cols, rows, cols)
	window := padCentered(model.Window.Data, model.Window.Rows, model.Window.Cols, rows, cols)

	n := rows * cols
	heff := make([]complex128, n)
	kbuf := make([]complex128, n)
	for i, v := range shift2(kernel, rows, cols) {
		kbuf[i] = complex(v, 0)
	}
	fft2(kbuf, rows, cols, false)
	for i, w := range shift2(window, rows, cols) {
		heff[i] = kbuf[i] * complex(w, 0)
	}

	// dose-to-clear everywhere inside shapes, zero outside
	dose := make([]float64, n)
	for i, in := range work.Bits {
		if in {
			dose[i] = 1
		}
	}

	var stats Stats
	buf := make([]complex128, n)
	invScale := 1 / float64(n)
	for it := 0; it < opt.MaxIter; it++ {
		for i, v := range dose {
			buf[i] = complex(v, 0)
		}
		fft2(buf, rows, cols, false)
		for i := range buf {
			buf[i] *= heff[i]
		}
		fft2(buf, rows, cols, true)

		maxCorr := 0.0
		for i, in := range work.Bits {
			if !in {
				continue
			}
			corr := 1 - real(buf[i])*invScale
			dose[i] += corr
			if a := math.Abs(corr); a > maxCorr {
				maxCorr = a
			}
		}
		stats.MaxCorrection = append(stats.MaxCorrection, maxCorr)
	}
	if stats.Diverging() {
		monitoring.Logf("deconv: correction grew from %.3g to %.3g over %d iterations, dose map may be diverging",
			stats.MaxCorrection[0], stats.MaxCorrection[len(stats.MaxCorrection)-1], opt.MaxIter)
	}

	doseGrid := grid.New(work.MinX, work.MinY, work.Dx, rows, cols)
	copy(doseGrid.Data, dose)
	outMask := work

	if opt.Crop != nil {
		cropped, err := doseGrid.CropTo(*opt.Crop)
		if err != nil {
			return nil, fmt.Errorf("deconv: crop dose map: %w", err)
		}
		croppedMask, err := outMask.CropTo(*opt.Crop)
		if err != nil {
			return nil, fmt.Errorf("deconv: crop shape mask: %w", err)
		}
		doseGrid, outMask = cropped, croppedMask
	}

	// non-positive programmed dose is not physically realizable; mark the
	// cell invalid rather than clamping
	for i, v := range doseGrid.Data {
		if v <= 0 {
			doseGrid.Data[i] = math.NaN()
		}
	}

	return &Result{Dose: doseGrid, Shape: outMask, Stats: stats}, nil
}

func padMaskCentered(m *grid.Mask, rows, cols int) *grid.Mask {
	if m.Rows == rows && m.Cols == cols {
		return m.Clone()
	}
	dr := (rows - m.Rows) / 2
	dc := (cols - m.Cols) / 2
	out := grid.NewMask(m.MinX-float64(dc)*m.Dx, m.MinY-float64(dr)*m.Dx, m.Dx, rows, cols)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			out.SetBit(r+dr, c+dc, m.Bit(r, c))
		}
	}
	return out
}

func padCentered(data []float64, rows, cols, newRows, newCols int) []float64 {
	if rows == newRows && cols == newCols {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}
	dr := (newRows - rows) / 2
	dc := (newCols - cols) / 2
	out := make([]float64, newRows*newCols)
	for r := 0; r < rows; r++ {
		copy(out[(r+dr)*newCols+dc:(r+dr)*newCols+dc+cols], data[r*cols:(r+1)*cols])
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
