// Package plotting renders diagnostic plots of a correction run: the
// dose profile across the pattern, the per-iteration correction
// magnitude, and the layer dose ladder.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lucamedeir/urpec/internal/deconv"
	"github.com/lucamedeir/urpec/internal/fracture"
	"github.com/lucamedeir/urpec/internal/grid"
	"github.com/lucamedeir/urpec/internal/layers"
	"github.com/lucamedeir/urpec/internal/raster"
)

// layerSample captures one fractured layer for the dose ladder chart.
type layerSample struct {
	index        int
	nominal      float64
	rep          float64
	polygonCount int
}

// DosePlotter observes a pipeline run and renders plots after it
// completes. It is safe for use from a single run at a time.
type DosePlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	dose       *grid.Grid
	maxCorr    []float64
	layerStats []layerSample
}

// NewDosePlotter creates an idle plotter. Call Start before the run.
func NewDosePlotter() *DosePlotter {
	return &DosePlotter{}
}

// Start initializes the plotter for a new run, creating outputDir.
func (dp *DosePlotter) Start(outputDir string) error {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	dp.outputDir = outputDir
	dp.enabled = true
	dp.dose = nil
	dp.maxCorr = nil
	dp.layerStats = nil
	return nil
}

// Stop disables capturing. Call GeneratePlots() to produce output files.
func (dp *DosePlotter) Stop() {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (dp *DosePlotter) IsEnabled() bool {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.enabled
}

// OnRasterized is part of the pipeline observer surface. The rasterized
// occupancy is not plotted.
func (dp *DosePlotter) OnRasterized(*raster.Result) {}

// OnDoseMap captures the cropped dose map and the per-iteration
// correction magnitudes.
func (dp *DosePlotter) OnDoseMap(dose *grid.Grid, stats deconv.Stats) {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if !dp.enabled || dose == nil {
		return
	}
	dp.dose = dose.Clone()
	dp.maxCorr = append([]float64(nil), stats.MaxCorrection...)
}

// OnLayerFractured captures one layer's dose and polygon statistics.
func (dp *DosePlotter) OnLayerFractured(l layers.Layer, bounds []fracture.Boundary) {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if !dp.enabled {
		return
	}
	dp.layerStats = append(dp.layerStats, layerSample{
		index:        l.Index,
		nominal:      l.NominalDose,
		rep:          l.RepresentativeDose,
		polygonCount: len(bounds),
	})
}

// GeneratePlots renders all plots for the captured run and returns how
// many files were written.
func (dp *DosePlotter) GeneratePlots() (int, error) {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	if dp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}

	count := 0
	if dp.dose != nil {
		if err := dp.generateProfilePlot(); err != nil {
			return count, fmt.Errorf("dose profile: %w", err)
		}
		count++
	}
	if len(dp.maxCorr) > 0 {
		if err := dp.generateCorrectionPlot(); err != nil {
			return count, fmt.Errorf("correction magnitude: %w", err)
		}
		count++
	}
	if len(dp.layerStats) > 0 {
		if err := dp.generateLayerPlot(); err != nil {
			return count, fmt.Errorf("layer doses: %w", err)
		}
		count++
	}
	return count, nil
}

// generateProfilePlot renders the programmed dose along the center row.
func (dp *DosePlotter) generateProfilePlot() error {
	p := plot.New()
	p.Title.Text = "Programmed Dose - Center Row Profile"
	p.X.Label.Text = "x (µm)"
	p.Y.Label.Text = "Dose (dose-to-clear)"

	r := dp.dose.Rows / 2
	pts := make(plotter.XYs, 0, dp.dose.Cols)
	for c := 0; c < dp.dose.Cols; c++ {
		v := dp.dose.At(r, c)
		if math.IsNaN(v) {
			// outside every shape
			continue
		}
		pts = append(pts, plotter.XY{X: dp.dose.X(c), Y: v})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("center row", line)
	p.Legend.Top = true

	file := filepath.Join(dp.outputDir, "dose_profile.png")
	if err := p.Save(10*vg.Inch, 5*vg.Inch, file); err != nil {
		return fmt.Errorf("save profile plot: %w", err)
	}
	return nil
}

// generateCorrectionPlot renders the max correction per iteration, a
// quick read on whether the fixed-point loop settled.
func (dp *DosePlotter) generateCorrectionPlot() error {
	p := plot.New()
	p.Title.Text = "Deconvolution - Max Correction per Iteration"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Max |correction|"

	pts := make(plotter.XYs, 0, len(dp.maxCorr))
	for i, v := range dp.maxCorr {
		pts = append(pts, plotter.XY{X: float64(i + 1), Y: v})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)

	file := filepath.Join(dp.outputDir, "deconv_correction.png")
	if err := p.Save(10*vg.Inch, 5*vg.Inch, file); err != nil {
		return fmt.Errorf("save correction plot: %w", err)
	}
	return nil
}

// generateLayerPlot renders nominal and representative doses per layer.
func (dp *DosePlotter) generateLayerPlot() error {
	p := plot.New()
	p.Title.Text = "Layer Dose Ladder"
	p.X.Label.Text = "Layer"
	p.Y.Label.Text = "Dose (dose-to-clear)"

	nominal := make(plotter.Values, len(dp.layerStats))
	rep := make(plotter.Values, len(dp.layerStats))
	labels := make([]string, len(dp.layerStats))
	for i, s := range dp.layerStats {
		nominal[i] = s.nominal
		rep[i] = s.rep
		labels[i] = fmt.Sprintf("%d", s.index)
	}

	w := vg.Points(18)
	nomBars, err := plotter.NewBarChart(nominal, w)
	if err != nil {
		return err
	}
	nomBars.Color = color.RGBA{R: 158, G: 158, B: 158, A: 255}
	nomBars.Offset = -w / 2

	repBars, err := plotter.NewBarChart(rep, w)
	if err != nil {
		return err
	}
	repBars.Color = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	repBars.Offset = w / 2

	p.Add(nomBars, repBars)
	p.Legend.Add("nominal", nomBars)
	p.Legend.Add("representative", repBars)
	p.Legend.Top = true
	p.NominalX(labels...)

	file := filepath.Join(dp.outputDir, "layer_doses.png")
	if err := p.Save(8*vg.Inch, 5*vg.Inch, file); err != nil {
		return fmt.Errorf("save layer plot: %w", err)
	}
	return nil
}

// GetOutputDir returns the current output directory for plots.
func (dp *DosePlotter) GetOutputDir() string {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.outputDir
}
