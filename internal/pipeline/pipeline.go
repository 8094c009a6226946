// Package pipeline chains the correction stages: rasterize, build the
// PSF model, deconvolve, slice into dose layers, fracture, assemble.
package pipeline

import (
	"fmt"

	"github.com/lucamedeir/urpec/internal/assemble"
	"github.com/lucamedeir/urpec/internal/config"
	"github.com/lucamedeir/urpec/internal/deconv"
	"github.com/lucamedeir/urpec/internal/fracture"
	"github.com/lucamedeir/urpec/internal/geom"
	"github.com/lucamedeir/urpec/internal/grid"
	"github.com/lucamedeir/urpec/internal/layers"
	"github.com/lucamedeir/urpec/internal/monitoring"
	"github.com/lucamedeir/urpec/internal/psf"
	"github.com/lucamedeir/urpec/internal/raster"
)

// Observer receives intermediate pipeline products as they are
// computed. Implementations must not mutate the arguments.
type Observer interface {
	OnRasterized(res *raster.Result)
	OnDoseMap(dose *grid.Grid, stats deconv.Stats)
	OnLayerFractured(l layers.Layer, bounds []fracture.Boundary)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) OnRasterized(*raster.Result)                        {}
func (NopObserver) OnDoseMap(*grid.Grid, deconv.Stats)                 {}
func (NopObserver) OnLayerFractured(layers.Layer, []fracture.Boundary) {}

// Options configures a pipeline run. A nil Config runs with all
// defaults; a nil Observer runs silently.
type Options struct {
	Config   *config.RunConfig
	Observer Observer
}

// LayerResult is one dose layer with its fractured boundaries and the
// world-coordinate output polygons.
type LayerResult struct {
	Layer      layers.Layer
	Boundaries []fracture.Boundary
	Output     assemble.LayerOutput
}

// Result is the full pipeline output.
type Result struct {
	DX       float64 // final grid step after auto-resolution, microns
	GridRows int
	GridCols int
	Dose     *grid.Grid
	Layers   []LayerResult
}

// Outputs returns the assembled layer outputs in layer order.
func (r *Result) Outputs() []assemble.LayerOutput {
	outs := make([]assemble.LayerOutput, 0, len(r.Layers))
	for _, l := range r.Layers {
		outs = append(outs, l.Output)
	}
	return outs
}

// Run executes the correction pipeline on the pattern with the given
// PSF descriptor. Errors name the failing stage.
func Run(pat *geom.PatternSet, desc psf.Descriptor, opt Options) (*Result, error) {
	cfg := opt.Config
	if cfg == nil {
		cfg = config.EmptyRunConfig()
	}
	obs := opt.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	rast, err := raster.Rasterize(pat, raster.Params{
		Dx:           cfg.GetDX(),
		TargetPoints: cfg.GetTargetPoints(),
		AutoRes:      cfg.GetAutoRes(),
	})
	if err != nil {
		return nil, fmt.Errorf("rasterize pattern: %w", err)
	}
	obs.OnRasterized(rast)

	model, err := psf.Build(desc, rast.Dx, cfg.GetWindowVal())
	if err != nil {
		return nil, fmt.Errorf("build psf model: %w", err)
	}

	dec, err := deconv.Run(rast.Shape, model, deconv.Options{
		MaxIter: cfg.GetMaxIter(),
		Crop:    &rast.PatternBounds,
	})
	if err != nil {
		return nil, fmt.Errorf("deconvolve dose map: %w", err)
	}
	obs.OnDoseMap(dec.Dose, dec.Stats)

	ls, err := layers.Slice(dec.Dose, cfg.GetDvals())
	if err != nil {
		return nil, fmt.Errorf("slice dose layers: %w", err)
	}

	results := make([]LayerResult, 0, len(ls))
	for _, l := range ls {
		bounds, err := fracture.Fracture(l.Mask, fracture.Options{
			SubfieldSize: cfg.GetSubfieldSize(),
			MaxAttempts:  cfg.GetMaxFractureAttempts(),
		})
		if err != nil {
			return nil, fmt.Errorf("fracture layer %d: %w", l.Index, err)
		}
		obs.OnLayerFractured(l, bounds)

		out, err := assemble.Build(l, bounds)
		if err != nil {
			return nil, fmt.Errorf("assemble layer %d: %w", l.Index, err)
		}
		results = append(results, LayerResult{Layer: l, Boundaries: bounds, Output: out})
	}

	monitoring.Logf("pipeline: %d layers at dx=%g over %dx%d cells",
		len(results), dec.Dose.Dx, dec.Dose.Rows, dec.Dose.Cols)

	return &Result{
		DX:       rast.Dx,
		GridRows: dec.Dose.Rows,
		GridCols: dec.Dose.Cols,
		Dose:     dec.Dose,
		Layers:   results,
	}, nil
}
