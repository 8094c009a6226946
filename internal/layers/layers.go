// Package layers thresholds the continuous dose map into discrete dose
// bands, each with a representative exposure dose.
package layers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/lucamedeir/urpec/internal/grid"
)

// Layer is one discrete dose band. Mask marks the cells whose programmed
// dose falls inside the band; RepresentativeDose is the exposure dose
// reported to the writer. Index is 1-based. Units are multiples of
// dose-to-clear throughout.
type Layer struct {
	Index              int
	NominalDose        float64
	RepresentativeDose float64
	Mask               *grid.Mask
}

// Slice partitions the dose map into len(dvals) layers. dvals must be
// ascending with at least two entries; band i covers
// (dvals[i]-step, dvals[i]] where step is the first threshold gap, with
// the first band open below and the last open above. NaN cells fall into
// no band.
func Slice(dose *grid.Grid, dvals []float64) ([]Layer, error) {
	if dose == nil {
		return nil, fmt.Errorf("layers: nil dose map")
	}
	if len(dvals) < 2 {
		return nil, fmt.Errorf("layers: need at least 2 dose thresholds, got %d", len(dvals))
	}
	for i := 1; i < len(dvals); i++ {
		if dvals[i] <= dvals[i-1] {
			return nil, fmt.Errorf("layers: dose thresholds must be strictly ascending, got %v", dvals)
		}
	}

	step := dvals[1] - dvals[0]
	n := len(dvals)
	out := make([]Layer, 0, n)
	for i := 0; i < n; i++ {
		lower := dvals[i] - step
		upper := dvals[i]
		mask := grid.NewMask(dose.MinX, dose.MinY, dose.Dx, dose.Rows, dose.Cols)

		var vals []float64
		for j, v := range dose.Data {
			if math.IsNaN(v) {
				continue
			}
			var in bool
			switch i {
			case 0:
				in = v <= upper
			case n - 1:
				in = v > lower
			default:
				in = v > lower && v <= upper
			}
			if in {
				mask.Bits[j] = true
				vals = append(vals, v)
			}
		}

		rep := representativeDose(i, n, lower, upper, dvals[i], vals)
		out = append(out, Layer{
			Index:              i + 1,
			NominalDose:        dvals[i],
			RepresentativeDose: rep,
			Mask:               mask,
		})
	}
	return out, nil
}

// representativeDose is the mean dose over the band's cells. Empty
// interior bands fall back to the bound midpoint; empty open-ended bands
// fall back to their nominal threshold.
func representativeDose(i, n int, lower, upper, nominal float64, vals []float64) float64 {
	if len(vals) > 0 {
		return stat.Mean(vals, nil)
	}
	if i == 0 || i == n-1 {
		return nominal
	}
	return (lower + upper) / 2
}
