package assemble

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/lucamedeir/urpec/internal/fsutil"
)

// PatternWriter serializes assembled layers to a writing-tool input
// format. CAD formats plug in behind this interface.
type PatternWriter interface {
	WritePattern(w io.Writer, layers []LayerOutput) error
}

// TextWriter emits the plain text polygon format: one block per layer
// with a header line naming the layer and its dose, then poly/end
// blocks of vertex coordinates in microns. Layers come out in
// descending index order so the writing tool exposes the highest dose
// first.
type TextWriter struct{}

// WritePattern writes all layers to w.
func (TextWriter) WritePattern(w io.Writer, layers []LayerOutput) error {
	sorted := make([]LayerOutput, len(layers))
	copy(sorted, layers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index > sorted[j].Index })

	bw := bufio.NewWriter(w)
	for _, l := range sorted {
		if _, err := fmt.Fprintf(bw, "layer %d dose %.3f\n", l.Index, l.Dose); err != nil {
			return fmt.Errorf("write layer %d header: %w", l.Index, err)
		}
		for _, p := range l.Polygons {
			fmt.Fprintln(bw, "poly")
			for _, v := range p {
				fmt.Fprintf(bw, "%.4f %.4f\n", v.X, v.Y)
			}
			fmt.Fprintln(bw, "end")
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush pattern output: %w", err)
	}
	return nil
}

// WritePatternFile writes the layers to path with pw.
func WritePatternFile(fsys fsutil.FileSystem, path string, pw PatternWriter, layers []LayerOutput) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create pattern file: %w", err)
	}
	if err := pw.WritePattern(f, layers); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close pattern file: %w", err)
	}
	return nil
}

// WriteDoseReport writes one representative dose per line, layer 1
// first, so dose column k of the writing tool maps to layer k.
func WriteDoseReport(fsys fsutil.FileSystem, path string, layers []LayerOutput) error {
	sorted := make([]LayerOutput, len(layers))
	copy(sorted, layers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create dose report: %w", err)
	}
	bw := bufio.NewWriter(f)
	for _, l := range sorted {
		fmt.Fprintf(bw, "%.3f\n", l.Dose)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush dose report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close dose report: %w", err)
	}
	return nil
}
