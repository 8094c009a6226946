// urpec computes proximity-effect-corrected exposure layers for an
// electron-beam lithography pattern. It rasterizes the pattern,
// deconvolves it against a two-Gaussian PSF, slices the programmed dose
// into discrete layers, and fractures each layer into polygons a
// pattern-generation tool accepts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/lucamedeir/urpec/internal/assemble"
	"github.com/lucamedeir/urpec/internal/config"
	"github.com/lucamedeir/urpec/internal/fsutil"
	"github.com/lucamedeir/urpec/internal/geom"
	"github.com/lucamedeir/urpec/internal/monitoring"
	"github.com/lucamedeir/urpec/internal/pipeline"
	"github.com/lucamedeir/urpec/internal/plotting"
	"github.com/lucamedeir/urpec/internal/psf"
	"github.com/lucamedeir/urpec/internal/runstore"
	"github.com/lucamedeir/urpec/internal/version"
)

var (
	patternPath = flag.String("pattern", "", "pattern file of (objectId, x, y) triples in microns")
	psfPath     = flag.String("psf", "", "PSF descriptor JSON file")
	configPath  = flag.String("config", "", "run configuration JSON file (optional)")
	outDir      = flag.String("out", "out", "output directory")
	dbPath      = flag.String("db", "urpec.db", "run store sqlite path; empty disables recording")
	plots       = flag.Bool("plots", false, "write diagnostic plots under <out>/plots")
	verbose     = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Parse()

	if !*verbose {
		monitoring.SetLogger(nil)
	}

	if *patternPath == "" || *psfPath == "" {
		fmt.Fprintln(os.Stderr, "usage: urpec -pattern pattern.txt -psf psf.json [-config run.json] [-out dir] [-db urpec.db] [-plots] [-v]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	pat, err := geom.ReadPatternFile(*patternPath)
	if err != nil {
		log.Fatalf("read pattern: %v", err)
	}

	desc, err := psf.LoadDescriptor(*psfPath)
	if err != nil {
		log.Fatalf("load psf descriptor: %v", err)
	}

	cfg := config.EmptyRunConfig()
	if *configPath != "" {
		cfg, err = config.LoadRunConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	var plotter *plotting.DosePlotter
	var obs pipeline.Observer
	if *plots {
		plotter = plotting.NewDosePlotter()
		if err := plotter.Start(filepath.Join(*outDir, "plots")); err != nil {
			log.Fatalf("start plotter: %v", err)
		}
		obs = plotter
	}

	res, err := pipeline.Run(pat, desc, pipeline.Options{Config: cfg, Observer: obs})
	if err != nil {
		log.Fatalf("%v", err)
	}

	fsys := fsutil.OSFileSystem{}
	if err := fsys.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	outs := res.Outputs()
	if err := assemble.WritePatternFile(fsys, filepath.Join(*outDir, "layers.txt"), assemble.TextWriter{}, outs); err != nil {
		log.Fatalf("write pattern output: %v", err)
	}
	if err := assemble.WriteDoseReport(fsys, filepath.Join(*outDir, "doses.txt"), outs); err != nil {
		log.Fatalf("write dose report: %v", err)
	}

	if *dbPath != "" {
		if err := recordRun(*dbPath, *patternPath, cfg, res); err != nil {
			log.Fatalf("record run: %v", err)
		}
	}

	if plotter != nil {
		plotter.Stop()
		n, err := plotter.GeneratePlots()
		if err != nil {
			log.Fatalf("generate plots: %v", err)
		}
		log.Printf("wrote %d plots to %s", n, plotter.GetOutputDir())
	}

	log.Printf("urpec %s: %d layers at dx=%g written to %s",
		version.Version, len(outs), res.DX, *outDir)
}

// recordRun persists the run and its layer statistics to the run store.
func recordRun(path, patternPath string, cfg *config.RunConfig, res *pipeline.Result) error {
	store, err := runstore.Open(path, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	resolved, err := cfg.MarshalResolved()
	if err != nil {
		return fmt.Errorf("marshal resolved config: %w", err)
	}

	layerRecs := make([]runstore.LayerRecord, 0, len(res.Layers))
	for _, l := range res.Layers {
		layerRecs = append(layerRecs, runstore.LayerRecord{
			LayerIndex:         l.Layer.Index,
			NominalDose:        l.Layer.NominalDose,
			RepresentativeDose: l.Layer.RepresentativeDose,
			PolygonCount:       len(l.Output.Polygons),
			VertexCount:        l.Output.VertexCount(),
		})
	}

	id, err := store.RecordRun(runstore.RunRecord{
		PatternPath: patternPath,
		ConfigJSON:  string(resolved),
		DX:          res.DX,
		GridRows:    res.GridRows,
		GridCols:    res.GridCols,
	}, layerRecs)
	if err != nil {
		return err
	}
	log.Printf("recorded run %s in %s", id, path)
	return nil
}
