// run-history lists past correction runs recorded in the urpec run
// store, newest first, with per-layer dose and polygon statistics.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/lucamedeir/urpec/internal/monitoring"
	"github.com/lucamedeir/urpec/internal/runstore"
)

var (
	dbPath = flag.String("db", "urpec.db", "run store sqlite path")
	limit  = flag.Int("limit", 20, "max runs to list")
	layers = flag.Bool("layers", false, "include per-layer rows")
)

func main() {
	flag.Parse()
	monitoring.SetLogger(nil)

	store, err := runstore.Open(*dbPath, nil)
	if err != nil {
		log.Fatalf("open run store: %v", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(*limit)
	if err != nil {
		log.Fatalf("list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tPATTERN\tDX\tGRID")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%dx%d\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.PatternPath, r.DX, r.GridRows, r.GridCols)
	}
	w.Flush()

	if !*layers {
		return
	}

	for _, r := range runs {
		ls, err := store.RunLayers(r.RunID)
		if err != nil {
			log.Fatalf("layers of run %s: %v", r.RunID, err)
		}
		fmt.Printf("\nrun %s\n", r.RunID)
		lw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(lw, "  LAYER\tNOMINAL\tREPRESENTATIVE\tPOLYGONS\tVERTICES")
		for _, l := range ls {
			fmt.Fprintf(lw, "  %d\t%.3f\t%.3f\t%d\t%d\n",
				l.LayerIndex, l.NominalDose, l.RepresentativeDose,
				l.PolygonCount, l.VertexCount)
		}
		lw.Flush()
	}
}
