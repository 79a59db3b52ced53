package main

import (
	"fmt"
	"io"

	"github.com/sells-group/frogsort/internal/model"
	"github.com/sells-group/frogsort/internal/sorter"
)

func printReport(w io.Writer, r *sorter.Report) {
	fmt.Fprintln(w, "\nSummary")
	fmt.Fprintln(w, metricsTable(r))

	if r.Interrupted {
		fmt.Fprintln(w, "\nRun interrupted; rerun the same command to resume.")
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "\nFailed files:")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s: %s\n", e.File, e.Message)
		}
	}

	printSpecies(w, r.Species())
}

func printSpecies(w io.Writer, species []model.SpeciesCount) {
	fmt.Fprintf(w, "\nSpecies identified: %d\n", len(species))
	if len(species) == 0 {
		return
	}
	fmt.Fprintln(w, speciesTable(species))
}
