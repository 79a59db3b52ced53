package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sells-group/frogsort/internal/model"
	"github.com/sells-group/frogsort/internal/sorter"
)

func newTable(header table.Row, countColumn int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: countColumn, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw
}

// metricsTable renders the run counters.
func metricsTable(r *sorter.Report) string {
	tw := newTable(table.Row{"Metric", "Count"}, 2)
	tw.AppendRows([]table.Row{
		{"Total found", r.Found},
		{"Skipped", r.Skipped},
		{"Processed", r.Processed},
		{"Succeeded", r.Succeeded},
		{"Errors", r.Failed()},
	})
	return tw.Render()
}

// speciesTable renders one row per folder with a photo total footer.
func speciesTable(species []model.SpeciesCount) string {
	tw := newTable(table.Row{"Species", "Folder", "Photos"}, 3)
	total := 0
	for _, s := range species {
		tw.AppendRow(table.Row{s.Label, s.Folder, s.Count})
		total += s.Count
	}
	tw.AppendFooter(table.Row{"", "Total", total})
	return tw.Render()
}
