package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/frogsort/internal/manifest"
	"github.com/sells-group/frogsort/internal/model"
)

var (
	summaryOutput string
	summaryFormat string
	summaryStore  string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show per-species counts from an existing manifest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := firstSet(summaryOutput, cfg.Sort.OutputDir)
		if dir == "" {
			return eris.New("summary: --output is required")
		}
		driver := cfg.Manifest.Driver
		if cmd.Flags().Changed("store") {
			driver = summaryStore
		}

		st, err := manifest.Open(driver, filepath.Clean(dir))
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		m, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}
		return writeSummary(cmd.OutOrStdout(), m, summaryFormat)
	},
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryOutput, "output", "o", "", "sorted output folder containing manifest.json")
	summaryCmd.Flags().StringVarP(&summaryFormat, "format", "f", "table", "output format: table, json or yaml")
	summaryCmd.Flags().StringVar(&summaryStore, "store", "", "manifest backend: json or sqlite (default from config)")
	rootCmd.AddCommand(summaryCmd)
}

type speciesSummary struct {
	Photos  int                  `json:"photos" yaml:"photos"`
	Species []model.SpeciesCount `json:"species" yaml:"species"`
}

func writeSummary(w io.Writer, m model.Manifest, format string) error {
	s := speciesSummary{Photos: len(m), Species: m.Species()}
	if s.Species == nil {
		s.Species = []model.SpeciesCount{}
	}

	switch format {
	case "table", "":
		fmt.Fprintf(w, "Photos sorted: %d\n", s.Photos)
		printSpecies(w, s.Species)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(s), "summary: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return eris.Wrap(err, "summary: encode yaml")
		}
		return eris.Wrap(enc.Close(), "summary: close yaml encoder")
	default:
		return eris.Errorf("summary: unknown format %q", format)
	}
}
