package main

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/frogsort/internal/classify"
	"github.com/sells-group/frogsort/internal/config"
	"github.com/sells-group/frogsort/internal/manifest"
	"github.com/sells-group/frogsort/internal/sorter"
	"github.com/sells-group/frogsort/pkg/inat"
)

var (
	sortInput  string
	sortOutput string
	sortAPIKey string
	sortDelay  float64
	sortDryRun bool
	sortStore  string
)

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Identify photos and copy them into species folders",
	Long: `Identifies every image directly under --input with the iNaturalist
computer vision API and copies it to <output>/<species>/. Progress is saved to
<output>/manifest.json after every photo, so an interrupted run resumes where
it stopped.

Examples:
  # Sort a folder of photos
  frogsort sort -i ./photos -o ./sorted -k $INAT_API_KEY

  # Preview classifications without copying anything
  frogsort sort -i ./photos -o ./sorted --dry-run`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts, err := resolveSortOptions(cmd)
		if err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		token := cfg.Credential(sortAPIKey)
		classifier, err := classify.NewFromToken(token, []inat.Option{
			inat.WithBaseURL(cfg.INat.BaseURL),
			inat.WithTaxonID(cfg.INat.TaxonID),
			inat.WithTimeout(cfg.INat.Timeout()),
			inat.WithUserAgent(cfg.INat.UserAgent),
		}, classify.WithMinScore(cfg.Sort.MinScore))
		if err != nil {
			return fmt.Errorf("%w\n%s", err, config.CredentialHelp)
		}

		// Fail on a missing or empty input folder before touching the output.
		files, err := sorter.Discover(opts.InputDir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Found %d image(s) in %s\n", len(files), opts.InputDir)
		fmt.Fprintf(out, "Output folder: %s\n", opts.OutputDir)

		var store manifest.Store
		if opts.DryRun {
			fmt.Fprintln(out, "DRY RUN: files will not be copied")
		} else {
			lock, err := manifest.AcquireLock(opts.OutputDir)
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					zap.L().Warn("failed to release output lock", zap.Error(err))
				}
			}()

			store, err = manifest.Open(cfg.Manifest.Driver, opts.OutputDir)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck
		}
		fmt.Fprintln(out)

		runner := sorter.New(classifier, store, opts,
			sorter.WithPacer(sorter.NewRatePacer(cfg.Sort.Delay())),
			sorter.WithProgress(func(r sorter.ItemResult) { printProgress(out, r) }),
		)

		report, err := runner.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "sort")
		}

		if opts.DryRun {
			doc, err := manifest.Encode(report.Manifest)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\nDry-run manifest preview:")
			fmt.Fprint(out, string(doc))
		} else {
			fmt.Fprintf(out, "\nManifest saved to %s\n", store.Path())
		}

		printReport(out, report)
		return nil
	},
}

func init() {
	sortCmd.Flags().StringVarP(&sortInput, "input", "i", "", "folder containing unsorted photos")
	sortCmd.Flags().StringVarP(&sortOutput, "output", "o", "", "folder where sorted photos will go")
	sortCmd.Flags().StringVarP(&sortAPIKey, "api-key", "k", "", "iNaturalist API token (default: $INAT_API_KEY)")
	sortCmd.Flags().Float64VarP(&sortDelay, "delay", "d", 0.5, "seconds between requests")
	sortCmd.Flags().BoolVar(&sortDryRun, "dry-run", false, "identify only, don't copy files or write the manifest")
	sortCmd.Flags().StringVar(&sortStore, "store", "", "manifest backend: json or sqlite (default from config)")
	rootCmd.AddCommand(sortCmd)
}

// resolveSortOptions merges flags over configuration.
func resolveSortOptions(cmd *cobra.Command) (sorter.Options, error) {
	input := firstSet(sortInput, cfg.Sort.InputDir)
	output := firstSet(sortOutput, cfg.Sort.OutputDir)
	if input == "" {
		return sorter.Options{}, eris.New("sort: --input is required")
	}
	if output == "" {
		return sorter.Options{}, eris.New("sort: --output is required")
	}
	if cmd.Flags().Changed("store") {
		cfg.Manifest.Driver = sortStore
	}
	if cmd.Flags().Changed("delay") {
		cfg.Sort.DelaySecs = sortDelay
	}

	in, err := filepath.Abs(input)
	if err != nil {
		return sorter.Options{}, eris.Wrap(err, "sort: resolve input")
	}
	outAbs, err := filepath.Abs(output)
	if err != nil {
		return sorter.Options{}, eris.Wrap(err, "sort: resolve output")
	}
	return sorter.Options{InputDir: in, OutputDir: outAbs, DryRun: sortDryRun}, nil
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func printProgress(w io.Writer, r sorter.ItemResult) {
	fmt.Fprintf(w, "[%d/%d] %s ... ", r.Index, r.Total, r.File)
	if r.Err != nil {
		if r.Err.StatusCode != 0 {
			fmt.Fprintf(w, "HTTP %d: %s\n", r.Err.StatusCode, r.Err.Message)
		} else {
			fmt.Fprintf(w, "error: %s\n", r.Err.Message)
		}
		return
	}
	c := r.Classification
	fmt.Fprintf(w, "%s (%s)  [%s, %.0f%%]\n", c.CommonName, c.ScientificName, c.Confidence, c.Score*100)
}
