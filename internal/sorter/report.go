package sorter

import (
	"github.com/sells-group/frogsort/internal/model"
)

// ItemError records why a single image could not be sorted.
type ItemError struct {
	File       string `json:"file" yaml:"file"`
	Message    string `json:"message" yaml:"message"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
}

// ItemResult is reported to the progress callback after each processed image.
type ItemResult struct {
	Index          int                  // 1-based position among remaining items
	Total          int                  // number of items being processed this run
	File           string
	Classification model.Classification // zero when Err is set
	Err            *ItemError
}

// Report summarizes a sort run.
type Report struct {
	RunID     string         `json:"run_id" yaml:"run_id"`
	DryRun    bool           `json:"dry_run" yaml:"dry_run"`
	Found     int            `json:"found" yaml:"found"`
	Skipped   int            `json:"skipped" yaml:"skipped"`
	Processed int            `json:"processed" yaml:"processed"`
	Succeeded int            `json:"succeeded" yaml:"succeeded"`
	Errors    []ItemError    `json:"errors" yaml:"errors"`
	Manifest  model.Manifest `json:"-" yaml:"-"`
	// Interrupted is set when the run stopped early on context cancellation.
	Interrupted bool `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
}

// Failed is the number of items that errored.
func (r *Report) Failed() int {
	return len(r.Errors)
}

// Species groups the manifest by folder.
func (r *Report) Species() []model.SpeciesCount {
	return r.Manifest.Species()
}
