// Package sorter runs the resumable classify-and-copy batch over an input
// directory.
package sorter

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/frogsort/internal/classify"
	"github.com/sells-group/frogsort/internal/manifest"
	"github.com/sells-group/frogsort/internal/model"
	"github.com/sells-group/frogsort/internal/placement"
	"github.com/sells-group/frogsort/pkg/inat"
)

// Options configures a sort run.
type Options struct {
	InputDir  string
	OutputDir string
	// DryRun classifies and reports without copying files or writing the
	// manifest; the stored manifest is not consulted for skipping.
	DryRun bool
}

// Runner sorts images one at a time. It is not safe for concurrent use.
type Runner struct {
	classifier classify.Classifier
	store      manifest.Store
	pacer      Pacer
	opts       Options
	progress   func(ItemResult)
	place      func(src, destDir string) (string, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithPacer sets the pacer consulted before each classification request.
func WithPacer(p Pacer) Option {
	return func(r *Runner) {
		r.pacer = p
	}
}

// WithProgress registers a callback invoked after each processed image.
func WithProgress(fn func(ItemResult)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// New creates a Runner. store may be nil in dry-run mode.
func New(c classify.Classifier, store manifest.Store, opts Options, options ...Option) *Runner {
	r := &Runner{
		classifier: c,
		store:      store,
		pacer:      noPacer{},
		opts:       opts,
		progress:   func(ItemResult) {},
		place:      placement.Place,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run discovers images, skips those already in the manifest and sorts the
// rest. Per-item failures are collected in the report and never abort the
// run; only discovery and manifest-load failures are returned as errors.
// Cancelling ctx stops the run between items.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if !r.opts.DryRun && r.store == nil {
		return nil, eris.New("sorter: manifest store is required unless dry-run")
	}

	files, err := Discover(r.opts.InputDir)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:    uuid.New().String(),
		DryRun:   r.opts.DryRun,
		Found:    len(files),
		Errors:   []ItemError{},
		Manifest: model.Manifest{},
	}
	log := zap.L().With(zap.String("run_id", report.RunID))

	if !r.opts.DryRun {
		m, err := r.store.Load(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "sorter: load manifest")
		}
		report.Manifest = m
	}

	var remaining []string
	for _, name := range files {
		if report.Manifest.Has(name) {
			continue
		}
		remaining = append(remaining, name)
	}
	report.Skipped = len(files) - len(remaining)

	log.Info("sort started",
		zap.String("input", r.opts.InputDir),
		zap.String("output", r.opts.OutputDir),
		zap.Int("found", report.Found),
		zap.Int("skipped", report.Skipped),
		zap.Bool("dry_run", r.opts.DryRun),
	)

	for i, name := range remaining {
		if err := r.pacer.Wait(ctx); err != nil {
			report.Interrupted = true
			log.Warn("sort interrupted", zap.Error(err))
			break
		}

		result := ItemResult{Index: i + 1, Total: len(remaining), File: name}
		report.Processed++

		c, err := r.processOne(ctx, name, report.Manifest)
		r.pacer.Done()
		if err != nil {
			ie := ItemError{File: name, Message: err.Error(), StatusCode: inat.StatusCode(err)}
			report.Errors = append(report.Errors, ie)
			result.Err = &ie
			log.Warn("item failed", zap.String("file", name), zap.Int("status", ie.StatusCode), zap.Error(err))
		} else {
			report.Succeeded++
			result.Classification = c
			log.Debug("item sorted",
				zap.String("file", name),
				zap.String("folder", c.FolderName),
				zap.Float64("score", c.Score),
			)
		}
		r.progress(result)
	}

	log.Info("sort finished",
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed()),
		zap.Bool("interrupted", report.Interrupted),
	)
	return report, nil
}

// processOne classifies, places and records a single image. The manifest is
// only mutated once every step has succeeded.
func (r *Runner) processOne(ctx context.Context, name string, m model.Manifest) (model.Classification, error) {
	src := filepath.Join(r.opts.InputDir, name)

	c, err := r.classifier.Classify(ctx, src)
	if err != nil {
		return model.Classification{}, err
	}

	var sortedPath string
	if !r.opts.DryRun {
		dest, err := r.place(src, filepath.Join(r.opts.OutputDir, c.FolderName))
		if err != nil {
			return model.Classification{}, err
		}
		rel, err := filepath.Rel(r.opts.OutputDir, dest)
		if err != nil {
			return model.Classification{}, eris.Wrapf(err, "sorter: relative path for %s", dest)
		}
		sortedPath = filepath.ToSlash(rel)
	}

	rec := model.NewRecord(name, c, sortedPath)
	if !r.opts.DryRun {
		if err := r.store.Put(ctx, name, rec); err != nil {
			return model.Classification{}, eris.Wrap(err, "sorter: persist manifest")
		}
	}
	m[name] = rec
	return c, nil
}
