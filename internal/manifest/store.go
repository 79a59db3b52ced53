// Package manifest persists the filename → record mapping that lets an
// interrupted sort resume without reprocessing images.
package manifest

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/frogsort/internal/model"
)

// FileName is the manifest document written at the output root.
const FileName = "manifest.json"

// Driver names accepted by Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Store defines manifest persistence.
type Store interface {
	// Load returns the stored manifest, or an empty one if nothing is stored yet.
	Load(ctx context.Context) (model.Manifest, error)
	// Put durably records a single entry before returning.
	Put(ctx context.Context, name string, rec model.Record) error
	// Save replaces the stored manifest with m.
	Save(ctx context.Context, m model.Manifest) error
	// Path is where the manifest document lives.
	Path() string
	Close() error
}

// Open returns the store for driver rooted at outputDir. An empty driver
// selects the JSON document store.
func Open(driver, outputDir string) (Store, error) {
	switch driver {
	case "", DriverJSON:
		return NewFileStore(filepath.Join(outputDir, FileName)), nil
	case DriverSQLite:
		return NewSQLite(filepath.Join(outputDir, "manifest.db"), filepath.Join(outputDir, FileName))
	default:
		return nil, eris.Errorf("manifest: unknown driver %q", driver)
	}
}
