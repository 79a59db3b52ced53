package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/frogsort/internal/model"
)

// FileStore keeps the manifest as a single pretty-printed JSON document. Every
// Put rewrites the whole document through a temp file and rename, so a reader
// never observes a half-written manifest.
type FileStore struct {
	path string
	m    model.Manifest
}

// NewFileStore returns a store backed by the JSON document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Load(_ context.Context) (model.Manifest, error) {
	m, err := ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	s.m = m
	return m.Clone(), nil
}

func (s *FileStore) Put(ctx context.Context, name string, rec model.Record) error {
	if s.m == nil {
		if _, err := s.Load(ctx); err != nil {
			return err
		}
	}
	s.m[name] = rec
	return WriteFile(s.path, s.m)
}

func (s *FileStore) Save(_ context.Context, m model.Manifest) error {
	if err := WriteFile(s.path, m); err != nil {
		return err
	}
	s.m = m.Clone()
	return nil
}

// ReadFile parses the manifest document at path. A missing file yields an
// empty manifest.
func ReadFile(path string) (model.Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Manifest{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "manifest: read %s", path)
	}

	m := model.Manifest{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "manifest: parse %s", path)
	}
	return m, nil
}

// Encode renders the manifest the way it is stored on disk.
func Encode(m model.Manifest) ([]byte, error) {
	if m == nil {
		m = model.Manifest{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "manifest: marshal")
	}
	return append(data, '\n'), nil
}

// WriteFile atomically replaces the document at path with m.
func WriteFile(path string, m model.Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "manifest: create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return eris.Wrap(err, "manifest: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "manifest: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "manifest: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "manifest: close temp file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrap(err, "manifest: chmod temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "manifest: replace %s", path)
	}
	return nil
}
