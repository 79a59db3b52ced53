package sorter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Configuration errors reported before any classification request.
var (
	ErrInputNotFound = errors.New("sorter: input directory not found")
	ErrNoImages      = errors.New("sorter: no supported image files found")
)

// SupportedExtensions lists the image types picked up from the input directory.
var SupportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

// IsImage reports whether name has a supported extension (case-insensitive).
func IsImage(name string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// Discover lists supported image files directly under dir, sorted by name.
// Subdirectories are not descended into.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, dir)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sorter: stat %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInputNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "sorter: read %s", dir)
	}

	var names []string
	for _, e := range entries {
		if !IsImage(e.Name()) {
			continue
		}
		// Follow symlinks so a linked image still counts as a regular file.
		fi, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(names)
	return names, nil
}
