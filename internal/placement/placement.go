// Package placement copies sorted images into their species folders.
package placement

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// maxCollisions bounds the counter search for a free destination name.
const maxCollisions = 100000

// Place copies src into destDir and returns the path of the new file. When a
// file with the same name already exists the copy is named stem_1.ext,
// stem_2.ext and so on; an existing file is never overwritten. Permission bits
// and access/modification times are carried over where the filesystem allows.
func Place(src, destDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", eris.Wrapf(err, "placement: stat %s", src)
	}
	if !info.Mode().IsRegular() {
		return "", eris.Errorf("placement: %s is not a regular file", src)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "placement: create %s", destDir)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", eris.Wrapf(err, "placement: open %s", src)
	}
	defer in.Close() //nolint:errcheck

	out, dest, err := createUnique(destDir, filepath.Base(src), info.Mode().Perm())
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return "", eris.Wrapf(err, "placement: copy %s", src)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return "", eris.Wrapf(err, "placement: close %s", dest)
	}

	preserveMetadata(dest, info)
	return dest, nil
}

// createUnique opens the first free candidate name with O_EXCL so a file that
// appears between the existence check and the create is never clobbered.
func createUnique(dir, name string, perm fs.FileMode) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxCollisions; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		dest := filepath.Join(dir, candidate)

		f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm|0o200)
		if err == nil {
			return f, dest, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", eris.Wrapf(err, "placement: create %s", dest)
		}
	}
	return nil, "", eris.Errorf("placement: no free name for %s in %s", name, dir)
}

func preserveMetadata(dest string, info fs.FileInfo) {
	_ = os.Chmod(dest, info.Mode().Perm())
	mtime := info.ModTime()
	_ = os.Chtimes(dest, accessTime(info, mtime), mtime)
}
