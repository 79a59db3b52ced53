//go:build !linux

package placement

import (
	"io/fs"
	"time"
)

func accessTime(_ fs.FileInfo, fallback time.Time) time.Time {
	return fallback
}
