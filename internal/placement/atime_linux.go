//go:build linux

package placement

import (
	"io/fs"
	"syscall"
	"time"
)

func accessTime(info fs.FileInfo, fallback time.Time) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fallback
	}
	return time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec)) //nolint:unconvert
}
