//go:build !windows

package toolprovider

import (
	"fmt"
	"syscall"
)

func diskUsage(path string) (string, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return "", fmt.Errorf("statfs %s: %w", path, err)
	}

	total := st.Blocks * uint64(st.Bsize)
	avail := st.Bavail * uint64(st.Bsize)
	used := total - st.Bfree*uint64(st.Bsize)

	var pct float64
	if total > 0 {
		pct = float64(used) / float64(total) * 100
	}
	return fmt.Sprintf("path=%s total=%dMB used=%dMB (%.1f%%) available=%dMB",
		path, total/1024/1024, used/1024/1024, pct, avail/1024/1024), nil
}
