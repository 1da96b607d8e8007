//go:build windows

package toolprovider

import "fmt"

func diskUsage(path string) (string, error) {
	return "", fmt.Errorf("disk_usage is not supported on windows (path %s)", path)
}
