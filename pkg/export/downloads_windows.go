//go:build windows

package export

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const (
	shellFoldersKey = `Software\Microsoft\Windows\CurrentVersion\Explorer\Shell Folders`

	// Known folder ID of the Downloads folder.
	downloadsFolderID = "{374DE290-123F-4565-9164-39C4925E467B}"
)

// DownloadsDir returns the current user's Downloads folder as recorded by
// Explorer.
func DownloadsDir() (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, shellFoldersKey, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("open shell folders key: %w", err)
	}
	defer k.Close()

	dir, valType, err := k.GetStringValue(downloadsFolderID)
	if err != nil {
		return "", fmt.Errorf("read downloads folder: %w", err)
	}
	if valType == registry.EXPAND_SZ {
		if dir, err = registry.ExpandString(dir); err != nil {
			return "", fmt.Errorf("expand downloads folder: %w", err)
		}
	}
	return dir, nil
}
