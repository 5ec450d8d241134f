//go:build !windows

package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// DownloadsDir returns $HOME/Downloads. The directory is not created.
func DownloadsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "Downloads"), nil
}
