package job

import (
	"os"
	"path/filepath"
	"strings"

	"scrollcast/internal/logging"
)

// SweepAll removes every job-prefixed working directory and pending upload
// under root. It backstops per-job cleanup for process-wide failures: call
// it once before a fatal exit, and at boot to clear leftovers from a
// previous crash. Best effort throughout; errors are logged, never
// returned as fatal.
func SweepAll(root string) (removed int) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("sweep: failed to read work root %s: %v", root, err)
		}
		return 0
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), DirPrefix) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logging.Warn("sweep: failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}

	uploadsDir := filepath.Join(root, UploadsDirName)
	uploads, err := os.ReadDir(uploadsDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("sweep: failed to read uploads directory %s: %v", uploadsDir, err)
		}
		return removed
	}
	for _, entry := range uploads {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), DirPrefix) {
			continue
		}
		path := filepath.Join(uploadsDir, entry.Name())
		if err := os.Remove(path); err != nil {
			logging.Warn("sweep: failed to remove upload %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logging.Info("sweep: removed %d leftover job artifacts under %s", removed, root)
	}
	return removed
}
