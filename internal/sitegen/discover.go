package sitegen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/annnekkk/checker-site/internal/version"
)

// DiscoverVersions lists the version folders directly under root, newest first.
// Entries are kept when their name is V<major>.<minor>.<patch> and they resolve
// to a directory (symlinks are followed). Equal versions keep listing order.
func DiscoverVersions(root string, logger *slog.Logger) ([]version.Version, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryNotFound, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	versions := make([]version.Version, 0, len(entries))
	for _, entry := range entries {
		v, err := version.ParseFolder(entry.Name())
		if err != nil {
			logger.Debug("skipping entry", "root", root, "name", entry.Name(), "reason", err)
			continue
		}

		fi, err := os.Stat(filepath.Join(root, entry.Name()))
		if err != nil {
			logger.Warn("skipping unreadable version folder", "root", root, "name", entry.Name(), "error", err)
			continue
		}
		if !fi.IsDir() {
			logger.Debug("skipping non-directory", "root", root, "name", entry.Name())
			continue
		}

		versions = append(versions, v)
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoVersionsFound, root)
	}

	version.SortDescending(versions)
	return versions, nil
}
