package sitegen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/annnekkk/checker-site/internal/config"
	"github.com/annnekkk/checker-site/internal/version"
)

// BuildChangelogManifest scans root for version folders and reads their date
// and category files. It never fails: a missing root or a root without
// version folders yields an empty manifest and a warning.
func BuildChangelogManifest(root string, files config.Changelog, logger *slog.Logger) *ChangelogManifest {
	versions, err := DiscoverVersions(root, logger)
	if err != nil {
		logger.Warn("changelog unavailable, continuing without it", "root", root, "error", err)
		return &ChangelogManifest{Versions: []ChangelogEntry{}}
	}

	logger.Info("found changelog versions", "root", root, "count", len(versions), "versions", version.Folders(versions))

	entries := make([]ChangelogEntry, 0, len(versions))
	for i, v := range versions {
		dir := filepath.Join(root, v.Folder)
		logger.Info("scanning changelog", "version", v.String())

		entry := ChangelogEntry{
			Version:  v.String(),
			IsLatest: i == 0,
			Date:     readDate(filepath.Join(dir, files.DateFile), logger),
			New:      readCategory(filepath.Join(dir, files.Files.New), logger),
			Improved: readCategory(filepath.Join(dir, files.Files.Improved), logger),
			Fixed:    readCategory(filepath.Join(dir, files.Files.Fixed), logger),
			Breaking: readCategory(filepath.Join(dir, files.Files.Breaking), logger),
		}
		entries = append(entries, entry)
	}

	return &ChangelogManifest{Versions: entries}
}

// readDate returns the trimmed content of the date file, or "" when it cannot be read.
func readDate(path string, logger *slog.Logger) string {
	content, err := readOptional(path)
	if err != nil {
		logger.Debug("no date file", "file", path, "error", err)
		return ""
	}
	date := strings.TrimSpace(content)
	logger.Info("read date", "file", filepath.Base(path), "date", date)
	return date
}

// readCategory returns the non-empty trimmed lines of a category file.
// An unreadable file yields an empty list.
func readCategory(path string, logger *slog.Logger) []string {
	content, err := readOptional(path)
	if err != nil {
		logger.Debug("no category file", "file", path, "error", err)
		return []string{}
	}
	lines := SplitEntries(content)
	logger.Info("read category", "file", filepath.Base(path), "items", len(lines))
	return lines
}

// SplitEntries splits text into lines, trims each line and drops empty ones.
func SplitEntries(content string) []string {
	lines := []string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCategoryFileMissing, err)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
