package sitegen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/annnekkk/checker-site/internal/config"
	"github.com/annnekkk/checker-site/internal/platform"
	"github.com/annnekkk/checker-site/internal/version"
)

// DownloadSpec is the caller-supplied catalogue a download scan runs against.
type DownloadSpec struct {
	Apps      []config.App
	Platforms []platform.Platform
	Naming    config.Artifacts
	Ignore    config.IgnoreConfig // optional
}

// ArtifactFileName returns the expected artifact file name:
// <version>-<channel>-<prefix>-by-<owner>-<suffix>
func ArtifactFileName(naming config.Artifacts, ver, appPrefix, suffix string) string {
	return fmt.Sprintf("%s-%s-%s-by-%s-%s", ver, naming.Channel, appPrefix, naming.Owner, suffix)
}

// BuildDownloadManifest scans root for version folders and records the size of
// every expected (version, app, platform) artifact. Missing artifacts are
// logged and left out of the app's files. A missing root or a root without
// version folders is an error.
func BuildDownloadManifest(root string, spec DownloadSpec, logger *slog.Logger) (*DownloadManifest, error) {
	versions, err := DiscoverVersions(root, logger)
	if err != nil {
		return nil, err
	}

	versions = withholdVersions(versions, spec.Ignore, logger)
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w in %s: every version is withheld", ErrNoVersionsFound, root)
	}

	logger.Info("found versions", "root", root, "count", len(versions), "versions", version.Folders(versions))

	records := make([]VersionDownloads, 0, len(versions))
	for i, v := range versions {
		logger.Info("scanning version", "version", v.String())

		apps := make([]AppDownloads, 0, len(spec.Apps))
		for _, app := range spec.Apps {
			apps = append(apps, AppDownloads{
				Name:      app.Name,
				Prefix:    app.Prefix,
				IconColor: app.IconColor,
				Files:     scanAppArtifacts(filepath.Join(root, v.Folder), v.String(), app, spec, logger),
			})
		}

		records = append(records, VersionDownloads{
			Version:  v.String(),
			IsLatest: i == 0,
			Apps:     apps,
		})
	}

	platforms := make([]platform.Platform, len(spec.Platforms))
	copy(platforms, spec.Platforms)

	return &DownloadManifest{
		Versions:  records,
		Platforms: platforms,
	}, nil
}

// scanAppArtifacts stats the artifact of app for every platform inside versionDir.
func scanAppArtifacts(versionDir, ver string, app config.App, spec DownloadSpec, logger *slog.Logger) ArtifactSizes {
	var files ArtifactSizes
	for _, p := range spec.Platforms {
		name := ArtifactFileName(spec.Naming, ver, app.Prefix, p.Suffix)

		if spec.Ignore.IsArtifactIgnored(app.Prefix, ver, p.Suffix) {
			logger.Info("artifact withheld", "file", name)
			continue
		}

		size, err := artifactSize(filepath.Join(versionDir, name))
		if err != nil {
			logger.Warn("artifact not found", "file", name, "error", err)
			continue
		}

		files.Set(p.Suffix, size)
		logger.Info("artifact found", "file", name, "size", FormatBytes(size))
	}
	return files
}

// artifactSize returns the size of a regular, non-empty artifact file.
func artifactSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArtifactMissing, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrArtifactMissing, path)
	}
	if info.Size() <= 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrArtifactMissing, path)
	}
	return info.Size(), nil
}

// withholdVersions drops versions the ignore list withholds for every app.
func withholdVersions(versions []version.Version, ignore config.IgnoreConfig, logger *slog.Logger) []version.Version {
	if len(ignore) == 0 {
		return versions
	}
	kept := versions[:0:0]
	for _, v := range versions {
		if ignore.IsVersionIgnored(v.String()) {
			logger.Info("version withheld", "version", v.String())
			continue
		}
		kept = append(kept, v)
	}
	return kept
}
