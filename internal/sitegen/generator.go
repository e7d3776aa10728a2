package sitegen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/annnekkk/checker-site/internal/clamav"
	"github.com/annnekkk/checker-site/internal/config"
	"github.com/annnekkk/checker-site/internal/gpg"
)

// Generator orchestrates one run: scan downloads, write the downloads module,
// optionally write the checksum list, then scan and write the changelog.
type Generator struct {
	cfg     *config.Config
	signer  gpg.Signer
	scanner clamav.Scanner
	logger  *slog.Logger
}

// NewGenerator creates a Generator. signer may be nil, in which case the
// checksum list is written unsigned.
func NewGenerator(cfg *config.Config, signer gpg.Signer, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		signer: signer,
		logger: logger,
	}
}

// SetScanner enables the malware scan of the downloads tree. Any infected
// file aborts the run before the downloads module is written.
func (g *Generator) SetScanner(scanner clamav.Scanner) {
	g.scanner = scanner
}

// GenerateOptions contains options for a generation run.
type GenerateOptions struct {
	DryRun bool
}

// Generate runs the pipeline. A downloads failure aborts the run before
// anything is written; a changelog failure only produces a warning.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (*Summary, error) {
	cfg := g.cfg
	downloadsRoot := cfg.Resolve(cfg.Paths.Downloads)
	changelogRoot := cfg.Resolve(cfg.Paths.Changelog)
	downloadsFile := cfg.Resolve(cfg.Paths.DownloadsData.File)
	changelogFile := cfg.Resolve(cfg.Paths.ChangelogData.File)

	g.logger.Info("starting generation",
		"downloads", downloadsRoot,
		"changelog", changelogRoot,
		"dry_run", opts.DryRun,
	)

	var ignore config.IgnoreConfig
	if cfg.Ignore != "" {
		var err error
		ignore, err = config.LoadIgnoreConfig(cfg.Resolve(cfg.Ignore))
		if err != nil {
			return nil, fmt.Errorf("failed to load ignore file: %w", err)
		}
	}

	downloads, err := BuildDownloadManifest(downloadsRoot, DownloadSpec{
		Apps:      cfg.Apps,
		Platforms: cfg.Platforms,
		Naming:    cfg.Artifacts,
		Ignore:    ignore,
	}, g.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build downloads data: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var report *clamav.Report
	if g.scanner != nil {
		report, err = g.scan(ctx, downloadsRoot)
		if err != nil {
			return nil, err
		}
	}

	downloadsModule, err := RenderModule(cfg.Paths.DownloadsData.Binding, downloads)
	if err != nil {
		return nil, err
	}

	// hash and sign before the first write so a failure leaves every output untouched
	var checksumFile string
	var checksums *ChecksumList
	if cfg.Checksums.Enabled {
		checksumFile = filepath.Join(downloadsRoot, cfg.Checksums.File)
		entries, err := CollectChecksums(downloadsRoot, downloads, cfg.Artifacts)
		if err != nil {
			return nil, fmt.Errorf("failed to hash artifacts: %w", err)
		}
		checksums, err = SignChecksums(entries, g.signer)
		if err != nil {
			return nil, err
		}
	}

	var signed bool
	if opts.DryRun {
		g.logger.Info("dry-run mode: skipping file writes")
	} else {
		changed, err := WriteModule(downloadsFile, downloadsModule, g.logger)
		if err != nil {
			return nil, err
		}
		g.logger.Info("downloads data written", "path", downloadsFile, "changed", changed)

		if checksums != nil {
			signed, err = WriteChecksums(checksumFile, checksums, g.logger)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	changelog := BuildChangelogManifest(changelogRoot, cfg.Changelog, g.logger)
	summary := BuildSummary(downloads, changelog)
	summary.DryRun = opts.DryRun
	summary.DownloadsFile = downloadsFile
	summary.ChecksumFile = checksumFile
	summary.Signed = signed
	if report != nil {
		summary.Scanned = true
		summary.ScannedFiles = report.ScannedFiles
		summary.ScanEngine = report.EngineVersion
	}

	if len(changelog.Versions) == 0 {
		g.logger.Warn("no changelog data found, skipping changelog generation", "root", changelogRoot)
		return &summary, nil
	}

	changelogModule, err := RenderModule(cfg.Paths.ChangelogData.Binding, changelog)
	if err != nil {
		return nil, err
	}
	if !opts.DryRun {
		changed, err := WriteModule(changelogFile, changelogModule, g.logger)
		if err != nil {
			return nil, err
		}
		g.logger.Info("changelog data written", "path", changelogFile, "changed", changed)
	}
	summary.ChangelogFile = changelogFile

	g.logger.Info("generation complete",
		"versions", len(downloads.Versions),
		"changelog_versions", len(changelog.Versions),
	)
	return &summary, nil
}

func (g *Generator) scan(ctx context.Context, downloadsRoot string) (*clamav.Report, error) {
	report, err := g.scanner.ScanDir(ctx, downloadsRoot)
	if err != nil {
		return nil, fmt.Errorf("malware scan failed: %w", err)
	}
	if !report.Clean() {
		for _, f := range report.Infected {
			g.logger.Error("infected artifact", "file", f.Path, "threat", f.Threat)
		}
		return nil, fmt.Errorf("%w: %d file(s) in %s", ErrArtifactInfected, len(report.Infected), downloadsRoot)
	}
	return &report, nil
}
