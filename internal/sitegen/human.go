package sitegen

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Changelog category names, in display order.
const (
	CategoryNew      = "new"
	CategoryImproved = "improved"
	CategoryFixed    = "fixed"
	CategoryBreaking = "breaking"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes formats a byte count the way the download page does:
// "N/A" for zero, otherwise one decimal place with a trailing ".0" dropped.
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "N/A"
	}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	rounded := math.Round(value*10) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[unit]
}

// Summary describes one generation run for the operator.
type Summary struct {
	DryRun bool

	DownloadsFile string
	Versions      []string
	Latest        string
	Apps          int
	Platforms     []PlatformSummary
	TotalFiles    int
	TotalBytes    int64

	ChecksumFile string // empty when checksums are disabled
	Signed       bool

	Scanned      bool
	ScannedFiles int
	ScanEngine   string

	ChangelogFile     string // empty when no changelog module was written
	ChangelogVersions int
	Categories        []CategorySummary
}

// PlatformSummary counts the artifacts found for one platform across all versions and apps.
type PlatformSummary struct {
	Name   string
	Suffix string
	Files  int
	Bytes  int64
}

// CategorySummary counts the changelog entries of one category across all versions.
type CategorySummary struct {
	Name    string
	Entries int
}

// BuildSummary counts what the manifests contain.
func BuildSummary(downloads *DownloadManifest, changelog *ChangelogManifest) Summary {
	var s Summary

	if downloads != nil {
		for _, p := range downloads.Platforms {
			s.Platforms = append(s.Platforms, PlatformSummary{Name: p.Name, Suffix: p.Suffix})
		}
		for i, v := range downloads.Versions {
			s.Versions = append(s.Versions, v.Version)
			if i == 0 {
				s.Latest = v.Version
				s.Apps = len(v.Apps)
			}
			for _, app := range v.Apps {
				for j := range s.Platforms {
					if size, ok := app.Files.Get(s.Platforms[j].Suffix); ok {
						s.Platforms[j].Files++
						s.Platforms[j].Bytes += size
						s.TotalFiles++
						s.TotalBytes += size
					}
				}
			}
		}
	}

	if changelog != nil {
		s.ChangelogVersions = len(changelog.Versions)
		counts := map[string]int{}
		for _, v := range changelog.Versions {
			counts[CategoryNew] += len(v.New)
			counts[CategoryImproved] += len(v.Improved)
			counts[CategoryFixed] += len(v.Fixed)
			counts[CategoryBreaking] += len(v.Breaking)
		}
		for _, name := range []string{CategoryNew, CategoryImproved, CategoryFixed, CategoryBreaking} {
			s.Categories = append(s.Categories, CategorySummary{Name: name, Entries: counts[name]})
		}
	}

	return s
}

// WriteSummary prints a human-readable summary of a run.
func WriteSummary(w io.Writer, s Summary) error {
	p := message.NewPrinter(language.English)
	title := cases.Title(language.English)

	verb := "Generated"
	if s.DryRun {
		verb = "Would generate"
	}

	lines := []string{
		p.Sprintf("%s %s", verb, s.DownloadsFile),
		p.Sprintf("  Total versions: %d", len(s.Versions)),
		p.Sprintf("  Latest version: %s", s.Latest),
		p.Sprintf("  Apps: %d", s.Apps),
	}
	for _, ps := range s.Platforms {
		lines = append(lines, p.Sprintf("  %s (%s): %d file(s), %d bytes (%s)",
			ps.Name, ps.Suffix, ps.Files, ps.Bytes, FormatBytes(ps.Bytes)))
	}
	lines = append(lines, p.Sprintf("  Total: %d file(s), %d bytes (%s)", s.TotalFiles, s.TotalBytes, FormatBytes(s.TotalBytes)))

	if s.Scanned {
		lines = append(lines, p.Sprintf("Malware scan: %d file(s) clean (%s)", s.ScannedFiles, s.ScanEngine))
	}

	if s.ChecksumFile != "" {
		signed := ""
		if s.Signed {
			signed = " (signed)"
		}
		lines = append(lines, p.Sprintf("%s %s%s", verb, s.ChecksumFile, signed))
	}

	if s.ChangelogFile == "" {
		lines = append(lines, "No changelog data found, skipping changelog generation")
	} else {
		lines = append(lines,
			p.Sprintf("%s %s", verb, s.ChangelogFile),
			p.Sprintf("  Total changelog versions: %d", s.ChangelogVersions),
		)
		for _, c := range s.Categories {
			lines = append(lines, p.Sprintf("  %s: %d entries", title.String(c.Name), c.Entries))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
