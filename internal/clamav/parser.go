package clamav

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoThreatsInOutput means clamscan reported an infection without naming it.
var ErrNoThreatsInOutput = errors.New("malware detected but no threats found in output")

var (
	databaseDatePattern = regexp.MustCompile(`ClamAV \d+\.\d+\.\d+/\d+/([A-Za-z]{3} [A-Za-z]{3}\s+\d+\s+\d+:\d+:\d+ \d{4})`)
	scannedFilesPattern = regexp.MustCompile(`(?m)^Scanned files:\s*(\d+)`)
)

// parseReport builds a Report from clamscan output.
// Exit code 0 = clean, 1 = infected, 2+ = error.
func parseReport(output []byte, exitCode int, version string) (Report, error) {
	text := string(output)

	if exitCode >= 2 {
		return Report{}, fmt.Errorf("%w (exit %d): %s", ErrScanFailed, exitCode, lastLine(text))
	}

	report := Report{
		EngineVersion: version,
		DatabaseDate:  extractDatabaseDate(version),
		ScannedFiles:  extractScannedFiles(text),
		Infected:      extractFindings(text),
	}

	if exitCode == 1 && len(report.Infected) == 0 {
		return report, ErrNoThreatsInOutput
	}
	return report, nil
}

// extractFindings parses "/scan/<path>: <threat> FOUND" lines.
func extractFindings(output string) []Finding {
	var findings []Finding
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasSuffix(line, " FOUND") {
			continue
		}
		sep := strings.LastIndex(line, ": ")
		if sep < 0 {
			continue
		}
		path := strings.TrimPrefix(line[:sep], containerRoot)
		path = strings.TrimPrefix(path, "/")
		threat := strings.TrimSpace(strings.TrimSuffix(line[sep+2:], " FOUND"))
		findings = append(findings, Finding{Path: path, Threat: threat})
	}
	return findings
}

func extractScannedFiles(output string) int {
	m := scannedFilesPattern.FindStringSubmatch(output)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// extractDatabaseDate parses the virus database date from the version string.
// Example version: "ClamAV 1.5.1/27805/Mon Oct 27 09:50:30 2025"
func extractDatabaseDate(version string) string {
	if m := databaseDatePattern.FindStringSubmatch(version); len(m) >= 2 {
		return m[1]
	}
	return "unknown"
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
