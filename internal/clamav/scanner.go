package clamav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultImage is the ClamAV image used when none is configured.
const DefaultImage = "clamav/clamav-debian:latest"

// containerRoot is where the scanned directory is mounted inside the container.
const containerRoot = "/scan"

// Sentinel errors
var (
	ErrDockerUnavailable = errors.New("docker command not available")
	ErrScanFailed        = errors.New("clamscan failed")
)

// Scanner scans a directory tree for malware.
type Scanner interface {
	ScanDir(ctx context.Context, dir string) (Report, error)
}

// Finding is one infected file.
type Finding struct {
	Path   string // slash-separated, relative to the scanned directory
	Threat string
}

// Report is the outcome of one directory scan.
type Report struct {
	Infected      []Finding
	ScannedFiles  int
	EngineVersion string
	DatabaseDate  string
	Duration      time.Duration
}

// Clean reports whether no file was flagged.
func (r Report) Clean() bool {
	return len(r.Infected) == 0
}

// DockerScanner implements Scanner using ClamAV in a Docker container.
type DockerScanner struct {
	runner CommandRunner
	image  string
	logger *slog.Logger
}

// NewDockerScanner creates a scanner that uses ClamAV in Docker.
func NewDockerScanner(runner CommandRunner, image string, logger *slog.Logger) *DockerScanner {
	if image == "" {
		image = DefaultImage
	}
	return &DockerScanner{
		runner: runner,
		image:  image,
		logger: logger,
	}
}

// ScanDir recursively scans dir, mounted read-only into the container.
func (s *DockerScanner) ScanDir(ctx context.Context, dir string) (Report, error) {
	start := time.Now()

	if !isDockerAvailable(ctx, s.runner) {
		return Report{}, ErrDockerUnavailable
	}

	if err := ensureImage(ctx, s.runner, s.image); err != nil {
		return Report{}, fmt.Errorf("failed to ensure image: %w", err)
	}

	version, err := s.engineVersion(ctx)
	if err != nil {
		s.logger.Warn("failed to get ClamAV version", "error", err)
		version = "unknown"
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return Report{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	s.logger.Info("scanning artifacts", "dir", absDir, "image", s.image)
	output, err := s.runner.Run(ctx, "docker", buildDockerArgs(s.image, absDir)...)

	exitCode := 0
	if err != nil {
		exitCode = extractExitCode(err)
		if exitCode < 0 {
			return Report{}, fmt.Errorf("failed to run clamscan: %w", err)
		}
	}

	report, err := parseReport(output, exitCode, version)
	if err != nil {
		return Report{}, err
	}
	report.Duration = time.Since(start)

	s.logger.Info("scan finished",
		"files", report.ScannedFiles,
		"infected", len(report.Infected),
		"engine", report.EngineVersion,
		"duration", report.Duration)
	return report, nil
}

func (s *DockerScanner) engineVersion(ctx context.Context) (string, error) {
	output, err := s.runner.Run(ctx, "docker", "run", "--rm", s.image, "clamscan", "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func isDockerAvailable(ctx context.Context, runner CommandRunner) bool {
	_, err := runner.Run(ctx, "docker", "--version")
	return err == nil
}

// ensureImage pulls image unless it is already present locally.
func ensureImage(ctx context.Context, runner CommandRunner, image string) error {
	if _, err := runner.Run(ctx, "docker", "image", "inspect", image); err == nil {
		return nil
	}
	if _, err := runner.Run(ctx, "docker", "pull", image); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	return nil
}

func buildDockerArgs(image, hostDir string) []string {
	return []string{
		"run",
		"--rm",
		"-v", fmt.Sprintf("%s:%s:ro", hostDir, containerRoot),
		image,
		"clamscan",
		"--stdout",
		"--recursive",
		"--infected",
		containerRoot,
	}
}

// extractExitCode returns the exit code carried by err, or -1 when err is
// not an exit status.
func extractExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}

	return -1
}
