// Package config provides configuration management for the site data generator.
// It handles the YAML file describing applications, platforms and output locations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/annnekkk/checker-site/internal/platform"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration validation
var (
	ErrVersionRequired        = errors.New("version is required")
	ErrNoApps                 = errors.New("at least one app must be configured")
	ErrNoPlatforms            = errors.New("at least one platform must be configured")
	ErrAppNameRequired        = errors.New("app name is required")
	ErrAppPrefixRequired      = errors.New("app prefix is required")
	ErrDuplicateAppPrefix     = errors.New("duplicate app prefix")
	ErrPlatformNameRequired   = errors.New("platform name is required")
	ErrPlatformSuffixRequired = errors.New("platform suffix is required")
	ErrDuplicatePlatform      = errors.New("duplicate platform suffix")
	ErrUnknownIcon            = errors.New("unknown platform icon")
	ErrPathRequired           = errors.New("path is required")
	ErrInvalidBinding         = errors.New("binding must be a JavaScript identifier")
	ErrArtifactNameRequired   = errors.New("artifact channel and owner are required")
	ErrChecksumFileRequired   = errors.New("checksum file is required when checksums are enabled")
	ErrInvalidIgnoreRule      = errors.New("invalid ignore rule")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Config represents the top-level configuration structure.
type Config struct {
	Version   string              `yaml:"version"`
	Metadata  Metadata            `yaml:"metadata"`
	Paths     Paths               `yaml:"paths"`
	Artifacts Artifacts           `yaml:"artifacts"`
	Changelog Changelog           `yaml:"changelog"`
	Checksums Checksums           `yaml:"checksums"`
	Scan      Scan                `yaml:"scan"`
	Ignore    string              `yaml:"ignore_file"` // YAML or JSON file listing withheld versions/artifacts
	Apps      []App               `yaml:"apps"`
	Platforms []platform.Platform `yaml:"platforms"`
}

// Metadata represents metadata about the configuration.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Paths locates inputs and generated outputs. Relative paths are resolved
// against the site root.
type Paths struct {
	Root          string `yaml:"root"`
	Downloads     string `yaml:"downloads"`
	Changelog     string `yaml:"changelog"`
	DownloadsData Output `yaml:"downloads_data"`
	ChangelogData Output `yaml:"changelog_data"`
}

// Output is one generated data module: the file and the global it assigns.
type Output struct {
	File    string `yaml:"file"`
	Binding string `yaml:"binding"`
}

// Artifacts describes how artifact filenames are built:
// <version>-<channel>-<app.prefix>-by-<owner>-<platform.suffix>
type Artifacts struct {
	Channel string `yaml:"channel"`
	Owner   string `yaml:"owner"`
}

// App represents one downloadable application.
type App struct {
	Name      string `yaml:"name" json:"name"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	IconColor string `yaml:"icon_color" json:"iconColor"`
}

// Changelog names the per-version changelog files.
type Changelog struct {
	DateFile string        `yaml:"date_file"`
	Files    CategoryFiles `yaml:"files"`
}

// CategoryFiles holds one file name per changelog category.
type CategoryFiles struct {
	New      string `yaml:"new"`
	Improved string `yaml:"improved"`
	Fixed    string `yaml:"fixed"`
	Breaking string `yaml:"breaking"`
}

// Checksums configures the SHA256SUMS list written next to the downloads.
type Checksums struct {
	Enabled       bool   `yaml:"enabled"`
	File          string `yaml:"file"`           // relative to the downloads directory
	SigningKey    string `yaml:"signing_key"`    // armored private key path, empty disables signing
	PassphraseEnv string `yaml:"passphrase_env"` // environment variable holding the key passphrase
}

// Scan configures the ClamAV malware scan run over the downloads before publishing.
type Scan struct {
	Enabled bool   `yaml:"enabled"`
	Image   string `yaml:"image"`
}

// LoadConfig loads and parses the generator configuration from a YAML file.
// Fields missing from the file keep their default values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate validates the configuration structure and required fields.
func (c *Config) Validate() error {
	if c.Version == "" {
		return ErrVersionRequired
	}
	if err := c.Paths.Validate(); err != nil {
		return fmt.Errorf("paths: %w", err)
	}
	if c.Artifacts.Channel == "" || c.Artifacts.Owner == "" {
		return ErrArtifactNameRequired
	}
	if err := c.Changelog.Validate(); err != nil {
		return fmt.Errorf("changelog: %w", err)
	}
	if c.Checksums.Enabled && c.Checksums.File == "" {
		return ErrChecksumFileRequired
	}
	if err := validateApps(c.Apps); err != nil {
		return err
	}
	return validatePlatforms(c.Platforms)
}

// Validate validates the configured paths and bindings.
func (p *Paths) Validate() error {
	if p.Downloads == "" || p.Changelog == "" {
		return ErrPathRequired
	}
	for _, out := range []Output{p.DownloadsData, p.ChangelogData} {
		if out.File == "" {
			return ErrPathRequired
		}
		if !identifierPattern.MatchString(out.Binding) {
			return fmt.Errorf("%w: %q", ErrInvalidBinding, out.Binding)
		}
	}
	return nil
}

// Validate validates that every changelog file name is set.
func (c *Changelog) Validate() error {
	for _, name := range []string{c.DateFile, c.Files.New, c.Files.Improved, c.Files.Fixed, c.Files.Breaking} {
		if name == "" {
			return ErrPathRequired
		}
	}
	return nil
}

func validateApps(apps []App) error {
	if len(apps) == 0 {
		return ErrNoApps
	}
	prefixes := make(map[string]bool, len(apps))
	for i, app := range apps {
		if app.Name == "" {
			return fmt.Errorf("app %d: %w", i, ErrAppNameRequired)
		}
		if app.Prefix == "" {
			return fmt.Errorf("app %s: %w", app.Name, ErrAppPrefixRequired)
		}
		if prefixes[app.Prefix] {
			return fmt.Errorf("app %s: %w: %s", app.Name, ErrDuplicateAppPrefix, app.Prefix)
		}
		prefixes[app.Prefix] = true
	}
	return nil
}

func validatePlatforms(platforms []platform.Platform) error {
	if len(platforms) == 0 {
		return ErrNoPlatforms
	}
	suffixes := make(map[string]bool, len(platforms))
	for i, p := range platforms {
		if p.Name == "" {
			return fmt.Errorf("platform %d: %w", i, ErrPlatformNameRequired)
		}
		if p.Suffix == "" {
			return fmt.Errorf("platform %s: %w", p.Name, ErrPlatformSuffixRequired)
		}
		if suffixes[p.Suffix] {
			return fmt.Errorf("platform %s: %w: %s", p.Name, ErrDuplicatePlatform, p.Suffix)
		}
		if !platform.KnownIcon(p.Icon) {
			return fmt.Errorf("platform %s: %w: %q", p.Name, ErrUnknownIcon, p.Icon)
		}
		suffixes[p.Suffix] = true
	}
	return nil
}

// DefaultConfig returns the configuration of the CCN/CVV checker download site.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Metadata: Metadata{
			Name:        "checker-site",
			Description: "Download and changelog data for the checker apps",
		},
		Paths: Paths{
			Root:      ".",
			Downloads: "downloads",
			Changelog: "changelog",
			DownloadsData: Output{
				File:    "js/downloads-data.js",
				Binding: "downloadsData",
			},
			ChangelogData: Output{
				File:    "js/changelog-data.js",
				Binding: "changelogData",
			},
		},
		Artifacts: Artifacts{
			Channel: "stable",
			Owner:   "annnekkk",
		},
		Changelog: Changelog{
			DateFile: "date.txt",
			Files: CategoryFiles{
				New:      "new.txt",
				Improved: "improved.txt",
				Fixed:    "fixed.txt",
				Breaking: "breaking.txt",
			},
		},
		Checksums: Checksums{
			Enabled:       false,
			File:          "SHA256SUMS",
			PassphraseEnv: "SITEGEN_SIGNING_PASSPHRASE",
		},
		Scan: Scan{
			Enabled: false,
			Image:   "clamav/clamav-debian:latest",
		},
		Apps: []App{
			{Name: "CCN Checker", Prefix: "ccn-Checker", IconColor: "#cba6f7"},
			{Name: "CVV Checker", Prefix: "cvv-Checker", IconColor: "#f5c2e7"},
		},
		Platforms: platform.PredefinedPlatforms(),
	}
}

// Resolve joins p to the site root unless p is absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) || c.Paths.Root == "" {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filePath, err)
	}
	return nil
}
