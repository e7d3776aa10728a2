// Package cli provides the command-line interface for the site data generator.
// It loads the YAML configuration, applies flag overrides and runs the generator.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/annnekkk/checker-site/internal/clamav"
	"github.com/annnekkk/checker-site/internal/config"
	"github.com/annnekkk/checker-site/internal/gpg"
	"github.com/annnekkk/checker-site/internal/logger"
	"github.com/annnekkk/checker-site/internal/platform"
	"github.com/annnekkk/checker-site/internal/sitegen"
)

const defaultConfigFile = "sitegen.yaml"

// NewApp creates and configures the main CLI application.
// Running it without a command is the same as running "generate".
func NewApp() *cli.App {
	return &cli.App{
		Name:     "sitegen",
		Usage:    "Generate download and changelog data for the checker apps site",
		Version:  "1.0.0",
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name: "annnekkk",
			},
		},
		Flags:  append(commonFlags(), generateFlags()...),
		Action: generateCommand,
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Scan the downloads and changelog folders and write the data modules",
				Flags:  append(commonFlags(), generateFlags()...),
				Action: generateCommand,
			},
			{
				Name:  "init-config",
				Usage: "Write the default configuration file",
				Flags: append(loggingFlags(),
					&cli.StringFlag{
						Name:  "out",
						Value: defaultConfigFile,
						Usage: "path of the configuration file to write",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing file",
					},
				),
				Action: initConfigCommand,
			},
			{
				Name:  "verify",
				Usage: "Verify the checksum list and its signature against the downloads",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "root",
						Usage: "site root directory (overrides paths.root)",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "checksum list to verify (default: <downloads>/<checksums.file>)",
					},
					&cli.StringFlag{
						Name:    "public-key",
						Usage:   "armored public key; when set the detached signature must verify",
						EnvVars: []string{"SITEGEN_PUBLIC_KEY"},
					},
				),
				Action: verifyCommand,
			},
		},
	}
}

// commonFlags are accepted both before and after the command name.
func commonFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   defaultConfigFile,
			Usage:   "path to the site configuration file (built-in defaults when absent)",
			EnvVars: []string{"SITEGEN_CONFIG"},
		},
	}, loggingFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "log level (debug, info, warn, error)",
			EnvVars: []string{"SITEGEN_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "json",
			Usage:   "log format (json, text)",
			EnvVars: []string{"SITEGEN_LOG_FORMAT"},
		},
	}
}

// generateFlags are registered on the app and on the generate command.
func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "root",
			Usage: "site root directory (overrides paths.root)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "build the data without writing files",
		},
		&cli.StringSliceFlag{
			Name:    "platform",
			Aliases: []string{"p"},
			Usage:   "restrict the scan to these platform suffixes (or \"all\")",
		},
		&cli.BoolFlag{
			Name:  "checksums",
			Usage: "write the SHA256SUMS list (overrides checksums.enabled)",
		},
		&cli.StringFlag{
			Name:  "signing-key",
			Usage: "armored private key used to sign the checksum list (implies --checksums)",
		},
		&cli.BoolFlag{
			Name:  "scan",
			Usage: "scan the downloads with ClamAV in Docker before writing (overrides scan.enabled)",
		},
	}
}

// flagContext returns the nearest context in the lineage where name was set,
// so "sitegen --dry-run generate" and "sitegen generate --dry-run" agree.
// When the flag was set nowhere, c and its default are used.
func flagContext(c *cli.Context, name string) *cli.Context {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx
		}
	}
	return c
}

func stringFlag(c *cli.Context, name string) string {
	return flagContext(c, name).String(name)
}

func boolFlag(c *cli.Context, name string) bool {
	return flagContext(c, name).Bool(name)
}

func isSet(c *cli.Context, name string) bool {
	return flagContext(c, name).IsSet(name)
}

// newLogger builds the run logger from the global flags. Logs go to stderr so
// the summary on stdout stays readable.
func newLogger(c *cli.Context) (*slog.Logger, error) {
	return logger.New(stringFlag(c, "log-level"), stringFlag(c, "log-format"), c.App.ErrWriter)
}

// loadConfig loads the configuration file. When the path was not given
// explicitly and the default file does not exist, the built-in defaults are used.
func loadConfig(c *cli.Context, log *slog.Logger) (*config.Config, error) {
	path := stringFlag(c, "config")
	if !isSet(c, "config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			log.Info("no configuration file, using defaults", "path", path)
			return config.DefaultConfig(), nil
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Info("loaded configuration", "path", path, "apps", len(cfg.Apps), "platforms", len(cfg.Platforms))
	return cfg, nil
}

// applyOverrides applies command-line overrides and revalidates the result.
func applyOverrides(c *cli.Context, cfg *config.Config) error {
	if root := stringFlag(c, "root"); root != "" {
		cfg.Paths.Root = root
	}

	platforms, err := platform.ResolvePlatforms(cfg.Platforms, flagContext(c, "platform").StringSlice("platform"))
	if err != nil {
		return err
	}
	cfg.Platforms = platforms

	if isSet(c, "checksums") {
		cfg.Checksums.Enabled = boolFlag(c, "checksums")
	}
	if key := stringFlag(c, "signing-key"); key != "" {
		cfg.Checksums.SigningKey = key
		cfg.Checksums.Enabled = true
	}

	if isSet(c, "scan") {
		cfg.Scan.Enabled = boolFlag(c, "scan")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// newSigner returns the checksum signer configured for this run, or nil.
func newSigner(cfg *config.Config, log *slog.Logger) (gpg.Signer, error) {
	if !cfg.Checksums.Enabled || cfg.Checksums.SigningKey == "" {
		return nil, nil
	}

	var passphrase []byte
	if cfg.Checksums.PassphraseEnv != "" {
		passphrase = []byte(os.Getenv(cfg.Checksums.PassphraseEnv))
	}

	signer, err := gpg.NewKeySignerFromFile(cfg.Checksums.SigningKey, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	log.Info("loaded signing key", "fingerprint", signer.Fingerprint())
	return signer, nil
}

// generateCommand implements the generate command.
func generateCommand(c *cli.Context) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c, log)
	if err != nil {
		return err
	}
	if err := applyOverrides(c, cfg); err != nil {
		return err
	}

	signer, err := newSigner(cfg, log)
	if err != nil {
		return err
	}

	generator := sitegen.NewGenerator(cfg, signer, log)
	if cfg.Scan.Enabled {
		generator.SetScanner(clamav.NewDockerScanner(clamav.NewExecRunner(), cfg.Scan.Image, log))
	}
	summary, err := generator.Generate(c.Context, sitegen.GenerateOptions{
		DryRun: boolFlag(c, "dry-run"),
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	return sitegen.WriteSummary(c.App.Writer, *summary)
}

// initConfigCommand implements the init-config command.
func initConfigCommand(c *cli.Context) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}

	out := c.String("out")
	if _, err := os.Stat(out); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", out)
	}

	if err := config.SaveConfig(config.DefaultConfig(), out); err != nil {
		return err
	}
	log.Info("wrote default configuration", "path", out)
	_, err = fmt.Fprintf(c.App.Writer, "Wrote %s\n", out)
	return err
}

// verifyCommand implements the verify command.
func verifyCommand(c *cli.Context) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c, log)
	if err != nil {
		return err
	}
	if root := stringFlag(c, "root"); root != "" {
		cfg.Paths.Root = root
	}

	downloadsRoot := cfg.Resolve(cfg.Paths.Downloads)
	sumsPath := c.String("file")
	if sumsPath == "" {
		if cfg.Checksums.File == "" {
			return config.ErrChecksumFileRequired
		}
		sumsPath = filepath.Join(downloadsRoot, cfg.Checksums.File)
	}

	// nil interface, not a typed nil, when no key is given
	var verifier gpg.Verifier
	if key := c.String("public-key"); key != "" {
		kv, err := gpg.NewKeyVerifierFromFile(key)
		if err != nil {
			return fmt.Errorf("failed to load public key: %w", err)
		}
		verifier = kv
	} else {
		log.Warn("no public key given, checking hashes only")
	}

	n, err := sitegen.VerifyChecksums(downloadsRoot, sumsPath, verifier, log)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	signed := ""
	if verifier != nil {
		signed = ", signature valid"
	}
	_, err = fmt.Fprintf(c.App.Writer, "Verified %d artifact(s) in %s%s\n", n, sumsPath, signed)
	return err
}
