package sitegen

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/annnekkk/checker-site/internal/config"
	"github.com/annnekkk/checker-site/internal/gpg"
	"github.com/annnekkk/checker-site/internal/version"
)

// SignatureExt is appended to the checksum file name for its detached signature.
const SignatureExt = ".asc"

// ErrChecksumMismatch is returned when an artifact no longer matches its listed hash.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ChecksumEntry is one line of a SHA256SUMS file.
type ChecksumEntry struct {
	SHA256 string
	Path   string // slash-separated, relative to the downloads root
}

// CollectChecksums hashes every artifact recorded in the manifest, in manifest order.
func CollectChecksums(root string, manifest *DownloadManifest, naming config.Artifacts) ([]ChecksumEntry, error) {
	var entries []ChecksumEntry
	for _, v := range manifest.Versions {
		folder := version.FolderPrefix + v.Version
		for _, app := range v.Apps {
			for _, f := range app.Files.Entries() {
				name := ArtifactFileName(naming, v.Version, app.Prefix, f.Suffix)
				sum, err := hashFile(filepath.Join(root, folder, name))
				if err != nil {
					return nil, err
				}
				entries = append(entries, ChecksumEntry{SHA256: sum, Path: path.Join(folder, name)})
			}
		}
	}
	return entries, nil
}

// RenderChecksums renders entries in sha256sum format.
func RenderChecksums(entries []ChecksumEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s  %s\n", e.SHA256, e.Path)
	}
	return buf.Bytes()
}

// ParseChecksums parses sha256sum formatted content.
func ParseChecksums(data []byte) ([]ChecksumEntry, error) {
	var entries []ChecksumEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sum, file, ok := strings.Cut(line, "  ")
		if !ok || len(sum) != sha256.Size*2 || file == "" {
			return nil, fmt.Errorf("malformed checksum line %d: %q", lineNo, line)
		}
		if _, err := hex.DecodeString(sum); err != nil {
			return nil, fmt.Errorf("malformed checksum line %d: %w", lineNo, err)
		}
		entries = append(entries, ChecksumEntry{SHA256: sum, Path: file})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}
	return entries, nil
}

// ChecksumList is a rendered checksum list and its detached signature.
type ChecksumList struct {
	Content     []byte
	Entries     int
	Signature   string // empty when unsigned
	Fingerprint string
}

// SignChecksums renders entries and, when signer is set, signs the result.
// Nothing is written, so a signing failure leaves the outputs untouched.
func SignChecksums(entries []ChecksumEntry, signer gpg.Signer) (*ChecksumList, error) {
	list := &ChecksumList{
		Content: RenderChecksums(entries),
		Entries: len(entries),
	}
	if signer == nil {
		return list, nil
	}

	signature, err := signer.SignDetached(list.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to sign checksum list: %w", err)
	}
	list.Signature = signature
	list.Fingerprint = signer.Fingerprint()
	return list, nil
}

// WriteChecksums writes the checksum list to sumsPath and its signature, if
// any, next to it. The signature is refreshed only when the list changed or no
// signature exists. It reports whether a signature was written.
func WriteChecksums(sumsPath string, list *ChecksumList, logger *slog.Logger) (bool, error) {
	changed, err := writeFileIfChanged(sumsPath, list.Content, logger)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrSerializationWriteFailure, sumsPath, err)
	}
	logger.Info("checksum list ready", "path", sumsPath, "entries", list.Entries, "changed", changed)

	if list.Signature == "" {
		return false, nil
	}

	sigPath := sumsPath + SignatureExt
	if _, statErr := os.Stat(sigPath); statErr == nil && !changed {
		logger.Debug("checksum signature up to date", "path", sigPath)
		return false, nil
	}

	if _, err := writeFileIfChanged(sigPath, []byte(list.Signature), logger); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrSerializationWriteFailure, sigPath, err)
	}
	logger.Info("signed checksum list", "path", sigPath, "fingerprint", list.Fingerprint)
	return true, nil
}

// VerifyChecksums checks the signature of the checksum list at sumsPath (when
// verifier is set) and re-hashes every listed artifact under root.
// It returns the number of verified artifacts.
func VerifyChecksums(root, sumsPath string, verifier gpg.Verifier, logger *slog.Logger) (int, error) {
	data, err := os.ReadFile(sumsPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read checksum list: %w", err)
	}

	if verifier != nil {
		signature, err := os.ReadFile(sumsPath + SignatureExt)
		if err != nil {
			return 0, fmt.Errorf("failed to read checksum signature: %w", err)
		}
		if err := verifier.VerifyDetached(data, signature); err != nil {
			return 0, err
		}
		logger.Info("checksum signature valid", "path", sumsPath+SignatureExt)
	}

	entries, err := ParseChecksums(data)
	if err != nil {
		return 0, err
	}

	var failed []string
	for _, e := range entries {
		sum, err := hashFile(filepath.Join(root, filepath.FromSlash(e.Path)))
		if err != nil {
			logger.Error("artifact unreadable", "file", e.Path, "error", err)
			failed = append(failed, e.Path)
			continue
		}
		if sum != e.SHA256 {
			logger.Error("artifact checksum mismatch", "file", e.Path, "want", e.SHA256, "got", sum)
			failed = append(failed, e.Path)
			continue
		}
		logger.Debug("artifact verified", "file", e.Path)
	}

	if len(failed) > 0 {
		return len(entries) - len(failed), fmt.Errorf("%w: %s", ErrChecksumMismatch, strings.Join(failed, ", "))
	}
	return len(entries), nil
}

func hashFile(name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", name, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
