package sitegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/annnekkk/checker-site/internal/platform"
)

// DownloadManifest is the data behind the downloads page.
// Field order is the JSON key order of the generated module.
type DownloadManifest struct {
	Versions  []VersionDownloads  `json:"versions"`  // newest first
	Platforms []platform.Platform `json:"platforms"` // configured platforms, verbatim
}

// VersionDownloads lists every app's artifacts for one release.
type VersionDownloads struct {
	Version  string         `json:"version"`
	IsLatest bool           `json:"isLatest"`
	Apps     []AppDownloads `json:"apps"`
}

// AppDownloads holds the artifacts found for one app in one release.
type AppDownloads struct {
	Name      string        `json:"name"`
	Prefix    string        `json:"prefix"`
	IconColor string        `json:"iconColor"`
	Files     ArtifactSizes `json:"files"`
}

// ChangelogManifest is the data behind the changelog page.
type ChangelogManifest struct {
	Versions []ChangelogEntry `json:"versions"` // newest first
}

// ChangelogEntry holds the categorized notes of one release.
type ChangelogEntry struct {
	Version  string   `json:"version"`
	IsLatest bool     `json:"isLatest"`
	Date     string   `json:"date"`
	New      []string `json:"new"`
	Improved []string `json:"improved"`
	Fixed    []string `json:"fixed"`
	Breaking []string `json:"breaking"`
}

// ArtifactSize is the size in bytes of the artifact built for one platform.
type ArtifactSize struct {
	Suffix string
	Size   int64
}

// ArtifactSizes maps platform suffix to artifact size, keeping insertion
// order. It serializes as a JSON object whose keys follow that order, so the
// generated module lists files in platform order on every run.
type ArtifactSizes struct {
	entries []ArtifactSize
}

// Set records the size for suffix, replacing any earlier value.
func (a *ArtifactSizes) Set(suffix string, size int64) {
	for i := range a.entries {
		if a.entries[i].Suffix == suffix {
			a.entries[i].Size = size
			return
		}
	}
	a.entries = append(a.entries, ArtifactSize{Suffix: suffix, Size: size})
}

// Get returns the size recorded for suffix.
func (a ArtifactSizes) Get(suffix string) (int64, bool) {
	for _, e := range a.entries {
		if e.Suffix == suffix {
			return e.Size, true
		}
	}
	return 0, false
}

// Len returns the number of recorded artifacts.
func (a ArtifactSizes) Len() int {
	return len(a.entries)
}

// Entries returns the recorded artifacts in insertion order.
func (a ArtifactSizes) Entries() []ArtifactSize {
	out := make([]ArtifactSize, len(a.entries))
	copy(out, a.entries)
	return out
}

// MarshalJSON implements json.Marshaler.
func (a ArtifactSizes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range a.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(e.Suffix)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(e.Size, 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping the document's key order.
func (a *ArtifactSizes) UnmarshalJSON(data []byte) error {
	a.entries = nil
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("artifact sizes: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		suffix, _ := tok.(string)
		var size int64
		if err := dec.Decode(&size); err != nil {
			return err
		}
		a.Set(suffix, size)
	}
	_, err = dec.Token() // closing brace
	return err
}

// marshalString encodes s as a JSON string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
