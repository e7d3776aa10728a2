package sitegen

import (
	"path/filepath"
	"testing"

	"github.com/annnekkk/checker-site/internal/config"
	"github.com/annnekkk/checker-site/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "blank lines dropped", content: "Added X\n\nAdded Y\n", want: []string{"Added X", "Added Y"}},
		{name: "whitespace trimmed", content: "  Fixed crash \r\n\t\n", want: []string{"Fixed crash"}},
		{name: "empty", content: "", want: []string{}},
		{name: "only whitespace", content: " \n \n", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitEntries(tt.content)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildChangelogManifest(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "V1.0.0/date.txt", "2024-01-10\n")
	writeFixture(t, root, "V1.0.0/new.txt", "Initial release\n")
	writeFixture(t, root, "V1.1.0/date.txt", "\ufeff 2024-02-01 \n")
	writeFixture(t, root, "V1.1.0/new.txt", "Added X\n\nAdded Y\n")
	writeFixture(t, root, "V1.1.0/fixed.txt", "Fixed Z")
	writeFixture(t, root, "drafts/new.txt", "not a release")

	files := config.DefaultConfig().Changelog
	manifest := BuildChangelogManifest(root, files, logger.Discard())

	require.Len(t, manifest.Versions, 2)
	assert.Equal(t, ChangelogEntry{
		Version:  "1.1.0",
		IsLatest: true,
		Date:     "2024-02-01",
		New:      []string{"Added X", "Added Y"},
		Improved: []string{},
		Fixed:    []string{"Fixed Z"},
		Breaking: []string{},
	}, manifest.Versions[0])
	assert.Equal(t, ChangelogEntry{
		Version:  "1.0.0",
		Date:     "2024-01-10",
		New:      []string{"Initial release"},
		Improved: []string{},
		Fixed:    []string{},
		Breaking: []string{},
	}, manifest.Versions[1])
}

func TestBuildChangelogManifest_MissingDate(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "V3.0.0/breaking.txt", "Dropped legacy API\n")

	manifest := BuildChangelogManifest(root, config.DefaultConfig().Changelog, logger.Discard())

	require.Len(t, manifest.Versions, 1)
	assert.Equal(t, "", manifest.Versions[0].Date)
	assert.Equal(t, []string{"Dropped legacy API"}, manifest.Versions[0].Breaking)
}

func TestBuildChangelogManifest_SoftFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "missing root",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "changelog")
			},
		},
		{
			name: "no version folders",
			setup: func(t *testing.T) string {
				root := t.TempDir()
				writeFixture(t, root, "README.md", "nothing here")
				return root
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := BuildChangelogManifest(tt.setup(t), config.DefaultConfig().Changelog, logger.Discard())
			require.NotNil(t, manifest)
			require.NotNil(t, manifest.Versions)
			assert.Empty(t, manifest.Versions)

			out, err := RenderModule("changelogData", manifest)
			require.NoError(t, err)
			assert.Contains(t, string(out), `"versions": []`)
		})
	}
}
