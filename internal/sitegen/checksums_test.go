package sitegen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/annnekkk/checker-site/internal/gpg"
	"github.com/annnekkk/checker-site/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKeyPair returns a signer and the verifier for its public key.
func testKeyPair(t *testing.T) (*gpg.KeySigner, *gpg.KeyVerifier) {
	t.Helper()

	key, err := crypto.GenerateKey("Site Release", "release@example.com", "x25519", 0)
	require.NoError(t, err)
	private, err := key.Armor()
	require.NoError(t, err)
	public, err := key.GetArmoredPublicKey()
	require.NoError(t, err)

	signer, err := gpg.NewKeySigner(private, nil)
	require.NoError(t, err)
	verifier, err := gpg.NewKeyVerifier(public)
	require.NoError(t, err)
	return signer, verifier
}

func checksumFixture(t *testing.T) (string, *DownloadManifest) {
	t.Helper()
	root := t.TempDir()
	writeArtifact(t, root, "1.0.0", "ccn-Checker", "linux-x64", 64)
	writeArtifact(t, root, "1.1.0", "ccn-Checker", "windows-x64.exe", 128)
	writeArtifact(t, root, "1.1.0", "cvv-Checker", "linux-x64", 32)

	manifest, err := BuildDownloadManifest(root, testSpec(), logger.Discard())
	require.NoError(t, err)
	return root, manifest
}

func TestCollectChecksums(t *testing.T) {
	root, manifest := checksumFixture(t)

	entries, err := CollectChecksums(root, manifest, testNaming())
	require.NoError(t, err)

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		assert.Len(t, e.SHA256, 64)
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		"V1.1.0/1.1.0-stable-ccn-Checker-by-annnekkk-windows-x64.exe",
		"V1.1.0/1.1.0-stable-cvv-Checker-by-annnekkk-linux-x64",
		"V1.0.0/1.0.0-stable-ccn-Checker-by-annnekkk-linux-x64",
	}, paths)

	again, err := CollectChecksums(root, manifest, testNaming())
	require.NoError(t, err)
	assert.Equal(t, RenderChecksums(entries), RenderChecksums(again))
}

func TestParseChecksums(t *testing.T) {
	sum := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		data    string
		want    []ChecksumEntry
		wantErr bool
	}{
		{
			name: "valid",
			data: sum + "  V1.0.0/a\n\n" + sum + "  V1.0.0/b\n",
			want: []ChecksumEntry{{SHA256: sum, Path: "V1.0.0/a"}, {SHA256: sum, Path: "V1.0.0/b"}},
		},
		{name: "short hash", data: "abcd  V1.0.0/a\n", wantErr: true},
		{name: "not hex", data: strings.Repeat("zz", 32) + "  V1.0.0/a\n", wantErr: true},
		{name: "single space", data: sum + " V1.0.0/a\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChecksums([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteAndVerifyChecksums(t *testing.T) {
	root, manifest := checksumFixture(t)
	signer, verifier := testKeyPair(t)
	sumsPath := filepath.Join(root, "SHA256SUMS")

	entries, err := CollectChecksums(root, manifest, testNaming())
	require.NoError(t, err)

	list, err := SignChecksums(entries, signer)
	require.NoError(t, err)
	assert.Equal(t, signer.Fingerprint(), list.Fingerprint)

	signed, err := WriteChecksums(sumsPath, list, logger.Discard())
	require.NoError(t, err)
	assert.True(t, signed)
	assert.FileExists(t, sumsPath+SignatureExt)

	// unchanged list keeps the existing signature
	list, err = SignChecksums(entries, signer)
	require.NoError(t, err)
	signed, err = WriteChecksums(sumsPath, list, logger.Discard())
	require.NoError(t, err)
	assert.False(t, signed)

	n, err := VerifyChecksums(root, sumsPath, verifier, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t.Run("tampered artifact", func(t *testing.T) {
		writeArtifact(t, root, "1.0.0", "ccn-Checker", "linux-x64", 65)
		t.Cleanup(func() { writeArtifact(t, root, "1.0.0", "ccn-Checker", "linux-x64", 64) })

		n, err := VerifyChecksums(root, sumsPath, verifier, logger.Discard())
		require.ErrorIs(t, err, ErrChecksumMismatch)
		assert.Equal(t, 2, n)
	})

	t.Run("tampered list", func(t *testing.T) {
		data, err := os.ReadFile(sumsPath)
		require.NoError(t, err)
		t.Cleanup(func() { _ = os.WriteFile(sumsPath, data, 0644) })

		require.NoError(t, os.WriteFile(sumsPath, append(data, []byte(strings.Repeat("0", 64)+"  V9.9.9/x\n")...), 0644))
		_, err = VerifyChecksums(root, sumsPath, verifier, logger.Discard())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("wrong key", func(t *testing.T) {
		_, other := testKeyPair(t)
		_, err := VerifyChecksums(root, sumsPath, other, logger.Discard())
		require.Error(t, err)
	})
}

func TestWriteChecksums_Unsigned(t *testing.T) {
	root, manifest := checksumFixture(t)
	sumsPath := filepath.Join(root, "SHA256SUMS")

	entries, err := CollectChecksums(root, manifest, testNaming())
	require.NoError(t, err)

	list, err := SignChecksums(entries, nil)
	require.NoError(t, err)
	assert.Empty(t, list.Signature)

	signed, err := WriteChecksums(sumsPath, list, logger.Discard())
	require.NoError(t, err)
	assert.False(t, signed)
	assert.NoFileExists(t, sumsPath+SignatureExt)

	n, err := VerifyChecksums(root, sumsPath, nil, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

type failingSigner struct{}

func (failingSigner) SignDetached([]byte) (string, error) {
	return "", errors.New("key locked")
}

func (failingSigner) Fingerprint() string { return "" }

func TestSignChecksums_Failure(t *testing.T) {
	_, err := SignChecksums([]ChecksumEntry{{SHA256: strings.Repeat("a", 64), Path: "V1.0.0/x"}}, failingSigner{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key locked")
}
