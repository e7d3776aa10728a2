package gpg

import (
	"fmt"
	"os"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
)

const maxKeyFileSize = 1024 * 1024 // armored keys are a few KB

// Signer produces armored detached signatures.
type Signer interface {
	SignDetached(message []byte) (string, error)
	Fingerprint() string
}

// Verifier checks detached signatures.
type Verifier interface {
	VerifyDetached(message []byte, signature []byte) error
}

// KeySigner implements Signer using gopenpgp v2 with an unlocked private key
type KeySigner struct {
	keyRing     *crypto.KeyRing
	fingerprint string
}

// NewKeySigner creates a KeySigner from an armored private key.
// The passphrase is only used when the key is locked.
func NewKeySigner(armoredKey string, passphrase []byte) (*KeySigner, error) {
	if armoredKey == "" {
		return nil, fmt.Errorf("armored key cannot be empty")
	}

	key, err := crypto.NewKeyFromArmored(armoredKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PGP key: %w", err)
	}
	if !key.IsPrivate() {
		return nil, fmt.Errorf("key %s is not a private key", key.GetFingerprint())
	}

	locked, err := key.IsLocked()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect key lock state: %w", err)
	}
	if locked {
		if len(passphrase) == 0 {
			return nil, fmt.Errorf("key %s is locked and no passphrase was given", key.GetFingerprint())
		}
		key, err = key.Unlock(passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to unlock key: %w", err)
		}
	}

	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyring: %w", err)
	}

	return &KeySigner{
		keyRing:     keyRing,
		fingerprint: key.GetFingerprint(),
	}, nil
}

// NewKeySignerFromFile reads an armored private key from disk.
func NewKeySignerFromFile(path string, passphrase []byte) (*KeySigner, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	return NewKeySigner(string(data), passphrase)
}

// SignDetached implements Signer
func (s *KeySigner) SignDetached(message []byte) (string, error) {
	signature, err := s.keyRing.SignDetached(crypto.NewPlainMessage(message))
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}

	armored, err := signature.GetArmored()
	if err != nil {
		return "", fmt.Errorf("failed to armor signature: %w", err)
	}
	return armored, nil
}

// Fingerprint implements Signer
func (s *KeySigner) Fingerprint() string {
	return s.fingerprint
}

// KeyVerifier implements Verifier using gopenpgp v2 for actual cryptographic verification
type KeyVerifier struct {
	keyRing *crypto.KeyRing
}

// NewKeyVerifier creates a KeyVerifier from an armored public (or private) key.
func NewKeyVerifier(armoredKey string) (*KeyVerifier, error) {
	if armoredKey == "" {
		return nil, fmt.Errorf("armored key cannot be empty")
	}

	key, err := crypto.NewKeyFromArmored(armoredKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PGP key: %w", err)
	}

	if key.IsPrivate() {
		key, err = key.ToPublic()
		if err != nil {
			return nil, fmt.Errorf("failed to extract public key: %w", err)
		}
	}

	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyring: %w", err)
	}
	return &KeyVerifier{keyRing: keyRing}, nil
}

// NewKeyVerifierFromFile reads an armored public key from disk.
func NewKeyVerifierFromFile(path string) (*KeyVerifier, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	return NewKeyVerifier(string(data))
}

// VerifyDetached implements Verifier
func (v *KeyVerifier) VerifyDetached(message []byte, signature []byte) error {
	plainMessage := crypto.NewPlainMessage(message)

	pgpSignature, err := crypto.NewPGPSignatureFromArmored(string(signature))
	if err != nil {
		// Try binary format if armored fails
		pgpSignature = crypto.NewPGPSignature(signature)
	}

	if err := v.keyRing.VerifyDetached(plainMessage, pgpSignature, crypto.GetUnixTime()); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

func readKeyFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat key file %s: %w", path, err)
	}
	if info.Size() > maxKeyFileSize {
		return nil, fmt.Errorf("key file %s too large: %d bytes", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	return data, nil
}
