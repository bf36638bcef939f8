package cryptox

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Sizes are in random bytes, before base64url encoding.
const (
	SecretSize128 = 16 // 22 chars encoded
	SecretSize256 = 32 // 43 chars encoded
	SecretSize512 = 64 // 86 chars encoded
)

var ErrEmptySecretFile = errors.New("cryptox: secret file is empty")

// RandomSecret returns size bytes from crypto/rand, base64url encoded
// without padding.
func RandomSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustRandomSecret is RandomSecret for sizes known to be valid.
func MustRandomSecret(size int) string {
	s, err := RandomSecret(size)
	if err != nil {
		panic(err)
	}
	return s
}

// Fingerprint returns the base64url SHA-256 digest of s. It gives a stable
// key for a value that must not be stored in the clear, such as the
// username behind a throttle counter.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// LoadOrGenerateSecretFile returns the secret stored at path. A missing file
// is created with mode 0600 and a new secret of size random bytes. Trailing
// whitespace in an existing file is ignored, an empty one is an error.
func LoadOrGenerateSecretFile(path string, size int) (string, error) {
	path = filepath.Clean(path)

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		b = bytes.TrimSpace(b)
		if len(b) == 0 {
			return "", fmt.Errorf("%w: %s", ErrEmptySecretFile, path)
		}
		return string(b), nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("cryptox: read secret file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("cryptox: create secret dir: %w", err)
	}

	secret, err := RandomSecret(size)
	if err != nil {
		return "", err
	}

	// Written aside then linked into place, so a concurrent reader never sees
	// a partial file and the first writer wins.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".secret-*")
	if err != nil {
		return "", fmt.Errorf("cryptox: create secret file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(secret); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("cryptox: write secret file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("cryptox: write secret file: %w", err)
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return LoadOrGenerateSecretFile(path, size)
		}
		return "", fmt.Errorf("cryptox: install secret file: %w", err)
	}
	return secret, nil
}
