package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Sealer encrypts small blobs to the installation's X25519 identity.
type Sealer struct {
	identity *age.X25519Identity
}

// NewSealer wraps an existing identity.
func NewSealer(identity *age.X25519Identity) *Sealer {
	return &Sealer{identity: identity}
}

// GenerateSealer creates a sealer with a fresh identity that is never persisted.
func GenerateSealer() (*Sealer, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	return NewSealer(identity), nil
}

// LoadOrCreateSealer reads the identity at path, generating and saving a new
// one (mode 0600) when the file does not exist.
func LoadOrCreateSealer(path string) (*Sealer, bool, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, false, fmt.Errorf("parsing identity %s: %w", path, err)
		}
		return NewSealer(identity), false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("reading identity %s: %w", path, err)
	}

	s, err := GenerateSealer()
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, false, fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(s.identity.String()+"\n"), 0o600); err != nil {
		return nil, false, fmt.Errorf("writing identity %s: %w", path, err)
	}
	return s, true, nil
}

// Recipient returns the public half, e.g. for `sysop config show`.
func (s *Sealer) Recipient() string {
	return s.identity.Recipient().String()
}

// Seal encrypts plaintext and returns base64 ciphertext.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Open reverses Seal.
func (s *Sealer) Open(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 ciphertext: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext, nil
}
