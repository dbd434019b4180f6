// Package secret seals provider API keys before they are written to the
// database, using NaCl secretbox with a server-held key.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	prefix    = "v1:"
)

var (
	// ErrInvalidKey is returned for a key that does not decode to 32 bytes.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes, hex or base64 encoded")
	// ErrMalformed is returned for sealed text that cannot be parsed.
	ErrMalformed = errors.New("sealed value is malformed")
	// ErrDecrypt is returned when authentication of sealed text fails.
	ErrDecrypt = errors.New("sealed value could not be decrypted")
)

// Sealer encrypts and decrypts short secrets.
type Sealer struct {
	key  [keySize]byte
	rand io.Reader
}

// ParseKey decodes a 32-byte key given as 64 hex characters or base64.
func ParseKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if raw, err := hex.DecodeString(encoded); err == nil && len(raw) == keySize {
		return raw, nil
	}
	if raw, err := base64.StdEncoding.DecodeString(encoded); err == nil && len(raw) == keySize {
		return raw, nil
	}
	return nil, ErrInvalidKey
}

// NewSealer creates a Sealer from an encoded key (see ParseKey).
func NewSealer(encodedKey string) (*Sealer, error) {
	raw, err := ParseKey(encodedKey)
	if err != nil {
		return nil, err
	}
	s := &Sealer{rand: rand.Reader}
	copy(s.key[:], raw)
	return s, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return prefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open decrypts text produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, prefix) {
		return "", ErrMalformed
	}
	box, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, prefix))
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrMalformed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
