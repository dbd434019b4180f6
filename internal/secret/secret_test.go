package secret_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/pludo/internal/secret"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealer_OpenRecoversPlaintext(t *testing.T) {
	s, err := secret.NewSealer(testKey)
	require.NoError(t, err)

	sealed, err := s.Seal("sk-or-v1-abc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1:"))
	assert.NotContains(t, sealed, "sk-or-v1-abc")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-v1-abc", plain)
}

func TestSealer_FreshNonceEachSeal(t *testing.T) {
	s, err := secret.NewSealer(testKey)
	require.NoError(t, err)

	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	assert.NotEqual(t, a, b)
}

func TestSealer_WrongKeyFails(t *testing.T) {
	s, _ := secret.NewSealer(testKey)
	other, _ := secret.NewSealer(strings.Repeat("ff", 32))

	sealed, err := s.Seal("sk-x")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	require.ErrorIs(t, err, secret.ErrDecrypt)
}

func TestSealer_Malformed(t *testing.T) {
	s, _ := secret.NewSealer(testKey)

	for _, in := range []string{"sk-plaintext", "v1:!!!", "v1:AAAA"} {
		_, err := s.Open(in)
		assert.ErrorIs(t, err, secret.ErrMalformed, in)
	}
}

func TestParseKey(t *testing.T) {
	_, err := secret.ParseKey(testKey)
	require.NoError(t, err)

	_, err = secret.ParseKey("AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=")
	require.NoError(t, err)

	_, err = secret.ParseKey("too-short")
	require.ErrorIs(t, err, secret.ErrInvalidKey)
}
