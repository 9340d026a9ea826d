package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, KeySize)
}

func TestParseKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	parsed, err := ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	parsed, err = ParseKey(base64.RawURLEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ParseKey("%%%")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSealer(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	s, err := NewSealer(key)
	require.NoError(t, err)

	sealed, err := s.Seal("GHA7198199580")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "GHA7198199580")

	again, err := s.Seal("GHA7198199580")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "GHA7198199580", plain)

	empty, err := s.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)
	plain, err = s.Open("")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestSealer_RejectsForeignOrCorruptValues(t *testing.T) {
	k1, _ := GenerateKey()
	k2, _ := GenerateKey()
	s1, err := NewSealer(k1)
	require.NoError(t, err)
	s2, err := NewSealer(k2)
	require.NoError(t, err)

	sealed, err := s1.Seal("KING")
	require.NoError(t, err)

	_, err = s2.Open(sealed)
	assert.ErrorIs(t, err, ErrSealedInvalid)
	_, err = s1.Open("not-base64!")
	assert.ErrorIs(t, err, ErrSealedInvalid)
	_, err = s1.Open(base64.StdEncoding.EncodeToString([]byte("tiny")))
	assert.ErrorIs(t, err, ErrSealedInvalid)

	_, err = NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
