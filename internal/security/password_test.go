package security

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	h := NewPasswordHasher(MinPBKDF2Iterations)

	hash, salt, err := h.Hash("correct horse", "")
	require.NoError(t, err)
	assert.Len(t, salt, 32)
	raw, err := hex.DecodeString(hash)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	assert.True(t, h.Verify("correct horse", hash, salt))
	assert.False(t, h.Verify("battery staple", hash, salt))
}

func TestHashDeterministicForSalt(t *testing.T) {
	h := NewPasswordHasher(MinPBKDF2Iterations)

	a, _, err := h.Hash("secret", "00112233445566778899aabbccddeeff")
	require.NoError(t, err)
	b, _, err := h.Hash("secret", "00112233445566778899aabbccddeeff")
	require.NoError(t, err)
	c, _, err := h.Hash("secret", "ffeeddccbbaa99887766554433221100")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFreshSaltsDiffer(t *testing.T) {
	h := NewPasswordHasher(MinPBKDF2Iterations)
	h1, s1, err := h.Hash("same", "")
	require.NoError(t, err)
	h2, s2, err := h.Hash("same", "")
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := NewPasswordHasher(MinPBKDF2Iterations)
	assert.False(t, h.Verify("pw", "not-hex", "abcd"))
	assert.False(t, h.Verify("pw", "abcd", "abcd"))
	assert.False(t, h.Verify("pw", "", ""))
}

func TestIterationFloor(t *testing.T) {
	assert.Equal(t, DefaultPBKDF2Iterations, NewPasswordHasher(0).Iterations())
	assert.Equal(t, MinPBKDF2Iterations, NewPasswordHasher(10).Iterations())
	assert.Equal(t, 250000, NewPasswordHasher(250000).Iterations())
}
