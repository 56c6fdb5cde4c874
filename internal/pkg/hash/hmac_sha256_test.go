package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256_Compute(t *testing.T) {
	t.Parallel()

	h := NewHMACSHA256("pepper")

	mac := hmac.New(sha256.New, []byte("pepper"))
	mac.Write([]byte("123456" + "abcd"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, h.Compute("123456", "abcd"))
	assert.Len(t, h.Compute("123456", "abcd"), 64)
}

func TestHMACSHA256_HashWithSalt(t *testing.T) {
	t.Parallel()

	h := NewHMACSHA256("pepper")

	t.Run("generates salt when empty", func(t *testing.T) {
		t.Parallel()

		digest, salt, err := h.HashWithSalt("123456", "")
		require.NoError(t, err)
		assert.Len(t, salt, SaltBytes*2)
		assert.Equal(t, h.Compute("123456", salt), digest)
	})

	t.Run("keeps provided salt", func(t *testing.T) {
		t.Parallel()

		digest, salt, err := h.HashWithSalt("123456", "fixed")
		require.NoError(t, err)
		assert.Equal(t, "fixed", salt)
		assert.Equal(t, h.Compute("123456", "fixed"), digest)
	})

	t.Run("fresh salts differ", func(t *testing.T) {
		t.Parallel()

		d1, s1, err := h.HashWithSalt("123456", "")
		require.NoError(t, err)
		d2, s2, err := h.HashWithSalt("123456", "")
		require.NoError(t, err)
		assert.NotEqual(t, s1, s2)
		assert.NotEqual(t, d1, d2)
	})
}

func TestHMACSHA256_VerifyWithSalt(t *testing.T) {
	t.Parallel()

	h := NewHMACSHA256("pepper")
	code := "A1b2C3"

	digest, salt, err := h.HashWithSalt(code, "")
	require.NoError(t, err)

	assert.True(t, h.VerifyWithSalt(code, digest, salt))
	assert.False(t, h.VerifyWithSalt(code, digest, salt+"0"))
	assert.False(t, h.VerifyWithSalt(code, digest[:len(digest)-1], salt))
	assert.False(t, NewHMACSHA256("other").VerifyWithSalt(code, digest, salt))

	runes := []rune(code)
	for i := range runes {
		mutated := make([]rune, len(runes))
		copy(mutated, runes)
		mutated[i] = 'z'
		assert.False(t, h.VerifyWithSalt(string(mutated), digest, salt), "mutation at %d verified", i)
	}
}
