package uid

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Generate(t *testing.T) {
	t.Parallel()

	id, err := uuid.Parse(NewUUID().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestTokenID_Generate(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(`^otp_[A-Za-z0-9_-]{16}$`)
	gen := NewTokenID("otp_", 12)

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := gen.Generate()
		assert.Regexp(t, re, id)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestTokenID_DefaultSize(t *testing.T) {
	t.Parallel()

	assert.Len(t, NewTokenID("", 0).Generate(), 16)
}
