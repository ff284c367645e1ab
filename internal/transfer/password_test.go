package transfer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword()
	require.NoError(t, err)

	assert.Len(t, pw, passwordLength)

	for _, c := range pw {
		assert.True(t, strings.ContainsRune(passwordAlphabet, c),
			"unexpected character %q", c)
	}
}

func TestGeneratePassword_Varies(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 20; i++ {
		pw, err := GeneratePassword()
		require.NoError(t, err)
		seen[pw] = true
	}

	// 20 independent 12-character draws colliding would mean the generator
	// is broken, not unlucky.
	assert.Greater(t, len(seen), 1)
}
