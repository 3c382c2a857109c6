package auth

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPasswordWithCost("Correct-Horse-9", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Correct-Horse-9", hash)

	assert.NoError(t, ComparePassword(hash, "Correct-Horse-9"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPasswordWithCost("", bcrypt.MinCost)
	assert.Error(t, err)
}

func TestComparePassword_EmptyHash(t *testing.T) {
	assert.ErrorIs(t, ComparePassword("", "anything"), ErrPasswordMismatch)
}

func TestGenerateTokenKey(t *testing.T) {
	a, err := GenerateTokenKey()
	require.NoError(t, err)
	b, err := GenerateTokenKey()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, TokenKeyLength)
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("long-enough-password"))
	assert.Error(t, ValidatePassword(strings.Repeat("a", MaxPasswordLength+1)))
}
