package auth_test

import (
	"testing"

	auth "github.com/hbiu/lms-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "password123", hash)

	_, err = auth.HashPassword("")
	require.Error(t, err)
	assert.True(t, auth.IsValidationError(err))
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	assert.NoError(t, auth.ComparePasswordAndHash("password123", hash))

	err = auth.ComparePasswordAndHash("wrong-password", hash)
	require.Error(t, err)
	assert.True(t, auth.IsInvalidCredentialsError(err))
}
