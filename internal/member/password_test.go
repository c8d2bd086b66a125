// internal/member/password_test.go
package member

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, salt, err := hashPassword("SecurePass123!")
	require.NoError(t, err)

	ok, err := verifyPassword("SecurePass123!", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("WrongPass123!", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordSaltsAreUnique(t *testing.T) {
	_, salt1, err := hashPassword("SecurePass123!")
	require.NoError(t, err)
	_, salt2, err := hashPassword("SecurePass123!")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
}

func TestVerifyPasswordRejectsBadEncoding(t *testing.T) {
	_, err := verifyPassword("SecurePass123!", "not base64!!", "also not base64!!")
	assert.Error(t, err)
}
