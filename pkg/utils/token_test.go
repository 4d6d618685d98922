package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "beacon-tracker/pkg/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "a@example.com", "secret", 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "a@example.com", "secret", 1)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not.a.token", "secret")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Str0ng-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng-pass", hash)

	assert.True(t, CheckPassword(hash, "Str0ng-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Str0ng-pass"))

	for _, weak := range []string{
		"short1A",     // too short
		"alllower1",   // no uppercase
		"ALLUPPER1",   // no lowercase
		"NoNumbersAb", // no digit
	} {
		assert.Error(t, ValidatePassword(weak), weak)
	}
}

func TestValidateAndSanitizeEmail(t *testing.T) {
	email, err := ValidateAndSanitizeEmail("  Tracker@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "tracker@example.com", email)

	_, err = ValidateAndSanitizeEmail("not-an-email")
	assert.Error(t, err)
}
