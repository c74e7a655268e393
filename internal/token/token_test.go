package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "authgate/internal/errors"
	"authgate/internal/model"
)

var testUser = &model.User{
	ID:    "8b3f1f60-0c5e-4f6e-9f7d-0d5a2b1c3d4e",
	Email: "alice@example.com",
	Name:  "Alice Doe",
}

func TestService_IssueAndVerify(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tokenString, err := svc.Issue(testUser)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, claims.UserID())
	assert.Equal(t, testUser.Email, claims.Email)
	assert.Equal(t, testUser.Name, claims.Name)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestService_VerifyExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Hour)

	tokenString, err := svc.Issue(testUser)
	require.NoError(t, err)

	_, err = svc.Verify(tokenString)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestService_VerifyTamperedSignature(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tokenString, err := svc.Issue(testUser)
	require.NoError(t, err)

	parts := strings.Split(tokenString, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestService_VerifyWrongSecret(t *testing.T) {
	issuer := NewService("test-secret", time.Hour)
	verifier := NewService("other-secret", time.Hour)

	tokenString, err := issuer.Issue(testUser)
	require.NoError(t, err)

	_, err = verifier.Verify(tokenString)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestService_VerifyMalformed(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Verify(tokenString)
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	}
}
