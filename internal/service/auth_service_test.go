package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

func TestIssueAndValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "educonnect-api"}, nil)
	user := &models.User{ID: "t1", Email: "teach@example.com", FirstName: "Tina", LastName: "Gomez", Role: models.RoleTeacher}

	token, expiresAt, err := svc.IssueToken(user)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "Tina Gomez", claims.FullName)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(AuthConfig{Secret: "secret-a", Expiration: time.Hour}, nil)
	verifier := NewAuthService(AuthConfig{Secret: "secret-b", Expiration: time.Hour}, nil)

	token, _, err := issuer.IssueToken(&models.User{ID: "t1", Role: models.RoleTeacher})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret", Expiration: time.Hour}, nil)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
