package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compasshq/compass/pkg/config"
)

func setupAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(setupTestClient(t), &config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alex@Example.com", "Alex Doe", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", u.Email, "email normalized")
	assert.NotEqual(t, "correct horse battery", u.PasswordHash)

	token, logged, err := svc.Login(ctx, "alex@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.NotEmpty(t, token)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dup@example.com", "First", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "dup@example.com", "Second", "password456")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "Name", "password123")
	assert.True(t, IsValidationError(err))

	_, err = svc.Register(ctx, "a@example.com", "", "password123")
	assert.True(t, IsValidationError(err))

	_, err = svc.Register(ctx, "a@example.com", "Name", "short")
	assert.True(t, IsValidationError(err))
}

func TestLoginFailures(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "login@example.com", "Login User", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "login@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "unknown@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenFailures(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "token@example.com", "Token User", "password123")
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "token@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Tampered token fails signature verification
	_, err = svc.ValidateToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Token signed with a different secret is rejected
	other := NewAuthService(nil, &config.AuthConfig{JWTSecret: "other-secret", TokenTTL: time.Hour})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
