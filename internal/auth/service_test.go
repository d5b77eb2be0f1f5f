package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nboxie/backend/internal/storage/memory"
)

func TestAuthService_Register(t *testing.T) {
	service := NewService(memory.NewStore())

	user, err := service.Register(RegisterInput{
		Email:    "Creator@Example.com",
		Password: "Password123!",
		Username: "creator",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	// Email is normalized to lowercase
	assert.Equal(t, "creator@example.com", user.Email)
	assert.Equal(t, "creator", user.Username)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "Password123!", user.PasswordHash)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	service := NewService(memory.NewStore())

	_, err := service.Register(RegisterInput{Email: "not-an-email", Password: "Password123!"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = service.Register(RegisterInput{Email: "creator@example.com", Password: "short"})
	assert.Error(t, err)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	service := NewService(memory.NewStore())

	_, err := service.Register(RegisterInput{Email: "creator@example.com", Password: "Password123!"})
	require.NoError(t, err)

	_, err = service.Register(RegisterInput{Email: "creator@example.com", Password: "Password456!"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_Login(t *testing.T) {
	service := NewService(memory.NewStore())

	registered, err := service.Register(RegisterInput{
		Email:    "creator@example.com",
		Password: "Password123!",
		Username: "creator",
	})
	require.NoError(t, err)

	// Login by email
	user, err := service.Login(LoginInput{Identifier: "creator@example.com", Password: "Password123!"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// Login by username
	user, err = service.Login(LoginInput{Identifier: "creator", Password: "Password123!"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// Wrong password
	_, err = service.Login(LoginInput{Identifier: "creator@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown user
	_, err = service.Login(LoginInput{Identifier: "nobody@example.com", Password: "Password123!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GmailToken(t *testing.T) {
	service := NewService(memory.NewStore())

	user, err := service.Register(RegisterInput{Email: "creator@example.com", Password: "Password123!"})
	require.NoError(t, err)

	// No token yet
	_, _, err = service.GmailToken(user.ID)
	assert.ErrorIs(t, err, ErrNoGmailToken)

	require.NoError(t, service.SaveGmailToken(user.ID, "access-1", "refresh-1"))

	access, refresh, err := service.GmailToken(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-1", access)
	assert.Equal(t, "refresh-1", refresh)

	// Refreshing only the access token keeps the stored refresh token
	require.NoError(t, service.SaveGmailToken(user.ID, "access-2", ""))

	access, refresh, err = service.GmailToken(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", access)
	assert.Equal(t, "refresh-1", refresh)
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("1234567"))
	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword(string(make([]byte, 73))))
}
