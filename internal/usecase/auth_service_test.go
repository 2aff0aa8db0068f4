package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"go.uber.org/zap"
)

func TestAuthenticate(t *testing.T) {
	exp := time.Now().Add(time.Hour)

	t.Run("valid access token", func(t *testing.T) {
		identity := &MockIdentityProvider{}
		identity.On("VerifyAccessToken", "at").Return(testUser, exp, nil)

		res, err := NewAuthService(identity, zap.NewNop()).Authenticate(context.Background(), "at", "rt")
		require.NoError(t, err)
		assert.Equal(t, testUser, res.User)
		assert.Nil(t, res.Refreshed)
		identity.AssertNotCalled(t, "RefreshSession", mock.Anything, mock.Anything)
	})

	t.Run("expired token is refreshed", func(t *testing.T) {
		identity := &MockIdentityProvider{}
		identity.On("VerifyAccessToken", "at").Return(nil, time.Time{}, domainErrors.ErrTokenExpired)
		identity.On("RefreshSession", mock.Anything, "rt").Return(&entity.Session{AccessToken: "at2", RefreshToken: "rt2"}, nil)
		identity.On("VerifyAccessToken", "at2").Return(testUser, exp, nil)

		res, err := NewAuthService(identity, zap.NewNop()).Authenticate(context.Background(), "at", "rt")
		require.NoError(t, err)
		assert.Equal(t, testUser, res.User)
		require.NotNil(t, res.Refreshed)
		assert.Equal(t, "at2", res.Refreshed.AccessToken)
		assert.Equal(t, "rt2", res.Refreshed.RefreshToken)
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		identity := &MockIdentityProvider{}
		identity.On("VerifyAccessToken", "at").Return(nil, time.Time{}, domainErrors.ErrTokenExpired)

		_, err := NewAuthService(identity, zap.NewNop()).Authenticate(context.Background(), "at", "")
		assert.ErrorIs(t, err, domainErrors.ErrTokenExpired)
	})

	t.Run("forged token is not refreshed", func(t *testing.T) {
		identity := &MockIdentityProvider{}
		identity.On("VerifyAccessToken", "forged").Return(nil, time.Time{}, domainErrors.ErrInvalidToken)

		_, err := NewAuthService(identity, zap.NewNop()).Authenticate(context.Background(), "forged", "rt")
		assert.ErrorIs(t, err, domainErrors.ErrInvalidToken)
		identity.AssertNotCalled(t, "RefreshSession", mock.Anything, mock.Anything)
	})

	t.Run("no tokens", func(t *testing.T) {
		_, err := NewAuthService(&MockIdentityProvider{}, zap.NewNop()).Authenticate(context.Background(), "", "")
		assert.ErrorIs(t, err, domainErrors.ErrInvalidToken)
	})

	t.Run("refresh rejected", func(t *testing.T) {
		identity := &MockIdentityProvider{}
		identity.On("RefreshSession", mock.Anything, "rt").Return(nil, domainErrors.ErrInvalidToken)

		_, err := NewAuthService(identity, zap.NewNop()).Authenticate(context.Background(), "", "rt")
		assert.ErrorIs(t, err, domainErrors.ErrInvalidToken)
	})
}

func TestLogin(t *testing.T) {
	t.Run("fills user from token", func(t *testing.T) {
		identity := &MockIdentityProvider{}
		identity.On("SignInWithPassword", mock.Anything, "reader@example.com", "pw").Return(&entity.Session{AccessToken: "at"}, nil)
		identity.On("VerifyAccessToken", "at").Return(testUser, time.Now().Add(time.Hour), nil)

		session, err := NewAuthService(identity, zap.NewNop()).Login(context.Background(), " reader@example.com ", "pw")
		require.NoError(t, err)
		assert.Equal(t, testUser, session.User)
	})

	t.Run("bad credentials", func(t *testing.T) {
		identity := &MockIdentityProvider{}
		identity.On("SignInWithPassword", mock.Anything, "reader@example.com", "nope").Return(nil, domainErrors.ErrInvalidCredentials)

		_, err := NewAuthService(identity, zap.NewNop()).Login(context.Background(), "reader@example.com", "nope")
		assert.ErrorIs(t, err, domainErrors.ErrInvalidCredentials)
	})
}

func TestLogout_SwallowsProviderErrors(t *testing.T) {
	identity := &MockIdentityProvider{}
	identity.On("SignOut", mock.Anything, "at").Return(errors.New("network down"))

	assert.NotPanics(t, func() {
		NewAuthService(identity, zap.NewNop()).Logout(context.Background(), "at")
	})
	identity.AssertExpectations(t)

	NewAuthService(identity, zap.NewNop()).Logout(context.Background(), "")
	identity.AssertNumberOfCalls(t, "SignOut", 1)
}
