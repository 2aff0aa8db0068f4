package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/provider"
	"go.uber.org/zap"
)

// AuthResult is the outcome of authenticating a request. Refreshed is set
// when the access token was renewed and the caller must persist it.
type AuthResult struct {
	User      *entity.User
	Refreshed *entity.Session
}

// AuthService signs users in and out and validates their sessions.
type AuthService struct {
	identity provider.IdentityProvider
	logger   *zap.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(identity provider.IdentityProvider, logger *zap.Logger) *AuthService {
	return &AuthService{identity: identity, logger: logger}
}

// Login exchanges credentials for a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.Session, error) {
	session, err := s.identity.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.logger.Info("Sign-in failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if session.User == nil {
		user, _, err := s.identity.VerifyAccessToken(session.AccessToken)
		if err != nil {
			return nil, err
		}
		session.User = user
	}
	return session, nil
}

// Logout revokes the session at the identity provider. Failures are logged
// and swallowed; the caller clears its cookie either way.
func (s *AuthService) Logout(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("Identity provider sign-out failed", zap.Error(err))
	}
}

// Authenticate validates accessToken, renewing it with refreshToken when it
// has expired. An error means the request is unauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	if accessToken == "" && refreshToken == "" {
		return nil, domainErrors.ErrInvalidToken
	}

	if accessToken != "" {
		user, _, err := s.identity.VerifyAccessToken(accessToken)
		if err == nil {
			return &AuthResult{User: user}, nil
		}
		if !errors.Is(err, domainErrors.ErrTokenExpired) || refreshToken == "" {
			return nil, err
		}
	}

	session, err := s.identity.RefreshSession(ctx, refreshToken)
	if err != nil {
		s.logger.Info("Session refresh failed", zap.Error(err))
		return nil, err
	}

	user, _, err := s.identity.VerifyAccessToken(session.AccessToken)
	if err != nil {
		return nil, err
	}
	session.User = user
	return &AuthResult{User: user, Refreshed: session}, nil
}
