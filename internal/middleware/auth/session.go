package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/usecase"
	apperrors "github.com/wekeepgrowing/chronam-reader/pkg/errors"
	"go.uber.org/zap"
)

type contextKey string

const (
	userContextKey contextKey = "authenticated_user"

	// UserIDKey is the echo context key holding the signed-in user id.
	UserIDKey = "user_id"

	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
)

// Authenticator validates, and when needed renews, a token pair.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken, refreshToken string) (*usecase.AuthResult, error)
}

// SessionConfig configures the request-authentication gate.
type SessionConfig struct {
	// Name is the cookie session name.
	Name      string
	LoginPath string
	// ProtectedPaths are path prefixes that require a signed-in user.
	ProtectedPaths []string
	// PublicPaths are never gated and never touch the session.
	PublicPaths []string
	MaxAge      time.Duration
	Secure      bool
	Logger      *zap.Logger
}

func (c SessionConfig) isPublic(path string) bool {
	for _, p := range c.PublicPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (c SessionConfig) isProtected(path string) bool {
	for _, p := range c.ProtectedPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (c SessionConfig) options() *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionGate attaches the signed-in user to every request it can identify,
// renews expired access tokens, and slides the session cookie expiry.
// Unidentified requests to a protected prefix are redirected to the login
// page with the original path in redirectedFrom.
func SessionGate(cfg SessionConfig, authenticator Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if cfg.isPublic(path) {
				return next(c)
			}

			sess, err := session.Get(cfg.Name, c)
			if err != nil {
				cfg.Logger.Debug("Discarding unreadable session cookie",
					zap.String("path", path),
					zap.Error(err))
			}

			accessToken, _ := sess.Values[accessTokenKey].(string)
			refreshToken, _ := sess.Values[refreshTokenKey].(string)
			fromCookie := accessToken != "" || refreshToken != ""
			if bearer := bearerToken(c.Request()); bearer != "" {
				accessToken = bearer
			}

			var user *entity.User
			if accessToken != "" || refreshToken != "" {
				result, err := authenticator.Authenticate(c.Request().Context(), accessToken, refreshToken)
				switch {
				case err != nil:
					cfg.Logger.Debug("Request not authenticated",
						zap.String("path", path),
						zap.Error(err))
					if fromCookie {
						delete(sess.Values, accessTokenKey)
						delete(sess.Values, refreshTokenKey)
					}
				default:
					user = result.User
					if result.Refreshed != nil {
						setTokens(sess, result.Refreshed)
						cfg.Logger.Debug("Refreshed access token", zap.String("user_id", user.ID))
					}
				}
			}

			if fromCookie {
				sess.Options = cfg.options()
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					cfg.Logger.Warn("Failed to save session", zap.Error(err))
				}
			}

			if user == nil {
				if cfg.isProtected(path) {
					return c.Redirect(http.StatusTemporaryRedirect, loginURL(cfg.LoginPath, path))
				}
				return next(c)
			}

			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			c.Set(UserIDKey, user.ID)

			return next(c)
		}
	}
}

// SaveSession stores a freshly issued token pair in the session cookie.
func SaveSession(c echo.Context, cfg SessionConfig, s *entity.Session) error {
	sess, _ := session.Get(cfg.Name, c)
	setTokens(sess, s)
	sess.Options = cfg.options()
	return sess.Save(c.Request(), c.Response())
}

// ClearSession expires the session cookie and returns the access token it
// held, if any.
func ClearSession(c echo.Context, cfg SessionConfig) (string, error) {
	sess, _ := session.Get(cfg.Name, c)
	accessToken, _ := sess.Values[accessTokenKey].(string)

	sess.Values = make(map[interface{}]interface{})
	opts := cfg.options()
	opts.MaxAge = -1
	sess.Options = opts
	return accessToken, sess.Save(c.Request(), c.Response())
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *entity.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(c echo.Context) (*entity.User, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*entity.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("no authenticated user found in context")
	}
	return user, nil
}

// RequireAuth returns the signed-in user or a 401 error for the handler to return.
func RequireAuth(c echo.Context) (*entity.User, error) {
	user, err := GetUserFromContext(c)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Unauthorized", err)
	}
	return user, nil
}

func setTokens(sess *sessions.Session, s *entity.Session) {
	sess.Values[accessTokenKey] = s.AccessToken
	if s.RefreshToken != "" {
		sess.Values[refreshTokenKey] = s.RefreshToken
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return strings.TrimSpace(token)
}

func loginURL(loginPath, from string) string {
	return loginPath + "?" + url.Values{"redirectedFrom": {from}}.Encode()
}
