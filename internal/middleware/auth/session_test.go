package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainerrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/usecase"
	"go.uber.org/zap"
)

type authFunc func(ctx context.Context, access, refresh string) (*usecase.AuthResult, error)

func (f authFunc) Authenticate(ctx context.Context, access, refresh string) (*usecase.AuthResult, error) {
	return f(ctx, access, refresh)
}

var testUser = &entity.User{ID: "8f14e45f-ceea-467f-a0e6-0a5c8e0f3f11", Email: "reader@example.com"}

func testConfig() SessionConfig {
	return SessionConfig{
		Name:           "chronam-session",
		LoginPath:      "/login",
		ProtectedPaths: []string{"/dashboard", "/account", "/api/chronam-proxy", "/api/checkout-sessions", "/api/portal-links"},
		PublicPaths:    []string{"/api/webhooks/stripe"},
		MaxAge:         time.Hour,
		Logger:         zap.NewNop(),
	}
}

func newTestServer(cfg SessionConfig, a Authenticator) *echo.Echo {
	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-session-secret-0123456789ab"))))
	e.Use(SessionGate(cfg, a))

	whoami := func(c echo.Context) error {
		user, err := GetUserFromContext(c)
		if err != nil {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, user.ID)
	}
	e.GET("/dashboard", whoami)
	e.GET("/api/chronam-proxy", whoami)
	e.GET("/login", whoami)
	e.POST("/api/webhooks/stripe", whoami)
	e.GET("/seed", func(c echo.Context) error {
		return SaveSession(c, cfg, &entity.Session{AccessToken: "at1", RefreshToken: "rt1"})
	})
	e.GET("/logout", func(c echo.Context) error {
		token, err := ClearSession(c, cfg)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, token)
	})
	return e
}

func serve(e *echo.Echo, method, target string, cookies []*http.Cookie, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func rejectAll(t *testing.T) Authenticator {
	return authFunc(func(ctx context.Context, access, refresh string) (*usecase.AuthResult, error) {
		t.Fatalf("authenticator should not be called")
		return nil, nil
	})
}

func TestSessionGate_RedirectsAnonymousFromProtectedPath(t *testing.T) {
	e := newTestServer(testConfig(), rejectAll(t))

	rec := serve(e, http.MethodGet, "/dashboard", nil, nil)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?redirectedFrom=%2Fdashboard", rec.Header().Get(echo.HeaderLocation))
}

func TestSessionGate_ProxyPathIsGated(t *testing.T) {
	e := newTestServer(testConfig(), rejectAll(t))

	rec := serve(e, http.MethodGet, "/api/chronam-proxy?endpoint=search", nil, nil)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?redirectedFrom=%2Fapi%2Fchronam-proxy", rec.Header().Get(echo.HeaderLocation))
}

func TestSessionGate_WebhookIsExempt(t *testing.T) {
	e := newTestServer(testConfig(), rejectAll(t))

	rec := serve(e, http.MethodPost, "/api/webhooks/stripe", nil, http.Header{
		echo.HeaderAuthorization: {"Bearer whatever"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
}

func TestSessionGate_UnprotectedPathPassesAnonymous(t *testing.T) {
	e := newTestServer(testConfig(), rejectAll(t))

	rec := serve(e, http.MethodGet, "/login", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestSessionGate_BearerToken(t *testing.T) {
	var gotAccess string
	e := newTestServer(testConfig(), authFunc(func(ctx context.Context, access, refresh string) (*usecase.AuthResult, error) {
		gotAccess = access
		return &usecase.AuthResult{User: testUser}, nil
	}))

	rec := serve(e, http.MethodGet, "/dashboard", nil, http.Header{
		echo.HeaderAuthorization: {"Bearer good-token"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testUser.ID, rec.Body.String())
	assert.Equal(t, "good-token", gotAccess)
}

func TestSessionGate_InvalidBearerRedirects(t *testing.T) {
	e := newTestServer(testConfig(), authFunc(func(ctx context.Context, access, refresh string) (*usecase.AuthResult, error) {
		return nil, domainerrors.ErrInvalidToken
	}))

	rec := serve(e, http.MethodGet, "/account", nil, http.Header{
		echo.HeaderAuthorization: {"Bearer bad"},
	})

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?redirectedFrom=%2Faccount", rec.Header().Get(echo.HeaderLocation))
}

func TestSessionGate_RefreshesAndPersistsTokens(t *testing.T) {
	calls := []string{}
	e := newTestServer(testConfig(), authFunc(func(ctx context.Context, access, refresh string) (*usecase.AuthResult, error) {
		calls = append(calls, access+"/"+refresh)
		if access == "at1" {
			return &usecase.AuthResult{
				User:      testUser,
				Refreshed: &entity.Session{AccessToken: "at2", RefreshToken: "rt2"},
			}, nil
		}
		return &usecase.AuthResult{User: testUser}, nil
	}))

	seed := serve(e, http.MethodGet, "/seed", nil, nil)
	require.Equal(t, http.StatusOK, seed.Code)
	cookies := seed.Result().Cookies()
	require.NotEmpty(t, cookies)

	first := serve(e, http.MethodGet, "/dashboard", cookies, nil)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, testUser.ID, first.Body.String())
	refreshed := first.Result().Cookies()
	require.NotEmpty(t, refreshed, "session cookie should be re-issued")

	second := serve(e, http.MethodGet, "/dashboard", refreshed, nil)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, []string{"at1/rt1", "at2/rt2"}, calls)
}

func TestSessionGate_RejectedCookieIsCleared(t *testing.T) {
	e := newTestServer(testConfig(), authFunc(func(ctx context.Context, access, refresh string) (*usecase.AuthResult, error) {
		return nil, domainerrors.ErrInvalidToken
	}))

	seed := serve(e, http.MethodGet, "/seed", nil, nil)
	cookies := seed.Result().Cookies()

	rec := serve(e, http.MethodGet, "/dashboard", cookies, nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	// The re-issued cookie no longer carries tokens, so the gate skips auth.
	e2 := newTestServer(testConfig(), rejectAll(t))
	again := serve(e2, http.MethodGet, "/login", rec.Result().Cookies(), nil)
	assert.Equal(t, "anonymous", again.Body.String())
}

func TestClearSession_ReturnsTokenAndExpiresCookie(t *testing.T) {
	e := newTestServer(testConfig(), authFunc(func(ctx context.Context, access, refresh string) (*usecase.AuthResult, error) {
		return &usecase.AuthResult{User: testUser}, nil
	}))

	seed := serve(e, http.MethodGet, "/seed", nil, nil)
	rec := serve(e, http.MethodGet, "/logout", seed.Result().Cookies(), nil)

	assert.Equal(t, "at1", rec.Body.String())
	var expired bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "chronam-session" && ck.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired)
}

func TestRequireAuth_NoUser(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	user, err := RequireAuth(c)
	assert.Nil(t, user)
	assert.Error(t, err)
}
