package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"go.uber.org/zap"
)

// Client talks to the Supabase auth (GoTrue) REST API and verifies the
// access tokens it issues.
type Client struct {
	client    *http.Client
	baseURL   string
	anonKey   string
	jwtSecret []byte
	logger    *zap.Logger
}

// NewClient creates a Supabase auth client.
func NewClient(baseURL, anonKey, jwtSecret string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		anonKey:   anonKey,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// VerifyAccessToken validates an HS256 access token and returns its user and
// expiry. An expired but otherwise valid token yields ErrTokenExpired.
func (c *Client) VerifyAccessToken(token string) (*entity.User, time.Time, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, time.Time{}, domainErrors.ErrTokenExpired
		}
		return nil, time.Time{}, fmt.Errorf("%w: %v", domainErrors.ErrInvalidToken, err)
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: subject is not a uuid", domainErrors.ErrInvalidToken)
	}

	user := &entity.User{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
	}
	return user, claims.ExpiresAt.Time, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	body := map[string]string{"email": email, "password": password}

	session, status, err := c.tokenGrant(ctx, "password", body)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidCredentials, err)
		}
		return nil, err
	}
	return session, nil
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*entity.Session, error) {
	body := map[string]string{"refresh_token": refreshToken}

	session, status, err := c.tokenGrant(ctx, "refresh_token", body)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidToken, err)
		}
		return nil, err
	}
	return session, nil
}

// SignOut revokes the session owning accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call logout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout failed with status %d: %s", resp.StatusCode, readError(resp.Body))
	}
	return nil
}

func (c *Client) tokenGrant(ctx context.Context, grantType string, body map[string]string) (*entity.Session, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode token request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/auth/v1/token?grant_type=%s", c.baseURL, grantType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create token request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Supabase token request failed",
			zap.String("grant_type", grantType),
			zap.Error(err))
		return nil, 0, fmt.Errorf("failed to call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readError(resp.Body)
		c.logger.Warn("Supabase token request rejected",
			zap.String("grant_type", grantType),
			zap.Int("status_code", resp.StatusCode),
			zap.String("error", msg))
		return nil, resp.StatusCode, fmt.Errorf("token grant %s rejected with status %d: %s", grantType, resp.StatusCode, msg)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, resp.StatusCode, errors.New("token response carried no access token")
	}

	session := &entity.Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	switch {
	case token.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(token.ExpiresAt, 0).UTC()
	case token.ExpiresIn > 0:
		session.ExpiresAt = time.Now().UTC().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	if token.User != nil {
		session.User = &entity.User{ID: token.User.ID, Email: token.User.Email, Role: token.User.Role}
	}
	return session, resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
}

func readError(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return err.Error()
	}

	var e errorResponse
	if json.Unmarshal(raw, &e) == nil {
		switch {
		case e.ErrorDescription != "":
			return e.ErrorDescription
		case e.Message != "":
			return e.Message
		case e.Error != "":
			return e.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
