package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/middleware/auth"
	apperrors "github.com/wekeepgrowing/chronam-reader/pkg/errors"
	"go.uber.org/zap"
)

const defaultRedirect = "/dashboard"

type SessionIssuer interface {
	Login(ctx context.Context, email, password string) (*entity.Session, error)
	Logout(ctx context.Context, accessToken string)
}

type AuthHandler struct {
	auth    SessionIssuer
	session auth.SessionConfig
	logger  *zap.Logger
}

func NewAuthHandler(issuer SessionIssuer, session auth.SessionConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: issuer, session: session, logger: logger}
}

type LoginRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	RedirectedFrom string `json:"redirectedFrom"`
}

type LoginResponse struct {
	User       *entity.User `json:"user"`
	RedirectTo string       `json:"redirectTo"`
}

type LoginPageResponse struct {
	Action         string `json:"action"`
	RedirectedFrom string `json:"redirectedFrom,omitempty"`
}

// LoginPage handles GET /login. It describes the sign-in form and echoes the
// path the user was bounced from.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, LoginPageResponse{
		Action:         "/auth/login",
		RedirectedFrom: safeRedirect(c.QueryParam("redirectedFrom"), ""),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Email and password are required", err)
	}

	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidCredentials) {
			return apperrors.NewAppError(apperrors.ErrUnauthenticated, "Invalid login credentials", err)
		}
		return apperrors.NewAppError(apperrors.ErrBadGateway, "Could not reach the identity provider", err)
	}

	if err := auth.SaveSession(c, h.session, session); err != nil {
		return apperrors.NewAppError(apperrors.ErrInternal, msgInternal, err)
	}

	h.logger.Info("User signed in", zap.String("user_id", session.User.ID))
	return c.JSON(http.StatusOK, LoginResponse{
		User:       session.User,
		RedirectTo: safeRedirect(req.RedirectedFrom, defaultRedirect),
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	accessToken, err := auth.ClearSession(c, h.session)
	if err != nil {
		h.logger.Warn("Failed to clear session cookie", zap.Error(err))
	}
	h.auth.Logout(c.Request().Context(), accessToken)
	return c.NoContent(http.StatusNoContent)
}

// safeRedirect only accepts same-site absolute paths.
func safeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return fallback
	}
	return target
}
