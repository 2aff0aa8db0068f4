package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/middleware/auth"
	"github.com/wekeepgrowing/chronam-reader/internal/usecase"
	apperrors "github.com/wekeepgrowing/chronam-reader/pkg/errors"
	"go.uber.org/zap"
)

type AccountReader interface {
	GetAccount(ctx context.Context, user *entity.User) (*usecase.AccountView, error)
}

type AccountHandler struct {
	accounts AccountReader
	logger   *zap.Logger
}

func NewAccountHandler(accounts AccountReader, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Dashboard handles GET /dashboard.
func (h *AccountHandler) Dashboard(c echo.Context) error {
	view, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":         view.User,
		"profile":      view.Profile,
		"subscription": view.Subscription,
	})
}

// Account handles GET /account, which is also the checkout success target.
func (h *AccountHandler) Account(c echo.Context) error {
	view, err := h.load(c)
	if err != nil {
		return err
	}
	if sessionID := c.QueryParam("session_id"); sessionID != "" {
		return c.JSON(http.StatusOK, echo.Map{
			"user":              view.User,
			"profile":           view.Profile,
			"subscription":      view.Subscription,
			"hasBillingAccount": view.HasBillingAccount,
			"entitled":          view.Entitled,
			"checkoutSessionId": sessionID,
		})
	}
	return c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) load(c echo.Context) (*usecase.AccountView, error) {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return nil, err
	}
	view, err := h.accounts.GetAccount(c.Request().Context(), user)
	if err != nil {
		appErr := apperrors.NewAppError(apperrors.ErrInternal, "Failed to load account", err)
		apperrors.LogError(h.logger, appErr, "Account view failed", zap.String("user_id", user.ID))
		return nil, appErr
	}
	return view, nil
}
