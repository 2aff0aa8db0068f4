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

type BillingSessions interface {
	CreateCheckoutSession(ctx context.Context, req usecase.CheckoutRequest) (string, error)
	CreatePortalLink(ctx context.Context, user *entity.User) (string, error)
}

type BillingHandler struct {
	billing        BillingSessions
	publishableKey string
	logger         *zap.Logger
}

func NewBillingHandler(billing BillingSessions, publishableKey string, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billing:        billing,
		publishableKey: publishableKey,
		logger:         logger,
	}
}

type CreateCheckoutRequest struct {
	PriceID  string `json:"priceId" validate:"required"`
	Quantity int64  `json:"quantity"`
}

type CreateCheckoutResponse struct {
	SessionID string `json:"sessionId"`
}

type PortalLinkResponse struct {
	URL string `json:"url"`
}

type StripeConfigResponse struct {
	PublishableKey string `json:"publishableKey"`
}

// CreateCheckoutSession handles POST /api/checkout-sessions.
func (h *BillingHandler) CreateCheckoutSession(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Missing priceId", err)
	}

	h.logger.Info("Creating checkout session",
		zap.String("user_id", user.ID),
		zap.String("price_id", req.PriceID),
		zap.Int64("quantity", req.Quantity))

	sessionID, err := h.billing.CreateCheckoutSession(c.Request().Context(), usecase.CheckoutRequest{
		User:     user,
		PriceID:  req.PriceID,
		Quantity: req.Quantity,
	})
	if err != nil {
		return billingError(h.logger, err, zap.String("operation", "checkout"), zap.String("user_id", user.ID))
	}

	return c.JSON(http.StatusOK, CreateCheckoutResponse{SessionID: sessionID})
}

// CreatePortalLink handles POST /api/portal-links.
func (h *BillingHandler) CreatePortalLink(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	url, err := h.billing.CreatePortalLink(c.Request().Context(), user)
	if err != nil {
		return billingError(h.logger, err, zap.String("operation", "portal"), zap.String("user_id", user.ID))
	}

	return c.JSON(http.StatusOK, PortalLinkResponse{URL: url})
}

// StripeConfig handles GET /api/stripe/config for the browser Stripe.js loader.
func (h *BillingHandler) StripeConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, StripeConfigResponse{PublishableKey: h.publishableKey})
}
