package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/usecase"
	apperrors "github.com/wekeepgrowing/chronam-reader/pkg/errors"
	"go.uber.org/zap"
)

// maxWebhookBody bounds the Stripe payload read into memory.
const maxWebhookBody = 1 << 20

type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*usecase.WebhookResult, error)
}

type WebhookHandler struct {
	reconciler WebhookProcessor
	logger     *zap.Logger
}

func NewWebhookHandler(reconciler WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, logger: logger}
}

// HandleStripe handles POST /api/webhooks/stripe. The body must be read raw,
// signature verification runs over the exact bytes Stripe sent.
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Error reading request body", err)
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	result, err := h.reconciler.HandleWebhook(c.Request().Context(), body, sig)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidSignature), errors.Is(err, domainErrors.ErrMalformedEvent):
			return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Webhook Error: "+err.Error(), err)
		case errors.Is(err, domainErrors.ErrProfileNotFound):
			return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Webhook Error: "+err.Error(), err)
		default:
			appErr := apperrors.NewAppError(apperrors.ErrInternal, "Webhook handler failed: "+err.Error(), err)
			apperrors.LogError(h.logger, appErr, "Stripe webhook processing failed, Stripe will retry")
			return appErr
		}
	}

	return c.JSON(http.StatusOK, result)
}
