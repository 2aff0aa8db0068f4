package http

import (
	"errors"
	"net/http"

	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	apperrors "github.com/wekeepgrowing/chronam-reader/pkg/errors"
	"go.uber.org/zap"
)

const (
	msgInternal            = "Internal Server Error"
	msgConfigurationError  = "Internal Server Configuration Error"
	msgMissingEndpoint     = `Missing required "endpoint" query parameter`
	msgSubscriptionNeeded  = "Subscription required for OCR text access"
	msgUpstreamNotFound    = "Resource not found at Chronicling America"
	msgUpstreamTimeout     = "Request to Chronicling America timed out"
	msgUpstreamRateLimited = "Rate limit exceeded when contacting Chronicling America"
	msgUpstreamFailed      = "Failed to fetch data from Chronicling America"
	msgNoBillingCustomer   = "Stripe customer ID not found for user. Have you subscribed?"
)

// upstreamError maps an archive fetch failure to the response the browser sees.
func upstreamError(err *domainErrors.UpstreamError) error {
	switch err.Kind {
	case domainErrors.UpstreamNotFound:
		return apperrors.NewAppError(apperrors.ErrNotFound, msgUpstreamNotFound, err)
	case domainErrors.UpstreamTimeout:
		return apperrors.NewAppError(apperrors.ErrTimeout, msgUpstreamTimeout, err)
	case domainErrors.UpstreamRateLimited:
		return apperrors.NewAppError(apperrors.ErrRateLimited, msgUpstreamRateLimited, err)
	case domainErrors.UpstreamStatus:
		if err.StatusCode < http.StatusBadRequest {
			return apperrors.NewAppError(apperrors.ErrBadGateway, msgUpstreamFailed, err)
		}
		return apperrors.NewAppError(apperrors.CodeFromHTTPStatus(err.StatusCode), msgUpstreamFailed, err).
			WithStatus(err.StatusCode)
	default:
		return apperrors.NewAppError(apperrors.ErrBadGateway, msgUpstreamFailed, err)
	}
}

// billingError maps checkout and portal failures. Unexpected failures are
// logged with the operation and user.
func billingError(logger *zap.Logger, err error, fields ...zap.Field) error {
	switch {
	case errors.Is(err, domainErrors.ErrAppURLNotConfigured):
		return apperrors.NewAppError(apperrors.ErrInternal, msgConfigurationError, err)
	case errors.Is(err, domainErrors.ErrNoBillingCustomer), errors.Is(err, domainErrors.ErrProfileNotFound):
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, msgNoBillingCustomer, err)
	case errors.Is(err, domainErrors.ErrMissingPriceID):
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Missing priceId", err)
	case errors.Is(err, domainErrors.ErrInvalidQuantity):
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Quantity must be at least 1", err)
	default:
		appErr := apperrors.NewAppError(apperrors.ErrInternal, msgInternal, err)
		apperrors.LogError(logger, appErr, "Billing request failed", fields...)
		return appErr
	}
}
