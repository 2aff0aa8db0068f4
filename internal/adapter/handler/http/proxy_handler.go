package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/middleware/auth"
	"github.com/wekeepgrowing/chronam-reader/internal/usecase"
	apperrors "github.com/wekeepgrowing/chronam-reader/pkg/errors"
	"go.uber.org/zap"
)

// CacheStatusHeader reports whether the archive response came from cache.
const CacheStatusHeader = "X-Cache-Status"

// ArchiveFetcher serves archive requests through the cache.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, req usecase.ProxyRequest) (*usecase.ProxyResponse, error)
}

type ProxyHandler struct {
	proxy  ArchiveFetcher
	logger *zap.Logger
}

func NewProxyHandler(proxy ArchiveFetcher, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{proxy: proxy, logger: logger}
}

// Fetch handles GET /api/chronam-proxy?endpoint=<path>&<query>.
func (h *ProxyHandler) Fetch(c echo.Context) error {
	query := c.QueryParams()

	var userID string
	if user, err := auth.GetUserFromContext(c); err == nil {
		userID = user.ID
	}

	resp, err := h.proxy.Fetch(c.Request().Context(), usecase.ProxyRequest{
		UserID:   userID,
		Endpoint: query.Get("endpoint"),
		Query:    query,
	})
	if err != nil {
		return h.mapError(err)
	}

	c.Response().Header().Set(CacheStatusHeader, resp.CacheStatus)
	return c.Blob(http.StatusOK, resp.ContentType, resp.Body)
}

func (h *ProxyHandler) mapError(err error) error {
	var upstream *domainErrors.UpstreamError
	switch {
	case errors.Is(err, domainErrors.ErrMissingEndpoint):
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, msgMissingEndpoint, err)
	case errors.Is(err, domainErrors.ErrSubscriptionRequired):
		return apperrors.NewAppError(apperrors.ErrUnauthorized, msgSubscriptionNeeded, err)
	case errors.As(err, &upstream):
		h.logger.Warn("Archive upstream failure",
			zap.String("kind", string(upstream.Kind)),
			zap.Int("status", upstream.StatusCode),
			zap.String("url", upstream.URL))
		return upstreamError(upstream)
	default:
		appErr := apperrors.NewAppError(apperrors.ErrInternal, msgInternal, err)
		apperrors.LogError(h.logger, appErr, "Archive proxy failed")
		return appErr
	}
}
