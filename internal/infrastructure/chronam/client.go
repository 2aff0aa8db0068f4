package chronam

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/provider"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public Chronicling America API.
	DefaultBaseURL = "https://chroniclingamerica.loc.gov"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 32 << 20
)

// Client fetches Chronicling America resources.
type Client struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxBody   int64
	logger    *zap.Logger
}

// NewClient creates an archive client whose requests are bounded by timeout.
func NewClient(timeout time.Duration, userAgent string, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		client:    &http.Client{},
		timeout:   timeout,
		userAgent: userAgent,
		maxBody:   maxBodyBytes,
		logger:    logger,
	}
}

var _ provider.ArchiveClient = (*Client)(nil)

// Fetch GETs url. JSON mode rejects bodies that are not valid JSON; text and
// binary bodies are passed through.
func (c *Client) Fetch(ctx context.Context, url string, mode provider.ResponseMode) (*provider.ArchiveResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domainErrors.UpstreamError{Kind: domainErrors.UpstreamTransport, URL: url, Cause: err}
	}
	req.Header.Set("Accept", acceptHeader(mode))
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		kind := domainErrors.UpstreamTransport
		if isTimeout(err) {
			kind = domainErrors.UpstreamTimeout
		}
		c.logger.Warn("Archive request failed",
			zap.String("url", url),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &domainErrors.UpstreamError{Kind: kind, URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Archive returned an error status",
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode))
		return nil, &domainErrors.UpstreamError{Kind: kindForStatus(resp.StatusCode), StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		kind := domainErrors.UpstreamTransport
		if isTimeout(err) {
			kind = domainErrors.UpstreamTimeout
		}
		return nil, &domainErrors.UpstreamError{Kind: kind, URL: url, Cause: err}
	}
	if int64(len(body)) > c.maxBody {
		c.logger.Warn("Archive response exceeds size limit",
			zap.String("url", url),
			zap.Int64("limit_bytes", c.maxBody))
		return nil, &domainErrors.UpstreamError{
			Kind:  domainErrors.UpstreamBadPayload,
			URL:   url,
			Cause: errResponseTooLarge,
		}
	}

	if mode == provider.ResponseJSON && !json.Valid(body) {
		return nil, &domainErrors.UpstreamError{
			Kind:  domainErrors.UpstreamBadPayload,
			URL:   url,
			Cause: errors.New("response is not valid JSON"),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType(mode)
	}

	c.logger.Debug("Archive request completed",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	return &provider.ArchiveResponse{Body: body, ContentType: contentType}, nil
}

var errResponseTooLarge = errors.New("response exceeds size limit")

func acceptHeader(mode provider.ResponseMode) string {
	switch mode {
	case provider.ResponseText:
		return "text/plain, */*"
	case provider.ResponseBinary:
		return "*/*"
	default:
		return "application/json"
	}
}

func defaultContentType(mode provider.ResponseMode) string {
	switch mode {
	case provider.ResponseText:
		return "text/plain"
	case provider.ResponseBinary:
		return "application/octet-stream"
	default:
		return "application/json"
	}
}

func kindForStatus(status int) domainErrors.UpstreamErrorKind {
	switch status {
	case http.StatusNotFound:
		return domainErrors.UpstreamNotFound
	case http.StatusTooManyRequests:
		return domainErrors.UpstreamRateLimited
	default:
		return domainErrors.UpstreamStatus
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
