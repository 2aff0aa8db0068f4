package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/provider"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"github.com/wekeepgrowing/chronam-reader/internal/infrastructure/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	CacheStatusHit  = "HIT"
	CacheStatusMiss = "MISS"

	endpointParam = "endpoint"
)

// AccessRule gates archive endpoints behind entitlement.
type AccessRule struct {
	Name                string
	Applies             func(endpoint string) bool
	RequiresEntitlement bool
}

// DefaultAccessRules keeps OCR text for subscribers.
var DefaultAccessRules = []AccessRule{
	{
		Name:                "ocr-text",
		Applies:             func(endpoint string) bool { return strings.HasSuffix(endpoint, "/ocr.txt") },
		RequiresEntitlement: true,
	},
}

// ProxyRequest is one archive request from a signed-in caller.
type ProxyRequest struct {
	// UserID is empty for anonymous callers, who are never entitled.
	UserID string
	// Endpoint is the archive path, e.g. "search/pages/results/".
	Endpoint string
	// Query is forwarded upstream; any endpoint parameter in it is dropped.
	Query url.Values
}

// ProxyResponse is an archive payload with its cache provenance.
type ProxyResponse struct {
	Body        []byte
	ContentType string
	CacheStatus string
	Class       entity.CacheClass
	URL         string
}

// ArchiveProxyConfig tunes an ArchiveProxy.
type ArchiveProxyConfig struct {
	BaseURL        string
	TTL            entity.TTLPolicy
	CoalesceMisses bool
	Rules          []AccessRule
}

// ArchiveProxy serves Chronicling America resources through a shared cache,
// applying the access rules first.
type ArchiveProxy struct {
	subscriptions repository.SubscriptionRepository
	cache         repository.CacheRepository
	archive       provider.ArchiveClient
	cfg           ArchiveProxyConfig
	metrics       *metrics.Metrics
	logger        *zap.Logger

	now   func() time.Time
	group singleflight.Group
}

// NewArchiveProxy creates an ArchiveProxy. metrics may be nil.
func NewArchiveProxy(
	subscriptions repository.SubscriptionRepository,
	cache repository.CacheRepository,
	archive provider.ArchiveClient,
	cfg ArchiveProxyConfig,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *ArchiveProxy {
	if cfg.Rules == nil {
		cfg.Rules = DefaultAccessRules
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &ArchiveProxy{
		subscriptions: subscriptions,
		cache:         cache,
		archive:       archive,
		cfg:           cfg,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// Fetch resolves req against the cache or the archive.
func (p *ArchiveProxy) Fetch(ctx context.Context, req ProxyRequest) (*ProxyResponse, error) {
	endpoint := strings.TrimLeft(strings.TrimSpace(req.Endpoint), "/")
	if endpoint == "" {
		return nil, domainErrors.ErrMissingEndpoint
	}

	if err := p.authorize(ctx, req.UserID, endpoint); err != nil {
		return nil, err
	}

	fullURL := p.buildURL(endpoint, req.Query)
	class := entity.ClassifyEndpoint(endpoint)
	ttl := p.cfg.TTL.TTL(class)

	cached, err := p.cache.Get(ctx, fullURL)
	if err != nil {
		p.logger.Warn("Cache lookup failed, fetching upstream",
			zap.String("url", fullURL),
			zap.Error(err))
	}
	if cached.IsLive(p.now(), ttl) {
		p.metrics.CacheLookup(string(class), CacheStatusHit)
		p.logger.Debug("Archive cache hit", zap.String("url", fullURL), zap.String("class", string(class)))
		return &ProxyResponse{
			Body:        cached.Body,
			ContentType: cached.ContentType,
			CacheStatus: CacheStatusHit,
			Class:       class,
			URL:         fullURL,
		}, nil
	}
	p.metrics.CacheLookup(string(class), CacheStatusMiss)

	entry, err := p.fetchAndStore(context.WithoutCancel(ctx), fullURL, responseMode(endpoint))
	if err != nil {
		return nil, err
	}

	return &ProxyResponse{
		Body:        entry.Body,
		ContentType: entry.ContentType,
		CacheStatus: CacheStatusMiss,
		Class:       class,
		URL:         fullURL,
	}, nil
}

// authorize evaluates the access rules. Entitlement is looked up only when
// a matching rule needs it; a failed lookup counts as not entitled.
func (p *ArchiveProxy) authorize(ctx context.Context, userID, endpoint string) error {
	for _, rule := range p.cfg.Rules {
		if !rule.RequiresEntitlement || !rule.Applies(endpoint) {
			continue
		}
		if !p.entitled(ctx, userID) {
			p.logger.Info("Denying gated archive endpoint",
				zap.String("rule", rule.Name),
				zap.String("endpoint", endpoint),
				zap.String("user_id", userID))
			return domainErrors.ErrSubscriptionRequired
		}
	}
	return nil
}

func (p *ArchiveProxy) entitled(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	ok, err := p.subscriptions.HasEntitlement(ctx, userID)
	if err != nil {
		p.logger.Warn("Entitlement lookup failed, treating caller as not entitled",
			zap.String("user_id", userID),
			zap.Error(err))
		return false
	}
	return ok
}

func (p *ArchiveProxy) buildURL(endpoint string, query url.Values) string {
	forwarded := url.Values{}
	for key, values := range query {
		if key == endpointParam {
			continue
		}
		forwarded[key] = values
	}

	parts := make([]string, 0, 2)
	if encoded := forwarded.Encode(); encoded != "" {
		parts = append(parts, encoded)
	}
	if wantsJSON(endpoint) {
		parts = append(parts, "format=json")
	}

	fullURL := p.cfg.BaseURL + "/" + endpoint
	if len(parts) > 0 {
		fullURL += "?" + strings.Join(parts, "&")
	}
	return fullURL
}

func wantsJSON(endpoint string) bool {
	return responseMode(endpoint) == provider.ResponseJSON
}

// responseMode picks body handling from the resource suffix. Anything that
// is not OCR text, a PDF scan or a JPEG2000 tile is a JSON API resource.
func responseMode(endpoint string) provider.ResponseMode {
	switch {
	case strings.HasSuffix(endpoint, ".txt"):
		return provider.ResponseText
	case strings.HasSuffix(endpoint, ".pdf"), strings.HasSuffix(endpoint, ".jp2"):
		return provider.ResponseBinary
	default:
		return provider.ResponseJSON
	}
}

func (p *ArchiveProxy) fetchAndStore(ctx context.Context, fullURL string, mode provider.ResponseMode) (*entity.CacheEntry, error) {
	if !p.cfg.CoalesceMisses {
		return p.fetch(ctx, fullURL, mode)
	}

	v, err, shared := p.group.Do(fullURL, func() (interface{}, error) {
		return p.fetch(ctx, fullURL, mode)
	})
	if shared {
		p.logger.Debug("Coalesced archive fetch", zap.String("url", fullURL))
	}
	if err != nil {
		return nil, err
	}
	return v.(*entity.CacheEntry), nil
}

func (p *ArchiveProxy) fetch(ctx context.Context, fullURL string, mode provider.ResponseMode) (*entity.CacheEntry, error) {
	start := p.now()
	resp, err := p.archive.Fetch(ctx, fullURL, mode)
	if err != nil {
		p.metrics.UpstreamFetch(upstreamOutcome(err), time.Since(start))
		return nil, err
	}
	p.metrics.UpstreamFetch("ok", time.Since(start))

	entry := &entity.CacheEntry{
		Body:        resp.Body,
		ContentType: resp.ContentType,
		CapturedAt:  p.now(),
	}
	if err := p.cache.Set(ctx, fullURL, entry); err != nil {
		p.logger.Warn("Failed to cache archive response",
			zap.String("url", fullURL),
			zap.Error(err))
	}
	return entry, nil
}

func upstreamOutcome(err error) string {
	var upstream *domainErrors.UpstreamError
	if errors.As(err, &upstream) {
		return string(upstream.Kind)
	}
	return "error"
}
