package provider

import (
	"context"
	"time"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
)

// BillingProvider is the subset of the Stripe API the gateway calls.
type BillingProvider interface {
	// GetSubscription fetches the canonical subscription with its price expanded.
	GetSubscription(ctx context.Context, subscriptionID string) (*entity.ProviderSubscription, error)
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (string, error)
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// WebhookVerifier authenticates a raw webhook payload and narrows it to a BillingEvent.
type WebhookVerifier interface {
	VerifyEvent(payload []byte, signature string) (entity.BillingEvent, error)
}

// CreateCustomerRequest describes a new Stripe customer.
type CreateCustomerRequest struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// CheckoutSessionRequest describes a subscription checkout session.
type CheckoutSessionRequest struct {
	CustomerID           string
	PriceID              string
	Quantity             int64
	SuccessURL           string
	CancelURL            string
	SubscriptionMetadata map[string]string
}

// IdentityProvider is the Supabase auth surface used by the gateway.
type IdentityProvider interface {
	// VerifyAccessToken validates a JWT locally and returns its user.
	VerifyAccessToken(token string) (*entity.User, time.Time, error)
	SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*entity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// ArchiveResponse is a successful upstream archive response.
type ArchiveResponse struct {
	Body        []byte
	ContentType string
}

// ResponseMode says how an archive body is checked and labelled.
type ResponseMode int

const (
	// ResponseJSON bodies must be valid JSON.
	ResponseJSON ResponseMode = iota
	// ResponseText bodies are OCR text, passed through as is.
	ResponseText
	// ResponseBinary bodies (PDF scans, JPEG2000 tiles) are passed through
	// with the upstream content type.
	ResponseBinary
)

// ArchiveClient fetches fully-resolved archive URLs.
type ArchiveClient interface {
	Fetch(ctx context.Context, url string, mode ResponseMode) (*ArchiveResponse, error)
}
