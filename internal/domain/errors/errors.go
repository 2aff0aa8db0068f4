package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrProfileNotFound indicates no profile is linked to a Stripe customer or user
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNoBillingCustomer indicates the user has never been attached to a Stripe customer
	ErrNoBillingCustomer = errors.New("stripe customer ID not found for user")

	// ErrMissingEndpoint indicates the proxy request did not name an archive endpoint
	ErrMissingEndpoint = errors.New(`missing required "endpoint" query parameter`)

	// ErrSubscriptionRequired indicates a gated resource was requested without entitlement
	ErrSubscriptionRequired = errors.New("subscription required")

	// ErrInvalidSignature indicates a webhook payload failed verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent indicates a verified webhook event whose object could not be decoded
	ErrMalformedEvent = errors.New("malformed webhook event")

	// ErrMissingPriceID indicates a checkout request named no price
	ErrMissingPriceID = errors.New("missing priceId")

	// ErrInvalidQuantity indicates a checkout quantity below one
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrAppURLNotConfigured indicates redirect targets cannot be built
	ErrAppURLNotConfigured = errors.New("app url is not configured")

	// ErrInvalidCredentials indicates the identity provider rejected a sign-in
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrInvalidToken indicates an access token could not be verified
	ErrInvalidToken = errors.New("invalid access token")

	// ErrTokenExpired indicates an access token is past its expiry
	ErrTokenExpired = errors.New("access token expired")
)

// UpstreamErrorKind classifies an archive fetch failure.
type UpstreamErrorKind string

const (
	UpstreamNotFound    UpstreamErrorKind = "not_found"
	UpstreamTimeout     UpstreamErrorKind = "timeout"
	UpstreamRateLimited UpstreamErrorKind = "rate_limited"
	UpstreamStatus      UpstreamErrorKind = "status"
	UpstreamTransport   UpstreamErrorKind = "transport"
	UpstreamBadPayload  UpstreamErrorKind = "bad_payload"
)

// UpstreamError is returned when the archive API cannot serve a request.
// StatusCode is the upstream HTTP status, or 0 when none was received.
type UpstreamError struct {
	Kind       UpstreamErrorKind
	StatusCode int
	URL        string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("archive upstream %s (status %d) for %s: %v", e.Kind, e.StatusCode, e.URL, e.Cause)
	}
	return fmt.Sprintf("archive upstream %s (status %d) for %s", e.Kind, e.StatusCode, e.URL)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}
