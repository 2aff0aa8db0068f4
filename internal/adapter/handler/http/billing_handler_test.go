package http

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/usecase"
	"go.uber.org/zap"
)

func TestBillingHandler_CreateCheckoutSession(t *testing.T) {
	billing := new(mockBillingSessions)
	billing.On("CreateCheckoutSession", mock.Anything, usecase.CheckoutRequest{
		User:     testUser,
		PriceID:  "price_monthly",
		Quantity: 2,
	}).Return("cs_test_123", nil)

	h := NewBillingHandler(billing, "pk_test", zap.NewNop())
	c, rec := newContext(newEcho(), http.MethodPost, "/api/checkout-sessions",
		strings.NewReader(`{"priceId":"price_monthly","quantity":2}`), testUser)

	require.NoError(t, h.CreateCheckoutSession(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessionId":"cs_test_123"}`, rec.Body.String())
	billing.AssertExpectations(t)
}

func TestBillingHandler_CreateCheckoutSession_Validation(t *testing.T) {
	h := NewBillingHandler(new(mockBillingSessions), "pk_test", zap.NewNop())

	t.Run("unauthenticated", func(t *testing.T) {
		c, _ := newContext(newEcho(), http.MethodPost, "/api/checkout-sessions",
			strings.NewReader(`{"priceId":"price_monthly"}`), nil)
		assertHTTPError(t, h.CreateCheckoutSession(c), http.StatusUnauthorized, "Unauthorized")
	})

	t.Run("missing price", func(t *testing.T) {
		c, _ := newContext(newEcho(), http.MethodPost, "/api/checkout-sessions",
			strings.NewReader(`{"quantity":1}`), testUser)
		assertHTTPError(t, h.CreateCheckoutSession(c), http.StatusBadRequest, "Missing priceId")
	})

	t.Run("malformed body", func(t *testing.T) {
		c, _ := newContext(newEcho(), http.MethodPost, "/api/checkout-sessions",
			strings.NewReader(`{"priceId":`), testUser)
		assertHTTPError(t, h.CreateCheckoutSession(c), http.StatusBadRequest, "Invalid request body")
	})
}

func TestBillingHandler_CreateCheckoutSession_UsecaseErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"bad quantity", domainErrors.ErrInvalidQuantity, http.StatusBadRequest, "Quantity must be at least 1"},
		{"no app url", domainErrors.ErrAppURLNotConfigured, http.StatusInternalServerError, "Internal Server Configuration Error"},
		{"stripe down", errors.New("stripe: 500"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			billing := new(mockBillingSessions)
			billing.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return("", tt.err)

			h := NewBillingHandler(billing, "pk_test", zap.NewNop())
			c, _ := newContext(newEcho(), http.MethodPost, "/api/checkout-sessions",
				strings.NewReader(`{"priceId":"price_monthly","quantity":-1}`), testUser)

			assertHTTPError(t, h.CreateCheckoutSession(c), tt.status, tt.message)
		})
	}
}

func TestBillingHandler_CreatePortalLink(t *testing.T) {
	billing := new(mockBillingSessions)
	billing.On("CreatePortalLink", mock.Anything, testUser).Return("https://billing.stripe.com/p/session/abc", nil)

	h := NewBillingHandler(billing, "pk_test", zap.NewNop())
	c, rec := newContext(newEcho(), http.MethodPost, "/api/portal-links", nil, testUser)

	require.NoError(t, h.CreatePortalLink(c))
	assert.JSONEq(t, `{"url":"https://billing.stripe.com/p/session/abc"}`, rec.Body.String())
}

func TestBillingHandler_CreatePortalLink_NoCustomer(t *testing.T) {
	billing := new(mockBillingSessions)
	billing.On("CreatePortalLink", mock.Anything, testUser).Return("", domainErrors.ErrNoBillingCustomer)

	h := NewBillingHandler(billing, "pk_test", zap.NewNop())
	c, _ := newContext(newEcho(), http.MethodPost, "/api/portal-links", nil, testUser)

	assertHTTPError(t, h.CreatePortalLink(c), http.StatusBadRequest,
		"Stripe customer ID not found for user. Have you subscribed?")
}

func TestBillingHandler_StripeConfig(t *testing.T) {
	h := NewBillingHandler(new(mockBillingSessions), "pk_test_abc", zap.NewNop())
	c, rec := newContext(newEcho(), http.MethodGet, "/api/stripe/config", nil, nil)

	require.NoError(t, h.StripeConfig(c))
	assert.JSONEq(t, `{"publishableKey":"pk_test_abc"}`, rec.Body.String())
}

func TestBillingHandler_ProviderFailureIsLogged(t *testing.T) {
	billing := new(mockBillingSessions)
	billing.On("CreatePortalLink", mock.Anything, testUser).Return("", errors.New("stripe: api_connection_error"))

	log, logs := observedLogger()
	h := NewBillingHandler(billing, "pk_test", log)
	c, _ := newContext(newEcho(), http.MethodPost, "/api/portal-links", nil, testUser)

	assertHTTPError(t, h.CreatePortalLink(c), http.StatusInternalServerError, "Internal Server Error")

	entries := logs.FilterMessage("Billing request failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "portal", fields["operation"])
	assert.Equal(t, testUser.ID, fields["user_id"])
	assert.Equal(t, "INTERNAL", fields["error_code"])
}
