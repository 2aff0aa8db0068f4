package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
)

// WebhookVerifier checks Stripe-Signature headers against the endpoint secret.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a verifier for the given endpoint secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// VerifyEvent authenticates payload and narrows it to a BillingEvent.
// Any verification failure wraps ErrInvalidSignature. A verified event whose
// object does not decode wraps ErrMalformedEvent and is not retryable.
func (v *WebhookVerifier) VerifyEvent(payload []byte, signature string) (entity.BillingEvent, error) {
	if v.secret == "" || signature == "" {
		return nil, fmt.Errorf("%w: missing signature or secret", domainErrors.ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidSignature, err)
	}

	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (entity.BillingEvent, error) {
	meta := entity.EventMeta{ID: event.ID, Type: string(event.Type)}

	switch event.Type {
	case stripe.EventTypeInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, fmt.Errorf("%w: invoice: %v", domainErrors.ErrMalformedEvent, err)
		}
		out := entity.InvoicePaymentSucceeded{EventMeta: meta, InvoiceID: invoice.ID}
		if invoice.Subscription != nil {
			out.SubscriptionID = invoice.Subscription.ID
		}
		if invoice.Customer != nil {
			out.CustomerID = invoice.Customer.ID
		}
		return out, nil

	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", domainErrors.ErrMalformedEvent, err)
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		if event.Type == stripe.EventTypeCustomerSubscriptionDeleted {
			return entity.SubscriptionDeleted{EventMeta: meta, SubscriptionID: sub.ID, CustomerID: customerID}, nil
		}
		return entity.SubscriptionUpdated{EventMeta: meta, SubscriptionID: sub.ID, CustomerID: customerID}, nil

	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", domainErrors.ErrMalformedEvent, err)
		}
		out := entity.CheckoutSessionCompleted{EventMeta: meta, SessionID: session.ID, Mode: string(session.Mode)}
		if session.Subscription != nil {
			out.SubscriptionID = session.Subscription.ID
		}
		if session.Customer != nil {
			out.CustomerID = session.Customer.ID
		}
		return out, nil

	default:
		return entity.UnhandledEvent{EventMeta: meta}, nil
	}
}
