package usecase

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/provider"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"github.com/wekeepgrowing/chronam-reader/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// WebhookResult is the acknowledgement returned to Stripe.
type WebhookResult struct {
	Received bool   `json:"received"`
	Message  string `json:"message,omitempty"`
}

// SubscriptionReconciler mirrors Stripe subscription state into the local
// subscriptions table. It runs with the admin store.
type SubscriptionReconciler struct {
	verifier provider.WebhookVerifier
	billing  provider.BillingProvider
	store    repository.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewSubscriptionReconciler creates a reconciler. metrics may be nil.
func NewSubscriptionReconciler(
	verifier provider.WebhookVerifier,
	billing provider.BillingProvider,
	store repository.Store,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *SubscriptionReconciler {
	return &SubscriptionReconciler{
		verifier: verifier,
		billing:  billing,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleWebhook verifies a raw delivery and applies it. Errors wrapping
// ErrInvalidSignature, ErrMalformedEvent or ErrProfileNotFound are permanent;
// any other error should make Stripe retry.
func (r *SubscriptionReconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := r.verifier.VerifyEvent(payload, signature)
	if err != nil {
		r.metrics.WebhookEvent("unverified", "rejected")
		r.logger.Warn("Rejected Stripe webhook", zap.Error(err))
		return nil, err
	}

	r.logger.Info("Received verified Stripe event",
		zap.String("event_id", event.EventID()),
		zap.String("event_type", event.EventType()))

	result, err := r.Dispatch(ctx, event)
	switch {
	case err != nil:
		r.metrics.WebhookEvent(event.EventType(), "failed")
	case result.Message != "":
		r.metrics.WebhookEvent(event.EventType(), "ignored")
	default:
		r.metrics.WebhookEvent(event.EventType(), "reconciled")
	}
	return result, err
}

// Dispatch applies a verified event.
func (r *SubscriptionReconciler) Dispatch(ctx context.Context, event entity.BillingEvent) (*WebhookResult, error) {
	switch e := event.(type) {
	case entity.InvoicePaymentSucceeded:
		if e.SubscriptionID == "" {
			r.logger.Warn("Invoice payment without a subscription",
				zap.String("invoice_id", e.InvoiceID))
			return ignored("Handled non-subscription invoice payment."), nil
		}
		return r.reconcile(ctx, e.SubscriptionID, e.CustomerID)

	case entity.SubscriptionUpdated:
		return r.reconcile(ctx, e.SubscriptionID, e.CustomerID)

	case entity.SubscriptionDeleted:
		return r.reconcile(ctx, e.SubscriptionID, e.CustomerID)

	case entity.CheckoutSessionCompleted:
		if !e.IsSubscription() {
			r.logger.Info("Ignoring non-subscription checkout session",
				zap.String("session_id", e.SessionID),
				zap.String("mode", e.Mode))
			return ignored("Ignoring non-subscription checkout session."), nil
		}
		return r.reconcile(ctx, e.SubscriptionID, e.CustomerID)

	default:
		r.logger.Info("Unhandled Stripe event type", zap.String("event_type", event.EventType()))
		return ignored(fmt.Sprintf("Unhandled event type: %s", event.EventType())), nil
	}
}

// Reconcile re-fetches subscriptionID from Stripe and upserts it for the
// user owning customerID. Safe to repeat.
func (r *SubscriptionReconciler) Reconcile(ctx context.Context, subscriptionID, customerID string) error {
	_, err := r.reconcile(ctx, subscriptionID, customerID)
	return err
}

func (r *SubscriptionReconciler) reconcile(ctx context.Context, subscriptionID, customerID string) (*WebhookResult, error) {
	log := r.logger.With(
		zap.String("subscription_id", subscriptionID),
		zap.String("customer_id", customerID))

	var canonical *entity.ProviderSubscription
	if customerID == "" {
		sub, err := r.billing.GetSubscription(ctx, subscriptionID)
		if err != nil {
			log.Error("Failed to retrieve subscription from Stripe", zap.Error(err))
			return nil, fmt.Errorf("could not retrieve subscription from Stripe: %w", err)
		}
		canonical = sub
		customerID = sub.CustomerID
	}

	profile, err := r.store.Profiles().GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		log.Error("Failed to look up profile for customer", zap.Error(err))
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if profile == nil {
		log.Warn("No profile linked to Stripe customer")
		return nil, fmt.Errorf("%w for customer %s", domainErrors.ErrProfileNotFound, customerID)
	}

	if canonical == nil {
		canonical, err = r.billing.GetSubscription(ctx, subscriptionID)
		if err != nil {
			log.Error("Failed to retrieve subscription from Stripe", zap.Error(err))
			return nil, fmt.Errorf("could not retrieve subscription from Stripe: %w", err)
		}
	}

	subscription := canonical.ToSubscription(profile.ID)
	if err := r.store.Subscriptions().Upsert(ctx, subscription); err != nil {
		log.Error("Failed to upsert subscription", zap.String("user_id", profile.ID), zap.Error(err))
		return nil, fmt.Errorf("database update failed: %w", err)
	}

	log.Info("Reconciled subscription",
		zap.String("user_id", profile.ID),
		zap.String("status", string(subscription.Status)))
	return &WebhookResult{Received: true}, nil
}

func ignored(message string) *WebhookResult {
	return &WebhookResult{Received: true, Message: message}
}
