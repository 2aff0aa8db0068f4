package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/provider"
	"go.uber.org/zap"
)

// StripeProvider implements provider.BillingProvider on the Stripe API.
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeProvider creates a Stripe provider. backends may be nil to use
// the public Stripe endpoints.
func NewStripeProvider(secretKey string, backends *stripe.Backends, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		api:    client.New(secretKey, backends),
		logger: logger,
	}
}

// GetSubscription fetches the subscription with its line item prices expanded.
func (s *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*entity.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("items.data.price")

	sub, err := s.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		s.logger.Error("Failed to retrieve subscription from Stripe",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve subscription %s: %w", subscriptionID, err)
	}

	return toProviderSubscription(sub), nil
}

// CreateCustomer creates a Stripe customer and returns its id.
func (s *StripeProvider) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	customer, err := s.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("Created Stripe customer",
		zap.String("customer_id", customer.ID))
	return customer.ID, nil
}

// CreateCheckoutSession creates a subscription-mode checkout session and returns its id.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:                 stripe.String(req.CustomerID),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(req.Quantity),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.SubscriptionMetadata,
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.ID, nil
}

// CreatePortalSession creates a billing portal session and returns its URL.
func (s *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create billing portal session: %w", err)
	}
	return session.URL, nil
}

func toProviderSubscription(sub *stripe.Subscription) *entity.ProviderSubscription {
	out := &entity.ProviderSubscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		Created:            sub.Created,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		EndedAt:            sub.EndedAt,
		CancelAt:           sub.CancelAt,
		CanceledAt:         sub.CanceledAt,
		TrialStart:         sub.TrialStart,
		TrialEnd:           sub.TrialEnd,
		Metadata:           sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.Quantity = item.Quantity
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
	}
	return out
}
