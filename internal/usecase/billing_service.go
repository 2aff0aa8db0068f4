package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/chronam-reader/internal/domain/errors"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/provider"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"github.com/wekeepgrowing/chronam-reader/internal/infrastructure/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// supabaseUUIDKey links Stripe objects back to the identity-provider user.
const supabaseUUIDKey = "supabaseUUID"

// CheckoutRequest starts a subscription checkout for the signed-in user.
type CheckoutRequest struct {
	User     *entity.User
	PriceID  string
	Quantity int64
}

// BillingService creates Stripe checkout and billing portal sessions.
type BillingService struct {
	billing provider.BillingProvider
	admin   repository.Store
	scoped  repository.ScopedStoreFactory
	appURL  string
	metrics *metrics.Metrics
	logger  *zap.Logger

	customers singleflight.Group
}

// NewBillingService creates a billing service. appURL is the public base URL
// used for Stripe redirect targets.
func NewBillingService(
	billing provider.BillingProvider,
	admin repository.Store,
	scoped repository.ScopedStoreFactory,
	appURL string,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		billing: billing,
		admin:   admin,
		scoped:  scoped,
		appURL:  strings.TrimRight(appURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// CreateCheckoutSession returns the id of a new subscription checkout
// session. A Stripe customer is created and stored on the profile the first
// time a user checks out; later checkouts reuse it.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if strings.TrimSpace(req.PriceID) == "" {
		return "", domainErrors.ErrMissingPriceID
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		return "", domainErrors.ErrInvalidQuantity
	}
	if s.appURL == "" {
		s.logger.Error("APP_URL is not set; cannot build checkout redirect targets")
		return "", domainErrors.ErrAppURLNotConfigured
	}

	customerID, err := s.ensureCustomer(ctx, req.User)
	if err != nil {
		s.metrics.BillingSession("checkout", "failed")
		return "", err
	}

	s.logger.Info("Creating Stripe checkout session",
		zap.String("user_id", req.User.ID),
		zap.String("customer_id", customerID),
		zap.String("price_id", req.PriceID),
		zap.Int64("quantity", req.Quantity))

	sessionID, err := s.billing.CreateCheckoutSession(ctx, &provider.CheckoutSessionRequest{
		CustomerID:           customerID,
		PriceID:              req.PriceID,
		Quantity:             req.Quantity,
		SuccessURL:           s.appURL + "/account?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:            s.appURL + "/subscribe",
		SubscriptionMetadata: map[string]string{supabaseUUIDKey: req.User.ID},
	})
	if err != nil {
		s.metrics.BillingSession("checkout", "failed")
		s.logger.Error("Failed to create checkout session",
			zap.String("user_id", req.User.ID),
			zap.Error(err))
		return "", err
	}

	s.metrics.BillingSession("checkout", "created")
	return sessionID, nil
}

// ensureCustomer returns the user's Stripe customer id, creating and
// persisting one if the profile has none. Concurrent calls for the same user
// in this process share a single creation.
func (s *BillingService) ensureCustomer(ctx context.Context, user *entity.User) (string, error) {
	v, err, _ := s.customers.Do(user.ID, func() (interface{}, error) {
		profile, err := s.admin.Profiles().GetByID(ctx, user.ID)
		if err != nil {
			return "", fmt.Errorf("failed to load profile: %w", err)
		}
		if profile.HasBillingAccount() {
			return profile.BillingCustomerID(), nil
		}

		customerID, err := s.billing.CreateCustomer(ctx, &provider.CreateCustomerRequest{
			Email:    user.Email,
			Name:     user.Email,
			Metadata: map[string]string{supabaseUUIDKey: user.ID},
		})
		if err != nil {
			return "", err
		}

		if err := s.admin.Profiles().SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			s.logger.Error("Created Stripe customer but failed to store it",
				zap.String("user_id", user.ID),
				zap.String("customer_id", customerID),
				zap.Error(err))
			return "", fmt.Errorf("failed to update profile with Stripe customer ID: %w", err)
		}
		return customerID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// CreatePortalLink returns a billing portal URL for the signed-in user.
func (s *BillingService) CreatePortalLink(ctx context.Context, user *entity.User) (string, error) {
	if s.appURL == "" {
		s.logger.Error("APP_URL is not set; cannot build portal return URL")
		return "", domainErrors.ErrAppURLNotConfigured
	}

	var profile *entity.Profile
	err := s.scoped.WithUser(ctx, user.ID, func(store repository.Store) error {
		var err error
		profile, err = store.Profiles().GetByID(ctx, user.ID)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	if !profile.HasBillingAccount() {
		s.logger.Warn("User has no Stripe customer; cannot create portal link", zap.String("user_id", user.ID))
		return "", domainErrors.ErrNoBillingCustomer
	}

	link, err := s.billing.CreatePortalSession(ctx, profile.BillingCustomerID(), s.appURL+"/account")
	if err != nil {
		s.metrics.BillingSession("portal", "failed")
		s.logger.Error("Failed to create billing portal session",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return "", err
	}

	s.metrics.BillingSession("portal", "created")
	return link, nil
}
