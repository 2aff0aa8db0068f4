package usecase

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"go.uber.org/zap"
)

// AccountView is what a signed-in user sees on the dashboard and account pages.
type AccountView struct {
	User              *entity.User         `json:"user"`
	Profile           *entity.Profile      `json:"profile"`
	Subscription      *entity.Subscription `json:"subscription"`
	HasBillingAccount bool                 `json:"hasBillingAccount"`
	Entitled          bool                 `json:"entitled"`
}

// AccountService reads the caller's own profile and subscription under row
// level security.
type AccountService struct {
	scoped repository.ScopedStoreFactory
	logger *zap.Logger
}

// NewAccountService creates an account service.
func NewAccountService(scoped repository.ScopedStoreFactory, logger *zap.Logger) *AccountService {
	return &AccountService{scoped: scoped, logger: logger}
}

// GetAccount returns the caller's view, creating the profile on first visit.
func (s *AccountService) GetAccount(ctx context.Context, user *entity.User) (*AccountView, error) {
	view := &AccountView{User: user}

	err := s.scoped.WithUser(ctx, user.ID, func(store repository.Store) error {
		profile, err := store.Profiles().Ensure(ctx, user.ID, nil)
		if err != nil {
			return err
		}
		view.Profile = profile

		sub, err := store.Subscriptions().GetLatestForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		view.Subscription = sub
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to load account", zap.String("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	view.HasBillingAccount = view.Profile.HasBillingAccount()
	view.Entitled = view.Subscription != nil && view.Subscription.Status.GrantsAccess()
	return view, nil
}
