package repository

import "context"

// Store hands out repositories bound to a database identity.
type Store interface {
	Profiles() ProfileRepository
	Subscriptions() SubscriptionRepository
}

// ScopedStoreFactory runs fn against repositories scoped to the caller, so
// row level security is evaluated for userID.
type ScopedStoreFactory interface {
	WithUser(ctx context.Context, userID string, fn func(Store) error) error
}
