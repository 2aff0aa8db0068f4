package repository

import (
	"context"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
)

// SubscriptionRepository mirrors Stripe subscriptions locally.
type SubscriptionRepository interface {
	// Upsert inserts the subscription or replaces every column of the row with the same id.
	Upsert(ctx context.Context, subscription *entity.Subscription) error
	// HasEntitlement reports whether userID owns a subscription in an entitled status.
	HasEntitlement(ctx context.Context, userID string) (bool, error)
	// GetLatestForUser returns the most recently created subscription, or nil.
	GetLatestForUser(ctx context.Context, userID string) (*entity.Subscription, error)
}
