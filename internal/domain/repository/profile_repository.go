package repository

import (
	"context"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
)

// ProfileRepository reads and writes the profiles table.
// Lookups return (nil, nil) when no row matches.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*entity.Profile, error)
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*entity.Profile, error)
	// Ensure inserts a profile for userID if none exists and returns the stored row.
	Ensure(ctx context.Context, userID string, fullName *string) (*entity.Profile, error)
	SetStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error
}
