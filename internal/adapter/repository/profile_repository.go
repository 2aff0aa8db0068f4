package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/model"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB, logger *zap.Logger) repository.ProfileRepository {
	return &profileRepository{
		db:     db,
		logger: logger,
	}
}

func (r *profileRepository) modelToEntity(m *model.Profile) *entity.Profile {
	if m == nil {
		return nil
	}
	return &entity.Profile{
		ID:               m.ID.String(),
		FullName:         m.FullName,
		StripeCustomerID: m.StripeCustomerID,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (r *profileRepository) GetByID(ctx context.Context, userID string) (*entity.Profile, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	var profile model.Profile
	err = r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return r.modelToEntity(&profile), nil
}

func (r *profileRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*entity.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", stripeCustomerID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get profile by Stripe customer ID",
			zap.String("stripe_customer_id", stripeCustomerID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return r.modelToEntity(&profile), nil
}

func (r *profileRepository) Ensure(ctx context.Context, userID string, fullName *string) (*entity.Profile, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	profile := model.Profile{ID: id, FullName: fullName}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	return r.GetByID(ctx, userID)
}

func (r *profileRepository) SetStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	profile := model.Profile{ID: id, StripeCustomerID: &stripeCustomerID}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"stripe_customer_id": stripeCustomerID, "updated_at": gorm.Expr("now()")}),
		}).
		Create(&profile).Error
	if err != nil {
		r.logger.Error("Failed to attach Stripe customer to profile",
			zap.String("user_id", userID),
			zap.String("stripe_customer_id", stripeCustomerID),
			zap.Error(err))
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
