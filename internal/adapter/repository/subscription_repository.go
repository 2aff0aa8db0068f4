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
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *subscriptionRepository) modelToEntity(m *model.Subscription) *entity.Subscription {
	if m == nil {
		return nil
	}

	metadata := make(map[string]string, len(m.Metadata))
	for k, v := range m.Metadata {
		if s, ok := v.(string); ok {
			metadata[k] = s
		} else {
			metadata[k] = fmt.Sprint(v)
		}
	}

	return &entity.Subscription{
		ID:                 m.ID,
		UserID:             m.UserID.String(),
		Status:             entity.SubscriptionStatus(m.Status),
		PriceID:            m.PriceID,
		Quantity:           m.Quantity,
		CancelAtPeriodEnd:  m.CancelAtPeriodEnd,
		Created:            m.Created,
		CurrentPeriodStart: m.CurrentPeriodStart,
		CurrentPeriodEnd:   m.CurrentPeriodEnd,
		EndedAt:            m.EndedAt,
		CancelAt:           m.CancelAt,
		CanceledAt:         m.CanceledAt,
		TrialStart:         m.TrialStart,
		TrialEnd:           m.TrialEnd,
		Metadata:           metadata,
	}
}

func (r *subscriptionRepository) entityToModel(e *entity.Subscription) (*model.Subscription, error) {
	userID, err := uuid.Parse(e.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", e.UserID, err)
	}

	metadata := make(datatypes.JSONMap, len(e.Metadata))
	for k, v := range e.Metadata {
		metadata[k] = v
	}

	return &model.Subscription{
		ID:                 e.ID,
		UserID:             userID,
		Status:             string(e.Status),
		PriceID:            e.PriceID,
		Quantity:           e.Quantity,
		CancelAtPeriodEnd:  e.CancelAtPeriodEnd,
		Created:            e.Created,
		CurrentPeriodStart: e.CurrentPeriodStart,
		CurrentPeriodEnd:   e.CurrentPeriodEnd,
		EndedAt:            e.EndedAt,
		CancelAt:           e.CancelAt,
		CanceledAt:         e.CanceledAt,
		TrialStart:         e.TrialStart,
		TrialEnd:           e.TrialEnd,
		Metadata:           metadata,
	}, nil
}

// Upsert writes every column, so replaying the same Stripe state is a no-op.
func (r *subscriptionRepository) Upsert(ctx context.Context, subscription *entity.Subscription) error {
	m, err := r.entityToModel(subscription)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(m).Error
	if err != nil {
		r.logger.Error("Failed to upsert subscription",
			zap.String("subscription_id", subscription.ID),
			zap.String("user_id", subscription.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) HasEntitlement(ctx context.Context, userID string) (bool, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return false, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	statuses := make([]string, 0, len(entity.EntitledStatuses))
	for _, s := range entity.EntitledStatuses {
		statuses = append(statuses, string(s))
	}

	var count int64
	err = r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND status IN ?", id, statuses).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check entitlement: %w", err)
	}
	return count > 0, nil
}

func (r *subscriptionRepository) GetLatestForUser(ctx context.Context, userID string) (*entity.Subscription, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	var sub model.Subscription
	err = r.db.WithContext(ctx).
		Where("user_id = ?", id).
		Order("created DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return r.modelToEntity(&sub), nil
}
