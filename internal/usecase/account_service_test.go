package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"go.uber.org/zap"
)

func TestGetAccount(t *testing.T) {
	t.Run("first visit creates profile", func(t *testing.T) {
		scoped := &scopedStub{store: newMockStore()}
		scoped.store.profiles.On("Ensure", mock.Anything, testUserID, (*string)(nil)).Return(&entity.Profile{ID: testUserID}, nil)
		scoped.store.subscriptions.On("GetLatestForUser", mock.Anything, testUserID).Return(nil, nil)

		view, err := NewAccountService(scoped, zap.NewNop()).GetAccount(context.Background(), testUser)
		require.NoError(t, err)

		assert.Equal(t, testUser, view.User)
		assert.Equal(t, testUserID, view.Profile.ID)
		assert.Nil(t, view.Subscription)
		assert.False(t, view.HasBillingAccount)
		assert.False(t, view.Entitled)
		assert.Equal(t, []string{testUserID}, scoped.users)
	})

	t.Run("subscriber", func(t *testing.T) {
		scoped := &scopedStub{store: newMockStore()}
		scoped.store.profiles.On("Ensure", mock.Anything, testUserID, (*string)(nil)).Return(linkedProfile(), nil)
		scoped.store.subscriptions.On("GetLatestForUser", mock.Anything, testUserID).
			Return(&entity.Subscription{ID: "sub_1", Status: entity.SubscriptionStatusTrialing}, nil)

		view, err := NewAccountService(scoped, zap.NewNop()).GetAccount(context.Background(), testUser)
		require.NoError(t, err)

		assert.True(t, view.HasBillingAccount)
		assert.True(t, view.Entitled)
		assert.Equal(t, "sub_1", view.Subscription.ID)
	})

	t.Run("store failure", func(t *testing.T) {
		scoped := &scopedStub{store: newMockStore()}
		scoped.store.profiles.On("Ensure", mock.Anything, testUserID, (*string)(nil)).Return(nil, errors.New("boom"))

		_, err := NewAccountService(scoped, zap.NewNop()).GetAccount(context.Background(), testUser)
		assert.Error(t, err)
	})
}
