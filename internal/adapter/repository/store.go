package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type store struct {
	profiles      repository.ProfileRepository
	subscriptions repository.SubscriptionRepository
}

// NewStore binds the profile and subscription repositories to db.
func NewStore(db *gorm.DB, logger *zap.Logger) repository.Store {
	return &store{
		profiles:      NewProfileRepository(db, logger),
		subscriptions: NewSubscriptionRepository(db, logger),
	}
}

func (s *store) Profiles() repository.ProfileRepository           { return s.profiles }
func (s *store) Subscriptions() repository.SubscriptionRepository { return s.subscriptions }

type scopedStoreFactory struct {
	db     *gorm.DB
	role   string
	logger *zap.Logger
}

// NewScopedStoreFactory returns a factory running queries as the signed-in
// user: each call opens a transaction that publishes the user id as the
// request.jwt.claim.sub setting and, when role is set, switches to it for
// the duration of the transaction.
func NewScopedStoreFactory(db *gorm.DB, role string, logger *zap.Logger) repository.ScopedStoreFactory {
	return &scopedStoreFactory{
		db:     db,
		role:   role,
		logger: logger,
	}
}

func (f *scopedStoreFactory) WithUser(ctx context.Context, userID string, fn func(repository.Store) error) error {
	if _, err := uuid.Parse(userID); err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claims := fmt.Sprintf(`{"sub":%q,"role":"authenticated"}`, userID)
		if err := tx.Exec("SELECT set_config('request.jwt.claim.sub', ?, true), set_config('request.jwt.claims', ?, true)", userID, claims).Error; err != nil {
			return fmt.Errorf("failed to set request claims: %w", err)
		}
		if f.role != "" {
			if err := tx.Exec("SET LOCAL ROLE " + quoteIdentifier(f.role)).Error; err != nil {
				return fmt.Errorf("failed to assume role %s: %w", f.role, err)
			}
		}
		return fn(NewStore(tx, f.logger))
	})
}

func quoteIdentifier(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}
		quoted = append(quoted, name[i])
	}
	return string(append(quoted, '"'))
}
