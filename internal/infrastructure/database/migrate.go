package database

import (
	"fmt"
	"strings"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate bootstraps the profiles/subscriptions schema on a bare Postgres.
// Supabase-hosted databases already carry it and must not run this.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	if err := db.AutoMigrate(&model.Profile{}, &model.Subscription{}); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func createCustomTypes(db *gorm.DB) error {
	var exists bool
	if err := db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'subscription_status')`).Scan(&exists).Error; err != nil {
		return err
	}
	if exists {
		return nil
	}
	return db.Exec(subscriptionStatusEnumSQL()).Error
}

func subscriptionStatusEnumSQL() string {
	labels := make([]string, 0, len(entity.AllSubscriptionStatuses))
	for _, s := range entity.AllSubscriptionStatuses {
		labels = append(labels, fmt.Sprintf("'%s'", s))
	}
	return fmt.Sprintf("CREATE TYPE subscription_status AS ENUM (%s)", strings.Join(labels, ", "))
}
