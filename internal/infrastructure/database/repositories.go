package database

import (
	"github.com/wekeepgrowing/chronam-reader/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	// Admin runs with the connection role and bypasses row level security.
	// Only the webhook and checkout paths write through it.
	Admin  domainRepo.Store
	Scoped domainRepo.ScopedStoreFactory
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, scopedRole string, logger *zap.Logger) *Repositories {
	return &Repositories{
		Admin:  repository.NewStore(db, logger),
		Scoped: repository.NewScopedStoreFactory(db, scopedRole, logger),
	}
}
