package persistence

import (
	"github.com/disciplinario/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables from the GORM models. PostgreSQL
// deployments use the versioned SQL migrations instead; this path serves the
// sqlite driver and tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserModel{},
		&models.DisciplinaryRequestModel{},
	)
}
