package db

import (
	types "github.com/resummate/resummate-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Chat
		// =========================
		&types.Message{},

		// =========================
		// Documents (one live row per thread per kind)
		// =========================
		&types.Resume{},
		&types.JobDescription{},
	)
}
