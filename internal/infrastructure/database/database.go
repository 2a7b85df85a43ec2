package database

import (
	"bluecarbon-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres/pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for all registry models and seeds the
// singleton control row if missing.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Submission{},
		&domain.AuditEntry{},
		&domain.CreditRecord{},
		&domain.RegistryState{},
	); err != nil {
		return err
	}
	return db.FirstOrCreate(&domain.RegistryState{ID: domain.RegistryStateID}).Error
}
