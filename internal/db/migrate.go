package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-quotes/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for all models.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Product{}, "Fabrics", &models.ProductFabric{}); err != nil {
		return fmt.Errorf("setup product_fabrics: %w", err)
	}
	return db.AutoMigrate(
		// Auth & allow-list
		&models.User{},
		&models.AuthorizedUser{},
		// Catalog
		&models.Product{},
		&models.Fabric{},
		&models.ProductFabric{},
		// Quotes
		&models.Quote{},
		&models.QuoteItem{},
	)
}

// MigrateSQL applies the versioned SQL files in dir (e.g. "migrations") with golang-migrate.
// Only PostgreSQL URLs are supported.
func MigrateSQL(dir, databaseURL string) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
