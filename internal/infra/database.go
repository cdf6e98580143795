package infra

import (
	"fmt"

	"arcapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and migrates the
// cart_snapshots table. Only CART_STORE=postgres needs it.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the snapshot table. One row per terminal,
// so no secondary indexes are needed.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.CartSnapshot{}); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}
