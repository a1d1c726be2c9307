package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agentsearch/internal/auditlog"
	"agentsearch/internal/config"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	// Auto-migrate audit tables
	if err := auditlog.Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
