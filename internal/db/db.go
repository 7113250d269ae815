package db

import (
	"log"

	"coachdesk/internal/activity"
	"coachdesk/internal/config"
	"coachdesk/internal/content"
	"coachdesk/internal/evaluation"
	"coachdesk/internal/program"
	"coachdesk/internal/user"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	// Auto-migrate user model
	if err := db.AutoMigrate(&user.User{}); err != nil {
		return err
	}

	// Auto-migrate program structure
	if err := db.AutoMigrate(&program.Program{}, &program.Stage{}); err != nil {
		return err
	}

	// Auto-migrate content registry, position index and payload stores.
	// The legacy single-table schema is migrated too: it stays readable
	// (and, for activities, writable) until the migration finishes.
	if err := db.AutoMigrate(
		&content.RegistryEntry{},
		&content.ModulePosition{},
		&content.TextContent{},
		&content.VideoContent{},
		&content.ActivityContent{},
		&content.AdvisorySession{},
		&content.LegacyContent{},
	); err != nil {
		return err
	}

	// Auto-migrate evaluation models
	if err := db.AutoMigrate(
		&activity.Deliverable{},
		&activity.RubricCriterion{},
		&evaluation.EvaluationLog{},
		&evaluation.CompletionRecord{},
	); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
