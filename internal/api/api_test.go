package api

import (
	"testing"

	"coachdesk/internal/activity"
	"coachdesk/internal/config"
	"coachdesk/internal/content"
	"coachdesk/internal/db"
	"coachdesk/internal/evaluation"
	"coachdesk/internal/program"
	"coachdesk/internal/user"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupAPIDB wires db.DB to an in-memory sqlite with the full schema, the
// same set Init migrates in production.
func setupAPIDB(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dbConn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&user.User{},
		&program.Program{},
		&program.Stage{},
		&content.RegistryEntry{},
		&content.ModulePosition{},
		&content.TextContent{},
		&content.VideoContent{},
		&content.ActivityContent{},
		&content.AdvisorySession{},
		&content.LegacyContent{},
		&activity.Deliverable{},
		&activity.RubricCriterion{},
		&evaluation.EvaluationLog{},
		&evaluation.CompletionRecord{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	db.DB = dbConn
	resetAPITables(t)
}

func resetAPITables(t *testing.T) {
	for _, table := range []string{
		"users", "programs", "stages",
		"module_positions", "content_registry", "text_contents",
		"video_contents", "activity_contents", "advisory_sessions",
		"legacy_contents",
		"deliverables", "rubric_criterions",
		"evaluation_logs", "completion_records",
	} {
		if err := db.DB.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("failed to reset %s: %v", table, err)
		}
	}
}

// authAs simulates the auth middleware for handler-level tests.
func authAs(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Set("username", "tester")
		c.Set("role", role)
		c.Next()
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Engine: config.EngineConfig{
			URL:   "http://localhost:9999/v1/chat/completions",
			Model: "test-model",
		},
		Evaluation: config.EvaluationConfig{Interval: 3},
	}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Server.Subpath = "/coachdesk"
	cfg.Server.JWTSecret = "test-secret"
	return cfg
}
