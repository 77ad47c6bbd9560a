package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	analyticsdomain "aikb-backend/internal/analytics/domain"
	emaildomain "aikb-backend/internal/email/domain"
	"aikb-backend/internal/ingest"
	insightdomain "aikb-backend/internal/insight/domain"
	learningdomain "aikb-backend/internal/learning/domain"
	"aikb-backend/pkg/config"
)

// NewSQLiteConnection opens the corpus database, creating the data
// directory on first run.
func NewSQLiteConnection(cfg *config.Config) (*gorm.DB, error) {
	dir := filepath.Dir(cfg.DBPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; the pipeline is batch-sequential and SQLite
	// locks the file per connection anyway.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate creates the full schema. Both the API server and the ingest
// CLI open the same database, so they share one model list; a binary
// that migrated a subset would leave passes like the snapshot rebuild
// without their tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&emaildomain.Email{}, &emaildomain.EmailLink{}, &emaildomain.EmailCategory{},
		&insightdomain.Entity{}, &insightdomain.EmailEntity{},
		&insightdomain.Tool{}, &insightdomain.ToolMention{},
		&analyticsdomain.TrendSnapshot{}, &analyticsdomain.Briefing{},
		&learningdomain.Module{}, &learningdomain.Lesson{}, &learningdomain.LessonSource{},
		&learningdomain.QuizQuestion{}, &learningdomain.UserProgress{},
		&ingest.Run{},
	)
}
