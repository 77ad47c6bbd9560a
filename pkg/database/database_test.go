package database

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	analyticsdomain "aikb-backend/internal/analytics/domain"
	analyticsrepo "aikb-backend/internal/analytics/repository"
	emaildomain "aikb-backend/internal/email/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

// The snapshot rebuild runs from the ingest CLI against whatever
// schema that binary migrated, so the shared migration must cover the
// analytics tables too, not just the ingest ones.
func TestMigrateCoversSnapshotRebuild(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db))

	date := time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&emaildomain.Email{
		Subject:    "Cursor 1.0 released",
		DateParsed: &date,
		Categories: []emaildomain.EmailCategory{{Category: "Cursor"}},
	}).Error)

	require.NoError(t, analyticsrepo.NewAnalyticsRepository(db).RebuildSnapshots())

	var snapshots []analyticsdomain.TrendSnapshot
	require.NoError(t, db.Find(&snapshots).Error)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "Cursor", snapshots[0].Category)
	assert.Equal(t, "2025-01-14", snapshots[0].Date)
	assert.Equal(t, 1, snapshots[0].EmailCount)
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&analyticsdomain.Briefing{}))
	assert.True(t, db.Migrator().HasTable(&analyticsdomain.TrendSnapshot{}))
}
