package briefing

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	analyticsdomain "aikb-backend/internal/analytics/domain"
	analyticsrepo "aikb-backend/internal/analytics/repository"
	analytics "aikb-backend/internal/analytics/usecase"
	emaildomain "aikb-backend/internal/email/domain"
	emailrepo "aikb-backend/internal/email/repository"
	insightdomain "aikb-backend/internal/insight/domain"
	insightrepo "aikb-backend/internal/insight/repository"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&emaildomain.Email{}, &emaildomain.EmailLink{}, &emaildomain.EmailCategory{},
		&insightdomain.Entity{}, &insightdomain.EmailEntity{},
		&insightdomain.Tool{}, &insightdomain.ToolMention{},
		&analyticsdomain.TrendSnapshot{}, &analyticsdomain.Briefing{},
	))

	emails := emailrepo.NewEmailRepository(db)
	links := emailrepo.NewLinkRepository(db)
	insights := insightrepo.NewInsightRepository(db)
	engine := analytics.NewEngine(analyticsrepo.NewAnalyticsRepository(db), emails, links, zap.NewNop())
	return NewService(db, engine, emails, insights, nil, zap.NewNop()), db
}

func TestGenerateAndLatest(t *testing.T) {
	service, db := newTestService(t)

	date := time.Date(2025, 1, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&emaildomain.Email{
		Subject:    "Cursor 1.0 released",
		Summary:    "Cursor shipped a stable release.",
		DateParsed: &date,
		Categories: []emaildomain.EmailCategory{{Category: "Cursor"}},
	}).Error)
	require.NoError(t, db.Create(&insightdomain.Tool{
		Name: "Cursor", NormalizedName: "cursor", Category: "AI Coding IDE", MentionCount: 3,
	}).Error)

	content, err := service.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "weekly", content.Type)
	assert.False(t, content.AIEnhanced, "no ai service means the structured fallback")
	assert.Contains(t, content.StatsSummary, "Analyzing 1 emails")
	assert.Contains(t, content.Summary, "### Top Tools")
	assert.Contains(t, content.Summary, "**Cursor**: 3 mentions")

	require.Len(t, content.RecentHighlights, 1)
	assert.Equal(t, "Cursor 1.0 released", content.RecentHighlights[0].Subject)
	assert.Equal(t, "2025-01-14", content.RecentHighlights[0].Date)

	// The briefing is cached and round-trips through the store.
	cached, err := service.Latest()
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, content.Summary, cached.Summary)
	assert.Equal(t, content.StatsSummary, cached.StatsSummary)
}

func TestLatestEmpty(t *testing.T) {
	service, _ := newTestService(t)

	cached, err := service.Latest()
	require.NoError(t, err)
	assert.Nil(t, cached)
}
