package usecase

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

	emaildomain "aikb-backend/internal/email/domain"
	emailrepo "aikb-backend/internal/email/repository"
	"aikb-backend/internal/insight/domain"
	"aikb-backend/internal/insight/repository"
)

func toolNames(specs []*toolSpec) []string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.name
	}
	return names
}

func TestMatchTools(t *testing.T) {
	t.Run("exclusion phrase alone does not match", func(t *testing.T) {
		names := toolNames(matchTools("move the cursor position to the left"))
		assert.NotContains(t, names, "Cursor")
	})

	t.Run("real mention survives exclusion stripping", func(t *testing.T) {
		names := toolNames(matchTools("set the cursor position, then let Cursor rewrite the function"))
		assert.Contains(t, names, "Cursor")
	})

	t.Run("claude code does not count as claude", func(t *testing.T) {
		names := toolNames(matchTools("Claude Code got a new release"))
		assert.Contains(t, names, "Claude Code")
		assert.NotContains(t, names, "Claude")
	})

	t.Run("both claude and claude code", func(t *testing.T) {
		names := toolNames(matchTools("Claude 4 is out, and Claude Code uses it"))
		assert.Contains(t, names, "Claude Code")
		assert.Contains(t, names, "Claude")
	})

	t.Run("google search is not a google mention", func(t *testing.T) {
		names := toolNames(matchTools("ranked first in google search results"))
		assert.NotContains(t, names, "Google")
	})

	t.Run("bolt requires the product form", func(t *testing.T) {
		assert.NotContains(t, toolNames(matchTools("a bolt of lightning")), "Bolt")
		assert.Contains(t, toolNames(matchTools("built the app on bolt.new")), "Bolt")
	})

	t.Run("each tool at most once", func(t *testing.T) {
		names := toolNames(matchTools("deepseek deepseek deepseek"))
		count := 0
		for _, name := range names {
			if name == "DeepSeek" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestExtractKnownEntities(t *testing.T) {
	extracted := extractKnownEntities("Anthropic shipped Claude Code; NVIDIA earnings follow")
	found := make(map[string]string, len(extracted))
	for _, e := range extracted {
		found[e.Name] = e.Type
	}

	assert.Equal(t, domain.EntityTypeCompany, found["Anthropic"])
	assert.Equal(t, domain.EntityTypeTool, found["Claude Code"])
	assert.Equal(t, domain.EntityTypeCompany, found["NVIDIA"])

	t.Run("whole words only", func(t *testing.T) {
		extracted := extractKnownEntities("metadata is not a company")
		for _, e := range extracted {
			assert.NotEqual(t, "Meta", e.Name)
		}
	})
}

func TestExtractorRun(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&emaildomain.Email{}, &emaildomain.EmailLink{}, &emaildomain.EmailCategory{},
		&domain.Entity{}, &domain.EmailEntity{}, &domain.Tool{}, &domain.ToolMention{},
	))

	early := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	late := time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC)
	seed := []*emaildomain.Email{
		{Subject: "Cursor tips", Body: "Cursor keeps improving.", DateParsed: &early},
		{Subject: "Cursor vs DeepSeek", Body: "Using DeepSeek inside Cursor.", DateParsed: &late},
	}
	for _, email := range seed {
		require.NoError(t, db.Create(email).Error)
	}

	emails := emailrepo.NewEmailRepository(db)
	insights := repository.NewInsightRepository(db)
	extractor := NewExtractor(emails, insights, nil, zap.NewNop(), 0, time.Minute)

	require.NoError(t, extractor.Run(context.Background(), false))

	tools, err := insights.ToolRankings(10)
	require.NoError(t, err)
	byName := make(map[string]*domain.Tool, len(tools))
	for _, tool := range tools {
		byName[tool.Name] = tool
	}

	cursor := byName["Cursor"]
	require.NotNil(t, cursor)
	assert.Equal(t, 2, cursor.MentionCount)
	assert.Equal(t, "cursor", cursor.NormalizedName)
	assert.Equal(t, "AI Coding IDE", cursor.Category)
	require.NotNil(t, cursor.FirstMention)
	require.NotNil(t, cursor.LastMention)
	assert.Equal(t, early.Format("2006-01-02"), cursor.FirstMention.Format("2006-01-02"))
	assert.Equal(t, late.Format("2006-01-02"), cursor.LastMention.Format("2006-01-02"))

	deepseek := byName["DeepSeek"]
	require.NotNil(t, deepseek)
	assert.Equal(t, 1, deepseek.MentionCount)

	entities, err := insights.Entities(domain.EntityTypeTool, 10)
	require.NoError(t, err)
	entityNames := make([]string, len(entities))
	for i, entity := range entities {
		entityNames[i] = entity.Name
	}
	assert.Contains(t, entityNames, "Cursor")
	assert.Contains(t, entityNames, "DeepSeek")

	names, err := insights.ToolNamesForEmail(seed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cursor"}, names)

	// Re-running replaces the derived tables without duplicating rows.
	require.NoError(t, extractor.Run(context.Background(), false))
	count, err := insights.ToolCount()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
