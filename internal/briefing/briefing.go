// Package briefing assembles periodic digests of corpus activity from
// the dashboard aggregates, optionally enhanced by the LLM.
package briefing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	analyticsdomain "aikb-backend/internal/analytics/domain"
	analytics "aikb-backend/internal/analytics/usecase"
	emailrepo "aikb-backend/internal/email/repository"
	insightrepo "aikb-backend/internal/insight/repository"
	"aikb-backend/pkg/ai"
)

const (
	sectionLimit      = 5
	highlightTruncate = 150
)

// HotTopicEntry is one most-active category in the briefing window.
type HotTopicEntry struct {
	Topic       string `json:"topic"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// TrendEntry is one category growth comparison.
type TrendEntry struct {
	Topic          string  `json:"topic"`
	Growth         float64 `json:"growth"`
	TrendDirection string  `json:"trend_direction"`
	Description    string  `json:"description"`
}

// ToolEntry is one highly-mentioned tool.
type ToolEntry struct {
	Name     string `json:"name"`
	Mentions int    `json:"mentions"`
	Category string `json:"category"`
}

// Highlight is one recent email worth surfacing.
type Highlight struct {
	Subject string `json:"subject"`
	Summary string `json:"summary"`
	Date    string `json:"date"`
}

// Content is a full briefing payload.
type Content struct {
	GeneratedAt      string          `json:"generated_at"`
	Type             string          `json:"type"`
	StatsSummary     string          `json:"stats_summary"`
	DateRange        string          `json:"date_range"`
	HotTopics        []HotTopicEntry `json:"hot_topics"`
	Trending         []TrendEntry    `json:"trending"`
	TopTools         []ToolEntry     `json:"top_tools"`
	RecentHighlights []Highlight     `json:"recent_highlights"`
	Summary          string          `json:"summary"`
	AIEnhanced       bool            `json:"ai_enhanced"`
}

// Service generates briefings and caches them in the briefings table.
type Service struct {
	db       *gorm.DB
	engine   *analytics.Engine
	emails   emailrepo.EmailRepository
	insights insightrepo.InsightRepository
	ai       ai.Service
	logger   *zap.Logger
}

func NewService(db *gorm.DB, engine *analytics.Engine, emails emailrepo.EmailRepository, insights insightrepo.InsightRepository, aiService ai.Service, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		engine:   engine,
		emails:   emails,
		insights: insights,
		ai:       aiService,
		logger:   logger,
	}
}

// Generate builds a weekly briefing from the current aggregates,
// stores it and returns it. Without an AI service the summary is
// assembled from the structured sections.
func (s *Service) Generate(ctx context.Context) (*Content, error) {
	content, err := s.buildContent()
	if err != nil {
		return nil, err
	}

	if s.ai != nil {
		summary, err := s.synthesize(ctx, content)
		if err != nil {
			s.logger.Warn("briefing synthesis failed, using structured summary", zap.Error(err))
			content.Summary = structuredSummary(content)
		} else {
			content.Summary = summary
			content.AIEnhanced = true
		}
	} else {
		content.Summary = structuredSummary(content)
	}

	if err := s.save(content); err != nil {
		return nil, err
	}
	return content, nil
}

// Latest returns the most recent cached briefing, or nil when none
// has been generated yet.
func (s *Service) Latest() (*Content, error) {
	var row analyticsdomain.Briefing
	err := s.db.Order("created_at DESC").First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	var content Content
	if err := json.Unmarshal([]byte(row.Content), &content); err != nil {
		return nil, fmt.Errorf("decode cached briefing: %w", err)
	}
	return &content, nil
}

func (s *Service) buildContent() (*Content, error) {
	stats, err := s.engine.OverallStats()
	if err != nil {
		return nil, err
	}
	trending, err := s.engine.TrendingTopics(7, sectionLimit)
	if err != nil {
		return nil, err
	}
	hot, err := s.engine.WhatsHot(sectionLimit)
	if err != nil {
		return nil, err
	}
	tools, err := s.insights.ToolRankings(sectionLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.emails.Recent(sectionLimit)
	if err != nil {
		return nil, err
	}

	content := &Content{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Type:        "weekly",
		StatsSummary: fmt.Sprintf("Analyzing %d emails with %d links across %d categories.",
			stats.TotalEmails, stats.TotalLinks, stats.TotalCategories),
		DateRange: fmt.Sprintf("%s to %s", stats.DateRange["start"], stats.DateRange["end"]),
	}

	for _, topic := range hot {
		content.HotTopics = append(content.HotTopics, HotTopicEntry{
			Topic:       topic.Category,
			Count:       topic.Count,
			Description: fmt.Sprintf("%d emails this week", topic.Count),
		})
	}
	for _, trend := range trending {
		sign := ""
		if trend.GrowthPercent > 0 {
			sign = "+"
		}
		content.Trending = append(content.Trending, TrendEntry{
			Topic:          trend.Category,
			Growth:         trend.GrowthPercent,
			TrendDirection: trend.Trend,
			Description:    fmt.Sprintf("%s%.0f%% vs previous week", sign, trend.GrowthPercent),
		})
	}
	for _, tool := range tools {
		content.TopTools = append(content.TopTools, ToolEntry{
			Name:     tool.Name,
			Mentions: tool.MentionCount,
			Category: tool.Category,
		})
	}
	for _, email := range recent {
		summary := email.Summary
		if len(summary) > highlightTruncate {
			summary = summary[:highlightTruncate] + "..."
		}
		highlight := Highlight{Subject: email.Subject, Summary: summary}
		if email.DateParsed != nil {
			highlight.Date = email.DateParsed.Format("2006-01-02")
		}
		content.RecentHighlights = append(content.RecentHighlights, highlight)
	}
	return content, nil
}

func (s *Service) synthesize(ctx context.Context, content *Content) (string, error) {
	var hotLines, trendLines, toolLines strings.Builder
	for _, topic := range content.HotTopics {
		fmt.Fprintf(&hotLines, "- %s: %s\n", topic.Topic, topic.Description)
	}
	for _, trend := range content.Trending {
		fmt.Fprintf(&trendLines, "- %s: %s\n", trend.Topic, trend.Description)
	}
	for _, tool := range content.TopTools {
		fmt.Fprintf(&toolLines, "- %s (%s): %d mentions\n", tool.Name, tool.Category, tool.Mentions)
	}

	prompt := fmt.Sprintf(`You are an AI research analyst. Generate a brief, insightful executive summary based on this data from an AI knowledge base:

**Stats**: %s
**Date Range**: %s

**Hot Topics This Week**:
%s
**Trending (vs Previous Week)**:
%s
**Top Tools Being Discussed**:
%s
Write a 3-4 paragraph executive summary that:
1. Highlights the most important developments
2. Identifies key trends worth watching
3. Provides actionable insights for someone learning about AI
4. Uses a professional but engaging tone

Keep it concise and impactful.`,
		content.StatsSummary, content.DateRange,
		hotLines.String(), trendLines.String(), toolLines.String())

	return s.ai.Synthesize(ctx,
		"You are a helpful AI research analyst providing weekly briefings on AI industry developments.",
		prompt)
}

func structuredSummary(content *Content) string {
	var b strings.Builder
	b.WriteString("## Weekly AI Knowledge Briefing\n\n### What's Hot\n")
	for i, topic := range content.HotTopics {
		if i == 2 {
			break
		}
		fmt.Fprintf(&b, "- **%s**: %d emails this week\n", topic.Topic, topic.Count)
	}

	b.WriteString("\n### Trending Up\n")
	for i, trend := range content.Trending {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", trend.Topic, trend.Description)
	}

	b.WriteString("\n### Top Tools\n")
	for i, tool := range content.TopTools {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "- **%s**: %d mentions\n", tool.Name, tool.Mentions)
	}

	b.WriteString("\n### Key Takeaway\nStay focused on the trending topics and explore the top tools to stay current with AI developments.\n")
	return b.String()
}

func (s *Service) save(content *Content) error {
	encoded, err := json.Marshal(content)
	if err != nil {
		return err
	}
	row := analyticsdomain.Briefing{
		Type:    content.Type,
		Content: string(encoded),
	}
	return s.db.Create(&row).Error
}
