package usecase

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"aikb-backend/internal/analytics/domain"
	"aikb-backend/internal/analytics/repository"
	emailrepo "aikb-backend/internal/email/repository"
)

const (
	hotWindowDays    = 7
	timelineTopLimit = 6
)

// timelineColors cycles across timeline datasets for the dashboard
// chart.
var timelineColors = []string{
	"rgba(99, 102, 241, 0.8)",
	"rgba(168, 85, 247, 0.8)",
	"rgba(236, 72, 153, 0.8)",
	"rgba(59, 130, 246, 0.8)",
	"rgba(34, 197, 94, 0.8)",
	"rgba(249, 115, 22, 0.8)",
}

// Engine computes dashboard aggregates. All of its outputs derive
// from the base tables; Rebuild can be re-run at any time without
// changing what the queries return for a fixed corpus.
type Engine struct {
	analytics repository.AnalyticsRepository
	emails    emailrepo.EmailRepository
	links     emailrepo.LinkRepository
	logger    *zap.Logger
}

func NewEngine(analytics repository.AnalyticsRepository, emails emailrepo.EmailRepository, links emailrepo.LinkRepository, logger *zap.Logger) *Engine {
	return &Engine{analytics: analytics, emails: emails, links: links, logger: logger}
}

// Rebuild re-derives the trend snapshot table from scratch.
func (e *Engine) Rebuild() error {
	if err := e.analytics.RebuildSnapshots(); err != nil {
		return err
	}
	e.logger.Info("trend snapshots rebuilt")
	return nil
}

// TrendingTopics compares each category's last `days` days against the
// preceding window of the same length, anchored at the newest snapshot
// date rather than the wall clock.
func (e *Engine) TrendingTopics(days, limit int) ([]domain.CategoryTrend, error) {
	maxDate, err := e.analytics.MaxSnapshotDate()
	if err != nil {
		return nil, err
	}
	if maxDate == "" {
		return []domain.CategoryTrend{}, nil
	}
	anchor, err := time.Parse("2006-01-02", maxDate)
	if err != nil {
		return nil, err
	}

	recentStart := anchor.AddDate(0, 0, -days).Format("2006-01-02")
	previousStart := anchor.AddDate(0, 0, -2*days).Format("2006-01-02")

	recent, err := e.analytics.CategorySums(recentStart, "")
	if err != nil {
		return nil, err
	}
	previous, err := e.analytics.CategorySums(previousStart, recentStart)
	if err != nil {
		return nil, err
	}

	trends := make([]domain.CategoryTrend, 0, len(recent))
	for category, recentCount := range recent {
		previousCount := previous[category]
		growth := growthPercent(recentCount, previousCount)
		trends = append(trends, domain.CategoryTrend{
			Category:      category,
			RecentCount:   recentCount,
			PreviousCount: previousCount,
			GrowthPercent: growth,
			Trend:         classifyTrend(growth),
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].GrowthPercent != trends[j].GrowthPercent {
			return trends[i].GrowthPercent > trends[j].GrowthPercent
		}
		return trends[i].Category < trends[j].Category
	})
	if len(trends) > limit {
		trends = trends[:limit]
	}
	return trends, nil
}

// growthPercent computes window-over-window growth, rounded to one
// decimal. A category absent from the previous window counts as +100.
func growthPercent(recent, previous int) float64 {
	switch {
	case previous > 0:
		growth := (float64(recent-previous) / float64(previous)) * 100
		return math.Round(growth*10) / 10
	case recent > 0:
		return 100
	default:
		return 0
	}
}

func classifyTrend(growth float64) string {
	switch {
	case growth > 10:
		return domain.TrendUp
	case growth < -10:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

// WhatsHot counts categories over the corpus's most recent seven days,
// anchored at the newest parsed email date.
func (e *Engine) WhatsHot(limit int) ([]domain.HotTopic, error) {
	maxDate, err := e.emails.MaxDateParsed()
	if err != nil {
		return nil, err
	}
	if maxDate == nil {
		return []domain.HotTopic{}, nil
	}
	since := maxDate.AddDate(0, 0, -hotWindowDays)
	return e.analytics.HotTopics(since, limit)
}

// TimelineDataset is one category's weekly series, shaped for the
// frontend chart.
type TimelineDataset struct {
	Label           string `json:"label"`
	Data            []int  `json:"data"`
	BorderColor     string `json:"borderColor"`
	BackgroundColor string `json:"backgroundColor"`
	Tension         float64 `json:"tension"`
}

// Timeline holds weekly counts for the top categories over a window.
type Timeline struct {
	Labels   []string          `json:"labels"`
	Datasets []TimelineDataset `json:"datasets"`
}

// TopicTimeline charts the top categories' weekly counts over the last
// `days` days of snapshot data.
func (e *Engine) TopicTimeline(days int) (*Timeline, error) {
	maxDate, err := e.analytics.MaxSnapshotDate()
	if err != nil {
		return nil, err
	}
	if maxDate == "" {
		return &Timeline{Labels: []string{}, Datasets: []TimelineDataset{}}, nil
	}
	anchor, err := time.Parse("2006-01-02", maxDate)
	if err != nil {
		return nil, err
	}
	from := anchor.AddDate(0, 0, -days).Format("2006-01-02")

	categories, err := e.analytics.TopCategoriesSince(from, timelineTopLimit)
	if err != nil {
		return nil, err
	}
	labels, err := e.analytics.WeekLabels(from)
	if err != nil {
		return nil, err
	}

	timeline := &Timeline{Labels: labels, Datasets: make([]TimelineDataset, 0, len(categories))}
	for i, category := range categories {
		weekly, err := e.analytics.WeeklyCounts(category, from)
		if err != nil {
			return nil, err
		}
		byWeek := make(map[string]int, len(weekly))
		for _, wc := range weekly {
			byWeek[wc.Week] = wc.Count
		}

		data := make([]int, len(labels))
		for j, week := range labels {
			data[j] = byWeek[week]
		}

		color := timelineColors[i%len(timelineColors)]
		timeline.Datasets = append(timeline.Datasets, TimelineDataset{
			Label:           category,
			Data:            data,
			BorderColor:     color,
			BackgroundColor: strings.Replace(color, "0.8", "0.2", 1),
			Tension:         0.3,
		})
	}
	return timeline, nil
}

// Stats is the dashboard's overall counters block.
type Stats struct {
	TotalEmails      int64            `json:"total_emails"`
	TotalLinks       int64            `json:"total_links"`
	UniqueDomains    int64            `json:"unique_domains"`
	TotalCategories  int64            `json:"total_categories"`
	SummarizedEmails int64            `json:"summarized_emails"`
	DateRange        map[string]string `json:"date_range"`
	LinksByStatus    map[string]int64 `json:"links_by_status"`
}

// OverallStats gathers the corpus-wide counters.
func (e *Engine) OverallStats() (*Stats, error) {
	emailCount, err := e.emails.Count()
	if err != nil {
		return nil, err
	}
	linkStatus, err := e.links.CountByStatus()
	if err != nil {
		return nil, err
	}
	var totalLinks int64
	for _, count := range linkStatus {
		totalLinks += count
	}
	uniqueDomains, err := e.analytics.DistinctDomainCount()
	if err != nil {
		return nil, err
	}
	categories, err := e.analytics.DistinctCategoryCount()
	if err != nil {
		return nil, err
	}
	summarized, err := e.analytics.SummarizedCount()
	if err != nil {
		return nil, err
	}
	minDate, maxDate, err := e.analytics.DateRange()
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalEmails:      emailCount,
		TotalLinks:       totalLinks,
		UniqueDomains:    uniqueDomains,
		TotalCategories:  categories,
		SummarizedEmails: summarized,
		DateRange:        map[string]string{"start": minDate, "end": maxDate},
		LinksByStatus:    linkStatus,
	}, nil
}

// CategoryStats lists categories by volume.
func (e *Engine) CategoryStats() ([]repository.CategoryCount, error) {
	return e.analytics.CategoryCounts()
}

// CategoriesAlphabetical lists every category with its count, A to Z.
func (e *Engine) CategoriesAlphabetical() ([]repository.CategoryCount, error) {
	return e.analytics.CategoriesAlphabetical()
}

// TopDomains lists the most linked domains.
func (e *Engine) TopDomains(limit int) ([]emailrepo.DomainCount, error) {
	return e.links.TopDomains(limit)
}
