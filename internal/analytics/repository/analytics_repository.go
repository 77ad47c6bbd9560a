package repository

import (
	"time"

	"gorm.io/gorm"

	"aikb-backend/internal/analytics/domain"
)

// CategoryCount is a category with its total email count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// WeekCount is an ISO-ish week label (strftime %Y-%W) with a count.
type WeekCount struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

// AnalyticsRepository owns the trend snapshot table and the aggregate
// queries the dashboard reads.
type AnalyticsRepository interface {
	// RebuildSnapshots re-derives the whole snapshot table from the
	// email and category tables in one transaction.
	RebuildSnapshots() error
	MaxSnapshotDate() (string, error)
	// CategorySums totals snapshot counts per category for dates in
	// [from, to). An empty to means no upper bound.
	CategorySums(from, to string) (map[string]int, error)
	TopCategoriesSince(from string, limit int) ([]string, error)
	WeeklyCounts(category, from string) ([]WeekCount, error)
	WeekLabels(from string) ([]string, error)
	HotTopics(since time.Time, limit int) ([]domain.HotTopic, error)
	CategoryCounts() ([]CategoryCount, error)
	CategoriesAlphabetical() ([]CategoryCount, error)
	DistinctCategoryCount() (int64, error)
	DistinctDomainCount() (int64, error)
	SummarizedCount() (int64, error)
	DateRange() (min, max string, err error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) RebuildSnapshots() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.TrendSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Exec(`
			INSERT INTO trend_snapshots (date, category, email_count)
			SELECT DATE(e.date_parsed), ec.category, COUNT(*)
			FROM emails e
			JOIN email_categories ec ON ec.email_id = e.id
			WHERE e.date_parsed IS NOT NULL
			GROUP BY DATE(e.date_parsed), ec.category
		`).Error
	})
}

func (r *analyticsRepository) MaxSnapshotDate() (string, error) {
	var date *string
	err := r.db.Model(&domain.TrendSnapshot{}).Select("MAX(date)").Scan(&date).Error
	if err != nil || date == nil {
		return "", err
	}
	return *date, nil
}

func (r *analyticsRepository) CategorySums(from, to string) (map[string]int, error) {
	query := r.db.Model(&domain.TrendSnapshot{}).
		Select("category, SUM(email_count) as count").
		Where("date >= ?", from).
		Group("category")
	if to != "" {
		query = query.Where("date < ?", to)
	}

	var rows []CategoryCount
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	sums := make(map[string]int, len(rows))
	for _, row := range rows {
		sums[row.Category] = row.Count
	}
	return sums, nil
}

func (r *analyticsRepository) TopCategoriesSince(from string, limit int) ([]string, error) {
	var categories []string
	err := r.db.Model(&domain.TrendSnapshot{}).
		Where("date >= ?", from).
		Group("category").
		Order("SUM(email_count) DESC").
		Limit(limit).
		Pluck("category", &categories).Error
	return categories, err
}

func (r *analyticsRepository) WeeklyCounts(category, from string) ([]WeekCount, error) {
	var rows []WeekCount
	err := r.db.Raw(`
		SELECT strftime('%Y-%W', date) as week, SUM(email_count) as count
		FROM trend_snapshots
		WHERE category = ? AND date >= ?
		GROUP BY week
		ORDER BY week
	`, category, from).Find(&rows).Error
	return rows, err
}

func (r *analyticsRepository) WeekLabels(from string) ([]string, error) {
	var weeks []string
	err := r.db.Raw(`
		SELECT DISTINCT strftime('%Y-%W', date) as week
		FROM trend_snapshots
		WHERE date >= ?
		ORDER BY week
	`, from).Find(&weeks).Error
	return weeks, err
}

func (r *analyticsRepository) HotTopics(since time.Time, limit int) ([]domain.HotTopic, error) {
	var rows []struct {
		Category string
		Count    int
		Latest   *time.Time
	}
	err := r.db.Raw(`
		SELECT ec.category, COUNT(*) as count, MAX(e.date_parsed) as latest
		FROM emails e
		JOIN email_categories ec ON ec.email_id = e.id
		WHERE e.date_parsed >= ?
		GROUP BY ec.category
		ORDER BY count DESC
		LIMIT ?
	`, since, limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	topics := make([]domain.HotTopic, len(rows))
	for i, row := range rows {
		topics[i] = domain.HotTopic{Category: row.Category, Count: row.Count}
		if row.Latest != nil {
			topics[i].Latest = row.Latest.Format("2006-01-02")
		}
	}
	return topics, nil
}

func (r *analyticsRepository) CategoryCounts() ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.Raw(`
		SELECT category, COUNT(*) as count
		FROM email_categories
		GROUP BY category
		ORDER BY count DESC
	`).Find(&rows).Error
	return rows, err
}

func (r *analyticsRepository) CategoriesAlphabetical() ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.Raw(`
		SELECT category, COUNT(*) as count
		FROM email_categories
		GROUP BY category
		ORDER BY category
	`).Find(&rows).Error
	return rows, err
}

func (r *analyticsRepository) DistinctCategoryCount() (int64, error) {
	var count int64
	err := r.db.Raw(`SELECT COUNT(DISTINCT category) FROM email_categories`).Scan(&count).Error
	return count, err
}

func (r *analyticsRepository) DistinctDomainCount() (int64, error) {
	var count int64
	err := r.db.Raw(`SELECT COUNT(DISTINCT domain) FROM email_links WHERE domain != ''`).Scan(&count).Error
	return count, err
}

func (r *analyticsRepository) SummarizedCount() (int64, error) {
	var count int64
	err := r.db.Raw(`SELECT COUNT(*) FROM emails WHERE summary IS NOT NULL AND summary != ''`).Scan(&count).Error
	return count, err
}

func (r *analyticsRepository) DateRange() (string, string, error) {
	var row struct {
		Min *time.Time
		Max *time.Time
	}
	err := r.db.Raw(`
		SELECT MIN(date_parsed) as min, MAX(date_parsed) as max
		FROM emails WHERE date_parsed IS NOT NULL
	`).Find(&row).Error
	if err != nil {
		return "", "", err
	}

	var min, max string
	if row.Min != nil {
		min = row.Min.Format("2006-01-02")
	}
	if row.Max != nil {
		max = row.Max.Format("2006-01-02")
	}
	return min, max, nil
}
