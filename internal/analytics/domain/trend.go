package domain

import "time"

// TrendSnapshot is one (day, category) message count. The whole table
// is derived from emails + categories and rebuilt from scratch; rows
// are never edited in place.
type TrendSnapshot struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Date       string `json:"date" gorm:"uniqueIndex:idx_date_category;not null"`
	Category   string `json:"category" gorm:"uniqueIndex:idx_date_category;not null"`
	EmailCount int    `json:"email_count"`
}

func (TrendSnapshot) TableName() string {
	return "trend_snapshots"
}

// Trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// CategoryTrend compares one category's recent window against the
// preceding window of the same length.
type CategoryTrend struct {
	Category      string  `json:"category"`
	RecentCount   int     `json:"recent_count"`
	PreviousCount int     `json:"previous_count"`
	GrowthPercent float64 `json:"growth_percent"`
	Trend         string  `json:"trend"`
}

// HotTopic is a category count restricted to the corpus's most recent
// seven days.
type HotTopic struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Latest   string `json:"latest,omitempty"`
}

// Briefing is a cached activity digest generated from the dashboard
// aggregates, optionally enhanced by the LLM.
type Briefing struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Type       string     `json:"type" gorm:"index;not null"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	RangeStart *time.Time `json:"range_start"`
	RangeEnd   *time.Time `json:"range_end"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Briefing) TableName() string {
	return "briefings"
}
