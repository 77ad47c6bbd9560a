package domain

import "time"

// Entity types recognized by extraction.
const (
	EntityTypeTool    = "tool"
	EntityTypeCompany = "company"
	EntityTypeConcept = "concept"
	EntityTypePerson  = "person"
)

// Entity is a named thing mentioned across the corpus. The aggregate
// fields (FirstSeen, LastSeen, MentionCount) are derived from the
// associations and rebuilt from scratch on every extraction pass.
type Entity struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"uniqueIndex;not null"`
	Type         string     `json:"type" gorm:"index;not null"`
	Description  string     `json:"description,omitempty"`
	FirstSeen    *time.Time `json:"first_seen"`
	LastSeen     *time.Time `json:"last_seen"`
	MentionCount int        `json:"mention_count"`
}

func (Entity) TableName() string {
	return "entities"
}

// EmailEntity links a message to an entity it mentions.
type EmailEntity struct {
	EmailID   uint    `json:"email_id" gorm:"primaryKey;autoIncrement:false"`
	EntityID  uint    `json:"entity_id" gorm:"primaryKey;autoIncrement:false"`
	Sentiment float64 `json:"sentiment"`
}

func (EmailEntity) TableName() string {
	return "email_entities"
}

// Tool is a tracked software product: an entity specialization with a
// category tag, company affiliation and mention statistics, all
// derived and rebuilt together with the mention rows.
type Tool struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name" gorm:"uniqueIndex;not null"`
	NormalizedName string     `json:"normalized_name" gorm:"index;not null"`
	Category       string     `json:"category"`
	Company        string     `json:"company"`
	FirstMention   *time.Time `json:"first_mention"`
	LastMention    *time.Time `json:"last_mention"`
	MentionCount   int        `json:"mention_count"`
	AvgSentiment   float64    `json:"avg_sentiment"`
}

func (Tool) TableName() string {
	return "tools"
}

// ToolMention links a message to a tool it mentions, with an optional
// per-mention sentiment.
type ToolMention struct {
	EmailID   uint    `json:"email_id" gorm:"primaryKey;autoIncrement:false"`
	ToolID    uint    `json:"tool_id" gorm:"primaryKey;autoIncrement:false"`
	Sentiment float64 `json:"sentiment"`
}

func (ToolMention) TableName() string {
	return "tool_mentions"
}
