package domain

import (
	"encoding/binary"
	"math"
	"net/url"
	"strings"
	"time"
)

// Email is one stored newsletter message. Summary, Sentiment and
// Embedding stay at their zero values until enrichment fills them in;
// an empty Summary marks the email as eligible for the next
// summarization pass.
type Email struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Subject    string     `json:"subject"`
	Sender     string     `json:"sender" gorm:"index"`
	Date       string     `json:"date"`
	DateParsed *time.Time `json:"date_parsed" gorm:"index"`
	Body       string     `json:"body" gorm:"type:text"`
	Summary    string     `json:"summary" gorm:"type:text"`
	Sentiment  float64    `json:"sentiment"`
	Embedding  []byte     `json:"-" gorm:"type:blob"`
	CreatedAt  time.Time  `json:"created_at"`

	Links      []EmailLink     `json:"links" gorm:"constraint:OnDelete:CASCADE"`
	Categories []EmailCategory `json:"categories" gorm:"constraint:OnDelete:CASCADE"`
}

func (Email) TableName() string {
	return "emails"
}

// CategoryNames flattens the category associations to plain labels.
func (e *Email) CategoryNames() []string {
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = c.Category
	}
	return names
}

// LinkURLs flattens the link associations to plain URLs.
func (e *Email) LinkURLs() []string {
	urls := make([]string, len(e.Links))
	for i, l := range e.Links {
		urls[i] = l.URL
	}
	return urls
}

// EmbeddingVector decodes the stored embedding blob. Returns nil when
// no embedding has been generated yet.
func (e *Email) EmbeddingVector() []float32 {
	return DecodeEmbedding(e.Embedding)
}

// Fetch status values for link enrichment.
const (
	LinkStatusPending = "pending"
	LinkStatusSuccess = "success"
	LinkStatusFailed  = "failed"
	LinkStatusSkipped = "skipped"
)

// EmailLink is one outbound URL extracted from a message body. Shared
// URLs across messages are distinct rows. Metadata fields are filled
// by the link enricher, idempotently.
type EmailLink struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	EmailID     uint       `json:"email_id" gorm:"index;not null"`
	URL         string     `json:"url" gorm:"not null"`
	Domain      string     `json:"domain" gorm:"index"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Excerpt     string     `json:"excerpt,omitempty" gorm:"type:text"`
	FetchStatus string     `json:"fetch_status" gorm:"default:pending;index"`
	FetchError  string     `json:"fetch_error,omitempty"`
	FetchedAt   *time.Time `json:"fetched_at,omitempty"`
}

func (EmailLink) TableName() string {
	return "email_links"
}

// EmailCategory associates a message with one category label. Every
// stored email carries at least one row.
type EmailCategory struct {
	EmailID  uint   `json:"email_id" gorm:"primaryKey;autoIncrement:false"`
	Category string `json:"category" gorm:"primaryKey"`
}

func (EmailCategory) TableName() string {
	return "email_categories"
}

// DomainOf extracts the bare host from a URL for domain-level stats.
func DomainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// EncodeEmbedding packs a vector as little-endian float32 for BLOB
// storage on the email row.
func EncodeEmbedding(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeEmbedding unpacks a BLOB written by EncodeEmbedding.
func DecodeEmbedding(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
