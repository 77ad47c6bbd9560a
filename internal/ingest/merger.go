package ingest

import (
	"time"

	"go.uber.org/zap"
)

// Record is the interchange form of one message: what the parser
// emits, what the corpus file stores, and what the merger deduplicates
// on. Summary rides along so export/import round-trips keep enrichment
// output.
type Record struct {
	Subject    string     `json:"subject"`
	Date       string     `json:"date"`
	From       string     `json:"from"`
	Content    string     `json:"content"`
	Links      []string   `json:"links"`
	Categories []string   `json:"categories,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	DateParsed *time.Time `json:"-"`
}

// MergeResult reports what a merge pass did.
type MergeResult struct {
	Added      []Record
	Duplicates int
}

// Merger deduplicates incoming records against an existing fingerprint
// set. The same merger instance also catches duplicates within a
// single incoming batch.
type Merger struct {
	seen   map[string]struct{}
	logger *zap.Logger
}

// NewMerger builds a merger primed with the fingerprints of already
// stored (subject, date) pairs.
func NewMerger(existing [][2]string, logger *zap.Logger) *Merger {
	seen := make(map[string]struct{}, len(existing))
	for _, pair := range existing {
		seen[Fingerprint(pair[0], pair[1])] = struct{}{}
	}
	return &Merger{seen: seen, logger: logger}
}

// Merge filters incoming down to records not seen before, preserving
// input order. Merging the same batch twice adds nothing the second
// time.
func (m *Merger) Merge(incoming []Record) MergeResult {
	result := MergeResult{}
	for _, record := range incoming {
		fp := Fingerprint(record.Subject, record.Date)
		if _, dup := m.seen[fp]; dup {
			result.Duplicates++
			continue
		}
		m.seen[fp] = struct{}{}
		result.Added = append(result.Added, record)
	}

	if m.logger != nil {
		m.logger.Info("merge complete",
			zap.Int("incoming", len(incoming)),
			zap.Int("added", len(result.Added)),
			zap.Int("duplicates", result.Duplicates))
	}
	return result
}
