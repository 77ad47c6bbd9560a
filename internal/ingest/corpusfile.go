package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// corpusFile is the on-disk JSON shape of an exported corpus.
type corpusFile struct {
	ExportedAt string   `json:"exported_at"`
	Count      int      `json:"count"`
	Emails     []Record `json:"emails"`
}

// ExportCorpus writes records to a portable JSON file.
func ExportCorpus(path string, records []Record, exportedAt string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	payload := corpusFile{
		ExportedAt: exportedAt,
		Count:      len(records),
		Emails:     records,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write corpus file: %w", err)
	}
	return nil
}

// ImportCorpus reads a file written by ExportCorpus. It also accepts a
// bare JSON array of records for hand-built corpora.
func ImportCorpus(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var payload corpusFile
	if err := json.Unmarshal(data, &payload); err == nil && payload.Emails != nil {
		return payload.Emails, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode corpus file: %w", err)
	}
	return records, nil
}
