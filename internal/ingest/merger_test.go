package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFingerprint(t *testing.T) {
	base := Fingerprint("Subject", "Mon, 01 Jan 2025 10:00:00 +0000")

	assert.Equal(t, base, Fingerprint("  subject  ", "mon, 01 jan 2025 10:00:00 +0000"),
		"case and surrounding whitespace should not change identity")
	assert.NotEqual(t, base, Fingerprint("Subject", "Tue, 02 Jan 2025 10:00:00 +0000"))
	assert.NotEqual(t, base, Fingerprint("Other subject", "Mon, 01 Jan 2025 10:00:00 +0000"))
}

func TestMerger(t *testing.T) {
	t.Run("filters against existing corpus", func(t *testing.T) {
		merger := NewMerger([][2]string{{"Known", "Mon, 01 Jan 2025 10:00:00 +0000"}}, zap.NewNop())

		result := merger.Merge([]Record{
			{Subject: "Known", Date: "Mon, 01 Jan 2025 10:00:00 +0000"},
			{Subject: "Fresh", Date: "Tue, 02 Jan 2025 10:00:00 +0000"},
		})

		require.Len(t, result.Added, 1)
		assert.Equal(t, "Fresh", result.Added[0].Subject)
		assert.Equal(t, 1, result.Duplicates)
	})

	t.Run("catches duplicates within one batch", func(t *testing.T) {
		merger := NewMerger(nil, zap.NewNop())

		result := merger.Merge([]Record{
			{Subject: "Same", Date: "Mon, 01 Jan 2025 10:00:00 +0000"},
			{Subject: "SAME", Date: " mon, 01 jan 2025 10:00:00 +0000 "},
		})

		assert.Len(t, result.Added, 1)
		assert.Equal(t, 1, result.Duplicates)
	})

	t.Run("merging twice is idempotent", func(t *testing.T) {
		merger := NewMerger(nil, zap.NewNop())
		batch := []Record{
			{Subject: "A", Date: "Mon, 01 Jan 2025 10:00:00 +0000"},
			{Subject: "B", Date: "Tue, 02 Jan 2025 10:00:00 +0000"},
		}

		first := merger.Merge(batch)
		second := merger.Merge(batch)

		assert.Len(t, first.Added, 2)
		assert.Empty(t, second.Added)
		assert.Equal(t, 2, second.Duplicates)
	})

	t.Run("preserves input order", func(t *testing.T) {
		merger := NewMerger(nil, zap.NewNop())

		result := merger.Merge([]Record{
			{Subject: "C", Date: "d1"},
			{Subject: "A", Date: "d2"},
			{Subject: "B", Date: "d3"},
		})

		require.Len(t, result.Added, 3)
		assert.Equal(t, "C", result.Added[0].Subject)
		assert.Equal(t, "A", result.Added[1].Subject)
		assert.Equal(t, "B", result.Added[2].Subject)
	})
}

func TestCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	records := []Record{
		{
			Subject:    "Claude ships a new agent workflow",
			Date:       "Thu, 02 Jan 2025 10:00:00 +0000",
			From:       "AI Weekly <news@aiweekly.example.com>",
			Content:    "Anthropic released an update.",
			Links:      []string{"https://example.com/claude-agents-update"},
			Categories: []string{"Claude & Anthropic"},
			Summary:    "Anthropic shipped agent workflow changes.",
		},
		{
			Subject: "Quiet week",
			Date:    "Fri, 03 Jan 2025 10:00:00 +0000",
			Content: "Not much happened.",
		},
	}

	require.NoError(t, ExportCorpus(path, records, "2025-01-04T00:00:00Z"))

	imported, err := ImportCorpus(path)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, records[0].Subject, imported[0].Subject)
	assert.Equal(t, records[0].Summary, imported[0].Summary)
	assert.Equal(t, records[0].Categories, imported[0].Categories)
	assert.Empty(t, imported[1].Categories)
}

func TestImportCorpusBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"subject":"A","date":"d","content":"body"}]`), 0o644))

	imported, err := ImportCorpus(path)
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, "A", imported[0].Subject)
}
