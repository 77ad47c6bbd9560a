package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	t.Run("matches whole words only", func(t *testing.T) {
		categories := Categorize("Lab notes", "the reagent reacted with the solution")
		assert.Equal(t, []string{SentinelCategory}, categories,
			"agent inside reagent should not fire")

		categories = Categorize("Building an agent", "")
		assert.Contains(t, categories, "AI Agents")
	})

	t.Run("multiple independent matches", func(t *testing.T) {
		categories := Categorize(
			"Claude and Cursor",
			"anthropic shipped an update, and the cursor ide got faster",
		)
		assert.Contains(t, categories, "Claude & Anthropic")
		assert.Contains(t, categories, "Cursor")
		assert.Contains(t, categories, "AI Coding IDEs")
		assert.NotContains(t, categories, SentinelCategory)
	})

	t.Run("sentinel only when nothing matched", func(t *testing.T) {
		categories := Categorize("Weekend reading", "some completely unrelated text")
		assert.Equal(t, []string{SentinelCategory}, categories)
	})

	t.Run("case insensitive", func(t *testing.T) {
		categories := Categorize("DEEPSEEK R1 IS OUT", "")
		assert.Contains(t, categories, "DeepSeek")
	})

	t.Run("subject and body both searched", func(t *testing.T) {
		categories := Categorize("", "the perplexity answer engine added citations")
		assert.Contains(t, categories, "Perplexity")
	})
}

func TestVocabulary(t *testing.T) {
	assert.Len(t, Vocabulary, 27)

	for _, label := range Vocabulary {
		assert.True(t, InVocabulary(label), label)
		assert.NotEmpty(t, Descriptions[label], "missing description for %s", label)
	}

	assert.True(t, InVocabulary(SentinelCategory))
	assert.False(t, InVocabulary("Made Up Category"))
}

func TestRuleTableCategoriesAreInVocabulary(t *testing.T) {
	for _, r := range ruleTable {
		assert.True(t, InVocabulary(r.category), r.category)
	}
}
