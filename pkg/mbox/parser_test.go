package mbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractLinks(t *testing.T) {
	t.Run("trims trailing punctuation", func(t *testing.T) {
		links := ExtractLinks("see https://example.com/article-one, and https://example.com/other-page.")
		assert.Equal(t, []string{"https://example.com/article-one", "https://example.com/other-page"}, links)
	})

	t.Run("drops short urls", func(t *testing.T) {
		links := ExtractLinks("tiny http://a.b link")
		assert.Empty(t, links)
	})

	t.Run("dedupes preserving first-seen order", func(t *testing.T) {
		text := "first https://example.com/page-b then https://example.com/page-a then https://example.com/page-b again"
		links := ExtractLinks(text)
		assert.Equal(t, []string{"https://example.com/page-b", "https://example.com/page-a"}, links)
	})

	t.Run("no links", func(t *testing.T) {
		assert.Empty(t, ExtractLinks("plain text without urls"))
	})
}

func TestStripHTMLTags(t *testing.T) {
	out := StripHTMLTags("<p>Hello <b>world</b></p>\n\n\n<div>again</div>")
	assert.Equal(t, "Hello world again", out)
}

func TestParseDate(t *testing.T) {
	t.Run("rfc formats", func(t *testing.T) {
		parsed := ParseDate("Mon, 02 Jan 2006 15:04:05 -0700")
		require.NotNil(t, parsed)
		assert.Equal(t, 2006, parsed.Year())
	})

	t.Run("unparseable returns nil", func(t *testing.T) {
		assert.Nil(t, ParseDate("not a date"))
	})

	t.Run("empty returns nil", func(t *testing.T) {
		assert.Nil(t, ParseDate(""))
	})
}

const sampleMbox = `From alice@example.com Thu Jan  2 10:00:00 2025
From: AI Weekly <news@aiweekly.example.com>
To: reader@example.com
Subject: Claude ships a new agent workflow
Date: Thu, 02 Jan 2025 10:00:00 +0000
Content-Type: text/plain

Anthropic released an update. Read more at https://example.com/claude-agents-update today.

-------------------------------------------------
Unsubscribe: https://example.com/unsubscribe-footer-link

From bob@example.com Thu Jan  2 11:00:00 2025
From: AI Weekly <news@aiweekly.example.com>
To: reader@example.com
Subject:
Date: Thu, 02 Jan 2025 11:00:00 +0000
Content-Type: text/plain


`

func TestParse(t *testing.T) {
	emails, err := Parse(strings.NewReader(sampleMbox), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, emails, 1, "empty message should be skipped")

	email := emails[0]
	assert.Equal(t, "Claude ships a new agent workflow", email.Subject)
	assert.Contains(t, email.From, "aiweekly.example.com")
	require.NotNil(t, email.DateParsed)
	assert.Equal(t, 2025, email.DateParsed.Year())

	// Footer content below the dashed delimiter is cut.
	assert.Contains(t, email.Body, "Anthropic released an update")
	assert.NotContains(t, email.Body, "Unsubscribe")
	assert.Equal(t, []string{"https://example.com/claude-agents-update"}, email.Links)
}
