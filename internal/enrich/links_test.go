package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"aikb-backend/internal/email/domain"
)

func TestDescribeTweet(t *testing.T) {
	e := NewLinkEnricher(nil, zap.NewNop(), time.Second, noopLimiter())

	t.Run("status link", func(t *testing.T) {
		link := &domain.EmailLink{URL: "https://x.com/someuser/status/1234567890123"}
		e.describeTweet(link, link.URL)

		assert.Equal(t, domain.LinkStatusSuccess, link.FetchStatus)
		assert.Equal(t, "@someuser tweet #890123", link.Title, "long IDs keep the last six digits")
		assert.Equal(t, "Twitter/X post by @someuser", link.Description)
		assert.Empty(t, link.FetchError)
	})

	t.Run("short status id", func(t *testing.T) {
		link := &domain.EmailLink{URL: "https://twitter.com/someuser/status/42"}
		e.describeTweet(link, link.URL)
		assert.Equal(t, "@someuser tweet #42", link.Title)
	})

	t.Run("profile link", func(t *testing.T) {
		link := &domain.EmailLink{URL: "https://twitter.com/someuser"}
		e.describeTweet(link, link.URL)

		assert.Equal(t, domain.LinkStatusSuccess, link.FetchStatus)
		assert.Equal(t, "@someuser", link.Title)
	})

	t.Run("unparseable url is skipped", func(t *testing.T) {
		link := &domain.EmailLink{URL: "https://t.co/abc123"}
		e.describeTweet(link, link.URL)

		assert.Equal(t, domain.LinkStatusSkipped, link.FetchStatus)
		assert.Equal(t, "could not parse twitter url", link.FetchError)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	assert.Equal(t, "", truncate("", 5))
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", domain.DomainOf("https://www.example.com/path?q=1"))
	assert.Equal(t, "blog.example.org", domain.DomainOf("http://Blog.Example.org/post"))
}
