package enrich

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"aikb-backend/internal/email/domain"
	"aikb-backend/internal/email/repository"
)

const (
	linkTitleCap       = 255
	linkDescriptionCap = 500
	linkExcerptCap     = 500
)

var socialDomains = map[string]bool{
	"twitter.com": true,
	"x.com":       true,
	"t.co":        true,
}

var tweetPattern = regexp.MustCompile(`(?:twitter\.com|x\.com)/(\w+)(?:/status/(\d+))?`)

// LinkEnricher fetches page metadata for pending links. Each link is
// attempted once; the stored fetch status keeps reruns from refetching
// resolved links.
type LinkEnricher struct {
	links   repository.LinkRepository
	client  *resty.Client
	logger  *zap.Logger
	limiter *Limiter
}

func NewLinkEnricher(links repository.LinkRepository, logger *zap.Logger, fetchTimeout time.Duration, limiter *Limiter) *LinkEnricher {
	client := resty.New().
		SetTimeout(fetchTimeout).
		SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &LinkEnricher{
		links:   links,
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// EnrichResult tallies one enrichment pass by outcome.
type EnrichResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Run enriches up to limit pending links.
func (e *LinkEnricher) Run(ctx context.Context, limit int) (*EnrichResult, error) {
	pending, err := e.links.Pending(limit)
	if err != nil {
		return nil, err
	}
	e.logger.Info("enriching links", zap.Int("pending", len(pending)))

	result := &EnrichResult{}
	for _, link := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e.enrichOne(ctx, link)
		switch link.FetchStatus {
		case domain.LinkStatusSuccess:
			result.Success++
		case domain.LinkStatusSkipped:
			result.Skipped++
		default:
			result.Failed++
		}

		if err := e.links.Update(link); err != nil {
			return result, err
		}
	}

	e.logger.Info("link enrichment complete",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (e *LinkEnricher) enrichOne(ctx context.Context, link *domain.EmailLink) {
	now := time.Now().UTC()
	link.FetchedAt = &now
	if link.Domain == "" {
		link.Domain = domain.DomainOf(link.URL)
	}

	// Twitter/X pages do not render metadata for plain HTTP clients;
	// derive a label from the URL instead of fetching.
	if socialDomains[link.Domain] && link.Domain != "t.co" {
		e.describeTweet(link, link.URL)
		return
	}

	e.limiter.Wait()
	resp, err := e.client.R().SetContext(ctx).Get(link.URL)
	if err != nil {
		link.FetchStatus = domain.LinkStatusFailed
		if strings.Contains(err.Error(), "deadline exceeded") || strings.Contains(err.Error(), "Timeout") {
			link.FetchError = "timeout"
		} else {
			link.FetchError = truncate(err.Error(), 100)
		}
		return
	}
	if resp.StatusCode() >= 400 {
		link.FetchStatus = domain.LinkStatusFailed
		link.FetchError = fmt.Sprintf("http_%d", resp.StatusCode())
		return
	}

	finalURL := resp.RawResponse.Request.URL
	if socialDomains[strings.TrimPrefix(strings.ToLower(finalURL.Hostname()), "www.")] {
		e.describeTweet(link, finalURL.String())
		return
	}

	article, err := readability.FromReader(strings.NewReader(string(resp.Body())), finalURL)
	if err != nil {
		link.FetchStatus = domain.LinkStatusFailed
		link.FetchError = "parse_error"
		return
	}

	link.Title = truncate(strings.TrimSpace(article.Title), linkTitleCap)
	link.Description = truncate(strings.TrimSpace(article.Excerpt), linkDescriptionCap)
	link.Excerpt = truncate(strings.TrimSpace(article.TextContent), linkExcerptCap)
	link.FetchStatus = domain.LinkStatusSuccess
	link.FetchError = ""
}

// describeTweet labels a Twitter/X link from its URL structure.
func (e *LinkEnricher) describeTweet(link *domain.EmailLink, rawURL string) {
	match := tweetPattern.FindStringSubmatch(rawURL)
	if match == nil {
		link.FetchStatus = domain.LinkStatusSkipped
		link.FetchError = "could not parse twitter url"
		return
	}

	username, tweetID := match[1], match[2]
	title := "@" + username
	if tweetID != "" {
		suffix := tweetID
		if len(suffix) > 6 {
			suffix = suffix[len(suffix)-6:]
		}
		title += " tweet #" + suffix
	}

	link.Title = title
	link.Description = "Twitter/X post by @" + username
	link.FetchStatus = domain.LinkStatusSuccess
	link.FetchError = ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
