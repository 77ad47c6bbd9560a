package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"aikb-backend/internal/email/domain"
	"aikb-backend/internal/email/repository"
	"aikb-backend/pkg/ai"
)

const (
	resultLinkLimit  = 5
	synthesisSources = 5
)

// Match types reported on search results.
const (
	MatchSemantic = "semantic"
	MatchKeyword  = "keyword"
)

// SearchResult is one search hit. Similarity is nil for keyword-only
// matches so the client can tell "no semantic score" from "score 0".
type SearchResult struct {
	ID         uint         `json:"id"`
	Subject    string       `json:"subject"`
	Summary    string       `json:"summary"`
	Date       string       `json:"date,omitempty"`
	Similarity *float64     `json:"similarity"`
	MatchType  string       `json:"match_type"`
	Links      []ResultLink `json:"links"`
}

// ResultLink carries enriched link metadata on a search hit.
type ResultLink struct {
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Answer is a synthesized response to a question, with its sources.
type Answer struct {
	Answer      string         `json:"answer"`
	Sources     []SearchResult `json:"sources"`
	AIGenerated bool           `json:"ai_generated"`
}

// EmailUsecase serves browsing and search over the stored corpus. The
// AI service may be nil; search then degrades to keyword matching and
// answers to formatted result lists.
type EmailUsecase struct {
	emails repository.EmailRepository
	ai     ai.Service
	logger *zap.Logger
}

func NewEmailUsecase(emails repository.EmailRepository, aiService ai.Service, logger *zap.Logger) *EmailUsecase {
	return &EmailUsecase{emails: emails, ai: aiService, logger: logger}
}

func (u *EmailUsecase) GetByID(id uint) (*domain.Email, error) {
	return u.emails.GetByID(id)
}

func (u *EmailUsecase) Recent(limit int) ([]*domain.Email, error) {
	return u.emails.Recent(limit)
}

func (u *EmailUsecase) ByCategory(category string, limit, offset int) ([]*domain.Email, error) {
	return u.emails.ByCategory(category, limit, offset)
}

// KeywordSearch matches the query as a substring of subject, body or
// summary.
func (u *EmailUsecase) KeywordSearch(query string, limit int) ([]SearchResult, error) {
	emails, err := u.emails.KeywordSearch(query, limit)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(emails))
	for i, email := range emails {
		results[i] = toResult(email, MatchKeyword, nil)
	}
	return results, nil
}

// SemanticSearch ranks emails by cosine similarity between the query
// embedding and stored vectors. Without an AI service or on embedding
// failure it falls back to keyword search.
func (u *EmailUsecase) SemanticSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if u.ai == nil {
		return u.KeywordSearch(query, limit)
	}

	vectors, err := u.ai.EmbedTexts(ctx, []string{query})
	if err != nil || len(vectors) == 0 || vectors[0] == nil {
		u.logger.Warn("query embedding failed, using keyword search", zap.Error(err))
		return u.KeywordSearch(query, limit)
	}
	queryVector := vectors[0]

	candidates, err := u.emails.WithEmbeddings()
	if err != nil {
		return nil, err
	}

	type scored struct {
		email      *domain.Email
		similarity float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, email := range candidates {
		similarity := CosineSimilarity(queryVector, email.EmbeddingVector())
		ranked = append(ranked, scored{email: email, similarity: similarity})
	}

	// Stable order for equal scores so repeated queries page
	// identically.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].similarity != ranked[j].similarity {
			return ranked[i].similarity > ranked[j].similarity
		}
		return ranked[i].email.ID < ranked[j].email.ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]SearchResult, len(ranked))
	for i, hit := range ranked {
		similarity := math.Round(hit.similarity*10000) / 10000
		email, err := u.emails.GetByID(hit.email.ID)
		if err != nil {
			return nil, err
		}
		if email == nil {
			email = hit.email
		}
		results[i] = toResult(email, MatchSemantic, &similarity)
	}
	return results, nil
}

// HybridSearch merges semantic and keyword hits, semantic first.
// Keyword hits already found semantically are dropped; the cap applies
// after the merge.
func (u *EmailUsecase) HybridSearch(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	semantic, err := u.SemanticSearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	keyword, err := u.KeywordSearch(query, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(semantic))
	merged := make([]SearchResult, 0, len(semantic)+len(keyword))
	for _, hit := range semantic {
		if !seen[hit.ID] {
			seen[hit.ID] = true
			merged = append(merged, hit)
		}
	}
	for _, hit := range keyword {
		if !seen[hit.ID] {
			seen[hit.ID] = true
			merged = append(merged, hit)
		}
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Ask answers a question from the corpus: hybrid search for sources,
// then LLM synthesis with [Source N] citations. Without an AI service
// the answer is a plain formatted result list.
func (u *EmailUsecase) Ask(ctx context.Context, query string, limit int) (*Answer, error) {
	results, err := u.HybridSearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Answer{
			Answer:  "I couldn't find any relevant information for that query.",
			Sources: []SearchResult{},
		}, nil
	}

	sources := results
	if len(sources) > synthesisSources {
		sources = sources[:synthesisSources]
	}

	if u.ai == nil {
		return &Answer{Answer: formatResults(sources), Sources: sources}, nil
	}

	var sourceText strings.Builder
	for i, source := range sources {
		summary := source.Summary
		if summary == "" {
			summary = "No summary available"
		}
		fmt.Fprintf(&sourceText, "[Source %d] %s\n%s\n\n", i+1, source.Subject, summary)
	}

	prompt := fmt.Sprintf(`Based on the following information from an AI knowledge base, answer the user's question.

User Question: %s

Relevant Information:
%s
Instructions:
1. Synthesize a helpful answer based on the sources
2. Be concise but comprehensive
3. Cite sources using [Source N] notation when referencing specific information
4. If the sources don't fully answer the question, acknowledge limitations

Answer:`, query, sourceText.String())

	answer, err := u.ai.Synthesize(ctx,
		"You are a helpful AI assistant answering questions about AI tools, techniques, and industry developments.",
		prompt)
	if err != nil {
		u.logger.Warn("answer synthesis failed", zap.Error(err))
		return &Answer{Answer: formatResults(sources), Sources: sources}, nil
	}

	return &Answer{Answer: answer, Sources: sources, AIGenerated: true}, nil
}

func formatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var b strings.Builder
	b.WriteString("Here's what I found:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n**%d. %s**\n", i+1, r.Subject)
		if r.Summary != "" {
			b.WriteString(r.Summary + "\n")
		}
	}
	return b.String()
}

func toResult(email *domain.Email, matchType string, similarity *float64) SearchResult {
	result := SearchResult{
		ID:         email.ID,
		Subject:    email.Subject,
		Summary:    email.Summary,
		Similarity: similarity,
		MatchType:  matchType,
	}
	if email.DateParsed != nil {
		result.Date = email.DateParsed.Format("2006-01-02")
	}
	for i, link := range email.Links {
		if i == resultLinkLimit {
			break
		}
		result.Links = append(result.Links, ResultLink{
			URL:         link.URL,
			Domain:      link.Domain,
			Title:       link.Title,
			Description: link.Description,
		})
	}
	return result
}

// CosineSimilarity compares two vectors, tolerating nil or mismatched
// lengths by scoring the overlap only.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
