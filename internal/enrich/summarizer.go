package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aikb-backend/internal/email/repository"
	"aikb-backend/pkg/ai"
)

// Summarizer fills in missing summaries. Emails that already have one
// are left alone, so repeated runs only work on the remaining gaps and
// earlier failures.
type Summarizer struct {
	emails  repository.EmailRepository
	ai      ai.Service
	logger  *zap.Logger
	limiter *Limiter
	timeout time.Duration
	bodyCap int
	linkCap int
}

func NewSummarizer(emails repository.EmailRepository, aiService ai.Service, logger *zap.Logger, limiter *Limiter, timeout time.Duration, bodyCap, linkCap int) *Summarizer {
	return &Summarizer{
		emails:  emails,
		ai:      aiService,
		logger:  logger,
		limiter: limiter,
		timeout: timeout,
		bodyCap: bodyCap,
		linkCap: linkCap,
	}
}

// SummarizeResult reports one pass over the summary gaps.
type SummarizeResult struct {
	Candidates int `json:"candidates"`
	Generated  int `json:"generated"`
	Failed     int `json:"failed"`
}

// Run summarizes every email still missing a summary. A failed call
// leaves the summary empty so the next pass retries it.
func (s *Summarizer) Run(ctx context.Context) (*SummarizeResult, error) {
	emails, err := s.emails.MissingSummary()
	if err != nil {
		return nil, err
	}

	result := &SummarizeResult{Candidates: len(emails)}
	s.logger.Info("generating summaries", zap.Int("candidates", len(emails)))

	for i, email := range emails {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.limiter.Wait()

		body := email.Body
		if len(body) > s.bodyCap {
			body = body[:s.bodyCap]
		}
		links := email.LinkURLs()
		if len(links) > s.linkCap {
			links = links[:s.linkCap]
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		summary, err := s.ai.Summarize(callCtx, ai.SummaryInput{
			Subject: email.Subject,
			Body:    body,
			Links:   links,
		})
		cancel()

		if err != nil || summary == "" {
			result.Failed++
			s.logger.Warn("summary generation failed",
				zap.Uint("email_id", email.ID), zap.Error(err))
			continue
		}

		if err := s.emails.UpdateSummary(email.ID, summary); err != nil {
			return result, err
		}
		result.Generated++

		if (i+1)%10 == 0 {
			s.logger.Info("summary progress",
				zap.Int("done", i+1),
				zap.Int("total", len(emails)),
				zap.Int("generated", result.Generated),
				zap.Int("failed", result.Failed))
		}
	}

	s.logger.Info("summary pass complete",
		zap.Int("generated", result.Generated), zap.Int("failed", result.Failed))
	return result, nil
}
