package classify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aikb-backend/internal/email/domain"
	"aikb-backend/internal/email/repository"
	"aikb-backend/pkg/ai"
)

const maxSecondaryCategories = 2

// ToolNamesFunc resolves the tool names mentioned by one email, used
// as extra classification context.
type ToolNamesFunc func(emailID uint) ([]string, error)

// Recategorizer replaces every stored email's categories with
// LLM-chosen ones from the shared vocabulary. Email identity is
// untouched; only the category associations change.
type Recategorizer struct {
	emails    repository.EmailRepository
	toolNames ToolNamesFunc
	ai        ai.Service
	logger    *zap.Logger
	delay     time.Duration
	timeout   time.Duration
}

func NewRecategorizer(emails repository.EmailRepository, toolNames ToolNamesFunc, aiService ai.Service, logger *zap.Logger, delay, timeout time.Duration) *Recategorizer {
	return &Recategorizer{
		emails:    emails,
		toolNames: toolNames,
		ai:        aiService,
		logger:    logger,
		delay:     delay,
		timeout:   timeout,
	}
}

// Run classifies every email in ID order. A failed call falls back to
// the sentinel with zero confidence rather than aborting the pass.
func (r *Recategorizer) Run(ctx context.Context) error {
	emails, err := r.emails.All()
	if err != nil {
		return err
	}
	r.logger.Info("recategorizing emails", zap.Int("total", len(emails)))

	for i, email := range emails {
		if err := ctx.Err(); err != nil {
			return err
		}

		primary, secondary := r.classify(ctx, email)
		categories := append([]string{primary}, secondary...)
		if err := r.emails.ReplaceCategories(email.ID, categories); err != nil {
			return err
		}

		if (i+1)%10 == 0 {
			r.logger.Info("recategorization progress",
				zap.Int("done", i+1), zap.Int("total", len(emails)))
		}
		if r.delay > 0 && i < len(emails)-1 {
			time.Sleep(r.delay)
		}
	}
	return nil
}

func (r *Recategorizer) classify(ctx context.Context, email *domain.Email) (string, []string) {
	var tools []string
	if r.toolNames != nil {
		names, err := r.toolNames(email.ID)
		if err != nil {
			r.logger.Warn("tool lookup failed", zap.Uint("email_id", email.ID), zap.Error(err))
		} else {
			tools = names
		}
	}

	var domains []string
	for _, link := range email.Links {
		if link.Domain != "" && link.Title != "" {
			domains = append(domains, link.Domain)
			if len(domains) == 5 {
				break
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.ai.Classify(callCtx, ai.ClassifyInput{
		Subject:      email.Subject,
		Summary:      email.Summary,
		Tools:        tools,
		Domains:      domains,
		Vocabulary:   Vocabulary,
		Descriptions: Descriptions,
	})
	if err != nil {
		r.logger.Warn("classification failed", zap.Uint("email_id", email.ID), zap.Error(err))
		return SentinelCategory, nil
	}

	primary := result.Primary
	if !InVocabulary(primary) {
		primary = SentinelCategory
	}

	var secondary []string
	seen := map[string]bool{primary: true}
	for _, label := range result.Secondary {
		if len(secondary) == maxSecondaryCategories {
			break
		}
		if InVocabulary(label) && !seen[label] {
			seen[label] = true
			secondary = append(secondary, label)
		}
	}
	return primary, secondary
}
