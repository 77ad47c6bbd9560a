package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aikb-backend/internal/email/domain"
	"aikb-backend/internal/email/repository"
	"aikb-backend/pkg/ai"
)

// embeddingBodyCap bounds how much raw body goes into the embedding
// text when no summary exists yet.
const embeddingBodyCap = 1000

// Embedder generates and stores vectors for emails that lack one.
type Embedder struct {
	emails    repository.EmailRepository
	ai        ai.Service
	logger    *zap.Logger
	timeout   time.Duration
	batchSize int
}

func NewEmbedder(emails repository.EmailRepository, aiService ai.Service, logger *zap.Logger, timeout time.Duration, batchSize int) *Embedder {
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}
	return &Embedder{
		emails:    emails,
		ai:        aiService,
		logger:    logger,
		timeout:   timeout,
		batchSize: batchSize,
	}
}

// EmbedResult reports one embedding pass.
type EmbedResult struct {
	Candidates int `json:"candidates"`
	Embedded   int `json:"embedded"`
	Failed     int `json:"failed"`
}

// EmbeddingText builds the text a vector represents: the subject plus
// the summary when present, or a bounded body prefix otherwise.
func EmbeddingText(email *domain.Email) string {
	text := email.Subject
	if email.Summary != "" {
		return text + "\n" + email.Summary
	}
	body := email.Body
	if len(body) > embeddingBodyCap {
		body = body[:embeddingBodyCap]
	}
	return text + "\n" + body
}

// Run embeds every email without a stored vector, in batches. A nil
// vector in a batch response marks that one email as failed without
// affecting its neighbors.
func (e *Embedder) Run(ctx context.Context) (*EmbedResult, error) {
	emails, err := e.emails.MissingEmbedding()
	if err != nil {
		return nil, err
	}

	result := &EmbedResult{Candidates: len(emails)}
	e.logger.Info("generating embeddings", zap.Int("candidates", len(emails)))

	for start := 0; start < len(emails); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := start + e.batchSize
		if end > len(emails) {
			end = len(emails)
		}
		batch := emails[start:end]

		texts := make([]string, len(batch))
		for i, email := range batch {
			texts[i] = EmbeddingText(email)
		}

		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		vectors, err := e.ai.EmbedTexts(callCtx, texts)
		cancel()
		if err != nil {
			result.Failed += len(batch)
			e.logger.Warn("embedding batch failed",
				zap.Int("batch_start", start), zap.Error(err))
			continue
		}

		for i, email := range batch {
			if i >= len(vectors) || vectors[i] == nil {
				result.Failed++
				continue
			}
			blob := domain.EncodeEmbedding(vectors[i])
			if err := e.emails.UpdateEmbedding(email.ID, blob); err != nil {
				return result, err
			}
			result.Embedded++
		}
	}

	e.logger.Info("embedding pass complete",
		zap.Int("embedded", result.Embedded), zap.Int("failed", result.Failed))
	return result, nil
}
