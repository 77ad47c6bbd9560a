package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"aikb-backend/internal/email/domain"
	"aikb-backend/internal/email/repository"
	"aikb-backend/pkg/ai"
)

type fakeAI struct {
	summarize func(input ai.SummaryInput) (string, error)
	embed     func(texts []string) ([][]float32, error)
}

func (f *fakeAI) Summarize(ctx context.Context, input ai.SummaryInput) (string, error) {
	if f.summarize == nil {
		return "", errors.New("not implemented")
	}
	return f.summarize(input)
}

func (f *fakeAI) Classify(ctx context.Context, input ai.ClassifyInput) (ai.Classification, error) {
	return ai.Classification{}, errors.New("not implemented")
}

func (f *fakeAI) ExtractEntities(ctx context.Context, text string) ([]ai.ExtractedEntity, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAI) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embed == nil {
		return nil, errors.New("not implemented")
	}
	return f.embed(texts)
}

func (f *fakeAI) Synthesize(ctx context.Context, system, prompt string) (string, error) {
	return "", errors.New("not implemented")
}

func newTestRepo(t *testing.T) (repository.EmailRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Email{}, &domain.EmailLink{}, &domain.EmailCategory{}))
	return repository.NewEmailRepository(db), db
}

func noopLimiter() *Limiter {
	l := NewLimiter(time.Second)
	l.sleep = func(time.Duration) {}
	return l
}

func TestLimiter(t *testing.T) {
	var slept []time.Duration
	l := NewLimiter(100 * time.Millisecond)
	l.sleep = func(d time.Duration) { slept = append(slept, d) }

	l.Wait()
	assert.Empty(t, slept, "first call never sleeps")

	l.Wait()
	require.Len(t, slept, 1)
	assert.LessOrEqual(t, slept[0], 100*time.Millisecond)

	l = NewLimiter(0)
	l.sleep = func(d time.Duration) { t.Fatal("zero interval should not sleep") }
	l.Wait()
	l.Wait()
}

func TestSummarizerFillsGapsOnly(t *testing.T) {
	emails, db := newTestRepo(t)

	require.NoError(t, db.Create(&domain.Email{Subject: "done", Summary: "Already summarized."}).Error)
	require.NoError(t, db.Create(&domain.Email{Subject: "todo a", Body: "body a"}).Error)
	require.NoError(t, db.Create(&domain.Email{Subject: "todo b", Body: "body b"}).Error)

	var summarized []string
	aiService := &fakeAI{
		summarize: func(input ai.SummaryInput) (string, error) {
			summarized = append(summarized, input.Subject)
			return "Summary of " + input.Subject, nil
		},
	}
	s := NewSummarizer(emails, aiService, zap.NewNop(), noopLimiter(), time.Minute, 2000, 10)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Candidates)
	assert.Equal(t, 2, result.Generated)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{"todo a", "todo b"}, summarized)

	var email domain.Email
	require.NoError(t, db.Where("subject = ?", "done").First(&email).Error)
	assert.Equal(t, "Already summarized.", email.Summary, "existing summaries stay untouched")

	// Nothing left to do on the next pass.
	result, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Candidates)
}

func TestSummarizerLeavesFailuresForRetry(t *testing.T) {
	emails, db := newTestRepo(t)

	require.NoError(t, db.Create(&domain.Email{Subject: "flaky", Body: "body"}).Error)
	require.NoError(t, db.Create(&domain.Email{Subject: "fine", Body: "body"}).Error)

	aiService := &fakeAI{
		summarize: func(input ai.SummaryInput) (string, error) {
			if input.Subject == "flaky" {
				return "", errors.New("rate limited")
			}
			return "A summary.", nil
		},
	}
	s := NewSummarizer(emails, aiService, zap.NewNop(), noopLimiter(), time.Minute, 2000, 10)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, result.Failed)

	// The failed email is a candidate again next pass.
	pending, err := emails.MissingSummary()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "flaky", pending[0].Subject)
}

func TestSummarizerTruncatesInput(t *testing.T) {
	emails, db := newTestRepo(t)

	email := &domain.Email{Subject: "long", Body: strings.Repeat("x", 5000)}
	for i := 0; i < 12; i++ {
		email.Links = append(email.Links, domain.EmailLink{
			URL: fmt.Sprintf("https://example.com/article-%02d", i),
		})
	}
	require.NoError(t, db.Create(email).Error)

	var captured ai.SummaryInput
	aiService := &fakeAI{
		summarize: func(input ai.SummaryInput) (string, error) {
			captured = input
			return "A summary.", nil
		},
	}
	s := NewSummarizer(emails, aiService, zap.NewNop(), noopLimiter(), time.Minute, 2000, 10)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, captured.Body, 2000)
	assert.Len(t, captured.Links, 10)
}

func TestEmbeddingText(t *testing.T) {
	t.Run("prefers summary", func(t *testing.T) {
		email := &domain.Email{Subject: "s", Summary: "the summary", Body: "the body"}
		assert.Equal(t, "s\nthe summary", EmbeddingText(email))
	})

	t.Run("falls back to bounded body", func(t *testing.T) {
		email := &domain.Email{Subject: "s", Body: strings.Repeat("b", 1500)}
		text := EmbeddingText(email)
		assert.Equal(t, len("s\n")+embeddingBodyCap, len(text))
	})
}

func TestEmbedderRun(t *testing.T) {
	emails, db := newTestRepo(t)

	require.NoError(t, db.Create(&domain.Email{
		Subject:   "has vector",
		Embedding: domain.EncodeEmbedding([]float32{1, 2}),
	}).Error)
	require.NoError(t, db.Create(&domain.Email{Subject: "a", Body: "body"}).Error)
	require.NoError(t, db.Create(&domain.Email{Subject: "b", Body: "body"}).Error)
	require.NoError(t, db.Create(&domain.Email{Subject: "c", Body: "body"}).Error)

	aiService := &fakeAI{
		embed: func(texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i, text := range texts {
				if strings.HasPrefix(text, "b\n") {
					continue // per-item failure stays nil
				}
				vectors[i] = []float32{float32(len(text)), 1}
			}
			return vectors, nil
		},
	}
	e := NewEmbedder(emails, aiService, zap.NewNop(), time.Minute, 100)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Candidates, "emails with vectors are skipped")
	assert.Equal(t, 2, result.Embedded)
	assert.Equal(t, 1, result.Failed)

	// The failed email remains a candidate; the others round-trip.
	pending, err := emails.MissingEmbedding()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].Subject)

	var email domain.Email
	require.NoError(t, db.Where("subject = ?", "a").First(&email).Error)
	vector := email.EmbeddingVector()
	require.Len(t, vector, 2)
	assert.Equal(t, float32(1), vector[1])
}

func TestEmbedderBatches(t *testing.T) {
	emails, db := newTestRepo(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&domain.Email{Subject: fmt.Sprintf("e%d", i), Body: "body"}).Error)
	}

	var batchSizes []int
	aiService := &fakeAI{
		embed: func(texts []string) ([][]float32, error) {
			batchSizes = append(batchSizes, len(texts))
			vectors := make([][]float32, len(texts))
			for i := range vectors {
				vectors[i] = []float32{1}
			}
			return vectors, nil
		},
	}
	e := NewEmbedder(emails, aiService, zap.NewNop(), time.Minute, 2)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Embedded)
	assert.Equal(t, []int{2, 2, 1}, batchSizes)
}

func TestEmbedderBatchFailureDoesNotAbort(t *testing.T) {
	emails, db := newTestRepo(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, db.Create(&domain.Email{Subject: fmt.Sprintf("e%d", i), Body: "body"}).Error)
	}

	calls := 0
	aiService := &fakeAI{
		embed: func(texts []string) ([][]float32, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("upstream error")
			}
			vectors := make([][]float32, len(texts))
			for i := range vectors {
				vectors[i] = []float32{1}
			}
			return vectors, nil
		},
	}
	e := NewEmbedder(emails, aiService, zap.NewNop(), time.Minute, 2)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 2, result.Embedded)
}
