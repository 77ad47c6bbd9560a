package main

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	api "aikb-backend/cmd/api"
	analyticsDelivery "aikb-backend/internal/analytics/delivery"
	analyticsRepo "aikb-backend/internal/analytics/repository"
	analyticsUsecase "aikb-backend/internal/analytics/usecase"
	"aikb-backend/internal/briefing"
	"aikb-backend/internal/classify"
	emailDelivery "aikb-backend/internal/email/delivery"
	emailRepo "aikb-backend/internal/email/repository"
	emailUsecase "aikb-backend/internal/email/usecase"
	"aikb-backend/internal/enrich"
	"aikb-backend/internal/ingest"
	insightRepo "aikb-backend/internal/insight/repository"
	insightUsecase "aikb-backend/internal/insight/usecase"
	learningDelivery "aikb-backend/internal/learning/delivery"
	learningRepo "aikb-backend/internal/learning/repository"
	learningUsecase "aikb-backend/internal/learning/usecase"
	"aikb-backend/pkg/ai"
	"aikb-backend/pkg/config"
	"aikb-backend/pkg/database"
	"aikb-backend/pkg/imap"
	"aikb-backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.New(false)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewSQLiteConnection(cfg)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		zapLogger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Repositories
	emailRepository := emailRepo.NewEmailRepository(db)
	linkRepository := emailRepo.NewLinkRepository(db)
	insightRepository := insightRepo.NewInsightRepository(db)
	analyticsRepository := analyticsRepo.NewAnalyticsRepository(db)
	learningRepository := learningRepo.NewLearningRepository(db)
	runRepository := ingest.NewRunRepository(db)

	// AI service is optional; everything degrades without it.
	var aiService ai.Service
	if cfg.OpenAIAPIKey != "" {
		aiService, err = ai.New(ai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			ClassifyModel:  cfg.ClassifyModel,
			EmbeddingModel: cfg.EmbeddingModel,
		})
		if err != nil {
			zapLogger.Fatal("failed to initialize ai service", zap.Error(err))
		}
	} else {
		zapLogger.Warn("OPENAI_API_KEY not set; summaries, embeddings and llm classification disabled")
	}

	// Usecases and pipeline components
	engine := analyticsUsecase.NewEngine(analyticsRepository, emailRepository, linkRepository, zapLogger)
	emailUc := emailUsecase.NewEmailUsecase(emailRepository, aiService, zapLogger)
	learningUc := learningUsecase.NewLearningUsecase(learningRepository, aiService, zapLogger)
	extractor := insightUsecase.NewExtractor(emailRepository, insightRepository, aiService, zapLogger, cfg.LLMExtractLimit, cfg.AICallTimeout)
	pipeline := ingest.NewPipeline(emailRepository, runRepository, zapLogger)
	briefingService := briefing.NewService(db, engine, emailRepository, insightRepository, aiService, zapLogger)

	aiLimiter := enrich.NewLimiter(cfg.AICallDelay)
	linkLimiter := enrich.NewLimiter(time.Second)
	linkEnricher := enrich.NewLinkEnricher(linkRepository, zapLogger, cfg.LinkFetchTimeout, linkLimiter)

	var (
		summarizer    *enrich.Summarizer
		embedder      *enrich.Embedder
		recategorizer *classify.Recategorizer
	)
	if aiService != nil {
		summarizer = enrich.NewSummarizer(emailRepository, aiService, zapLogger, aiLimiter, cfg.AICallTimeout, cfg.SummaryBodyLimit, cfg.SummaryMaxLinks)
		embedder = enrich.NewEmbedder(emailRepository, aiService, zapLogger, cfg.AICallTimeout, cfg.EmbeddingBatch)
		recategorizer = classify.NewRecategorizer(emailRepository, insightRepository.ToolNamesForEmail, aiService, zapLogger, cfg.AICallDelay, cfg.AICallTimeout)
	}

	// Nightly enrichment: fill summary and embedding gaps, then fetch
	// pending link metadata.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.EnrichSchedule, func() {
		ctx := context.Background()
		if summarizer != nil {
			if _, err := summarizer.Run(ctx); err != nil {
				zapLogger.Error("scheduled summary pass failed", zap.Error(err))
			}
		}
		if embedder != nil {
			if _, err := embedder.Run(ctx); err != nil {
				zapLogger.Error("scheduled embedding pass failed", zap.Error(err))
			}
		}
		if _, err := linkEnricher.Run(ctx, cfg.LinkFetchLimit); err != nil {
			zapLogger.Error("scheduled link enrichment failed", zap.Error(err))
		}
	}); err != nil {
		zapLogger.Fatal("invalid enrichment schedule", zap.String("schedule", cfg.EnrichSchedule), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP surface
	emailHandler := emailDelivery.NewEmailHandler(emailUc)
	analyticsHandler := analyticsDelivery.NewAnalyticsHandler(engine, insightRepository, briefingService)
	learningHandler := learningDelivery.NewLearningHandler(learningUc)
	adminHandler := api.NewAdminHandler(
		pipeline, runRepository, imap.NewService(zapLogger),
		summarizer, embedder, linkEnricher, recategorizer,
		extractor, engine, cfg, zapLogger,
	)

	handler := api.NewHandler(emailHandler, analyticsHandler, learningHandler, adminHandler, zapLogger)
	if err := handler.Start(":" + cfg.Port); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
