// Command ingest runs corpus maintenance from the command line:
// mbox/IMAP ingestion, corpus export/import, enrichment passes and
// aggregate rebuilds, against the same database the API serves.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	analyticsRepo "aikb-backend/internal/analytics/repository"
	analyticsUsecase "aikb-backend/internal/analytics/usecase"
	"aikb-backend/internal/classify"
	emailRepo "aikb-backend/internal/email/repository"
	"aikb-backend/internal/enrich"
	"aikb-backend/internal/ingest"
	insightRepo "aikb-backend/internal/insight/repository"
	insightUsecase "aikb-backend/internal/insight/usecase"
	"aikb-backend/pkg/ai"
	"aikb-backend/pkg/config"
	"aikb-backend/pkg/database"
	"aikb-backend/pkg/imap"
	"aikb-backend/pkg/logger"
	"aikb-backend/pkg/mbox"
)

func main() {
	var (
		mboxPath     = flag.String("mbox", "", "ingest messages from an mbox file")
		useIMAP      = flag.Bool("imap", false, "ingest messages from the configured IMAP mailbox")
		importPath   = flag.String("import", "", "import a previously exported corpus file")
		exportPath   = flag.String("export", "", "export the corpus to a JSON file")
		runEnrich    = flag.Bool("enrich", false, "fill missing summaries and embeddings")
		enrichLinks  = flag.Bool("enrich-links", false, "fetch metadata for pending links")
		recategorize = flag.Bool("recategorize", false, "reclassify every email with the LLM")
		extract      = flag.Bool("extract", false, "rebuild entity and tool tables")
		useLLM       = flag.Bool("use-llm", false, "use the LLM for entity extraction")
		rebuild      = flag.Bool("rebuild", false, "rebuild trend snapshots")
	)
	flag.Parse()

	cfg := config.Load()
	zapLogger, err := logger.New(true)
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

	emails := emailRepo.NewEmailRepository(db)
	links := emailRepo.NewLinkRepository(db)
	insights := insightRepo.NewInsightRepository(db)
	analytics := analyticsRepo.NewAnalyticsRepository(db)
	runs := ingest.NewRunRepository(db)
	pipeline := ingest.NewPipeline(emails, runs, zapLogger)
	engine := analyticsUsecase.NewEngine(analytics, emails, links, zapLogger)

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
	}

	ctx := context.Background()
	ran := false

	if *mboxPath != "" {
		ran = true
		raws, err := mbox.ParseFile(*mboxPath, zapLogger)
		if err != nil {
			zapLogger.Fatal("mbox parse failed", zap.Error(err))
		}
		ingestRecords(pipeline, "mbox:"+*mboxPath, rawsToRecords(raws), zapLogger)
	}

	if *useIMAP {
		ran = true
		if cfg.IMAPServer == "" {
			zapLogger.Fatal("IMAP_SERVER is not configured")
		}
		raws, err := imap.NewService(zapLogger).FetchMailbox(
			cfg.IMAPServer, cfg.IMAPPort, cfg.IMAPUsername, cfg.IMAPPassword, cfg.IMAPMailbox)
		if err != nil {
			zapLogger.Fatal("imap fetch failed", zap.Error(err))
		}
		ingestRecords(pipeline, "imap:"+cfg.IMAPServer, rawsToRecords(raws), zapLogger)
	}

	if *importPath != "" {
		ran = true
		records, err := ingest.ImportCorpus(*importPath)
		if err != nil {
			zapLogger.Fatal("corpus import failed", zap.Error(err))
		}
		ingestRecords(pipeline, "import:"+*importPath, records, zapLogger)
	}

	if *exportPath != "" {
		ran = true
		records, err := pipeline.ExportRecords()
		if err != nil {
			zapLogger.Fatal("corpus export failed", zap.Error(err))
		}
		exportedAt := time.Now().UTC().Format(time.RFC3339)
		if err := ingest.ExportCorpus(*exportPath, records, exportedAt); err != nil {
			zapLogger.Fatal("corpus export failed", zap.Error(err))
		}
		zapLogger.Info("corpus exported", zap.String("path", *exportPath), zap.Int("emails", len(records)))
	}

	if *runEnrich {
		ran = true
		if aiService == nil {
			zapLogger.Fatal("OPENAI_API_KEY is required for -enrich")
		}
		limiter := enrich.NewLimiter(cfg.AICallDelay)
		summarizer := enrich.NewSummarizer(emails, aiService, zapLogger, limiter, cfg.AICallTimeout, cfg.SummaryBodyLimit, cfg.SummaryMaxLinks)
		if _, err := summarizer.Run(ctx); err != nil {
			zapLogger.Fatal("summary pass failed", zap.Error(err))
		}
		embedder := enrich.NewEmbedder(emails, aiService, zapLogger, cfg.AICallTimeout, cfg.EmbeddingBatch)
		if _, err := embedder.Run(ctx); err != nil {
			zapLogger.Fatal("embedding pass failed", zap.Error(err))
		}
	}

	if *enrichLinks {
		ran = true
		enricher := enrich.NewLinkEnricher(links, zapLogger, cfg.LinkFetchTimeout, enrich.NewLimiter(time.Second))
		if _, err := enricher.Run(ctx, cfg.LinkFetchLimit); err != nil {
			zapLogger.Fatal("link enrichment failed", zap.Error(err))
		}
	}

	if *recategorize {
		ran = true
		if aiService == nil {
			zapLogger.Fatal("OPENAI_API_KEY is required for -recategorize")
		}
		recat := classify.NewRecategorizer(emails, insights.ToolNamesForEmail, aiService, zapLogger, cfg.AICallDelay, cfg.AICallTimeout)
		if err := recat.Run(ctx); err != nil {
			zapLogger.Fatal("recategorization failed", zap.Error(err))
		}
		if err := engine.Rebuild(); err != nil {
			zapLogger.Fatal("snapshot rebuild failed", zap.Error(err))
		}
	}

	if *extract {
		ran = true
		extractor := insightUsecase.NewExtractor(emails, insights, aiService, zapLogger, cfg.LLMExtractLimit, cfg.AICallTimeout)
		if err := extractor.Run(ctx, *useLLM); err != nil {
			zapLogger.Fatal("extraction failed", zap.Error(err))
		}
	}

	if *rebuild {
		ran = true
		if err := engine.Rebuild(); err != nil {
			zapLogger.Fatal("snapshot rebuild failed", zap.Error(err))
		}
	}

	if !ran {
		flag.Usage()
	}
}

func rawsToRecords(raws []mbox.RawEmail) []ingest.Record {
	records := make([]ingest.Record, len(raws))
	for i, raw := range raws {
		records[i] = ingest.FromRaw(raw)
	}
	return records
}

func ingestRecords(pipeline *ingest.Pipeline, source string, records []ingest.Record, zapLogger *zap.Logger) {
	run, err := pipeline.Ingest(source, records)
	if err != nil {
		zapLogger.Fatal("ingest failed", zap.String("source", source), zap.Error(err))
	}
	zapLogger.Info("ingest complete",
		zap.String("source", source),
		zap.Int("parsed", run.Parsed),
		zap.Int("added", run.Added),
		zap.Int("duplicates", run.Duplicates))
}
