package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	analytics "aikb-backend/internal/analytics/usecase"
	"aikb-backend/internal/classify"
	"aikb-backend/internal/enrich"
	"aikb-backend/internal/ingest"
	insight "aikb-backend/internal/insight/usecase"
	"aikb-backend/pkg/config"
	"aikb-backend/pkg/imap"
	"aikb-backend/pkg/mbox"
)

// AdminHandler exposes the corpus maintenance operations: ingestion,
// enrichment passes, recategorization and aggregate rebuilds. The AI
// backed components are nil when no API key is configured; those
// endpoints then answer 503.
type AdminHandler struct {
	pipeline      *ingest.Pipeline
	runs          ingest.RunRepository
	imapService   *imap.Service
	summarizer    *enrich.Summarizer
	embedder      *enrich.Embedder
	linkEnricher  *enrich.LinkEnricher
	recategorizer *classify.Recategorizer
	extractor     *insight.Extractor
	engine        *analytics.Engine
	config        *config.Config
	logger        *zap.Logger
}

func NewAdminHandler(
	pipeline *ingest.Pipeline,
	runs ingest.RunRepository,
	imapService *imap.Service,
	summarizer *enrich.Summarizer,
	embedder *enrich.Embedder,
	linkEnricher *enrich.LinkEnricher,
	recategorizer *classify.Recategorizer,
	extractor *insight.Extractor,
	engine *analytics.Engine,
	cfg *config.Config,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		pipeline:      pipeline,
		runs:          runs,
		imapService:   imapService,
		summarizer:    summarizer,
		embedder:      embedder,
		linkEnricher:  linkEnricher,
		recategorizer: recategorizer,
		extractor:     extractor,
		engine:        engine,
		config:        cfg,
		logger:        logger,
	}
}

// IngestMbox parses a server-local mbox file and merges it into the
// corpus, then rebuilds derived tables.
func (h *AdminHandler) IngestMbox(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raws, err := mbox.ParseFile(req.Path, h.logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records := make([]ingest.Record, len(raws))
	for i, raw := range raws {
		records[i] = ingest.FromRaw(raw)
	}

	run, err := h.pipeline.Ingest("mbox:"+req.Path, records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run": run})
		return
	}
	if err := h.postIngest(c); err != nil {
		return
	}
	c.JSON(http.StatusOK, run)
}

// IngestIMAP fetches the configured mailbox and merges it into the
// corpus.
func (h *AdminHandler) IngestIMAP(c *gin.Context) {
	cfg := h.config
	if cfg.IMAPServer == "" || cfg.IMAPUsername == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "imap is not configured"})
		return
	}

	raws, err := h.imapService.FetchMailbox(cfg.IMAPServer, cfg.IMAPPort, cfg.IMAPUsername, cfg.IMAPPassword, cfg.IMAPMailbox)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	records := make([]ingest.Record, len(raws))
	for i, raw := range raws {
		records[i] = ingest.FromRaw(raw)
	}

	run, err := h.pipeline.Ingest("imap:"+cfg.IMAPServer, records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run": run})
		return
	}
	if err := h.postIngest(c); err != nil {
		return
	}
	c.JSON(http.StatusOK, run)
}

// postIngest re-derives aggregates after new emails land.
func (h *AdminHandler) postIngest(c *gin.Context) error {
	if err := h.extractor.Run(c.Request.Context(), false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return err
	}
	if err := h.engine.Rebuild(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return err
	}
	return nil
}

func (h *AdminHandler) Runs(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.runs.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Enrich runs the summary and embedding gap-fill passes.
func (h *AdminHandler) Enrich(c *gin.Context) {
	if h.summarizer == nil || h.embedder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai service is not configured"})
		return
	}

	summaries, err := h.summarizer.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	embeddings, err := h.embedder.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries, "embeddings": embeddings})
}

func (h *AdminHandler) EnrichLinks(c *gin.Context) {
	limit := h.config.LinkFetchLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := h.linkEnricher.Run(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) Recategorize(c *gin.Context) {
	if h.recategorizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai service is not configured"})
		return
	}

	if err := h.recategorizer.Run(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.Rebuild(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recategorized": true})
}

func (h *AdminHandler) Extract(c *gin.Context) {
	useLLM := c.Query("llm") == "true"

	if err := h.extractor.Run(c.Request.Context(), useLLM); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"extracted": true})
}

func (h *AdminHandler) Rebuild(c *gin.Context) {
	if err := h.engine.Rebuild(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rebuilt": true})
}
