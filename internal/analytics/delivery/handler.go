package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aikb-backend/internal/analytics/usecase"
	"aikb-backend/internal/briefing"
	insightrepo "aikb-backend/internal/insight/repository"
)

type AnalyticsHandler struct {
	engine    *usecase.Engine
	insights  insightrepo.InsightRepository
	briefings *briefing.Service
}

func NewAnalyticsHandler(engine *usecase.Engine, insights insightrepo.InsightRepository, briefings *briefing.Service) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine, insights: insights, briefings: briefings}
}

func (h *AnalyticsHandler) Stats(c *gin.Context) {
	stats, err := h.engine.OverallStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AnalyticsHandler) Categories(c *gin.Context) {
	var (
		counts interface{}
		err    error
	)
	if c.Query("sort") == "alpha" {
		counts, err = h.engine.CategoriesAlphabetical()
	} else {
		counts, err = h.engine.CategoryStats()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": counts})
}

func (h *AnalyticsHandler) Trending(c *gin.Context) {
	days := queryInt(c, "days", 7)
	limit := queryInt(c, "limit", 10)

	trends, err := h.engine.TrendingTopics(days, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trending": trends, "window_days": days})
}

func (h *AnalyticsHandler) WhatsHot(c *gin.Context) {
	limit := queryInt(c, "limit", 10)

	topics, err := h.engine.WhatsHot(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hot_topics": topics})
}

func (h *AnalyticsHandler) Timeline(c *gin.Context) {
	days := queryInt(c, "days", 30)

	timeline, err := h.engine.TopicTimeline(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (h *AnalyticsHandler) TopDomains(c *gin.Context) {
	limit := queryInt(c, "limit", 15)

	domains, err := h.engine.TopDomains(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": domains})
}

func (h *AnalyticsHandler) Entities(c *gin.Context) {
	entityType := c.Query("type")
	limit := queryInt(c, "limit", 50)

	entities, err := h.insights.Entities(entityType, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entities": entities})
}

func (h *AnalyticsHandler) ToolRankings(c *gin.Context) {
	limit := queryInt(c, "limit", 20)

	tools, err := h.insights.ToolRankings(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}

func (h *AnalyticsHandler) ToolsByCategory(c *gin.Context) {
	grouped, err := h.insights.ToolsByCategory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": grouped})
}

// LatestBriefing serves the cached briefing, generating one when the
// cache is empty.
func (h *AnalyticsHandler) LatestBriefing(c *gin.Context) {
	content, err := h.briefings.Latest()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if content == nil {
		content, err = h.briefings.Generate(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, content)
}

func (h *AnalyticsHandler) GenerateBriefing(c *gin.Context) {
	content, err := h.briefings.Generate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, content)
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if raw := c.Query(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
