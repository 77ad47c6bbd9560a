package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aikb-backend/internal/email/usecase"
)

type EmailHandler struct {
	emailUsecase *usecase.EmailUsecase
}

func NewEmailHandler(emailUsecase *usecase.EmailUsecase) *EmailHandler {
	return &EmailHandler{emailUsecase: emailUsecase}
}

func (h *EmailHandler) GetRecent(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	emails, err := h.emailUsecase.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails, "count": len(emails)})
}

func (h *EmailHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email id"})
		return
	}

	email, err := h.emailUsecase.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if email == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
		return
	}
	c.JSON(http.StatusOK, email)
}

func (h *EmailHandler) GetByCategory(c *gin.Context) {
	category := c.Param("category")
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	emails, err := h.emailUsecase.ByCategory(category, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"emails":   emails,
		"count":    len(emails),
		"limit":    limit,
		"offset":   offset,
	})
}

// Search dispatches on mode: keyword, semantic, or hybrid (default).
func (h *EmailHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit := queryInt(c, "limit", 10)

	var (
		results []usecase.SearchResult
		err     error
	)
	switch c.DefaultQuery("mode", "hybrid") {
	case "keyword":
		results, err = h.emailUsecase.KeywordSearch(query, limit)
	case "semantic":
		results, err = h.emailUsecase.SemanticSearch(c.Request.Context(), query, limit)
	case "hybrid":
		results, err = h.emailUsecase.HybridSearch(c.Request.Context(), query, limit)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be keyword, semantic or hybrid"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results, "count": len(results)})
}

// Ask synthesizes an answer from search results.
func (h *EmailHandler) Ask(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	answer, err := h.emailUsecase.Ask(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, answer)
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if raw := c.Query(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}
