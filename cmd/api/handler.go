package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	analyticsDelivery "aikb-backend/internal/analytics/delivery"
	emailDelivery "aikb-backend/internal/email/delivery"
	learningDelivery "aikb-backend/internal/learning/delivery"
)

// Handler owns the HTTP surface: the per-feature delivery handlers
// plus the admin operations handler.
type Handler struct {
	emailHandler     *emailDelivery.EmailHandler
	analyticsHandler *analyticsDelivery.AnalyticsHandler
	learningHandler  *learningDelivery.LearningHandler
	adminHandler     *AdminHandler
	logger           *zap.Logger
}

func NewHandler(
	emailHandler *emailDelivery.EmailHandler,
	analyticsHandler *analyticsDelivery.AnalyticsHandler,
	learningHandler *learningDelivery.LearningHandler,
	adminHandler *AdminHandler,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		emailHandler:     emailHandler,
		analyticsHandler: analyticsHandler,
		learningHandler:  learningHandler,
		adminHandler:     adminHandler,
		logger:           logger,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.Use(corsMiddleware())

	SetupRoutes(r, h.emailHandler, h.analyticsHandler, h.learningHandler, h.adminHandler)

	h.logger.Info("http server listening", zap.String("addr", addr))
	return r.Run(addr)
}

// corsMiddleware lets the dashboard call the API from its dev-server
// origin. The API is single-user and unauthenticated, so any origin
// may read it and no credentials are involved; only the verbs the
// routes actually use are advertised.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
