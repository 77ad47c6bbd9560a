package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	analyticsDelivery "aikb-backend/internal/analytics/delivery"
	emailDelivery "aikb-backend/internal/email/delivery"
	learningDelivery "aikb-backend/internal/learning/delivery"
)

func SetupRoutes(r *gin.Engine, emailHandler *emailDelivery.EmailHandler, analyticsHandler *analyticsDelivery.AnalyticsHandler, learningHandler *learningDelivery.LearningHandler, adminHandler *AdminHandler) {
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Email browsing and search
		emails := api.Group("/emails")
		{
			emails.GET("/recent", emailHandler.GetRecent)
			emails.GET("/:id", emailHandler.GetByID)
		}
		api.GET("/categories/:category/emails", emailHandler.GetByCategory)
		api.GET("/search", emailHandler.Search)
		api.POST("/ask", emailHandler.Ask)

		// Dashboard analytics
		analytics := api.Group("/analytics")
		{
			analytics.GET("/stats", analyticsHandler.Stats)
			analytics.GET("/categories", analyticsHandler.Categories)
			analytics.GET("/trending", analyticsHandler.Trending)
			analytics.GET("/whats-hot", analyticsHandler.WhatsHot)
			analytics.GET("/timeline", analyticsHandler.Timeline)
			analytics.GET("/domains", analyticsHandler.TopDomains)
			analytics.GET("/entities", analyticsHandler.Entities)
			analytics.GET("/tools", analyticsHandler.ToolRankings)
			analytics.GET("/tools/by-category", analyticsHandler.ToolsByCategory)
		}

		// Briefings
		briefings := api.Group("/briefings")
		{
			briefings.GET("/latest", analyticsHandler.LatestBriefing)
			briefings.POST("/generate", analyticsHandler.GenerateBriefing)
		}

		// Learning curriculum
		learning := api.Group("/learning")
		{
			learning.POST("/curriculum/init", learningHandler.InitCurriculum)
			learning.GET("/modules", learningHandler.GetModules)
			learning.GET("/modules/:id", learningHandler.GetModule)
			learning.GET("/lessons/:id", learningHandler.GetLesson)
			learning.POST("/lessons/:id/complete", learningHandler.CompleteLesson)
			learning.GET("/lessons/:id/quiz", learningHandler.GetQuiz)
			learning.POST("/lessons/:id/quiz/grade", learningHandler.GradeQuiz)
			learning.POST("/quizzes/generate", learningHandler.GenerateQuizzes)
			learning.GET("/progress", learningHandler.Progress)
		}

		// Corpus maintenance
		admin := api.Group("/admin")
		{
			admin.POST("/ingest/mbox", adminHandler.IngestMbox)
			admin.POST("/ingest/imap", adminHandler.IngestIMAP)
			admin.GET("/runs", adminHandler.Runs)
			admin.POST("/enrich", adminHandler.Enrich)
			admin.POST("/enrich-links", adminHandler.EnrichLinks)
			admin.POST("/recategorize", adminHandler.Recategorize)
			admin.POST("/extract", adminHandler.Extract)
			admin.POST("/rebuild", adminHandler.Rebuild)
		}
	}
}
