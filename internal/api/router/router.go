package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tqcuong/triagebot/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "triagebot",
		})
	})

	// Webhook deliveries
	webhookHandler := handler.NewWebhookHandler(deps)
	r.GET("/payload", webhookHandler.HandlePayload)
	r.POST("/payload", webhookHandler.HandlePayload)

	// Initialize job handler
	jobHandler := handler.NewJobHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// GET /api/v1/jobs - List pending scheduled jobs
		v1.GET("/jobs", jobHandler.ListJobs)
	}

	return r
}
