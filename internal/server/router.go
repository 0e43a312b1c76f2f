package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/blueprint-backend/internal/handlers"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	QueryHandler    *handlers.QueryHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:3000",
			"http://localhost:8501",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/documents", cfg.DocumentHandler.Upload)
		api.GET("/documents/:id", cfg.DocumentHandler.Get)
		api.GET("/documents/:id/cost-estimate", cfg.DocumentHandler.CostEstimate)
		api.GET("/documents/:id/entries", cfg.DocumentHandler.Entries)

		api.POST("/search", cfg.QueryHandler.Search)
		api.POST("/ask", cfg.QueryHandler.Ask)
		api.POST("/chat", cfg.QueryHandler.Chat)
	}

	return router
}
