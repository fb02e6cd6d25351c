package app

import (
	"flashdecks_backend/docs"
	"flashdecks_backend/internal/config"
	"flashdecks_backend/internal/middleware"
	"flashdecks_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	router.GET("/health", c.health.HealthCheck)

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", c.auth.Register)
		auth.POST("/login", c.auth.Login)
	}

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	api.Use(middleware.ActivityMiddleware(repos.user))
	{
		api.GET("/auth/me", c.auth.Me)

		users := api.Group("/users")
		{
			users.GET("/profile", c.user.Profile)
			users.PUT("/profile", c.user.UpdateProfile)
		}

		decks := api.Group("/decks")
		{
			decks.POST("", c.deck.Create)
			decks.GET("", c.deck.List)
			decks.GET("/:id", c.deck.Get)
			decks.PUT("/:id", c.deck.Update)
			decks.DELETE("/:id", c.deck.Delete)
			decks.GET("/:id/cards", c.deck.Cards)
			decks.POST("/:id/cards", c.card.Create)
			decks.GET("/:id/flagged", c.flagged.ListByDeck)
		}

		cards := api.Group("/cards")
		{
			cards.GET("/:id", c.card.Get)
			cards.PUT("/:id", c.card.Update)
			cards.DELETE("/:id", c.card.Delete)
			cards.POST("/:id/flag", c.flagged.Flag)
			cards.DELETE("/:id/flag", c.flagged.Unflag)
		}

		study := api.Group("/study")
		{
			study.POST("/sessions", c.study.CreateSession)
			study.GET("/sessions/:id", c.study.GetSession)
			study.POST("/sessions/:id/answer", c.study.SubmitAnswer)
			study.POST("/sessions/:id/finish", c.study.FinishSession)
			study.POST("/sessions/:id/submit-exam", c.study.SubmitExam)
			study.GET("/sessions/:id/responses", c.study.Responses)
			study.GET("/reviews/due", c.study.DueReviews)
		}

		api.GET("/flagged/counts", c.flagged.Counts)

		ai := api.Group("/ai")
		{
			ai.POST("/decks", c.aiDeck.Generate)
			ai.POST("/decks/upload", c.aiDeck.GenerateFromDocument)
		}
	}
}
