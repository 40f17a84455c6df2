package routes

import (
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/handlers"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/gin-gonic/gin"
)

func RegisterArenaRoutes(r gin.IRouter, h *handlers.ArenaHandler, store session.Store, cooldown middleware.Cooldown, window time.Duration) {
	// Execution does not require a login; guests are keyed by address.
	r.POST("/run", middleware.OptionalAuthMiddleware(store), middleware.RunCooldown(cooldown, window), h.Run)
	r.POST("/submit", middleware.OptionalAuthMiddleware(store), middleware.SubmitRateLimit(), h.Submit)

	r.GET("/api/limits", middleware.OptionalAuthMiddleware(store), h.Limits)

	protected := r.Group("")
	protected.Use(middleware.AuthMiddleware(store))
	{
		protected.POST("/generate", middleware.AIRateLimit(), h.Generate)
		protected.POST("/mark_solved", h.MarkSolved)
		protected.GET("/api/me", h.Me)

		ai := protected.Group("/ai")
		ai.Use(middleware.AIRateLimit())
		{
			ai.POST("/solution", h.Solution)
			ai.POST("/code-review", h.CodeReview)
			ai.POST("/hint", h.Hint)
		}
	}
}
