package routes

import (
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/handlers"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(r gin.IRouter, h *handlers.AuthHandler, store session.Store) {
	r.POST("/login", middleware.AuthRateLimit(), h.Login)

	// Logout works with or without a live session.
	r.GET("/logout", middleware.OptionalAuthMiddleware(store), h.Logout)
	r.POST("/logout", middleware.OptionalAuthMiddleware(store), h.Logout)

	oauth := r.Group("/auth")
	oauth.Use(middleware.AuthRateLimit())
	{
		oauth.GET("/google/login", h.GoogleLogin)
		oauth.GET("/google/callback", h.GoogleCallback)
	}
}
