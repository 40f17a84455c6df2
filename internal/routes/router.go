package routes

import (
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/handlers"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config    *config.Config
	Store     session.Store
	Cooldown  middleware.Cooldown
	Questions handlers.QuestionSource
	Assistant handlers.Assistant
	Runner    handlers.CodeRunner
}

// NewRouter builds the gin engine with the full middleware chain and every route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := handlers.NewAuthHandler(d.Store, d.Config)
	RegisterAuthRoutes(r, auth, d.Store)

	arena := handlers.NewArenaHandler(d.Store, d.Questions, d.Assistant, d.Runner, d.Config)
	RegisterArenaRoutes(r, arena, d.Store, d.Cooldown, d.Config.RunCooldown)

	return r
}
