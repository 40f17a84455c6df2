package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/gin-gonic/gin"
)

// Health reports database and Redis reachability.
func Health(c *gin.Context) {
	dbStatus := "ok"
	redisStatus := "ok"

	if err := database.Ping(); err != nil {
		dbStatus = "error"
	}

	if database.Redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if _, err := database.Redis.Ping(ctx).Result(); err != nil {
			redisStatus = "error"
		}
	} else {
		redisStatus = "not configured"
	}

	status := "ok"
	code := http.StatusOK
	if dbStatus != "ok" {
		status = "down"
		code = http.StatusServiceUnavailable
	} else if redisStatus == "error" {
		status = "degraded"
	}

	c.JSON(code, gin.H{
		"status":  status,
		"message": "Practice Arena backend is running",
		"checks": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
