package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/errors"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandlerMiddleware renders errors attached with c.Error and recovers panics
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal Server Error",
					"kind":  apperrors.ErrInternalServer.Kind,
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		err := last.Err
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			body := gin.H{
				"error": appErr.Message,
				"kind":  appErr.Kind,
			}
			if extra, ok := last.Meta.(gin.H); ok {
				for k, v := range extra {
					body[k] = v
				}
			}
			c.JSON(appErr.Code, body)
			return
		}

		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal Server Error",
			"kind":  apperrors.ErrInternalServer.Kind,
		})
	}
}
