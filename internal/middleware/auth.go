package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/utils"
	"github.com/gin-gonic/gin"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "arena_session"

// Context keys set by the auth middlewares.
const (
	ContextUserID    = "userId"
	ContextSessionID = "sessionId"
	ContextClaims    = "claims"
)

// TokenFromRequest prefers the Authorization header and falls back to the cookie.
func TokenFromRequest(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

// authenticate resolves the request's session. It returns a client-facing
// message when the caller is not signed in.
func authenticate(c *gin.Context, store session.Store) (*utils.Claims, string) {
	tokenString, ok := TokenFromRequest(c)
	if !ok {
		return nil, "Authentication required"
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil || !utils.IsUUID(claims.SessionID()) {
		return nil, "Invalid or expired token"
	}

	if _, err := store.Load(c.Request.Context(), claims.SessionID()); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, "Session expired, please log in again"
		}
		return nil, "Session unavailable"
	}
	return claims, ""
}

// AuthMiddleware requires a live session whose user still exists.
func AuthMiddleware(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, msg := authenticate(c, store)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		var user models.User
		if err := database.DB.Select("id").First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextSessionID, claims.SessionID())
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the session keys when the caller is signed in
// and lets anonymous requests through untouched.
func OptionalAuthMiddleware(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _ := authenticate(c, store); claims != nil {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextSessionID, claims.SessionID())
			c.Set(ContextClaims, claims)
		}
		c.Next()
	}
}
