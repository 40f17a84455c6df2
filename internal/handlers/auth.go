package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie  = "arena_oauth_state"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// AuthHandler turns an identity (email from the login form or Google) into a
// session with fresh quota state.
type AuthHandler struct {
	store       session.Store
	limits      session.Limits
	sessionTTL  time.Duration
	secure      bool
	frontendURL string

	google      *oauth2.Config
	userInfoURL string
}

func NewAuthHandler(store session.Store, cfg *config.Config) *AuthHandler {
	h := &AuthHandler{
		store:       store,
		limits:      LimitsFromConfig(cfg),
		sessionTTL:  cfg.SessionTTL,
		secure:      cfg.Env == "production",
		frontendURL: cfg.FrontendURL,
		userInfoURL: googleUserInfoURL,
	}
	if cfg.GoogleClientID != "" {
		h.google = &oauth2.Config{
			RedirectURL:  cfg.GoogleCallbackURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		}
	} else {
		logger.Warn().Msg("Google OAuth keys missing")
	}
	return h
}

// LimitsFromConfig is the session budget every new login starts with.
func LimitsFromConfig(cfg *config.Config) session.Limits {
	return session.Limits{
		Regen:    cfg.RegenLimit,
		Solution: cfg.SolutionLimit,
		Hint:     cfg.HintLimit,
		Review:   cfg.ReviewLimit,
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Login establishes a session for an identity already verified by the
// client-side identity provider.
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email required"})
		return
	}

	user, created, err := services.GetOrCreateUser(input.Email, input.Provider, input.Name)
	if err != nil {
		logger.Error().Err(err).Msg("Login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if created {
		services.LogActivity(user.ID, models.ActivityNewUser, "", "Joined the arena")
	}

	token, err := h.startSession(c, user)
	if err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to start session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	logger.Info().Str("user_id", user.ID).Bool("new_user", created).Msg("User logged in")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) startSession(c *gin.Context, user *models.User) (string, error) {
	token, sid, err := utils.GenerateToken(user.ID, h.sessionTTL)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	st := session.NewState(user.ID, h.limits, time.Now())
	if err := h.store.Create(c.Request.Context(), sid, st); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.sessionTTL.Seconds()), "/", "", h.secure, true)
	return token, nil
}

// Logout drops the server-side session. Unknown or expired tokens are not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	var claims *utils.Claims
	if v, ok := c.Get(middleware.ContextClaims); ok {
		claims, _ = v.(*utils.Claims)
	}
	if claims == nil {
		if tokenString, ok := middleware.TokenFromRequest(c); ok {
			claims, _ = utils.ValidateToken(tokenString)
		}
	}

	if claims != nil {
		if err := h.store.Delete(c.Request.Context(), claims.SessionID()); err != nil {
			logger.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to delete session")
		}
		logger.Info().Str("user_id", claims.UserID).Msg("User logged out")
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully logged out"})
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start OAuth flow"})
		return
	}
	state := hex.EncodeToString(buf)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.secure, true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthCodeURL(state))
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || c.Query("state") != expected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secure, true)

	info, err := h.fetchGoogleUser(c.Request.Context(), c.Query("code"))
	if err != nil {
		logger.Error().Err(err).Msg("Google OAuth failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Google sign-in failed"})
		return
	}

	user, created, err := services.GetOrCreateUser(info.Email, "google", info.Name)
	if err != nil {
		logger.Error().Err(err).Str("email", info.Email).Msg("Failed to resolve Google user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if created {
		services.LogActivity(user.ID, models.ActivityNewUser, "", "Joined the arena")
	}

	token, err := h.startSession(c, user)
	if err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to start session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in via Google")
	redirectURL := fmt.Sprintf("%s/oauth-callback?token=%s", h.frontendURL, url.QueryEscape(token))
	c.Redirect(http.StatusTemporaryRedirect, redirectURL)
}

func (h *AuthHandler) fetchGoogleUser(ctx context.Context, code string) (*googleUserInfo, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	token, err := h.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := h.google.Client(ctx, token).Get(h.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if info.Email == "" {
		return nil, errors.New("google account has no email")
	}
	return &info, nil
}
