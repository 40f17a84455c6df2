package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/tests/testutil"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuth(t *testing.T) (*session.MemoryStore, *gin.Engine, string) {
	testutil.SetupTestDB(t)
	store := session.NewMemoryStore(time.Hour)

	user := models.User{Email: "auth@example.com", AuthProvider: "email"}
	require.NoError(t, database.DB.Create(&user).Error)

	r := gin.New()
	r.GET("/me", AuthMiddleware(store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(ContextUserID), "sessionId": c.GetString(ContextSessionID)})
	})
	r.GET("/maybe", OptionalAuthMiddleware(store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(ContextUserID)})
	})
	return store, r, user.ID
}

func login(t *testing.T, store session.Store, userID string) string {
	token, sid, err := utils.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), sid, session.NewState(userID, session.Limits{}, time.Now())))
	return token
}

func TestAuthMiddleware_BearerAndCookie(t *testing.T) {
	store, r, userID := setupAuth(t)
	token := login(t, store, userID)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	store, r, userID := setupAuth(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid signature but the session was deleted (logout).
	token, _, err := utils.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Session expired")

	// Session for a user that no longer exists.
	ghost := login(t, store, "ghost")
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+ghost)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	store, r, userID := setupAuth(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/maybe", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":""}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer "+login(t, store, userID))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"userId":"`+userID+`"}`, w.Body.String())
}

func TestTokenFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		header string
		cookie string
		want   string
		ok     bool
	}{
		{"bearer", "Bearer abc", "", "abc", true},
		{"header wins over cookie", "Bearer abc", "from-cookie", "abc", true},
		{"cookie fallback", "", "from-cookie", "from-cookie", true},
		{"malformed header", "Token abc", "from-cookie", "", false},
		{"nothing", "", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: tc.cookie})
			}
			got, ok := TokenFromRequest(c)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
