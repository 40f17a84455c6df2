package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeQuestions struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeQuestions) Generate(ctx context.Context, topic, difficulty, language string) services.Generation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return services.Generation{
			Question: services.SentinelQuestion("AI generation failed. Please try again."),
			Err:      services.ErrAIUnavailable,
		}
	}
	return services.Generation{Question: models.Question{
		ID:               fmt.Sprintf("q-%d", f.calls),
		Title:            "Sum of " + topic,
		ProblemStatement: "Add the numbers.",
		InputFormat:      "Space separated integers",
		OutputFormat:     "One integer",
		Samples:          []models.TestCase{{Input: "1 2", Output: "3"}},
		TestCases:        []models.TestCase{{Input: "1 2", Output: "3"}, {Input: "[4, 5]", Output: "9"}},
		Solution:         models.Solution{Explanation: "Sum them.", Code: "print(sum(map(int, input().split())))"},
		Topic:            topic,
		Difficulty:       difficulty,
		Language:         language,
	}}
}

type fakeAssistant struct {
	err     error
	reviews int
	hints   int
}

func (f *fakeAssistant) Review(ctx context.Context, q *models.Question, language, code string) (string, error) {
	f.reviews++
	if f.err != nil {
		return "", f.err
	}
	return "Looks fine for " + q.Title, nil
}

func (f *fakeAssistant) Hint(ctx context.Context, q *models.Question, language, code string) (string, error) {
	f.hints++
	if f.err != nil {
		return "", f.err
	}
	return "Think about " + q.Title, nil
}

type fakeRunner struct {
	run    services.RunReport
	submit services.SubmitReport
	err    error
	calls  int
}

func (f *fakeRunner) RunFirst(ctx context.Context, language, code string, cases []models.TestCase) (services.RunReport, error) {
	f.calls++
	return f.run, f.err
}

func (f *fakeRunner) RunAll(ctx context.Context, language, code string, cases []models.TestCase) (services.SubmitReport, error) {
	f.calls++
	return f.submit, f.err
}

type arenaEnv struct {
	router    *gin.Engine
	store     *session.MemoryStore
	handler   *ArenaHandler
	questions *fakeQuestions
	assistant *fakeAssistant
	runner    *fakeRunner
}

// setupArena wires the handlers without the per-IP limiters so tests can fire
// requests back to back.
func setupArena(t *testing.T) *arenaEnv {
	t.Helper()
	testutil.SetupTestDB(t)
	cfg := config.Defaults()
	config.AppConfig = cfg

	env := &arenaEnv{
		store:     session.NewMemoryStore(time.Hour),
		questions: &fakeQuestions{},
		assistant: &fakeAssistant{},
		runner:    &fakeRunner{run: services.RunReport{Status: services.StatusOK, Pass: true}},
	}
	env.handler = NewArenaHandler(env.store, env.questions, env.assistant, env.runner, cfg)
	auth := NewAuthHandler(env.store, cfg)

	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	r.POST("/login", auth.Login)
	r.GET("/logout", middleware.OptionalAuthMiddleware(env.store), auth.Logout)
	r.POST("/run", middleware.OptionalAuthMiddleware(env.store), middleware.RunCooldown(middleware.NewMemoryCooldown(cfg.RunCooldown), cfg.RunCooldown), env.handler.Run)
	r.POST("/submit", middleware.OptionalAuthMiddleware(env.store), env.handler.Submit)
	r.GET("/api/limits", middleware.OptionalAuthMiddleware(env.store), env.handler.Limits)

	protected := r.Group("", middleware.AuthMiddleware(env.store))
	protected.POST("/generate", env.handler.Generate)
	protected.POST("/mark_solved", env.handler.MarkSolved)
	protected.GET("/api/me", env.handler.Me)
	protected.POST("/ai/solution", env.handler.Solution)
	protected.POST("/ai/code-review", env.handler.CodeReview)
	protected.POST("/ai/hint", env.handler.Hint)

	env.router = r
	return env
}

func (e *arenaEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (e *arenaEnv) login(t *testing.T, email string) string {
	t.Helper()
	w, body := e.do(t, http.MethodPost, "/login", "", gin.H{"email": email, "name": "Tester", "provider": "google"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *arenaEnv) generate(t *testing.T, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	return e.do(t, http.MethodPost, "/generate", token, gin.H{"topic": "arrays", "difficulty": "Easy", "language": "python"})
}

var errUpstream = errors.New("upstream down")
