package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/routes"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/seeds"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const questionJSON = `{
  "title": "Sum of Two",
  "problem_statement": "Read two numbers and print their sum.",
  "input_format": "Two integers",
  "output_format": "One integer",
  "sample_test_cases": [{"input": "1 2", "output": "3"}],
  "hidden_test_cases": [{"input": "[2, 2]", "output": "4"}, {"input": "0 0", "output": "0"}],
  "solution": {"explanation": "Add them.", "code": "a, b = map(int, input().split())\nprint(a + b)"}
}`

// fakeGemini answers every prompt with the same question document.
func fakeGemini(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "```json\n" + questionJSON + "\n```"}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeJudge0 "runs" programs by summing the integers on stdin. Sources
// containing "syntax error" fail to compile.
func fakeJudge0(t *testing.T, calls *atomic.Int64) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			LanguageID int    `json:"language_id"`
			SourceCode string `json:"source_code"`
			Stdin      string `json:"stdin"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.SourceCode, "syntax error") {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"compile_output": "SyntaxError: invalid syntax",
				"status":         map[string]interface{}{"id": 6, "description": "Compilation Error"},
			})
			return
		}

		sum := 0
		for _, f := range strings.Fields(req.Stdin) {
			n, _ := strconv.Atoi(f)
			sum += n
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"stdout": strconv.Itoa(sum) + "\n",
			"status": map[string]interface{}{"id": 3, "description": "Accepted"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

type server struct {
	router     *gin.Engine
	judgeCalls atomic.Int64
}

func setupServer(t *testing.T) *server {
	t.Helper()
	testutil.SetupTestDB(t)
	cfg := config.Defaults()
	config.AppConfig = cfg
	require.NoError(t, seeds.SeedBadges())

	s := &server{}
	gemini := services.NewGeminiClient("test-key", "test-model", fakeGemini(t).URL)
	judge := services.NewJudge0Client(fakeJudge0(t, &s.judgeCalls).URL, "", services.NewMemoryResultCache(), time.Minute)

	s.router = routes.NewRouter(routes.Deps{
		Config:    cfg,
		Store:     session.NewMemoryStore(cfg.SessionTTL),
		Cooldown:  middleware.NewMemoryCooldown(cfg.RunCooldown),
		Questions: services.NewQuestionGenerator(gemini),
		Assistant: services.NewAssistant(gemini),
		Runner:    services.NewTestRunner(judge, cfg.JudgeRunTimeout, cfg.JudgeSubmitTimeout),
	})
	return s
}
