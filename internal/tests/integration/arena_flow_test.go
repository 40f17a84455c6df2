package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *server) call(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
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
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestArenaFlow(t *testing.T) {
	s := setupServer(t)

	// 1. Login
	code, body := s.call(t, http.MethodPost, "/login", "", map[string]string{
		"email": "flow@example.com", "name": "Flow", "provider": "google",
	})
	require.Equal(t, http.StatusOK, code, body)
	token := body["token"].(string)

	code, body = s.call(t, http.MethodGet, "/api/limits", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["regen"])
	assert.EqualValues(t, 3, body["solution"])
	assert.EqualValues(t, 5, body["review"])
	assert.EqualValues(t, 2, body["hint"])

	// 2. Generate
	code, question := s.call(t, http.MethodPost, "/generate", token, map[string]string{
		"topic": "math", "difficulty": "Easy", "language": "python",
	})
	require.Equal(t, http.StatusOK, code, question)
	assert.Equal(t, "Sum of Two", question["title"])
	assert.EqualValues(t, 3, question["ai_remaining"])
	assert.NotContains(t, question, "solution")
	testcases := question["testcases"].([]interface{})
	require.Len(t, testcases, 2)

	// 3. Solution: tease, then reveal
	_, body = s.call(t, http.MethodPost, "/ai/solution", token, nil)
	assert.Equal(t, "teased", body["status"])
	assert.EqualValues(t, 3, body["remaining"])

	_, body = s.call(t, http.MethodPost, "/ai/solution", token, nil)
	assert.Equal(t, "granted", body["status"])
	assert.EqualValues(t, 2, body["remaining"])
	assert.Contains(t, body["solution"], "Add them.")

	// 4. Run the first case; bracketed input reaches the judge as plain tokens
	solution := "a, b = map(int, input().split())\nprint(a + b)"
	code, body = s.call(t, http.MethodPost, "/run", token, map[string]interface{}{
		"language": "python", "code": solution, "testcases": testcases,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "4", body["your_output"])
	assert.Equal(t, true, body["pass"])

	// 5. Submit every case
	code, body = s.call(t, http.MethodPost, "/submit", token, map[string]interface{}{
		"language": "python", "code": solution, "testcases": testcases,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["all_passed"])
	assert.EqualValues(t, 2, body["passed"])

	// 6. A compile error stops after the first case
	before := s.judgeCalls.Load()
	code, body = s.call(t, http.MethodPost, "/submit", token, map[string]interface{}{
		"language": "python", "code": "syntax error", "testcases": testcases,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "compile_error", body["status"])
	assert.Equal(t, "SyntaxError: invalid syntax", body["message"])
	assert.EqualValues(t, 1, s.judgeCalls.Load()-before)

	// 7. Mark solved
	code, body = s.call(t, http.MethodPost, "/mark_solved", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 10, body["xp"])
	assert.EqualValues(t, 1, body["solved"])
	assert.Len(t, body["newBadges"], 1)

	// 8. Profile reflects everything
	code, body = s.call(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 10, body["xp"])
	assert.EqualValues(t, 3, body["remaining"])
	assert.Len(t, body["badges"], 1)
	assert.EqualValues(t, 2, body["limits"].(map[string]interface{})["solution"])

	// 9. Logout ends the session
	code, _ = s.call(t, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.call(t, http.MethodPost, "/generate", token, map[string]string{"topic": "math"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestMetricsExposed(t *testing.T) {
	s := setupServer(t)
	code, _ := s.call(t, http.MethodGet, "/api/limits", "", nil)
	require.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "arena_http_requests_total")
}

func TestHealth(t *testing.T) {
	s := setupServer(t)

	code, body := s.call(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
}
