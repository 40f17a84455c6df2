package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/seeds"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitsOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	limits, ok := body["limits"].(map[string]interface{})
	require.True(t, ok, "response has no limits: %v", body)
	return limits
}

func TestGenerate_ReturnsPublicQuestion(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "gen@example.com")

	w, body := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "Sum of arrays", body["title"])
	assert.NotEmpty(t, body["testcases"])
	assert.NotContains(t, body, "solution")
	assert.EqualValues(t, 3, body["ai_remaining"])
	assert.NotEmpty(t, body["questionToken"])

	// First question of a session spends no regeneration.
	assert.EqualValues(t, 3, limitsOf(t, body)["regen"])
}

func TestGenerate_RegenerationSpendsBudget(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "regen@example.com")

	for i := 0; i < 4; i++ {
		w, body := env.generate(t, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.EqualValues(t, 3-i, limitsOf(t, body)["regen"])
		assert.EqualValues(t, 3-i, body["ai_remaining"])
	}

	// Out of regenerations: rejected without touching the daily counter.
	w, body := env.generate(t, token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Regeneration limit reached", body["error"])
	assert.Equal(t, 4, env.questions.calls)

	var user models.User
	require.NoError(t, database.DB.Where("email = ?", "regen@example.com").First(&user).Error)
	assert.Equal(t, 4, user.DailyQuotaUsed)
}

func TestGenerate_FifthDailyGenerationRejected(t *testing.T) {
	env := setupArena(t)
	first := env.login(t, "daily@example.com")
	for i := 0; i < 4; i++ {
		w, _ := env.generate(t, first)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// A fresh session has its regenerations back but the day is spent.
	second := env.login(t, "daily@example.com")
	w, body := env.generate(t, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "quota_exhausted", body["kind"])
	assert.EqualValues(t, 0, body["remaining"])
	assert.Equal(t, 4, env.questions.calls)
}

func TestGenerate_RollsOverOnNewDay(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "rollover@example.com")

	yesterday := services.Today(time.Now().AddDate(0, 0, -1))
	require.NoError(t, database.DB.Model(&models.User{}).
		Where("email = ?", "rollover@example.com").
		Updates(map[string]interface{}{"daily_quota_used": 4, "quota_date": yesterday}).Error)

	w, body := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 3, body["ai_remaining"])
}

func TestGenerate_FailureKeepsDailySpendAndRefundsRegen(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "fail@example.com")

	w, _ := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code)

	env.questions.fail = true
	w, body := env.generate(t, token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "generation_failed", body["kind"])
	assert.Equal(t, "AI generation failed. Please try again.", body["message"])

	_, limits := env.do(t, http.MethodGet, "/api/limits", token, nil)
	assert.EqualValues(t, 3, limits["regen"])

	var user models.User
	require.NoError(t, database.DB.Where("email = ?", "fail@example.com").First(&user).Error)
	assert.Equal(t, 2, user.DailyQuotaUsed)
}

func TestGenerate_Validation(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "valid@example.com")

	w, _ := env.do(t, http.MethodPost, "/generate", token, gin.H{"difficulty": "Easy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/generate", token, gin.H{"topic": "graphs", "language": "rust"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/generate", "", gin.H{"topic": "graphs"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Zero(t, env.questions.calls)
}

func TestSolution_TeaseThenReveal(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "tease@example.com")
	w, _ := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(t, http.MethodPost, "/ai/solution", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teased", body["status"])
	assert.EqualValues(t, 3, body["remaining"])
	assert.NotContains(t, body["solution"], "Code:")

	w, body = env.do(t, http.MethodPost, "/ai/solution", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "granted", body["status"])
	assert.EqualValues(t, 2, body["remaining"])
	assert.Contains(t, body["solution"], "Explanation:\nSum them.")
	assert.Contains(t, body["solution"], "Code:\nprint(")

	// A new question re-arms the tease but keeps the spent budget.
	w, _ = env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code)
	_, body = env.do(t, http.MethodPost, "/ai/solution", token, nil)
	assert.Equal(t, "teased", body["status"])
	assert.EqualValues(t, 2, body["remaining"])
}

func TestSolution_Exhausted(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "exhaust@example.com")
	w, _ := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code)

	_, body := env.do(t, http.MethodPost, "/ai/solution", token, nil)
	require.Equal(t, "teased", body["status"])
	for i := 0; i < 3; i++ {
		_, body = env.do(t, http.MethodPost, "/ai/solution", token, nil)
		require.Equal(t, "granted", body["status"])
	}

	w, body = env.do(t, http.MethodPost, "/ai/solution", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "exhausted", body["status"])
	assert.Equal(t, "AI Solution limit reached.", body["solution"])
	assert.EqualValues(t, 0, body["remaining"])
}

func TestSolution_NoQuestion(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "empty@example.com")

	w, body := env.do(t, http.MethodPost, "/ai/solution", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no_question", body["status"])
	assert.Equal(t, noQuestionMessage, body["solution"])
	assert.EqualValues(t, 3, body["remaining"])
}

func TestSolution_RestoresFromQuestionToken(t *testing.T) {
	env := setupArena(t)
	first := env.login(t, "restore@example.com")
	_, gen := env.generate(t, first)
	questionToken, _ := gen["questionToken"].(string)
	require.NotEmpty(t, questionToken)

	// A second login starts without a current question.
	second := env.login(t, "restore@example.com")
	_, body := env.do(t, http.MethodPost, "/ai/solution", second, gin.H{"questionToken": questionToken})
	assert.Equal(t, "teased", body["status"])

	_, body = env.do(t, http.MethodPost, "/ai/solution", second, nil)
	assert.Equal(t, "granted", body["status"])
	assert.Contains(t, body["solution"], "Sum them.")

	// Tokens are bound to the user they were issued to.
	other := env.login(t, "other@example.com")
	_, body = env.do(t, http.MethodPost, "/ai/solution", other, gin.H{"questionToken": questionToken})
	assert.Equal(t, "no_question", body["status"])

	_, body = env.do(t, http.MethodPost, "/ai/solution", other, gin.H{"questionToken": "not-a-token"})
	assert.Equal(t, "no_question", body["status"])
}

func TestCodeReview_Gate(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "review@example.com")
	w, _ := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodPost, "/ai/code-review", token, gin.H{"language": "python"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	review := gin.H{"code": "print(1)", "language": "python"}
	_, body := env.do(t, http.MethodPost, "/ai/code-review", token, review)
	assert.Equal(t, "teased", body["status"])
	assert.EqualValues(t, 5, body["remaining"])
	assert.Zero(t, env.assistant.reviews)

	_, body = env.do(t, http.MethodPost, "/ai/code-review", token, review)
	assert.Equal(t, "granted", body["status"])
	assert.EqualValues(t, 4, body["remaining"])
	assert.Equal(t, "Looks fine for Sum of arrays", body["review"])
	assert.Equal(t, 1, env.assistant.reviews)
}

func TestCodeReview_FailureRefundsBudget(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "reviewfail@example.com")
	w, _ := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code)

	review := gin.H{"code": "print(1)"}
	env.do(t, http.MethodPost, "/ai/code-review", token, review)

	env.assistant.err = errUpstream
	w, body := env.do(t, http.MethodPost, "/ai/code-review", token, review)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "generation_failed", body["kind"])
	assert.EqualValues(t, 5, body["remaining"])

	_, limits := env.do(t, http.MethodGet, "/api/limits", token, nil)
	assert.EqualValues(t, 5, limits["review"])
}

func TestHint_Budget(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "hint@example.com")
	w, _ := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code)

	_, body := env.do(t, http.MethodPost, "/ai/hint", token, nil)
	assert.Equal(t, "teased", body["status"])
	for _, want := range []float64{1, 0} {
		_, body = env.do(t, http.MethodPost, "/ai/hint", token, nil)
		assert.Equal(t, "granted", body["status"])
		assert.Equal(t, want, body["remaining"])
	}
	_, body = env.do(t, http.MethodPost, "/ai/hint", token, nil)
	assert.Equal(t, "exhausted", body["status"])
	assert.Equal(t, 2, env.assistant.hints)
}

func TestLimits(t *testing.T) {
	env := setupArena(t)

	w, body := env.do(t, http.MethodGet, "/api/limits", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"regen": 0.0, "solution": 0.0, "review": 0.0, "hint": 0.0}, body)

	token := env.login(t, "limits@example.com")
	_, body = env.do(t, http.MethodGet, "/api/limits", token, nil)
	assert.Equal(t, map[string]interface{}{"regen": 3.0, "solution": 3.0, "review": 5.0, "hint": 2.0}, body)

	// With the day spent the raw session counters are still reported; only
	// the profile view zeroes them.
	require.NoError(t, database.DB.Model(&models.User{}).
		Where("email = ?", "limits@example.com").
		Updates(map[string]interface{}{"daily_quota_used": 4, "quota_date": services.Today(time.Now())}).Error)
	_, body = env.do(t, http.MethodGet, "/api/limits", token, nil)
	assert.EqualValues(t, 3, body["regen"])
	assert.EqualValues(t, 3, body["solution"])
	assert.EqualValues(t, 5, body["review"])
	assert.EqualValues(t, 2, body["hint"])

	w, me := env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	limits, _ := me["limits"].(map[string]interface{})
	assert.EqualValues(t, 0, limits["regen"])
	assert.EqualValues(t, 0, limits["solution"])
}

func TestMarkSolved(t *testing.T) {
	env := setupArena(t)
	require.NoError(t, seeds.SeedBadges())
	token := env.login(t, "solved@example.com")

	w, body := env.do(t, http.MethodPost, "/mark_solved", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 10, body["xp"])
	assert.EqualValues(t, 1, body["solved"])
	badges, _ := body["newBadges"].([]interface{})
	require.Len(t, badges, 1)
	assert.Equal(t, "Problem Solver", badges[0].(map[string]interface{})["name"])

	// Not idempotent: every call credits again.
	_, body = env.do(t, http.MethodPost, "/mark_solved", token, nil)
	assert.EqualValues(t, 20, body["xp"])
	assert.EqualValues(t, 2, body["solved"])
	assert.Empty(t, body["newBadges"])

	w, _ = env.do(t, http.MethodPost, "/mark_solved", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	env := setupArena(t)
	token := env.login(t, "me@example.com")
	w, _ := env.generate(t, token)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "me@example.com", body["email"])
	assert.EqualValues(t, 3, body["remaining"])
	assert.EqualValues(t, 3, limitsOf(t, body)["regen"])

	question, ok := body["question"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "q-1", question["id"])
	assert.NotContains(t, question, "solution")
	assert.NotEmpty(t, body["activity"])
}
