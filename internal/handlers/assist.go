package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/metrics"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	apperrors "github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/errors"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/utils"
	"github.com/gin-gonic/gin"
)

const noQuestionMessage = "No active question. Please regenerate."

// Gate messages per feature.
var (
	teaseMessages = map[session.Feature]string{
		session.FeatureSolution: "First try solving it yourself. Click again if you still need it.",
		session.FeatureReview:   "Try debugging once. Click again if still stuck.",
		session.FeatureHint:     "Re-read the input format and trace a sample by hand. Click again for a hint.",
	}
	limitMessages = map[session.Feature]string{
		session.FeatureSolution: "AI Solution limit reached.",
		session.FeatureReview:   "AI Code Review limit reached.",
		session.FeatureHint:     "AI Hint limit reached.",
	}
	// Response field carrying the text for each feature.
	contentFields = map[session.Feature]string{
		session.FeatureSolution: "solution",
		session.FeatureReview:   "review",
		session.FeatureHint:     "hint",
	}
)

type AssistInput struct {
	Code          string `json:"code"`
	Language      string `json:"language"`
	QuestionToken string `json:"questionToken"`
}

// gateResult is what passing the tease gate produced.
type gateResult struct {
	outcome   session.Outcome
	remaining int
	question  *models.Question
}

// Solution reveals the stored reference solution behind the tease gate.
func (h *ArenaHandler) Solution(c *gin.Context) {
	h.assist(c, session.FeatureSolution, func(ctx context.Context, q *models.Question, _ AssistInput) (string, error) {
		if q.Solution.Explanation == "" && q.Solution.Code == "" {
			return "", fmt.Errorf("question %s has no reference solution", q.ID)
		}
		return fmt.Sprintf("Explanation:\n%s\n\nCode:\n%s", q.Solution.Explanation, q.Solution.Code), nil
	})
}

// CodeReview asks the AI reviewer about the submitted code.
func (h *ArenaHandler) CodeReview(c *gin.Context) {
	h.assist(c, session.FeatureReview, func(ctx context.Context, q *models.Question, in AssistInput) (string, error) {
		return h.assistant.Review(ctx, q, in.Language, in.Code)
	})
}

// Hint asks the AI for a nudge without code.
func (h *ArenaHandler) Hint(c *gin.Context) {
	h.assist(c, session.FeatureHint, func(ctx context.Context, q *models.Question, in AssistInput) (string, error) {
		return h.assistant.Hint(ctx, q, in.Language, in.Code)
	})
}

type contentFunc func(ctx context.Context, q *models.Question, in AssistInput) (string, error)

// assist runs the shared flow: resolve the current question, apply the tease
// gate and budget, then produce content. Budget spent on content that could
// not be produced is refunded.
func (h *ArenaHandler) assist(c *gin.Context, feature session.Feature, produce contentFunc) {
	ctx := c.Request.Context()
	userID := c.GetString(middleware.ContextUserID)
	sid := c.GetString(middleware.ContextSessionID)
	field := contentFields[feature]

	var input AssistInput
	// An empty body is fine; the solution route needs nothing from it.
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		abortWith(c, apperrors.BadRequest("Invalid request body"), nil)
		return
	}
	if input.Language == "" {
		input.Language = "python"
	}
	if feature == session.FeatureReview && strings.TrimSpace(input.Code) == "" {
		abortWith(c, apperrors.BadRequest("code is required"), nil)
		return
	}

	restored := h.restoreQuestion(ctx, userID, input.QuestionToken)

	var res gateResult
	err := h.store.Update(ctx, sid, func(st *session.State) error {
		if !st.HasQuestion() {
			if restored == nil {
				res = gateResult{remaining: st.Remaining(feature)}
				return nil
			}
			st.SetQuestion(restored)
		}
		res.outcome = st.Use(feature)
		res.remaining = st.Remaining(feature)
		res.question = st.Question
		return nil
	})
	if err != nil {
		h.sessionError(c, err)
		return
	}

	if res.question == nil {
		c.JSON(http.StatusOK, gin.H{field: noQuestionMessage, "remaining": res.remaining, "status": "no_question"})
		return
	}

	switch res.outcome {
	case session.Teased:
		c.JSON(http.StatusOK, gin.H{field: teaseMessages[feature], "remaining": res.remaining, "status": res.outcome.String()})
		return
	case session.Exhausted:
		metrics.QuotaRejections.WithLabelValues(string(feature)).Inc()
		c.JSON(http.StatusOK, gin.H{field: limitMessages[feature], "remaining": 0, "status": res.outcome.String()})
		return
	}

	content, err := produce(ctx, res.question, input)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Str("feature", string(feature)).Msg("Assist content failed")
		remaining := res.remaining
		if uerr := h.store.Update(ctx, sid, func(st *session.State) error {
			st.Refund(feature)
			remaining = st.Remaining(feature)
			return nil
		}); uerr != nil {
			logger.Warn().Err(uerr).Msg("Failed to refund assist budget")
		}
		abortWith(c, apperrors.ErrGenerationFailed.WithMessage("AI request failed. Please try again."), gin.H{"remaining": remaining})
		return
	}

	c.JSON(http.StatusOK, gin.H{field: content, "remaining": res.remaining, "status": res.outcome.String()})
}

// restoreQuestion resolves a signed question token back to the cached
// question. Tokens issued to another user are ignored.
func (h *ArenaHandler) restoreQuestion(ctx context.Context, userID, token string) *models.Question {
	if token == "" {
		return nil
	}
	claims, err := utils.ValidateQuestionToken(token)
	if err != nil || claims.UserID != userID {
		logger.Warn().Str("user_id", userID).Msg("Rejected question token")
		return nil
	}
	q, err := h.store.LoadQuestion(ctx, claims.QuestionID)
	if err != nil {
		logger.Warn().Err(err).Str("question_id", claims.QuestionID).Msg("Question cache miss")
		return nil
	}
	return q
}
