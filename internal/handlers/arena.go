package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/metrics"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/middleware"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/session"
	apperrors "github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/errors"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/utils"
	"github.com/gin-gonic/gin"
)

// QuestionSource produces practice questions. Failures come back as a
// Generation carrying the sentinel question and an error.
type QuestionSource interface {
	Generate(ctx context.Context, topic, difficulty, language string) services.Generation
}

// Assistant produces the AI review and hint texts.
type Assistant interface {
	Review(ctx context.Context, q *models.Question, language, code string) (string, error)
	Hint(ctx context.Context, q *models.Question, language, code string) (string, error)
}

// CodeRunner runs user code against test cases.
type CodeRunner interface {
	RunFirst(ctx context.Context, language, code string, cases []models.TestCase) (services.RunReport, error)
	RunAll(ctx context.Context, language, code string, cases []models.TestCase) (services.SubmitReport, error)
}

type ArenaHandler struct {
	store      session.Store
	questions  QuestionSource
	assistant  Assistant
	runner     CodeRunner
	dailyQuota int
	solveXP    int
	now        func() time.Time
}

func NewArenaHandler(store session.Store, questions QuestionSource, assistant Assistant, runner CodeRunner, cfg *config.Config) *ArenaHandler {
	return &ArenaHandler{
		store:      store,
		questions:  questions,
		assistant:  assistant,
		runner:     runner,
		dailyQuota: cfg.DailyFreeQuota,
		solveXP:    cfg.SolveXP,
		now:        time.Now,
	}
}

func (h *ArenaHandler) today() string {
	return services.Today(h.now())
}

// abortWith attaches appErr for ErrorHandlerMiddleware to render. Extra
// fields are merged into the JSON body.
func abortWith(c *gin.Context, appErr *apperrors.AppError, extra gin.H) {
	_ = c.Error(appErr).SetMeta(extra)
	c.Abort()
}

var errRegenExhausted = errors.New("regeneration limit reached")

type GenerateInput struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

type generateResponse struct {
	models.PublicQuestion
	AIRemaining   int              `json:"ai_remaining"`
	QuestionToken string           `json:"questionToken"`
	Limits        session.Snapshot `json:"limits"`
}

// Generate spends one daily generation and, when a question is already
// current, one session regeneration. A failed generation keeps the daily
// spend and gives the regeneration back.
func (h *ArenaHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(middleware.ContextUserID)
	sid := c.GetString(middleware.ContextSessionID)

	var input GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWith(c, apperrors.BadRequest("Invalid request body"), nil)
		return
	}
	input.Topic = strings.TrimSpace(input.Topic)
	if input.Topic == "" {
		abortWith(c, apperrors.BadRequest("topic is required"), nil)
		return
	}
	if input.Difficulty == "" {
		input.Difficulty = "Easy"
	}
	if input.Language == "" {
		input.Language = "python"
	}
	if _, err := services.LanguageID(input.Language); err != nil {
		abortWith(c, apperrors.BadRequest("Unsupported language: "+input.Language), nil)
		return
	}

	reserved := false
	err := h.store.Update(ctx, sid, func(st *session.State) error {
		if !st.HasQuestion() {
			return nil
		}
		if !st.ReserveRegen() {
			return errRegenExhausted
		}
		reserved = true
		return nil
	})
	switch {
	case errors.Is(err, errRegenExhausted):
		metrics.QuotaRejections.WithLabelValues("regen").Inc()
		abortWith(c, apperrors.QuotaExhausted("Regeneration limit reached"), gin.H{"remaining": 0})
		return
	case err != nil:
		h.sessionError(c, err)
		return
	}

	refundRegen := func() {
		if !reserved {
			return
		}
		if err := h.store.Update(ctx, sid, func(st *session.State) error {
			st.RefundRegen()
			return nil
		}); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to refund regeneration")
		}
	}

	if err := services.ConsumeDailyQuota(userID, h.today(), h.dailyQuota); err != nil {
		refundRegen()
		if errors.Is(err, services.ErrDailyQuotaExhausted) {
			metrics.QuotaRejections.WithLabelValues("daily").Inc()
			abortWith(c, apperrors.QuotaExhausted("Daily free quota exhausted"), gin.H{"remaining": 0})
			return
		}
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to consume daily quota")
		abortWith(c, apperrors.ErrInternalServer, nil)
		return
	}

	gen := h.questions.Generate(ctx, input.Topic, input.Difficulty, input.Language)
	if gen.Failed() {
		refundRegen()
		logger.Warn().Err(gen.Err).Str("user_id", userID).Msg("Question generation failed")
		abortWith(c, apperrors.ErrGenerationFailed, gin.H{"message": gen.Question.ProblemStatement})
		return
	}

	q := gen.Question
	if err := h.store.SaveQuestion(ctx, &q); err != nil {
		logger.Warn().Err(err).Str("question_id", q.ID).Msg("Failed to cache question")
	}

	var snapshot session.Snapshot
	err = h.store.Update(ctx, sid, func(st *session.State) error {
		st.SetQuestion(&q)
		snapshot = st.Snapshot()
		return nil
	})
	if err != nil {
		h.sessionError(c, err)
		return
	}

	token, err := utils.GenerateQuestionToken(userID, q.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to sign question token")
	}

	remaining := 0
	if _, left, err := services.DailyQuotaStatus(userID, h.today(), h.dailyQuota); err == nil {
		remaining = left
	}

	services.LogActivity(userID, models.ActivityGenerated, q.ID, q.Title)

	c.JSON(http.StatusOK, generateResponse{
		PublicQuestion: q.Public(),
		AIRemaining:    remaining,
		QuestionToken:  token,
		Limits:         snapshot,
	})
}

func (h *ArenaHandler) sessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		abortWith(c, apperrors.Unauthorized("Session expired, please log in again"), nil)
		return
	}
	logger.Error().Err(err).Msg("Session store failure")
	abortWith(c, apperrors.ErrInternalServer, nil)
}

// limitsView applies the display rule: with the daily quota spent, every
// session counter reads zero.
func limitsView(st *session.State, dailyRemaining int) session.Snapshot {
	if st == nil || dailyRemaining == 0 {
		return session.Snapshot{}
	}
	return st.Snapshot()
}

// Limits reports the raw session quota snapshot, even after the daily quota is
// spent. Without a session every counter is zero.
func (h *ArenaHandler) Limits(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	sid := c.GetString(middleware.ContextSessionID)
	if userID == "" || sid == "" {
		c.JSON(http.StatusOK, session.Snapshot{})
		return
	}

	st, err := h.store.Load(c.Request.Context(), sid)
	if err != nil {
		c.JSON(http.StatusOK, session.Snapshot{})
		return
	}
	c.JSON(http.StatusOK, st.Snapshot())
}

// Me is the arena profile: counters, remaining daily quota, limits and badges.
func (h *ArenaHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	sid := c.GetString(middleware.ContextSessionID)

	user, remaining, err := services.DailyQuotaStatus(userID, h.today(), h.dailyQuota)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		abortWith(c, apperrors.NotFound("User not found"), nil)
		return
	}

	st, err := h.store.Load(c.Request.Context(), sid)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	badges, err := services.UserBadges(userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load badges")
	}
	activity, err := services.RecentActivity(userID, 10)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load activity")
	}

	resp := gin.H{
		"name":      user.Name,
		"email":     user.Email,
		"xp":        user.XP,
		"solved":    user.QuestionsSolved,
		"joinedAt":  user.JoinedAt,
		"remaining": remaining,
		"limits":    limitsView(st, remaining),
		"badges":    badges,
		"activity":  activity,
	}
	if st.HasQuestion() {
		resp["question"] = st.Question.Public()
	}
	c.JSON(http.StatusOK, resp)
}

// MarkSolved credits the user. Repeated calls credit again.
func (h *ArenaHandler) MarkSolved(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	sid := c.GetString(middleware.ContextSessionID)

	user, err := services.MarkSolved(userID, h.solveXP)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to mark solved")
		abortWith(c, apperrors.Internal("Failed to update progress"), nil)
		return
	}

	questionID, title := "", "a practice question"
	if st, err := h.store.Load(c.Request.Context(), sid); err == nil && st.HasQuestion() {
		questionID, title = st.Question.ID, st.Question.Title
	}
	services.LogActivity(userID, models.ActivitySolved, questionID, "Solved "+title)

	newBadges, err := services.CheckBadges(userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Badge check failed")
	}
	if newBadges == nil {
		newBadges = []models.Badge{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"xp":        user.XP,
		"solved":    user.QuestionsSolved,
		"newBadges": newBadges,
	})
}
