package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/metrics"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
)

// Assistant produces the free-text AI features: code review and hints.
type Assistant struct {
	ai TextGenerator
}

func NewAssistant(ai TextGenerator) *Assistant {
	return &Assistant{ai: ai}
}

func (a *Assistant) Review(ctx context.Context, q *models.Question, language, code string) (string, error) {
	return a.ask(ctx, "review", BuildReviewPrompt(q, language, code))
}

func (a *Assistant) Hint(ctx context.Context, q *models.Question, language, code string) (string, error) {
	return a.ask(ctx, "hint", BuildHintPrompt(q, language, code))
}

func (a *Assistant) ask(ctx context.Context, kind, prompt string) (string, error) {
	text, err := a.ai.GenerateText(ctx, prompt)
	if err != nil {
		metrics.AIRequests.WithLabelValues(kind, "error").Inc()
		logger.Error().Err(err).Str("kind", kind).Msg("AI assist request failed")
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	text = stripFences(text)
	if text == "" {
		metrics.AIRequests.WithLabelValues(kind, "invalid").Inc()
		return "", fmt.Errorf("%w: empty %s", ErrAIInvalidFormat, kind)
	}
	metrics.AIRequests.WithLabelValues(kind, "ok").Inc()
	return text, nil
}

func problemContext(q *models.Question) string {
	if q == nil {
		return "(no problem statement available)"
	}
	return fmt.Sprintf("Title: %s\nProblem: %s\nInput format: %s\nOutput format: %s",
		q.Title, q.ProblemStatement, q.InputFormat, q.OutputFormat)
}

func BuildReviewPrompt(q *models.Question, language, code string) string {
	var sb strings.Builder
	sb.WriteString("You are a friendly programming mentor reviewing a student's solution.\n\n")
	sb.WriteString(problemContext(q))
	fmt.Fprintf(&sb, "\n\nLanguage: %s\nCode:\n%s\n\n", language, code)
	sb.WriteString("Give a short review in plain text:\n")
	sb.WriteString("- Whether the approach is correct\n")
	sb.WriteString("- Bugs or edge cases it misses\n")
	sb.WriteString("- Time complexity\n")
	sb.WriteString("Do not rewrite the full solution.")
	return sb.String()
}

func BuildHintPrompt(q *models.Question, language, code string) string {
	var sb strings.Builder
	sb.WriteString("You are a programming tutor. Give ONE short hint that nudges the student ")
	sb.WriteString("toward the solution without giving away code.\n\n")
	sb.WriteString(problemContext(q))
	if strings.TrimSpace(code) != "" {
		fmt.Fprintf(&sb, "\n\nLanguage: %s\nStudent's current attempt:\n%s", language, code)
	}
	sb.WriteString("\n\nReply with the hint only, at most three sentences.")
	return sb.String()
}
