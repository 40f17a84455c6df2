package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/gin-gonic/gin"
)

type ExecuteRequest struct {
	Language  string            `json:"language"`
	Code      string            `json:"code"`
	TestCases []models.TestCase `json:"testcases"`
}

// bindExecute validates the shared run/submit body and writes the 400 itself.
func bindExecute(c *gin.Context) (*ExecuteRequest, bool) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request body"})
		return nil, false
	}
	if strings.TrimSpace(req.Language) == "" || strings.TrimSpace(req.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "language and code are required"})
		return nil, false
	}
	if len(req.TestCases) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No testcases available. Please regenerate the question."})
		return nil, false
	}
	if _, err := services.LanguageID(req.Language); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Unsupported language: " + req.Language})
		return nil, false
	}
	return &req, true
}

func executionFailed(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUnsupportedLanguage) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	logger.Error().Err(err).Msg("Execution failed")
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Execution failed"})
}

// Run executes the first test case only, for quick feedback. The cooldown is
// enforced by middleware in front of this handler.
func (h *ArenaHandler) Run(c *gin.Context) {
	req, ok := bindExecute(c)
	if !ok {
		return
	}

	report, err := h.runner.RunFirst(c.Request.Context(), req.Language, req.Code, req.TestCases)
	if err != nil {
		executionFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Submit runs every test case. A compile or runtime error is reported once
// for the whole submission.
func (h *ArenaHandler) Submit(c *gin.Context) {
	req, ok := bindExecute(c)
	if !ok {
		return
	}
	if len(req.TestCases) > services.MaxTestCases {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("At most %d testcases per submission", services.MaxTestCases),
		})
		return
	}

	report, err := h.runner.RunAll(c.Request.Context(), req.Language, req.Code, req.TestCases)
	if err != nil {
		executionFailed(c, err)
		return
	}
	if report.Status != services.StatusOK {
		c.JSON(http.StatusOK, gin.H{"status": report.Status, "message": report.Message})
		return
	}

	passed := 0
	for _, r := range report.Results {
		if r.Pass {
			passed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     report.Status,
		"results":    report.Results,
		"passed":     passed,
		"total":      len(report.Results),
		"all_passed": report.PassedAll(),
	})
}
