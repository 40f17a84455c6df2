package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/metrics"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/utils"
	"github.com/xeipuuv/gojsonschema"
)

const (
	MaxSamples   = 3
	MaxTestCases = 6
	maxTitleLen  = 60

	SentinelTitle          = "AI Error"
	invalidFormatMessage   = "AI returned invalid format. Please click Regenerate."
	generationErrorMessage = "AI generation failed. Please click Regenerate."
)

var (
	ErrAIUnavailable   = errors.New("ai generation failed")
	ErrAIInvalidFormat = errors.New("ai returned invalid format")
)

// QuestionSchema gates AI output before it is normalized. Both field-name
// variants for test cases are allowed; only the statement is mandatory.
const QuestionSchema = `{
	"type": "object",
	"definitions": {
		"cases": {"type": "array", "items": {"type": "object"}}
	},
	"properties": {
		"title": {"type": ["string", "null"]},
		"problem_statement": {"type": "string", "minLength": 1},
		"input_format": {"type": ["string", "null"]},
		"output_format": {"type": ["string", "null"]},
		"sample_test_cases": {"$ref": "#/definitions/cases"},
		"samples": {"$ref": "#/definitions/cases"},
		"hidden_test_cases": {"$ref": "#/definitions/cases"},
		"testcases": {"$ref": "#/definitions/cases"},
		"solution": {
			"type": "object",
			"properties": {
				"explanation": {"type": "string"},
				"code": {"type": "string"}
			}
		}
	},
	"required": ["problem_statement"]
}`

var questionSchema = mustCompileSchema(QuestionSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid question schema: %v", err))
	}
	return schema
}

// Generation is the tagged result of a generation attempt. When Err is set,
// Question holds the sentinel "AI Error" placeholder and must not be served
// as content.
type Generation struct {
	Question models.Question
	Err      error
}

func (g Generation) Failed() bool {
	return g.Err != nil
}

// SentinelQuestion is the fixed placeholder shown when generation fails.
func SentinelQuestion(message string) models.Question {
	return models.Question{
		Title:            SentinelTitle,
		ProblemStatement: message,
		Samples:          []models.TestCase{},
		TestCases:        []models.TestCase{},
	}
}

type QuestionGenerator struct {
	ai    TextGenerator
	now   func() time.Time
	newID func() string
}

func NewQuestionGenerator(ai TextGenerator) *QuestionGenerator {
	return &QuestionGenerator{
		ai:    ai,
		now:   time.Now,
		newID: utils.GenerateID,
	}
}

// Generate makes exactly one AI call. It never returns a Go error; failures
// are reported through Generation.Err alongside the sentinel question.
func (g *QuestionGenerator) Generate(ctx context.Context, topic, difficulty, language string) Generation {
	requestID := g.newID()
	prompt := BuildQuestionPrompt(topic, difficulty, language, requestID, g.now())

	raw, err := g.ai.GenerateText(ctx, prompt)
	if err != nil {
		metrics.AIRequests.WithLabelValues("question", "error").Inc()
		logger.Error().Err(err).Str("request_id", requestID).Msg("Question generation failed")
		return Generation{
			Question: SentinelQuestion(generationErrorMessage),
			Err:      fmt.Errorf("%w: %v", ErrAIUnavailable, err),
		}
	}

	q, err := ParseQuestion(raw)
	if err != nil {
		metrics.AIRequests.WithLabelValues("question", "invalid").Inc()
		logger.Warn().Err(err).Str("request_id", requestID).Msg("AI returned an unusable question")
		return Generation{
			Question: SentinelQuestion(invalidFormatMessage),
			Err:      err,
		}
	}

	metrics.AIRequests.WithLabelValues("question", "ok").Inc()
	q.ID = requestID
	q.Topic = topic
	q.Difficulty = difficulty
	q.Language = language
	return Generation{Question: *q}
}

// BuildQuestionPrompt embeds a request id and timestamp so identical
// parameters never hit a cached completion.
func BuildQuestionPrompt(topic, difficulty, language, requestID string, now time.Time) string {
	return fmt.Sprintf(`
SYSTEM NOTE:
Request ID: %s
Timestamp: %d

Create ONE VERY SIMPLE coding problem.

Topic: %s
Difficulty: %s
Language: %s

Difficulty Rules:
EASY:
- One loop only
- No tricky logic
- Beginner friendly

MEDIUM:
- Two loops allowed
- Simple conditions

HARD:
- Advanced logic allowed

Formatting Rules:
- No LaTeX
- No explanations outside the JSON
- Short problem statement
- Programs read from standard input and print to standard output
- Return JSON ONLY

JSON FORMAT:
{
  "title": "",
  "problem_statement": "",
  "input_format": "",
  "output_format": "",
  "sample_test_cases": [
    { "input": "", "output": "" }
  ],
  "hidden_test_cases": [
    { "input": "", "output": "" }
  ],
  "solution": { "explanation": "", "code": "" }
}
`, requestID, now.Unix(), topic, difficulty, language)
}

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

var spaceRe = regexp.MustCompile(`\s+`)

// CleanText drops backticks and collapses all whitespace, newlines included.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "`", "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// flexString accepts any JSON scalar or array for test-case fields; models
// sometimes emit numbers or list literals instead of strings.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	*f = flexString(buf.String())
	return nil
}

type rawCase struct {
	Input  flexString `json:"input"`
	Output flexString `json:"output"`
}

type rawQuestion struct {
	Title            *string   `json:"title"`
	ProblemStatement string    `json:"problem_statement"`
	InputFormat      *string   `json:"input_format"`
	OutputFormat     *string   `json:"output_format"`
	SampleTestCases  []rawCase `json:"sample_test_cases"`
	Samples          []rawCase `json:"samples"`
	HiddenTestCases  []rawCase `json:"hidden_test_cases"`
	TestCases        []rawCase `json:"testcases"`
	Solution         struct {
		Explanation string `json:"explanation"`
		Code        string `json:"code"`
	} `json:"solution"`
}

// ParseQuestion validates and normalizes raw AI output.
func ParseQuestion(raw string) (*models.Question, error) {
	body := stripFences(raw)
	if !json.Valid([]byte(body)) {
		return nil, fmt.Errorf("%w: not JSON", ErrAIInvalidFormat)
	}

	result, err := questionSchema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIInvalidFormat, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrAIInvalidFormat, strings.Join(msgs, "; "))
	}

	var rq rawQuestion
	if err := json.Unmarshal([]byte(body), &rq); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIInvalidFormat, err)
	}

	samples := rq.SampleTestCases
	if len(samples) == 0 {
		samples = rq.Samples
	}
	hidden := rq.HiddenTestCases
	if len(hidden) == 0 {
		hidden = rq.TestCases
	}

	statement := CleanText(rq.ProblemStatement)
	if statement == "" {
		return nil, fmt.Errorf("%w: empty problem statement", ErrAIInvalidFormat)
	}

	return &models.Question{
		Title:            deriveTitle(optString(rq.Title), statement),
		ProblemStatement: statement,
		InputFormat:      CleanText(optString(rq.InputFormat)),
		OutputFormat:     CleanText(optString(rq.OutputFormat)),
		Samples:          toCases(samples, MaxSamples),
		TestCases:        toCases(hidden, MaxTestCases),
		Solution: models.Solution{
			Explanation: CleanText(rq.Solution.Explanation),
			Code:        strings.TrimSpace(rq.Solution.Code),
		},
	}, nil
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// deriveTitle falls back to the first sentence of the statement, capped at 60 characters.
func deriveTitle(title, statement string) string {
	if t := CleanText(title); t != "" {
		return t
	}
	first := strings.TrimSpace(strings.SplitN(statement, ".", 2)[0])
	if r := []rune(first); len(r) > maxTitleLen {
		first = strings.TrimSpace(string(r[:maxTitleLen]))
	}
	if first == "" {
		return "Coding Problem"
	}
	return first
}

func toCases(raw []rawCase, limit int) []models.TestCase {
	if len(raw) > limit {
		raw = raw[:limit]
	}
	out := make([]models.TestCase, 0, len(raw))
	for _, c := range raw {
		out = append(out, models.TestCase{Input: string(c.Input), Output: string(c.Output)})
	}
	return out
}
