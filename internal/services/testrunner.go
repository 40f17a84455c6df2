package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
)

var ErrNoTestCases = errors.New("no testcases")

var blankRun = regexp.MustCompile(`[ \t]+`)

// NormalizeInput turns a bracketed list literal such as "[1, 2, 3]" into the
// whitespace separated form programs read from stdin ("1 2 3"). Line breaks
// inside the brackets are kept. Any other input is only trimmed.
func NormalizeInput(in string) string {
	in = strings.TrimSpace(in)
	if len(in) >= 2 && strings.HasPrefix(in, "[") && strings.HasSuffix(in, "]") {
		inner := strings.ReplaceAll(in[1:len(in)-1], ",", " ")
		lines := strings.Split(inner, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(blankRun.ReplaceAllString(line, " "))
		}
		return strings.Join(lines, "\n")
	}
	return in
}

// OutputsMatch compares judge output with the expected answer after trimming
// surrounding whitespace. No numeric tolerance.
func OutputsMatch(expected, actual string) bool {
	return strings.TrimSpace(expected) == strings.TrimSpace(actual)
}

type CaseResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
	Pass     bool   `json:"pass"`
}

// SubmitReport is the outcome of a full run. Results is empty unless Status is ok.
type SubmitReport struct {
	Status  ExecStatus   `json:"status"`
	Message string       `json:"message,omitempty"`
	Results []CaseResult `json:"results,omitempty"`
}

func (r SubmitReport) PassedAll() bool {
	if r.Status != StatusOK || len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Pass {
			return false
		}
	}
	return true
}

// RunReport is the outcome of the quick single-case run.
type RunReport struct {
	Status         ExecStatus `json:"status"`
	Input          string     `json:"input"`
	YourOutput     string     `json:"your_output"`
	ExpectedOutput string     `json:"expected_output"`
	Pass           bool       `json:"pass"`
	Message        string     `json:"message,omitempty"`
}

// TestRunner drives an Executor across test cases, one judge call per case.
type TestRunner struct {
	exec          Executor
	runTimeout    time.Duration
	submitTimeout time.Duration
}

func NewTestRunner(exec Executor, runTimeout, submitTimeout time.Duration) *TestRunner {
	return &TestRunner{exec: exec, runTimeout: runTimeout, submitTimeout: submitTimeout}
}

// RunAll executes every case in order and stops at the first case that does
// not come back ok; that status is returned without outputs for later cases.
func (t *TestRunner) RunAll(ctx context.Context, language, code string, cases []models.TestCase) (SubmitReport, error) {
	if len(cases) == 0 {
		return SubmitReport{}, ErrNoTestCases
	}
	if _, err := LanguageID(language); err != nil {
		return SubmitReport{}, err
	}

	outputs := make([]string, 0, len(cases))
	for _, tc := range cases {
		res, err := t.execute(ctx, t.submitTimeout, language, code, NormalizeInput(tc.Input))
		if err != nil {
			return SubmitReport{}, err
		}
		if !res.OK() {
			return SubmitReport{Status: res.Status, Message: res.Message}, nil
		}
		outputs = append(outputs, res.Stdout)
	}

	results := make([]CaseResult, 0, len(cases))
	for i, tc := range cases {
		got := ""
		if i < len(outputs) {
			got = outputs[i]
		}
		results = append(results, CaseResult{
			Input:    tc.Input,
			Expected: tc.Output,
			Got:      got,
			Pass:     OutputsMatch(tc.Output, got),
		})
	}
	return SubmitReport{Status: StatusOK, Results: results}, nil
}

// RunFirst executes only the first case.
func (t *TestRunner) RunFirst(ctx context.Context, language, code string, cases []models.TestCase) (RunReport, error) {
	if len(cases) == 0 {
		return RunReport{}, ErrNoTestCases
	}
	tc := cases[0]
	input := NormalizeInput(tc.Input)
	expected := strings.TrimSpace(tc.Output)

	res, err := t.execute(ctx, t.runTimeout, language, code, input)
	if err != nil {
		return RunReport{}, err
	}

	report := RunReport{
		Status:         res.Status,
		Input:          input,
		ExpectedOutput: expected,
	}
	if !res.OK() {
		report.YourOutput = res.Message
		report.Message = res.Message
		return report, nil
	}
	report.YourOutput = strings.TrimSpace(res.Stdout)
	report.Pass = OutputsMatch(expected, res.Stdout)
	return report, nil
}

func (t *TestRunner) execute(ctx context.Context, timeout time.Duration, language, code, stdin string) (ExecResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return t.exec.Execute(ctx, language, code, stdin)
}
