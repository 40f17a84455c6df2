package models

// TestCase is one {input, output} pair. Input may be a bracketed list literal
// such as "[1, 2, 3]"; it is normalized before being sent to the judge.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type Solution struct {
	Explanation string `json:"explanation"`
	Code        string `json:"code"`
}

// Question is an AI-generated practice problem. It lives in session state
// between generation and use and is never persisted to the database.
type Question struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	ProblemStatement string     `json:"problem_statement"`
	InputFormat      string     `json:"input_format"`
	OutputFormat     string     `json:"output_format"`
	Samples          []TestCase `json:"samples"`
	TestCases        []TestCase `json:"testcases"`
	Solution         Solution   `json:"solution"`

	Topic      string `json:"topic,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Language   string `json:"language,omitempty"`
}

// PublicQuestion is what the client sees. The reference solution stays server side.
type PublicQuestion struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	ProblemStatement string     `json:"problem_statement"`
	InputFormat      string     `json:"input_format"`
	OutputFormat     string     `json:"output_format"`
	Samples          []TestCase `json:"samples"`
	TestCases        []TestCase `json:"testcases"`
}

func (q *Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:               q.ID,
		Title:            q.Title,
		ProblemStatement: q.ProblemStatement,
		InputFormat:      q.InputFormat,
		OutputFormat:     q.OutputFormat,
		Samples:          q.Samples,
		TestCases:        q.TestCases,
	}
}
