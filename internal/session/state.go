// Package session holds the per-login quota state: the session-scoped budgets
// for regenerations, solutions, hints and reviews, the per-question tease
// flags, and the question currently being worked on.
package session

import (
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/models"
)

// Feature is a gated per-question assist.
type Feature string

const (
	FeatureSolution Feature = "solution"
	FeatureReview   Feature = "review"
	FeatureHint     Feature = "hint"
)

// Outcome of asking for a gated feature.
type Outcome int

const (
	// Teased: first request for the current question. Nothing revealed, nothing spent.
	Teased Outcome = iota
	// Exhausted: the session budget for the feature is used up.
	Exhausted
	// Granted: one unit of budget was spent and content may be revealed.
	Granted
)

func (o Outcome) String() string {
	switch o {
	case Teased:
		return "teased"
	case Exhausted:
		return "exhausted"
	case Granted:
		return "granted"
	}
	return "unknown"
}

// Limits seeds a fresh session.
type Limits struct {
	Regen    int `json:"regen"`
	Solution int `json:"solution"`
	Hint     int `json:"hint"`
	Review   int `json:"review"`
}

type State struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	RegenRemaining    int `json:"regenRemaining"`
	SolutionRemaining int `json:"solutionRemaining"`
	HintRemaining     int `json:"hintRemaining"`
	ReviewRemaining   int `json:"reviewRemaining"`

	// Per-question flags, cleared whenever a new question is stored.
	SolutionTeased   bool `json:"solutionTeased"`
	ReviewTeased     bool `json:"reviewTeased"`
	HintTeased       bool `json:"hintTeased"`
	SolutionRevealed bool `json:"solutionRevealed"`

	Question *models.Question `json:"question,omitempty"`
}

func NewState(userID string, limits Limits, now time.Time) *State {
	return &State{
		UserID:            userID,
		CreatedAt:         now,
		RegenRemaining:    limits.Regen,
		SolutionRemaining: limits.Solution,
		HintRemaining:     limits.Hint,
		ReviewRemaining:   limits.Review,
	}
}

// HasQuestion reports whether a question is current.
func (s *State) HasQuestion() bool {
	return s.Question != nil
}

// SetQuestion replaces the current question and resets every per-question flag.
// Budgets are session-lifetime and are left alone.
func (s *State) SetQuestion(q *models.Question) {
	s.Question = q
	s.SolutionTeased = false
	s.ReviewTeased = false
	s.HintTeased = false
	s.SolutionRevealed = false
}

// ReserveRegen spends one regeneration. It returns false when none are left.
func (s *State) ReserveRegen() bool {
	if s.RegenRemaining <= 0 {
		return false
	}
	s.RegenRemaining--
	return true
}

func (s *State) RefundRegen() {
	s.RegenRemaining++
}

// Use runs the tease gate for f: the first request per question is a tease,
// later requests spend budget until it is exhausted.
func (s *State) Use(f Feature) Outcome {
	teased, remaining := s.slots(f)
	if !*teased {
		*teased = true
		return Teased
	}
	if *remaining <= 0 {
		return Exhausted
	}
	*remaining--
	if f == FeatureSolution {
		s.SolutionRevealed = true
	}
	return Granted
}

// Refund gives back one unit of f, used when content could not be produced.
func (s *State) Refund(f Feature) {
	_, remaining := s.slots(f)
	*remaining++
}

// Remaining returns the budget left for f.
func (s *State) Remaining(f Feature) int {
	_, remaining := s.slots(f)
	return *remaining
}

func (s *State) slots(f Feature) (teased *bool, remaining *int) {
	switch f {
	case FeatureSolution:
		return &s.SolutionTeased, &s.SolutionRemaining
	case FeatureReview:
		return &s.ReviewTeased, &s.ReviewRemaining
	case FeatureHint:
		return &s.HintTeased, &s.HintRemaining
	}
	panic("session: unknown feature " + string(f))
}

// Snapshot is the limits view returned by /api/limits.
type Snapshot struct {
	Regen    int `json:"regen"`
	Solution int `json:"solution"`
	Review   int `json:"review"`
	Hint     int `json:"hint"`
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Regen:    s.RegenRemaining,
		Solution: s.SolutionRemaining,
		Review:   s.ReviewRemaining,
		Hint:     s.HintRemaining,
	}
}
