// Package session defines practice-session records and their import/export codecs.
package session

import (
	"fmt"
	"strings"
	"time"
)

// Criterion is one of the five fixed evaluation dimensions of a sales call.
type Criterion string

const (
	CriterionAccroche   Criterion = "accroche"
	CriterionEcoute     Criterion = "ecoute"
	CriterionObjections Criterion = "objections"
	CriterionClarte     Criterion = "clarte"
	CriterionConclusion Criterion = "conclusion"
)

// AllCriteria lists the criteria in declaration order. Analytics use this
// order to break ties.
var AllCriteria = []Criterion{
	CriterionAccroche,
	CriterionEcoute,
	CriterionObjections,
	CriterionClarte,
	CriterionConclusion,
}

var criterionLabels = map[Criterion]string{
	CriterionAccroche:   "Accroche",
	CriterionEcoute:     "Écoute",
	CriterionObjections: "Objections",
	CriterionClarte:     "Clarté",
	CriterionConclusion: "Conclusion",
}

// Label returns the display label shown on dashboard charts.
func (c Criterion) Label() string {
	if l, ok := criterionLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCriterion converts a criterion key into a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	c := Criterion(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := criterionLabels[c]; !ok {
		return "", fmt.Errorf("unknown criterion %q", s)
	}
	return c, nil
}

// CriteriaScores holds the per-criterion evaluation of a session, each 0-100.
type CriteriaScores struct {
	Accroche   int `json:"accroche" yaml:"accroche"`
	Ecoute     int `json:"ecoute" yaml:"ecoute"`
	Objections int `json:"objections" yaml:"objections"`
	Clarte     int `json:"clarte" yaml:"clarte"`
	Conclusion int `json:"conclusion" yaml:"conclusion"`
}

// Get returns the score for c. Unknown criteria return 0.
func (cs CriteriaScores) Get(c Criterion) int {
	switch c {
	case CriterionAccroche:
		return cs.Accroche
	case CriterionEcoute:
		return cs.Ecoute
	case CriterionObjections:
		return cs.Objections
	case CriterionClarte:
		return cs.Clarte
	case CriterionConclusion:
		return cs.Conclusion
	}
	return 0
}

// Set assigns the score for c. Unknown criteria are ignored.
func (cs *CriteriaScores) Set(c Criterion, v int) {
	switch c {
	case CriterionAccroche:
		cs.Accroche = v
	case CriterionEcoute:
		cs.Ecoute = v
	case CriterionObjections:
		cs.Objections = v
	case CriterionClarte:
		cs.Clarte = v
	case CriterionConclusion:
		cs.Conclusion = v
	}
}

// Difficulty is the scenario difficulty a session was played at.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties lists the valid difficulties from easiest to hardest.
var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty converts a string into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range AllDifficulties {
		if d == valid {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
}

// Record is one completed practice call. Records are created by the
// recording/import layer and are read-only to the analytics.
type Record struct {
	ID              string          `json:"id" yaml:"id"`
	UserID          string          `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Score           int             `json:"score" yaml:"score"`
	Criteria        *CriteriaScores `json:"criteria_scores,omitempty" yaml:"criteria_scores,omitempty"`
	RecurrentErrors []string        `json:"recurrent_errors,omitempty" yaml:"recurrent_errors,omitempty"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at"`
	Difficulty      Difficulty      `json:"difficulty" yaml:"difficulty"`
	Scenario        string          `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	DurationSeconds int             `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
}

// HasCriteria reports whether the session was evaluated per criterion.
func (r Record) HasCriteria() bool {
	return r.Criteria != nil
}

// HasErrors reports whether any recurring error tag was detected.
func (r Record) HasErrors() bool {
	return len(r.RecurrentErrors) > 0
}
