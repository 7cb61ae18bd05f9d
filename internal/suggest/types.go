// Package suggest turns dashboard analytics into ranked coaching advice.
package suggest

import (
	"time"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/session"
)

// Priority levels for suggestions.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
)

// Suggestion categories.
const (
	CategorySkill      = "skill"
	CategoryErrors     = "errors"
	CategoryDifficulty = "difficulty"
	CategoryCadence    = "cadence"
)

// Suggestion represents an actionable coaching recommendation.
type Suggestion struct {
	Category    string  `json:"category"`
	Priority    int     `json:"priority"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImpactScore float64 `json:"impact_score"`
}

// CoachingContext provides all data needed by rules to generate
// recommendations. Build it with NewContext.
type CoachingContext struct {
	// TotalSessions is the size of the whole history.
	TotalSessions int `json:"total_sessions"`

	// SessionsLastWeek counts sessions created in the seven days before Now.
	SessionsLastWeek int `json:"sessions_last_week"`

	// DaysSinceLast is the number of whole days since the latest session,
	// or -1 when there is none.
	DaysSinceLast int `json:"days_since_last"`

	// RecentDifficulty is the difficulty of the latest session.
	RecentDifficulty session.Difficulty `json:"recent_difficulty,omitempty"`

	// RecentScores are the raw scores of the trend window, oldest first,
	// whether or not those sessions were evaluated per criterion.
	RecentScores []int `json:"recent_scores"`

	// RecentAverage is the mean of RecentScores.
	RecentAverage float64 `json:"recent_average"`

	Trend   analyzer.TrendSummary    `json:"trend"`
	Errors  analyzer.RecurringErrors `json:"errors"`
	Options analyzer.Options         `json:"options"`
	Now     time.Time                `json:"now"`
}

// Rule is a function that examines the coaching context and produces
// zero or more suggestions.
type Rule func(ctx *CoachingContext) []Suggestion
