package analyzer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pitchlab/pitchlab/internal/session"
)

// Period is a look-back window in days. PeriodAll disables the time filter.
type Period int

const (
	PeriodAll   Period = 0
	PeriodWeek  Period = 7
	PeriodMonth Period = 30
)

func (p Period) String() string {
	if p == PeriodAll {
		return "all"
	}
	return fmt.Sprintf("%dd", int(p))
}

// ParsePeriod accepts "all" (or empty), "7", "7d", "30" and "30d".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "d")
	if s == "" || s == "all" {
		return PeriodAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return PeriodAll, fmt.Errorf("invalid period %q: want 7, 30 or all", s)
	}
	switch Period(n) {
	case PeriodWeek, PeriodMonth:
		return Period(n), nil
	}
	return PeriodAll, fmt.Errorf("invalid period %q: want 7, 30 or all", s)
}

// DifficultyAll matches every difficulty.
const DifficultyAll session.Difficulty = ""

// ParseDifficultyFilter accepts "all" (or empty) or one of the difficulty
// levels.
func ParseDifficultyFilter(s string) (session.Difficulty, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" || t == "all" {
		return DifficultyAll, nil
	}
	return session.ParseDifficulty(t)
}

// Filter selects the sessions shown in the progress chart. Both conditions
// must hold.
type Filter struct {
	Period     Period             `json:"period"`
	Difficulty session.Difficulty `json:"difficulty,omitempty"`
}

// Matches reports whether s passes the filter at time now.
func (f Filter) Matches(s session.Record, now time.Time) bool {
	if f.Period != PeriodAll {
		cutoff := now.Add(-time.Duration(f.Period) * 24 * time.Hour)
		if s.CreatedAt.Before(cutoff) {
			return false
		}
	}
	if f.Difficulty != DifficultyAll && s.Difficulty != f.Difficulty {
		return false
	}
	return true
}

// SeriesPoint is one bar of the progress chart.
type SeriesPoint struct {
	Label     string    `json:"label"`
	Value     int       `json:"value"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Progress is the filtered series plus summary numbers over the whole
// filtered set, not just the charted tail.
type Progress struct {
	Filter       Filter        `json:"filter"`
	Points       []SeriesPoint `json:"points"`
	Count        int           `json:"count"`
	AverageScore int           `json:"average_score"`
	BestScore    int           `json:"best_score"`
}

// SummarizeProgress filters sessions, orders them by creation time and
// returns the last SeriesWindow scores labelled S1..Sk. The input slice is
// not reordered.
func SummarizeProgress(sessions []session.Record, filter Filter, now time.Time, opts Options) Progress {
	opts = opts.WithDefaults()

	var filtered []session.Record
	for _, s := range sessions {
		if filter.Matches(s, now) {
			filtered = append(filtered, s)
		}
	}
	filtered = SortChronological(filtered)

	p := Progress{
		Filter: filter,
		Points: []SeriesPoint{},
		Count:  len(filtered),
	}
	if len(filtered) == 0 {
		return p
	}

	sum := 0
	for _, s := range filtered {
		sum += s.Score
		if s.Score > p.BestScore {
			p.BestScore = s.Score
		}
	}
	p.AverageScore = roundInt(float64(sum) / float64(len(filtered)))

	for i, s := range lastN(filtered, opts.SeriesWindow) {
		p.Points = append(p.Points, SeriesPoint{
			Label:     "S" + strconv.Itoa(i+1),
			Value:     s.Score,
			SessionID: s.ID,
			CreatedAt: s.CreatedAt,
		})
	}
	return p
}
