package analyzer

import (
	"sort"

	"github.com/pitchlab/pitchlab/internal/session"
)

// Result status values shared by the dashboard computations.
const (
	StatusOK               = "ok"
	StatusInsufficientData = "insufficient_data"
)

// CriterionScore is one criterion with its averaged value.
type CriterionScore struct {
	Criterion session.Criterion `json:"criterion"`
	Label     string            `json:"label"`
	Value     int               `json:"value"`
}

// TrendSummary is the headline block of the dashboard: where the trainee is
// weakest and strongest, whether scores are going up, and what to tell them.
// When Status is StatusInsufficientData every other field is zero.
type TrendSummary struct {
	Status string `json:"status"`

	// SessionsUsed is the number of recent sessions with criteria that fed
	// the averages.
	SessionsUsed int `json:"sessions_used"`

	Averages *session.CriteriaScores `json:"averages,omitempty"`

	// Ranking lists the criteria from weakest to strongest average.
	Ranking []CriterionScore `json:"ranking,omitempty"`

	WeakestCriterion   session.Criterion `json:"weakest_criterion,omitempty"`
	WeakestScore       int               `json:"weakest_score"`
	StrongestCriterion session.Criterion `json:"strongest_criterion,omitempty"`
	StrongestScore     int               `json:"strongest_score"`

	IsImproving  bool  `json:"is_improving"`
	RecentScores []int `json:"recent_scores,omitempty"`
	LastScore    int   `json:"last_score"`

	MessageCategory   MessageCategory `json:"message_category,omitempty"`
	Message           string          `json:"message,omitempty"`
	ObjectionsWarning bool            `json:"objections_warning"`
}

// DeriveTrend summarizes the most recent sessions. sessions must already be
// in creation order; DeriveTrend does not sort.
func DeriveTrend(sessions []session.Record, opts Options) TrendSummary {
	opts = opts.WithDefaults()

	qualifying := withCriteria(lastN(sessions, opts.SummaryWindow))
	if len(qualifying) == 0 {
		return TrendSummary{Status: StatusInsufficientData}
	}

	means := criteriaMeans(qualifying)
	summary := TrendSummary{
		Status:       StatusOK,
		SessionsUsed: len(qualifying),
		Averages:     &means,
		Ranking:      rankCriteria(means),
	}

	summary.WeakestCriterion, summary.WeakestScore = weakest(means)
	summary.StrongestCriterion, summary.StrongestScore = strongest(means)

	summary.IsImproving, summary.RecentScores = detectTrend(sessions, opts)
	summary.LastScore = summary.RecentScores[len(summary.RecentScores)-1]

	summary.MessageCategory = SelectMessage(summary.IsImproving, summary.LastScore, opts)
	summary.Message = RenderMessage(summary.MessageCategory, summary.LastScore, summary.WeakestCriterion)
	summary.ObjectionsWarning = means.Objections < opts.ObjectionsWarningBelow

	return summary
}

// detectTrend compares the first and last raw score of the trend window.
// Sessions without criteria still count here. With fewer than
// MinTrendPoints scores the trend is never improving.
func detectTrend(sessions []session.Record, opts Options) (bool, []int) {
	recent := lastN(sessions, opts.TrendWindow)
	scores := make([]int, len(recent))
	for i, s := range recent {
		scores[i] = s.Score
	}
	if len(scores) < opts.MinTrendPoints {
		return false, scores
	}
	return scores[len(scores)-1] > scores[0], scores
}

// weakest returns the lowest average; ties go to the earliest declared criterion.
func weakest(means session.CriteriaScores) (session.Criterion, int) {
	best := session.AllCriteria[0]
	bestVal := means.Get(best)
	for _, c := range session.AllCriteria[1:] {
		if v := means.Get(c); v < bestVal {
			best, bestVal = c, v
		}
	}
	return best, bestVal
}

// strongest returns the highest average; ties go to the earliest declared criterion.
func strongest(means session.CriteriaScores) (session.Criterion, int) {
	best := session.AllCriteria[0]
	bestVal := means.Get(best)
	for _, c := range session.AllCriteria[1:] {
		if v := means.Get(c); v > bestVal {
			best, bestVal = c, v
		}
	}
	return best, bestVal
}

// rankCriteria orders criteria by ascending average, keeping declaration
// order among equal values.
func rankCriteria(means session.CriteriaScores) []CriterionScore {
	ranking := criterionScores(means)
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Value < ranking[j].Value
	})
	return ranking
}

// criterionScores lists means in declaration order with their labels.
func criterionScores(means session.CriteriaScores) []CriterionScore {
	out := make([]CriterionScore, 0, len(session.AllCriteria))
	for _, c := range session.AllCriteria {
		out = append(out, CriterionScore{Criterion: c, Label: c.Label(), Value: means.Get(c)})
	}
	return out
}
