package analyzer

import (
	"time"

	"github.com/pitchlab/pitchlab/internal/session"
)

// Dashboard bundles every analytics block computed from one snapshot of the
// session history.
type Dashboard struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	TotalSessions int              `json:"total_sessions"`
	Trend         TrendSummary     `json:"trend"`
	Criteria      CriteriaAverages `json:"criteria"`
	Errors        RecurringErrors  `json:"errors"`
	Progress      Progress         `json:"progress"`
}

// BuildDashboard sorts a copy of sessions by creation time and runs the four
// computations over it.
func BuildDashboard(sessions []session.Record, filter Filter, now time.Time, opts Options) Dashboard {
	sorted := SortChronological(sessions)
	return Dashboard{
		GeneratedAt:   now,
		TotalSessions: len(sorted),
		Trend:         DeriveTrend(sorted, opts),
		Criteria:      AverageCriteria(sorted, opts),
		Errors:        RankRecurringErrors(sorted, opts),
		Progress:      SummarizeProgress(sorted, filter, now, opts),
	}
}
