package analyzer

import (
	"math"
	"sort"

	"github.com/pitchlab/pitchlab/internal/session"
)

// lastN returns the trailing n sessions. The result aliases the input and
// must not be modified.
func lastN(sessions []session.Record, n int) []session.Record {
	if n <= 0 || n >= len(sessions) {
		return sessions
	}
	return sessions[len(sessions)-n:]
}

// withCriteria keeps the sessions that carry a per-criterion evaluation.
func withCriteria(sessions []session.Record) []session.Record {
	var out []session.Record
	for _, s := range sessions {
		if s.HasCriteria() {
			out = append(out, s)
		}
	}
	return out
}

// criteriaMeans averages each criterion across sessions and rounds to the
// nearest integer. Every caller must pass sessions with non-nil criteria.
func criteriaMeans(sessions []session.Record) session.CriteriaScores {
	var means session.CriteriaScores
	if len(sessions) == 0 {
		return means
	}
	n := float64(len(sessions))
	for _, c := range session.AllCriteria {
		sum := 0
		for _, s := range sessions {
			sum += s.Criteria.Get(c)
		}
		means.Set(c, roundInt(float64(sum)/n))
	}
	return means
}

// roundInt rounds half away from zero, which for the non-negative scores
// handled here means half up.
func roundInt(v float64) int {
	return int(math.Round(v))
}

// SortChronological returns a copy of sessions ordered by CreatedAt
// ascending. Sessions with equal timestamps keep their input order.
func SortChronological(sessions []session.Record) []session.Record {
	sorted := make([]session.Record, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}
