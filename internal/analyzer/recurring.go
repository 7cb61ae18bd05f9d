package analyzer

import (
	"sort"

	"github.com/pitchlab/pitchlab/internal/session"
)

// RecurringError is one error tag ranked by how often it came up.
type RecurringError struct {
	Tag        string  `json:"tag"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	IsFrequent bool    `json:"is_frequent"`
}

// RecurringErrors is the ranked list of mistakes from the recent sessions.
type RecurringErrors struct {
	// SessionsConsidered is the size of the recent window that was scanned.
	SessionsConsidered int `json:"sessions_considered"`

	// QualifyingSessions counts the sessions in the window with at least
	// one error tag. Percentages are relative to this count.
	QualifyingSessions int `json:"qualifying_sessions"`

	Errors []RecurringError `json:"errors"`
}

// RankRecurringErrors counts error tags over the most recent sessions and
// returns the most frequent ones. Tags are compared verbatim. Every
// occurrence counts, so a tag listed twice in one session counts twice.
// Equal counts keep the order in which tags first appeared.
func RankRecurringErrors(sessions []session.Record, opts Options) RecurringErrors {
	opts = opts.WithDefaults()

	window := lastN(sessions, opts.ErrorWindow)
	result := RecurringErrors{
		SessionsConsidered: len(window),
		Errors:             []RecurringError{},
	}

	counts := make(map[string]int)
	var order []string
	for _, s := range window {
		if !s.HasErrors() {
			continue
		}
		result.QualifyingSessions++
		for _, tag := range s.RecurrentErrors {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	if result.QualifyingSessions == 0 {
		return result
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > opts.TopErrors {
		order = order[:opts.TopErrors]
	}

	for _, tag := range order {
		pct := float64(counts[tag]) / float64(result.QualifyingSessions) * 100
		result.Errors = append(result.Errors, RecurringError{
			Tag:        tag,
			Count:      counts[tag],
			Percentage: pct,
			IsFrequent: pct >= opts.FrequentErrorPercent,
		})
	}
	return result
}
