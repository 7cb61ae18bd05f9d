package suggest

import "sort"

// RankSuggestions sorts suggestions by ImpactScore in descending order.
// Equal scores keep rule order.
func RankSuggestions(suggestions []Suggestion) []Suggestion {
	sorted := make([]Suggestion, len(suggestions))
	copy(sorted, suggestions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ImpactScore > sorted[j].ImpactScore
	})
	return sorted
}

// ComputeImpact calculates an impact score for a suggestion.
// Formula: (affectedSessions * frequency * pointsGained) / effort
//
// Parameters:
//   - affectedSessions: number of recent sessions showing the issue
//   - frequency: how often the issue occurs (0.0-1.0)
//   - pointsGained: estimated score points recovered per session
//   - effort: estimated practice sessions needed to fix it
//
// Returns 0 if effort is zero to avoid division by zero.
func ComputeImpact(affectedSessions int, frequency float64, pointsGained float64, effort float64) float64 {
	if effort <= 0 {
		return 0
	}
	return (float64(affectedSessions) * frequency * pointsGained) / effort
}
