package analyzer

import "github.com/pitchlab/pitchlab/internal/session"

// CriteriaAverages feeds the radar and bar charts. Scores and Bars carry the
// same rounded numbers in two shapes. Both are nil when no recent session was
// evaluated per criterion, so callers never draw an all-zero chart.
type CriteriaAverages struct {
	Status       string                  `json:"status"`
	SessionsUsed int                     `json:"sessions_used"`
	Scores       *session.CriteriaScores `json:"scores,omitempty"`
	Bars         []CriterionScore        `json:"bars,omitempty"`
}

// AverageCriteria averages each criterion over the most recent sessions that
// have criteria. sessions must already be in creation order.
func AverageCriteria(sessions []session.Record, opts Options) CriteriaAverages {
	opts = opts.WithDefaults()

	qualifying := withCriteria(lastN(sessions, opts.SummaryWindow))
	if len(qualifying) == 0 {
		return CriteriaAverages{Status: StatusInsufficientData}
	}

	means := criteriaMeans(qualifying)
	return CriteriaAverages{
		Status:       StatusOK,
		SessionsUsed: len(qualifying),
		Scores:       &means,
		Bars:         criterionScores(means),
	}
}
