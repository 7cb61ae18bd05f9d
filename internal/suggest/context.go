package suggest

import (
	"time"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/session"
)

// NewContext combines a dashboard with the raw history it was built from.
func NewContext(d analyzer.Dashboard, sessions []session.Record, opts analyzer.Options) *CoachingContext {
	ctx := &CoachingContext{
		TotalSessions: len(sessions),
		DaysSinceLast: -1,
		Trend:         d.Trend,
		Errors:        d.Errors,
		Options:       opts.WithDefaults(),
		Now:           d.GeneratedAt,
	}
	if len(sessions) == 0 {
		return ctx
	}

	sorted := analyzer.SortChronological(sessions)
	last := sorted[len(sorted)-1]
	ctx.RecentDifficulty = last.Difficulty
	if age := ctx.Now.Sub(last.CreatedAt); age >= 0 {
		ctx.DaysSinceLast = int(age / (24 * time.Hour))
	} else {
		ctx.DaysSinceLast = 0
	}

	week := analyzer.Filter{Period: analyzer.PeriodWeek}
	for _, s := range sorted {
		if week.Matches(s, ctx.Now) {
			ctx.SessionsLastWeek++
		}
	}

	recent := sorted
	if n := ctx.Options.TrendWindow; len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	sum := 0
	for _, s := range recent {
		ctx.RecentScores = append(ctx.RecentScores, s.Score)
		sum += s.Score
	}
	ctx.RecentAverage = float64(sum) / float64(len(recent))
	return ctx
}
