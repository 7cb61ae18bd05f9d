package analyzer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/session"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func uniform(v int) *session.CriteriaScores {
	return &session.CriteriaScores{Accroche: v, Ecoute: v, Objections: v, Clarte: v, Conclusion: v}
}

// history builds one session per score, a day apart, all with criteria equal
// to the score.
func history(scores ...int) []session.Record {
	out := make([]session.Record, len(scores))
	for i, s := range scores {
		out[i] = session.Record{
			ID:         fmt.Sprintf("s%d", i+1),
			Score:      s,
			Criteria:   uniform(s),
			CreatedAt:  baseTime.Add(time.Duration(i) * 24 * time.Hour),
			Difficulty: session.DifficultyMedium,
		}
	}
	return out
}

func TestDeriveTrend_Empty(t *testing.T) {
	got := DeriveTrend(nil, DefaultOptions())
	assert.Equal(t, StatusInsufficientData, got.Status)
	assert.Nil(t, got.Averages)
	assert.Empty(t, got.Message)
	assert.False(t, got.IsImproving)
}

func TestDeriveTrend_NoCriteriaInWindow(t *testing.T) {
	sessions := history(50, 60, 70, 80, 90, 95)
	// Only the oldest session, outside the window, keeps its criteria.
	for i := 1; i < len(sessions); i++ {
		sessions[i].Criteria = nil
	}
	got := DeriveTrend(sessions, DefaultOptions())
	assert.Equal(t, StatusInsufficientData, got.Status)
}

func TestDeriveTrend_Improving(t *testing.T) {
	got := DeriveTrend(history(40, 50, 60, 70, 80), DefaultOptions())

	require.Equal(t, StatusOK, got.Status)
	assert.True(t, got.IsImproving)
	assert.Equal(t, 80, got.LastScore)
	assert.Equal(t, []int{40, 50, 60, 70, 80}, got.RecentScores)
	assert.Equal(t, MessageExcellence, got.MessageCategory)
	assert.Equal(t, 5, got.SessionsUsed)
	assert.Equal(t, 60, got.Averages.Objections)
	assert.False(t, got.ObjectionsWarning)
	assert.Contains(t, got.Message, "80/100")
}

func TestDeriveTrend_Declining(t *testing.T) {
	got := DeriveTrend(history(80, 70, 60), DefaultOptions())

	require.Equal(t, StatusOK, got.Status)
	assert.False(t, got.IsImproving)
	assert.Equal(t, 60, got.LastScore)
	assert.Equal(t, MessageEarlyStage, got.MessageCategory)
}

func TestDeriveTrend_TooFewPoints(t *testing.T) {
	got := DeriveTrend(history(50, 60), DefaultOptions())

	require.Equal(t, StatusOK, got.Status)
	assert.False(t, got.IsImproving)
	assert.Equal(t, 60, got.LastScore)
	assert.Equal(t, MessageEarlyStage, got.MessageCategory)
}

func TestDeriveTrend_EqualEndsNotImproving(t *testing.T) {
	got := DeriveTrend(history(70, 90, 70), DefaultOptions())
	assert.False(t, got.IsImproving)
	assert.Equal(t, MessagePlateau, got.MessageCategory)
}

func TestDeriveTrend_TrendIgnoresCriteria(t *testing.T) {
	sessions := history(40, 50, 60)
	sessions[0].Criteria = nil
	sessions[1].Criteria = nil

	got := DeriveTrend(sessions, DefaultOptions())
	require.Equal(t, StatusOK, got.Status)
	assert.Equal(t, 1, got.SessionsUsed)
	assert.True(t, got.IsImproving)
}

func TestDeriveTrend_WeakestStrongest(t *testing.T) {
	sessions := history(70)
	sessions[0].Criteria = &session.CriteriaScores{
		Accroche: 80, Ecoute: 55, Objections: 40, Clarte: 90, Conclusion: 60,
	}

	got := DeriveTrend(sessions, DefaultOptions())
	assert.Equal(t, session.CriterionObjections, got.WeakestCriterion)
	assert.Equal(t, 40, got.WeakestScore)
	assert.Equal(t, session.CriterionClarte, got.StrongestCriterion)
	assert.Equal(t, 90, got.StrongestScore)
	assert.True(t, got.ObjectionsWarning)

	require.Len(t, got.Ranking, 5)
	assert.Equal(t, session.CriterionObjections, got.Ranking[0].Criterion)
	assert.Equal(t, session.CriterionClarte, got.Ranking[4].Criterion)
	assert.Contains(t, got.Message, "Objections")
}

func TestDeriveTrend_TiesGoToFirstDeclared(t *testing.T) {
	sessions := history(70)
	sessions[0].Criteria = &session.CriteriaScores{
		Accroche: 70, Ecoute: 50, Objections: 90, Clarte: 50, Conclusion: 90,
	}

	got := DeriveTrend(sessions, DefaultOptions())
	assert.Equal(t, session.CriterionEcoute, got.WeakestCriterion)
	assert.Equal(t, session.CriterionObjections, got.StrongestCriterion)

	var order []session.Criterion
	for _, c := range got.Ranking {
		order = append(order, c.Criterion)
	}
	assert.Equal(t, []session.Criterion{
		session.CriterionEcoute, session.CriterionClarte, session.CriterionAccroche,
		session.CriterionObjections, session.CriterionConclusion,
	}, order)
}

func TestDeriveTrend_AllEqual(t *testing.T) {
	got := DeriveTrend(history(65, 65, 65), DefaultOptions())
	assert.Equal(t, session.CriterionAccroche, got.WeakestCriterion)
	assert.Equal(t, session.CriterionAccroche, got.StrongestCriterion)
}

func TestDeriveTrend_RoundedMeansDecideWeakest(t *testing.T) {
	// accroche 50.4 and ecoute 50.0 both round to 50, so accroche wins the
	// tie even though its raw mean is higher.
	sessions := history(60, 60, 60, 60, 60)
	for i := range sessions {
		sessions[i].Criteria = &session.CriteriaScores{Accroche: 50, Ecoute: 50, Objections: 70, Clarte: 70, Conclusion: 70}
	}
	sessions[0].Criteria.Accroche = 52

	got := DeriveTrend(sessions, DefaultOptions())
	assert.Equal(t, 50, got.Averages.Accroche)
	assert.Equal(t, session.CriterionAccroche, got.WeakestCriterion)
}

func TestDeriveTrend_WindowUsesLastSessionsOnly(t *testing.T) {
	scores := make([]int, 100)
	for i := range scores {
		scores[i] = 10
	}
	for i := 95; i < 100; i++ {
		scores[i] = 90
	}
	long := DeriveTrend(history(scores...), DefaultOptions())
	short := DeriveTrend(history(90, 90, 90, 90, 90), DefaultOptions())

	assert.Equal(t, short.Averages, long.Averages)
	assert.Equal(t, short.SessionsUsed, long.SessionsUsed)
	assert.Equal(t, short.MessageCategory, long.MessageCategory)
}

func TestAverageCriteria_Empty(t *testing.T) {
	got := AverageCriteria(nil, DefaultOptions())
	assert.Equal(t, StatusInsufficientData, got.Status)
	assert.Nil(t, got.Scores)
	assert.Nil(t, got.Bars)
}

func TestAverageCriteria_Rounding(t *testing.T) {
	sessions := history(60, 60)
	sessions[0].Criteria = &session.CriteriaScores{Accroche: 70, Ecoute: 60, Objections: 50, Clarte: 81, Conclusion: 0}
	sessions[1].Criteria = &session.CriteriaScores{Accroche: 71, Ecoute: 61, Objections: 50, Clarte: 80, Conclusion: 1}

	got := AverageCriteria(sessions, DefaultOptions())
	require.Equal(t, StatusOK, got.Status)
	require.NotNil(t, got.Scores)
	assert.Equal(t, 71, got.Scores.Accroche)
	assert.Equal(t, 61, got.Scores.Ecoute)
	assert.Equal(t, 50, got.Scores.Objections)
	assert.Equal(t, 81, got.Scores.Clarte)
	assert.Equal(t, 1, got.Scores.Conclusion)
}

func TestAverageCriteria_BarsMatchScores(t *testing.T) {
	sessions := history(60, 70, 75)
	sessions[1].Criteria = &session.CriteriaScores{Accroche: 33, Ecoute: 67, Objections: 12, Clarte: 99, Conclusion: 45}

	got := AverageCriteria(sessions, DefaultOptions())
	require.Len(t, got.Bars, 5)
	labels := []string{"Accroche", "Écoute", "Objections", "Clarté", "Conclusion"}
	for i, bar := range got.Bars {
		assert.Equal(t, session.AllCriteria[i], bar.Criterion)
		assert.Equal(t, labels[i], bar.Label)
		assert.Equal(t, got.Scores.Get(bar.Criterion), bar.Value)
	}
}

func TestAverageCriteria_MatchesTrendAverages(t *testing.T) {
	sessions := history(41, 57, 63, 88, 72, 90)
	sessions[2].Criteria = &session.CriteriaScores{Accroche: 11, Ecoute: 22, Objections: 33, Clarte: 44, Conclusion: 55}

	avg := AverageCriteria(sessions, DefaultOptions())
	trend := DeriveTrend(sessions, DefaultOptions())
	assert.Equal(t, *avg.Scores, *trend.Averages)
}

func TestRankRecurringErrors_Example(t *testing.T) {
	sessions := history(50, 50, 50, 50, 50)
	lists := [][]string{{"A"}, {"A", "B"}, {"B"}, {"A"}, nil}
	for i := range sessions {
		sessions[i].RecurrentErrors = lists[i]
	}

	got := RankRecurringErrors(sessions, DefaultOptions())
	assert.Equal(t, 5, got.SessionsConsidered)
	assert.Equal(t, 4, got.QualifyingSessions)
	require.Len(t, got.Errors, 2)

	assert.Equal(t, "A", got.Errors[0].Tag)
	assert.Equal(t, 3, got.Errors[0].Count)
	assert.InDelta(t, 75.0, got.Errors[0].Percentage, 1e-9)
	assert.True(t, got.Errors[0].IsFrequent)

	assert.Equal(t, "B", got.Errors[1].Tag)
	assert.Equal(t, 2, got.Errors[1].Count)
	assert.InDelta(t, 50.0, got.Errors[1].Percentage, 1e-9)
	assert.False(t, got.Errors[1].IsFrequent)
}

func TestRankRecurringErrors_Empty(t *testing.T) {
	got := RankRecurringErrors(history(50, 60), DefaultOptions())
	assert.Equal(t, 0, got.QualifyingSessions)
	assert.NotNil(t, got.Errors)
	assert.Empty(t, got.Errors)
}

func TestRankRecurringErrors_TiesKeepFirstAppearance(t *testing.T) {
	sessions := history(50, 50)
	sessions[0].RecurrentErrors = []string{"zeta", "alpha"}
	sessions[1].RecurrentErrors = []string{"mid", "alpha", "zeta"}

	got := RankRecurringErrors(sessions, DefaultOptions())
	require.Len(t, got.Errors, 3)
	assert.Equal(t, "zeta", got.Errors[0].Tag)
	assert.Equal(t, "alpha", got.Errors[1].Tag)
	assert.Equal(t, "mid", got.Errors[2].Tag)
}

func TestRankRecurringErrors_TopFiveAndOccurrences(t *testing.T) {
	sessions := history(50)
	sessions[0].RecurrentErrors = []string{"a", "b", "c", "d", "e", "f", "f"}

	got := RankRecurringErrors(sessions, DefaultOptions())
	require.Len(t, got.Errors, 5)
	assert.Equal(t, "f", got.Errors[0].Tag)
	assert.Equal(t, 2, got.Errors[0].Count)
	assert.InDelta(t, 200.0, got.Errors[0].Percentage, 1e-9)
	assert.Equal(t, []string{"f", "a", "b", "c", "d"}, tags(got.Errors))
}

func TestRankRecurringErrors_ExactTagMatch(t *testing.T) {
	sessions := history(50, 50)
	sessions[0].RecurrentErrors = []string{"Closing"}
	sessions[1].RecurrentErrors = []string{"closing"}

	got := RankRecurringErrors(sessions, DefaultOptions())
	assert.Len(t, got.Errors, 2)
}

func TestRankRecurringErrors_Window(t *testing.T) {
	sessions := history(50, 50, 50, 50, 50, 50)
	sessions[0].RecurrentErrors = []string{"old"}
	sessions[5].RecurrentErrors = []string{"new"}

	got := RankRecurringErrors(sessions, DefaultOptions())
	assert.Equal(t, []string{"new"}, tags(got.Errors))
}

func tags(errs []RecurringError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Tag
	}
	return out
}

func TestSummarizeProgress_ConjunctiveFilter(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	sessions := []session.Record{
		{ID: "a", Score: 60, Difficulty: session.DifficultyEasy, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: "b", Score: 70, Difficulty: session.DifficultyHard, CreatedAt: now.Add(-3 * 24 * time.Hour)},
		{ID: "c", Score: 80, Difficulty: session.DifficultyHard, CreatedAt: now.Add(-20 * 24 * time.Hour)},
		{ID: "d", Score: 90, Difficulty: session.DifficultyHard, CreatedAt: now.Add(-1 * 24 * time.Hour)},
	}

	got := SummarizeProgress(sessions, Filter{Period: PeriodWeek, Difficulty: session.DifficultyHard}, now, DefaultOptions())
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Points, 2)
	assert.Equal(t, "b", got.Points[0].SessionID)
	assert.Equal(t, "S1", got.Points[0].Label)
	assert.Equal(t, "d", got.Points[1].SessionID)
	assert.Equal(t, "S2", got.Points[1].Label)
	assert.Equal(t, 80, got.AverageScore)
	assert.Equal(t, 90, got.BestScore)

	// The caller's slice keeps its order.
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, "d", sessions[3].ID)
}

func TestSummarizeProgress_MonthAndDifficulty(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	sessions := []session.Record{
		{ID: "recent-easy", Score: 55, Difficulty: session.DifficultyEasy, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: "recent-medium", Score: 65, Difficulty: session.DifficultyMedium, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "old-easy", Score: 75, Difficulty: session.DifficultyEasy, CreatedAt: now.Add(-40 * 24 * time.Hour)},
	}

	got := SummarizeProgress(sessions, Filter{Period: PeriodMonth, Difficulty: session.DifficultyEasy}, now, DefaultOptions())
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Points, 1)
	assert.Equal(t, "recent-easy", got.Points[0].SessionID)
	assert.Equal(t, "S1", got.Points[0].Label)
	assert.Equal(t, 55, got.Points[0].Value)
}

func TestSummarizeProgress_CutoffInclusive(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	sessions := []session.Record{
		{ID: "edge", Score: 50, CreatedAt: now.Add(-7 * 24 * time.Hour)},
		{ID: "out", Score: 50, CreatedAt: now.Add(-7*24*time.Hour - time.Second)},
	}
	got := SummarizeProgress(sessions, Filter{Period: PeriodWeek}, now, DefaultOptions())
	require.Len(t, got.Points, 1)
	assert.Equal(t, "edge", got.Points[0].SessionID)
}

func TestSummarizeProgress_SeriesWindow(t *testing.T) {
	scores := make([]int, 15)
	for i := range scores {
		scores[i] = 50 + i
	}
	got := SummarizeProgress(history(scores...), Filter{}, baseTime.Add(30*24*time.Hour), DefaultOptions())

	assert.Equal(t, 15, got.Count)
	require.Len(t, got.Points, 10)
	assert.Equal(t, "S1", got.Points[0].Label)
	assert.Equal(t, 55, got.Points[0].Value)
	assert.Equal(t, "S10", got.Points[9].Label)
	assert.Equal(t, 64, got.Points[9].Value)
	assert.Equal(t, 64, got.BestScore)
	assert.Equal(t, 57, got.AverageScore)
}

func TestSummarizeProgress_Empty(t *testing.T) {
	got := SummarizeProgress(nil, Filter{Period: PeriodMonth}, baseTime, DefaultOptions())
	assert.Equal(t, 0, got.Count)
	assert.Equal(t, 0, got.AverageScore)
	assert.Equal(t, 0, got.BestScore)
	assert.NotNil(t, got.Points)
	assert.Empty(t, got.Points)
}

func TestSummarizeProgress_SortsUnorderedInput(t *testing.T) {
	sessions := history(10, 20, 30)
	sessions[0], sessions[2] = sessions[2], sessions[0]

	got := SummarizeProgress(sessions, Filter{}, baseTime.Add(10*24*time.Hour), DefaultOptions())
	require.Len(t, got.Points, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{got.Points[0].Value, got.Points[1].Value, got.Points[2].Value})
	assert.Equal(t, 30, sessions[0].Score)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		err  bool
	}{
		{"", PeriodAll, false},
		{"all", PeriodAll, false},
		{"7", PeriodWeek, false},
		{"7d", PeriodWeek, false},
		{"30D", PeriodMonth, false},
		{"14", PeriodAll, true},
		{"week", PeriodAll, true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDifficultyFilter(t *testing.T) {
	d, err := ParseDifficultyFilter("all")
	require.NoError(t, err)
	assert.Equal(t, DifficultyAll, d)

	d, err = ParseDifficultyFilter("Hard")
	require.NoError(t, err)
	assert.Equal(t, session.DifficultyHard, d)

	_, err = ParseDifficultyFilter("extreme")
	assert.Error(t, err)
}

func TestSelectMessage_Table(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		improving bool
		score     int
		want      MessageCategory
	}{
		{true, 80, MessageExcellence},
		{true, 100, MessageExcellence},
		{true, 79, MessageImproving},
		{true, 70, MessageImproving},
		{true, 10, MessageImproving},
		{false, 95, MessagePlateau},
		{false, 70, MessagePlateau},
		{false, 69, MessageEarlyStage},
		{false, 0, MessageEarlyStage},
	}
	for _, tt := range tests {
		got := SelectMessage(tt.improving, tt.score, opts)
		assert.Equal(t, tt.want, got, "improving=%v score=%d", tt.improving, tt.score)
	}
}

func TestBuildDashboard(t *testing.T) {
	sessions := history(40, 50, 60, 70, 80)
	sessions[4].RecurrentErrors = []string{"pas de reformulation"}
	// Reverse so the dashboard has to sort.
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	now := baseTime.Add(10 * 24 * time.Hour)

	d := BuildDashboard(sessions, Filter{}, now, DefaultOptions())
	assert.Equal(t, now, d.GeneratedAt)
	assert.Equal(t, 5, d.TotalSessions)
	assert.True(t, d.Trend.IsImproving)
	assert.Equal(t, 80, d.Trend.LastScore)
	assert.Equal(t, StatusOK, d.Criteria.Status)
	require.Len(t, d.Errors.Errors, 1)
	assert.InDelta(t, 100.0, d.Errors.Errors[0].Percentage, 1e-9)
	assert.Equal(t, 5, d.Progress.Count)

	// Idempotent.
	assert.Equal(t, d, BuildDashboard(sessions, Filter{}, now, DefaultOptions()))
	assert.Equal(t, "s5", sessions[0].ID)
}

func TestOptions_ZeroUsesDefaults(t *testing.T) {
	a := DeriveTrend(history(40, 50, 60, 70, 80), Options{})
	b := DeriveTrend(history(40, 50, 60, 70, 80), DefaultOptions())
	assert.Equal(t, b, a)
}
