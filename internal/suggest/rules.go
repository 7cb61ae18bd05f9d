package suggest

import (
	"fmt"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/session"
)

// StartPractising fires on an empty history.
func StartPractising(ctx *CoachingContext) []Suggestion {
	if ctx.TotalSessions > 0 {
		return nil
	}
	return []Suggestion{{
		Category: CategoryCadence,
		Priority: PriorityCritical,
		Title:    "Lancez votre première session",
		Description: "Aucune session enregistrée pour l'instant. Jouez un premier appel en difficulté " +
			"facile pour obtenir vos premiers scores par critère.",
		ImpactScore: ComputeImpact(1, 1.0, 10.0, 1.0),
	}}
}

// DrillWeakestCriterion suggests dedicated practice on the weakest criterion
// while it is below the excellence score.
func DrillWeakestCriterion(ctx *CoachingContext) []Suggestion {
	t := ctx.Trend
	if t.Status != analyzer.StatusOK || t.WeakestScore >= ctx.Options.ExcellenceScore {
		return nil
	}

	gap := float64(ctx.Options.ExcellenceScore - t.WeakestScore)
	priority := PriorityMedium
	if t.WeakestScore < ctx.Options.PlateauScore {
		priority = PriorityHigh
	}

	return []Suggestion{{
		Category: CategorySkill,
		Priority: priority,
		Title:    fmt.Sprintf("Travaillez le critère %s", t.WeakestCriterion.Label()),
		Description: fmt.Sprintf(
			"%s est votre critère le plus faible (%d/100 en moyenne sur %d sessions), "+
				"%d points sous votre meilleur critère (%s, %d/100).",
			t.WeakestCriterion.Label(), t.WeakestScore, t.SessionsUsed,
			t.StrongestScore-t.WeakestScore, t.StrongestCriterion.Label(), t.StrongestScore,
		),
		ImpactScore: ComputeImpact(t.SessionsUsed, gap/100, gap, 3.0),
	}}
}

// ObjectionsAttention fires when the objections average is under the
// warning threshold and objections are not already the weakest criterion.
func ObjectionsAttention(ctx *CoachingContext) []Suggestion {
	t := ctx.Trend
	if t.Status != analyzer.StatusOK || !t.ObjectionsWarning {
		return nil
	}
	if t.WeakestCriterion == session.CriterionObjections {
		// DrillWeakestCriterion already covers it.
		return nil
	}

	gap := float64(ctx.Options.ObjectionsWarningBelow - t.Averages.Objections)
	return []Suggestion{{
		Category: CategorySkill,
		Priority: PriorityHigh,
		Title:    "Renforcez le traitement des objections",
		Description: fmt.Sprintf(
			"Votre moyenne en objections est de %d/100, sous le seuil de %d. "+
				"Reformulez l'objection avant d'y répondre et vérifiez qu'elle est levée.",
			t.Averages.Objections, ctx.Options.ObjectionsWarningBelow,
		),
		ImpactScore: ComputeImpact(t.SessionsUsed, 0.8, gap+5, 2.0),
	}}
}

// FrequentErrorFocus suggests work on each error flagged as frequent.
func FrequentErrorFocus(ctx *CoachingContext) []Suggestion {
	var suggestions []Suggestion
	for _, e := range ctx.Errors.Errors {
		if !e.IsFrequent {
			continue
		}
		freq := e.Percentage / 100
		if freq > 1 {
			freq = 1
		}
		suggestions = append(suggestions, Suggestion{
			Category: CategoryErrors,
			Priority: PriorityHigh,
			Title:    fmt.Sprintf("Erreur récurrente : %s", e.Tag),
			Description: fmt.Sprintf(
				"Relevée %d fois sur vos %d dernières sessions avec erreurs (%.0f%%). "+
					"Fixez-vous comme objectif de l'éviter lors du prochain appel.",
				e.Count, ctx.Errors.QualifyingSessions, e.Percentage,
			),
			ImpactScore: ComputeImpact(ctx.Errors.QualifyingSessions, freq, 5.0, 1.0),
		})
	}
	return suggestions
}

// DifficultyStep recommends a harder scenario once recent scores are high,
// and an easier one when the trainee struggles at the hardest level.
func DifficultyStep(ctx *CoachingContext) []Suggestion {
	if ctx.TotalSessions == 0 || len(ctx.RecentScores) < ctx.Options.MinTrendPoints {
		return nil
	}

	if ctx.RecentAverage >= float64(ctx.Options.ExcellenceScore) {
		next, ok := harder(ctx.RecentDifficulty)
		if !ok {
			return nil
		}
		return []Suggestion{{
			Category: CategoryDifficulty,
			Priority: PriorityMedium,
			Title:    fmt.Sprintf("Passez en difficulté %s", next),
			Description: fmt.Sprintf(
				"Vos %d derniers appels en %s atteignent %.0f/100 en moyenne. "+
					"Un scénario plus exigeant vous fera progresser davantage.",
				len(ctx.RecentScores), ctx.RecentDifficulty, ctx.RecentAverage,
			),
			ImpactScore: ComputeImpact(len(ctx.RecentScores), 0.5, 8.0, 2.0),
		}}
	}

	if ctx.RecentDifficulty == session.DifficultyHard && ctx.RecentAverage < 40 && !ctx.Trend.IsImproving {
		return []Suggestion{{
			Category: CategoryDifficulty,
			Priority: PriorityMedium,
			Title:    "Revenez en difficulté medium",
			Description: fmt.Sprintf(
				"Moyenne de %.0f/100 en difficulté hard sans progression. "+
					"Consolidez les bases sur un scénario intermédiaire.",
				ctx.RecentAverage,
			),
			ImpactScore: ComputeImpact(len(ctx.RecentScores), 0.6, 6.0, 2.0),
		}}
	}
	return nil
}

func harder(d session.Difficulty) (session.Difficulty, bool) {
	for i, known := range session.AllDifficulties {
		if known == d && i+1 < len(session.AllDifficulties) {
			return session.AllDifficulties[i+1], true
		}
	}
	return "", false
}

// PracticeCadence flags long breaks and low weekly volume.
func PracticeCadence(ctx *CoachingContext) []Suggestion {
	if ctx.TotalSessions == 0 {
		return nil
	}

	if ctx.DaysSinceLast >= 7 {
		return []Suggestion{{
			Category: CategoryCadence,
			Priority: PriorityHigh,
			Title:    "Reprenez l'entraînement",
			Description: fmt.Sprintf(
				"Votre dernière session date de %d jours. Un appel court aujourd'hui "+
					"évite de perdre les réflexes acquis.",
				ctx.DaysSinceLast,
			),
			ImpactScore: ComputeImpact(1, 1.0, float64(ctx.DaysSinceLast), 1.0),
		}}
	}

	if ctx.SessionsLastWeek < 3 {
		return []Suggestion{{
			Category: CategoryCadence,
			Priority: PriorityLow,
			Title:    "Visez trois sessions par semaine",
			Description: fmt.Sprintf(
				"%d session(s) ces sept derniers jours. Un rythme régulier stabilise les scores.",
				ctx.SessionsLastWeek,
			),
			ImpactScore: ComputeImpact(3-ctx.SessionsLastWeek, 0.5, 3.0, 1.0),
		}}
	}
	return nil
}
