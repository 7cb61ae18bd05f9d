package watcher

import (
	"fmt"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/session"
)

// Compare detects notable changes between two watch states and returns
// alerts, warnings first.
func Compare(prev, curr *WatchState) []Alert {
	var alerts []Alert

	alerts = append(alerts, compareWarning(prev, curr)...)
	alerts = append(alerts, compareInfo(prev, curr)...)

	for i := range alerts {
		alerts[i].Time = curr.Timestamp
	}
	return alerts
}

// compareWarning detects regressions.
func compareWarning(prev, curr *WatchState) []Alert {
	var alerts []Alert
	pt, ct := prev.Dashboard.Trend, curr.Dashboard.Trend

	if ct.Status == analyzer.StatusOK && ct.ObjectionsWarning && !pt.ObjectionsWarning {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Objections sous le seuil",
			Message: fmt.Sprintf("Moyenne objections à %d/100", ct.Averages.Objections),
		})
	}

	prevFrequent := make(map[string]bool)
	for _, e := range prev.Dashboard.Errors.Errors {
		if e.IsFrequent {
			prevFrequent[e.Tag] = true
		}
	}
	for _, e := range curr.Dashboard.Errors.Errors {
		if e.IsFrequent && !prevFrequent[e.Tag] {
			alerts = append(alerts, Alert{
				Level:   "warning",
				Title:   fmt.Sprintf("Erreur fréquente : %s", e.Tag),
				Message: fmt.Sprintf("%d occurrence(s) sur %d sessions (%.0f%%)", e.Count, curr.Dashboard.Errors.QualifyingSessions, e.Percentage),
			})
		}
	}

	if pt.IsImproving && !ct.IsImproving && ct.Status == analyzer.StatusOK {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Progression interrompue",
			Message: fmt.Sprintf("Dernier score %d/100", ct.LastScore),
		})
	}

	return alerts
}

// compareInfo detects progress and new activity.
func compareInfo(prev, curr *WatchState) []Alert {
	var alerts []Alert
	pt, ct := prev.Dashboard.Trend, curr.Dashboard.Trend

	for _, s := range findNewSessions(prev, curr) {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Session enregistrée",
			Message: fmt.Sprintf("%d/100 en difficulté %s", s.Score, s.Difficulty),
		})
	}

	if prev.SessionCount > 0 && curr.BestScore > prev.BestScore {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Nouveau record",
			Message: fmt.Sprintf("Meilleur score : %d/100 (précédent %d/100)", curr.BestScore, prev.BestScore),
		})
	}

	if !pt.IsImproving && ct.IsImproving {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Scores en progression",
			Message: ct.Message,
		})
	}

	if pt.Status == analyzer.StatusOK && ct.Status == analyzer.StatusOK &&
		pt.WeakestCriterion != ct.WeakestCriterion {
		alerts = append(alerts, Alert{
			Level: "info",
			Title: fmt.Sprintf("Nouveau point faible : %s", ct.WeakestCriterion.Label()),
			Message: fmt.Sprintf("%s (%d/100) remplace %s",
				ct.WeakestCriterion.Label(), ct.WeakestScore, pt.WeakestCriterion.Label()),
		})
	}

	return alerts
}

// findNewSessions returns sessions present in curr but not in prev,
// identified by ID, in creation order.
func findNewSessions(prev, curr *WatchState) []session.Record {
	prevIDs := make(map[string]bool, len(prev.sessions))
	for _, s := range prev.sessions {
		prevIDs[s.ID] = true
	}

	var added []session.Record
	for _, s := range curr.sessions {
		if !prevIDs[s.ID] {
			added = append(added, s)
		}
	}
	return added
}
