package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/output"
)

const barWidth = 20

func renderTrend(w io.Writer, t analyzer.TrendSummary) {
	fmt.Fprintln(w, output.Section("Tendance"))
	fmt.Fprintln(w)

	if t.Status != analyzer.StatusOK {
		fmt.Fprintln(w, " Pas encore de session évaluée par critère.")
		return
	}

	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Dernier score"), output.ScoreBar(t.LastScore, barWidth))
	fmt.Fprintf(w, " %s %s  %s\n", output.StyleLabel.Render("Évolution"),
		output.Sparkline(t.RecentScores), output.Direction(t.IsImproving))
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Point fort"),
		output.StyleSuccess.Render(fmt.Sprintf("%s (%d/100)", t.StrongestCriterion.Label(), t.StrongestScore)))
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("À travailler"),
		output.StyleError.Render(fmt.Sprintf("%s (%d/100)", t.WeakestCriterion.Label(), t.WeakestScore)))
	if t.ObjectionsWarning {
		fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Alerte"),
			output.StyleWarning.Render(fmt.Sprintf("objections à %d/100", t.Averages.Objections)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s\n", output.StyleBold.Render(t.Message))
	fmt.Fprintln(w, output.StyleMuted.Render(fmt.Sprintf(" Sur les %d dernières sessions évaluées.", t.SessionsUsed)))
}

func renderCriteria(w io.Writer, c analyzer.CriteriaAverages) {
	fmt.Fprintln(w, output.Section("Critères"))
	fmt.Fprintln(w)

	if c.Status != analyzer.StatusOK {
		fmt.Fprintln(w, " Aucune moyenne par critère disponible.")
		return
	}
	for _, b := range c.Bars {
		fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render(b.Label), output.ScoreBar(b.Value, barWidth))
	}
}

func renderErrors(w io.Writer, e analyzer.RecurringErrors) {
	fmt.Fprintln(w, output.Section("Erreurs récurrentes"))
	fmt.Fprintln(w)

	if len(e.Errors) == 0 {
		fmt.Fprintln(w, " Aucune erreur relevée récemment.")
		return
	}

	tbl := output.NewTable("Erreur", "Occurrences", "Fréquence", "")
	for _, re := range e.Errors {
		flag := ""
		if re.IsFrequent {
			flag = output.StyleError.Render("fréquente")
		}
		tbl.AddRow(re.Tag, fmt.Sprintf("%d", re.Count), fmt.Sprintf("%.0f%%", re.Percentage), flag)
	}
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w, output.StyleMuted.Render(fmt.Sprintf(" %d sessions avec erreurs parmi les %d dernières.",
		e.QualifyingSessions, e.SessionsConsidered)))
}

func renderProgress(w io.Writer, p analyzer.Progress) {
	title := "Progression"
	var filters []string
	if p.Filter.Period != analyzer.PeriodAll {
		filters = append(filters, fmt.Sprintf("%d derniers jours", int(p.Filter.Period)))
	}
	if p.Filter.Difficulty != analyzer.DifficultyAll {
		filters = append(filters, string(p.Filter.Difficulty))
	}
	if len(filters) > 0 {
		title += " (" + strings.Join(filters, ", ") + ")"
	}
	fmt.Fprintln(w, output.Section(title))
	fmt.Fprintln(w)

	if p.Count == 0 {
		fmt.Fprintln(w, " Aucune session pour ces filtres.")
		return
	}

	for _, pt := range p.Points {
		fmt.Fprintf(w, " %-4s %s  %s\n", pt.Label, output.ScoreBar(pt.Value, barWidth),
			output.StyleMuted.Render(pt.CreatedAt.Local().Format("02/01 15:04")))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %d sessions, moyenne %d/100, meilleur score %d/100\n", p.Count, p.AverageScore, p.BestScore)
}

func renderDashboard(w io.Writer, d analyzer.Dashboard) {
	fmt.Fprintf(w, " %s %s\n", output.StyleHeader.Render("pitchlab"),
		output.StyleMuted.Render(fmt.Sprintf("%d sessions enregistrées", d.TotalSessions)))
	renderTrend(w, d.Trend)
	renderCriteria(w, d.Criteria)
	renderErrors(w, d.Errors)
	renderProgress(w, d.Progress)
	fmt.Fprintln(w)
}
