package app

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/output"
	"github.com/pitchlab/pitchlab/internal/session"
	"github.com/pitchlab/pitchlab/internal/store"
)

var (
	sessionsFlagSort       string
	sessionsFlagDifficulty string
	sessionsFlagDays       int
	sessionsFlagLimit      int
	sessionsFlagWorst      bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "List, filter, and inspect individual sessions",
	Long: `Browse the stored practice sessions, newest first by default.

Examples:
  pitchlab sessions                        # recent sessions
  pitchlab sessions --sort score           # best scores first
  pitchlab sessions --worst                # lowest scores first
  pitchlab sessions --difficulty hard      # only hard scenarios
  pitchlab sessions --days 7 --limit 5     # last 7 days, top 5
  pitchlab sessions 3f2a                   # inspect a session by ID prefix
  pitchlab sessions delete 3f2a9c1e-...    # remove a session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a stored session and its errors",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsFlagSort, "sort", "recent", "Sort by: recent, score, worst, duration")
	sessionsCmd.Flags().StringVar(&sessionsFlagDifficulty, "difficulty", "all", "Filter by difficulty: easy, medium, hard or all")
	sessionsCmd.Flags().IntVar(&sessionsFlagDays, "days", 0, "Only sessions from the last N days (0 = all)")
	sessionsCmd.Flags().IntVar(&sessionsFlagLimit, "limit", 15, "Maximum sessions to display")
	sessionsCmd.Flags().BoolVar(&sessionsFlagWorst, "worst", false, "Shortcut for --sort worst")
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	difficulty, err := analyzer.ParseDifficultyFilter(sessionsFlagDifficulty)
	if err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	recs, err := e.sessions(cmd.Context())
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return runInspect(e, args[0], recs)
	}

	filter := analyzer.Filter{Difficulty: difficulty}
	var rows []session.Record
	now := nowFunc()
	for _, r := range recs {
		if !filter.Matches(r, now) {
			continue
		}
		if sessionsFlagDays > 0 && r.CreatedAt.Before(now.AddDate(0, 0, -sessionsFlagDays)) {
			continue
		}
		rows = append(rows, r)
	}

	sortKey := sessionsFlagSort
	if sessionsFlagWorst {
		sortKey = "worst"
	}
	if err := sortSessions(rows, sortKey); err != nil {
		return err
	}

	if sessionsFlagLimit > 0 && len(rows) > sessionsFlagLimit {
		rows = rows[:sessionsFlagLimit]
	}

	if flagJSON {
		if rows == nil {
			rows = []session.Record{}
		}
		return writeJSON(e.out, rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(e.out, " No sessions found matching filters.")
		return nil
	}
	renderSessions(e.out, rows, sortKey)
	return nil
}

func sortSessions(rows []session.Record, key string) error {
	var less func(a, b session.Record) bool
	switch key {
	case "recent":
		less = func(a, b session.Record) bool { return a.CreatedAt.After(b.CreatedAt) }
	case "score":
		less = func(a, b session.Record) bool { return a.Score > b.Score }
	case "worst":
		less = func(a, b session.Record) bool { return a.Score < b.Score }
	case "duration":
		less = func(a, b session.Record) bool { return a.DurationSeconds > b.DurationSeconds }
	default:
		return fmt.Errorf("unknown sort %q (want recent, score, worst or duration)", key)
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	return nil
}

// findSession resolves a full ID or a unique prefix.
func findSession(recs []session.Record, prefix string) (session.Record, error) {
	var matched *session.Record
	for i := range recs {
		r := &recs[i]
		if r.ID == prefix {
			return *r, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			if matched != nil {
				return session.Record{}, fmt.Errorf("ambiguous session prefix %q: matches several sessions", prefix)
			}
			matched = r
		}
	}
	if matched == nil {
		return session.Record{}, fmt.Errorf("no session found matching %q: %w", prefix, store.ErrNotFound)
	}
	return *matched, nil
}

func runInspect(e *env, prefix string, recs []session.Record) error {
	r, err := findSession(recs, prefix)
	if err != nil {
		return err
	}
	if flagJSON {
		return writeJSON(e.out, r)
	}
	renderInspect(e.out, r)
	return nil
}

func renderInspect(w io.Writer, r session.Record) {
	fmt.Fprintln(w, output.Section("Session"))
	fmt.Fprintln(w)

	label := func(l, v string) {
		fmt.Fprintf(w, " %s  %s\n", output.StyleLabel.Render(l), output.StyleBold.Render(v))
	}
	muted := func(l, v string) {
		fmt.Fprintf(w, " %s  %s\n", output.StyleLabel.Render(l), output.StyleMuted.Render(v))
	}

	label("Session ID", r.ID)
	label("Date", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	label("Difficulty", string(r.Difficulty))
	if r.Scenario != "" {
		label("Scenario", r.Scenario)
	}
	if r.DurationSeconds > 0 {
		muted("Duration", (time.Duration(r.DurationSeconds) * time.Second).String())
	}
	fmt.Fprintf(w, " %s  %s\n", output.StyleLabel.Render("Score"), output.ScoreBar(r.Score, barWidth))

	fmt.Fprintln(w, output.Section("Critères"))
	fmt.Fprintln(w)
	if r.Criteria == nil {
		fmt.Fprintf(w, " %s\n", output.StyleMuted.Render("Pas de détail par critère"))
	} else {
		for _, c := range session.AllCriteria {
			fmt.Fprintf(w, " %s  %s\n", output.StyleLabel.Render(c.Label()), output.ScoreBar(r.Criteria.Get(c), barWidth))
		}
	}

	fmt.Fprintln(w, output.Section("Erreurs"))
	fmt.Fprintln(w)
	if !r.HasErrors() {
		fmt.Fprintf(w, " %s\n", output.StyleMuted.Render("Aucune erreur relevée"))
	} else {
		for _, tag := range r.RecurrentErrors {
			fmt.Fprintf(w, " • %s\n", output.StyleWarning.Render(tag))
		}
	}
	fmt.Fprintln(w)
}

func renderSessions(w io.Writer, rows []session.Record, sortKey string) {
	fmt.Fprintln(w, output.Section("Sessions"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s  sorted by %s\n\n",
		output.StyleMuted.Render(fmt.Sprintf("%d sessions", len(rows))),
		output.StyleBold.Render(sortKey))

	tbl := output.NewTable("Date", "ID", "Difficulty", "Score", "Weakest", "Errors", "Scenario")
	var total int
	for _, r := range rows {
		total += r.Score

		weakest := ""
		if r.Criteria != nil {
			c := session.AllCriteria[0]
			for _, other := range session.AllCriteria[1:] {
				if r.Criteria.Get(other) < r.Criteria.Get(c) {
					c = other
				}
			}
			weakest = c.Label()
		}

		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}

		tbl.AddRow(
			r.CreatedAt.Local().Format("Jan 02 15:04"),
			id,
			string(r.Difficulty),
			output.ScoreStyle(r.Score).Render(fmt.Sprintf("%d", r.Score)),
			weakest,
			fmt.Sprintf("%d", len(r.RecurrentErrors)),
			r.Scenario,
		)
	}
	fmt.Fprint(w, tbl.Render())

	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s\n", output.StyleBold.Render(fmt.Sprintf("Average score: %.0f", float64(total)/float64(len(rows)))))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s\n", output.StyleMuted.Render("Use --sort score|worst|duration to reorder, --json for machine output"))
	fmt.Fprintf(w, " %s\n", output.StyleMuted.Render("Use pitchlab sessions <session-id> to inspect a session"))
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if err := e.db.DeleteSession(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no session with id %q", args[0])
		}
		return fmt.Errorf("deleting session: %w", err)
	}
	e.logger.Debug("session deleted", "id", args[0])
	fmt.Fprintf(e.out, " Deleted session %s\n", args[0])
	return nil
}
