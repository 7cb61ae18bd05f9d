package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/config"
	"github.com/pitchlab/pitchlab/internal/output"
	"github.com/pitchlab/pitchlab/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the pitchlab setup is healthy",
	Long: `Run a series of health checks against the pitchlab configuration and
database. Prints a pass/fail line for each check and a summary of how many
checks passed.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	output.ConfigureColor(cfg.Output.Color && !flagNoColor)

	user := cfg.User
	if flagUser != "" {
		user = flagUser
	}
	checks := runDoctorChecks(cmd.Context(), cfg, store.Scope{UserID: user})

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, doctorOutput{Checks: checks, PassedCount: passed, TotalCount: len(checks)})
	}

	fmt.Fprintln(w, output.Section("Doctor"))
	fmt.Fprintln(w)
	for _, c := range checks {
		renderDoctorCheck(w, c)
	}
	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(w, " %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Fprintf(w, " %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

func runDoctorChecks(ctx context.Context, cfg *config.Config, scope store.Scope) []doctorCheck {
	checks := []doctorCheck{checkConfigFile(), checkAnalytics(cfg.AnalyzerOptions())}

	dbCheck, db := checkDatabase(cfg.DBPath)
	checks = append(checks, dbCheck)
	if db == nil {
		return checks
	}
	defer func() { _ = db.Close() }()

	return append(checks, checkSessionData(ctx, db, scope, cfg.AnalyzerOptions())...)
}

func renderDoctorCheck(w io.Writer, c doctorCheck) {
	indicator := output.StyleSuccess.Render("✓")
	if !c.Passed {
		indicator = output.StyleWarning.Render("✗")
	}
	fmt.Fprintf(w, "  %s  %-30s %s\n", indicator, output.StyleBold.Render(c.Name), output.StyleMuted.Render(c.Message))
}

func checkConfigFile() doctorCheck {
	path := flagConfig
	if path == "" {
		path = filepath.Join(config.ConfigDir(), config.DefaultConfigFile)
	}
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{Name: "Config file", Passed: true, Message: "none, using defaults"}
	}
	return doctorCheck{Name: "Config file", Passed: true, Message: path}
}

// checkAnalytics flags thresholds that make the dashboard meaningless.
func checkAnalytics(opts analyzer.Options) doctorCheck {
	o := opts.WithDefaults()
	switch {
	case o.MinTrendPoints > o.TrendWindow:
		return doctorCheck{Name: "Analytics settings", Message: fmt.Sprintf(
			"min_trend_points (%d) exceeds trend_window (%d): trend can never improve", o.MinTrendPoints, o.TrendWindow)}
	case o.PlateauScore >= o.ExcellenceScore:
		return doctorCheck{Name: "Analytics settings", Message: fmt.Sprintf(
			"plateau_score (%d) should be below excellence_score (%d)", o.PlateauScore, o.ExcellenceScore)}
	}
	return doctorCheck{Name: "Analytics settings", Passed: true, Message: fmt.Sprintf(
		"summary over %d sessions, errors over %d", o.SummaryWindow, o.ErrorWindow)}
}

func checkDatabase(path string) (doctorCheck, *store.DB) {
	db, err := store.Open(path)
	if err != nil {
		return doctorCheck{Name: "SQLite database", Message: fmt.Sprintf("cannot open %s: %v", path, err)}, nil
	}
	return doctorCheck{Name: "SQLite database", Passed: true, Message: path}, db
}

func checkSessionData(ctx context.Context, db *store.DB, scope store.Scope, opts analyzer.Options) []doctorCheck {
	recs, err := db.ListSessions(ctx, scope)
	if err != nil {
		return []doctorCheck{{Name: "Sessions", Message: err.Error()}}
	}
	if len(recs) == 0 {
		return []doctorCheck{{Name: "Sessions", Message: fmt.Sprintf(
			"no sessions for user %q (run 'pitchlab record' or 'pitchlab import')", scope.UserID)}}
	}

	checks := []doctorCheck{{Name: "Sessions", Passed: true, Message: fmt.Sprintf("%d for user %q", len(recs), scope.UserID)}}

	trend := analyzer.DeriveTrend(analyzer.SortChronological(recs), opts)
	if trend.Status != analyzer.StatusOK {
		checks = append(checks, doctorCheck{Name: "Criteria scores", Message: "no recent session has per-criterion scores"})
	} else {
		checks = append(checks, doctorCheck{Name: "Criteria scores", Passed: true, Message: fmt.Sprintf(
			"%d recent sessions evaluated", trend.SessionsUsed)})
	}
	return checks
}
