package app

import (
	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/analyzer"
)

var (
	progressPeriod     string
	progressDifficulty string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the full coaching dashboard",
	Long: `Compute every analytics block from the stored sessions: trend summary,
per-criterion averages, recurring errors and the progress chart.

Examples:
  pitchlab dashboard
  pitchlab dashboard --period 30 --difficulty hard
  pitchlab dashboard --json`,
	RunE: runDashboard,
}

func init() {
	addProgressFlags(dashboardCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// addProgressFlags registers the chart filter flags on cmd.
func addProgressFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&progressPeriod, "period", "all", "Progress chart window: 7, 30 or all")
	cmd.Flags().StringVar(&progressDifficulty, "difficulty", "all", "Progress chart difficulty: easy, medium, hard or all")
}

func progressFilter() (analyzer.Filter, error) {
	period, err := analyzer.ParsePeriod(progressPeriod)
	if err != nil {
		return analyzer.Filter{}, err
	}
	difficulty, err := analyzer.ParseDifficultyFilter(progressDifficulty)
	if err != nil {
		return analyzer.Filter{}, err
	}
	return analyzer.Filter{Period: period, Difficulty: difficulty}, nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	filter, err := progressFilter()
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
	d := analyzer.BuildDashboard(recs, filter, nowFunc(), e.opts)

	if flagJSON {
		return writeJSON(e.out, d)
	}
	renderDashboard(e.out, d)
	return nil
}
