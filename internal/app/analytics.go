package app

import (
	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/session"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show weakest and strongest criteria and the score trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(e *env, recs []session.Record) error {
			t := analyzer.DeriveTrend(recs, e.opts)
			if flagJSON {
				return writeJSON(e.out, t)
			}
			renderTrend(e.out, t)
			return nil
		})
	},
}

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Show per-criterion averages over the recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(e *env, recs []session.Record) error {
			c := analyzer.AverageCriteria(recs, e.opts)
			if flagJSON {
				return writeJSON(e.out, c)
			}
			renderCriteria(e.out, c)
			return nil
		})
	},
}

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Rank the mistakes that keep coming back",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(e *env, recs []session.Record) error {
			r := analyzer.RankRecurringErrors(recs, e.opts)
			if flagJSON {
				return writeJSON(e.out, r)
			}
			renderErrors(e.out, r)
			return nil
		})
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show the score series for a period and difficulty",
	Long: `Show the last scores of the sessions matching both filters, labelled
S1..Sn from oldest to newest, with the average and best score over every
matching session.

Examples:
  pitchlab progress
  pitchlab progress --period 7
  pitchlab progress --period 30 --difficulty medium`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := progressFilter()
		if err != nil {
			return err
		}
		return runAnalysis(cmd, func(e *env, recs []session.Record) error {
			p := analyzer.SummarizeProgress(recs, filter, nowFunc(), e.opts)
			if flagJSON {
				return writeJSON(e.out, p)
			}
			renderProgress(e.out, p)
			return nil
		})
	},
}

func init() {
	addProgressFlags(progressCmd)
	rootCmd.AddCommand(trendCmd, criteriaCmd, errorsCmd, progressCmd)
}

// runAnalysis loads the trainee's sessions in creation order and hands them
// to fn.
func runAnalysis(cmd *cobra.Command, fn func(e *env, recs []session.Record) error) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	recs, err := e.sessions(cmd.Context())
	if err != nil {
		return err
	}
	return fn(e, analyzer.SortChronological(recs))
}
