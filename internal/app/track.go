package app

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/output"
	"github.com/pitchlab/pitchlab/internal/session"
	"github.com/pitchlab/pitchlab/internal/store"
)

var (
	trackCompare int
	trackHistory int
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Snapshot and compare metrics over time",
	Long: `Compute the dashboard, store its headline numbers as a snapshot, and
compare against the previous snapshot to show deltas with trend arrows.

Examples:
  pitchlab track               # snapshot and compare with the last one
  pitchlab track --compare 3   # compare with the 3rd most recent snapshot
  pitchlab track --history 6   # show the last 6 snapshots side by side`,
	Args: cobra.NoArgs,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().IntVar(&trackCompare, "compare", 1, "Compare against Nth previous snapshot (1 = most recent)")
	trackCmd.Flags().IntVar(&trackHistory, "history", 0, "Show metric trends across N most recent snapshots instead of taking one")
	rootCmd.AddCommand(trackCmd)
}

type trackResult struct {
	Snapshot *store.Snapshot     `json:"snapshot"`
	Metrics  map[string]float64  `json:"metrics"`
	Diff     *store.SnapshotDiff `json:"diff,omitempty"`
}

func runTrack(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if trackHistory > 0 {
		if flagJSON {
			return outputHistoryJSON(e, trackHistory)
		}
		return renderHistory(e, trackHistory)
	}

	recs, err := e.sessions(cmd.Context())
	if err != nil {
		return err
	}
	now := nowFunc()
	d := analyzer.BuildDashboard(recs, analyzer.Filter{}, now, e.opts)
	metrics := buildAggregateMetrics(d, recs, now, e.opts)

	snapshotID, err := e.db.CreateSnapshot(e.scope, "track", appVersion)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	for _, name := range metricDisplayOrder {
		value, ok := metrics[name]
		if !ok {
			continue
		}
		if err := e.db.InsertAggregateMetric(snapshotID, name, value, ""); err != nil {
			return fmt.Errorf("inserting metric %s: %w", name, err)
		}
	}

	current, err := e.db.GetSnapshot(snapshotID)
	if err != nil {
		return fmt.Errorf("loading current snapshot: %w", err)
	}

	// trackCompare=1 means the immediate predecessor, which is offset 2 from
	// the snapshot just written.
	prev, err := e.db.GetSnapshotN(e.scope, trackCompare+1)
	if err != nil {
		return fmt.Errorf("loading previous snapshot: %w", err)
	}

	var diff *store.SnapshotDiff
	if prev != nil {
		prevMetrics, err := e.db.GetAggregateMetrics(prev.ID)
		if err != nil {
			return fmt.Errorf("loading previous metrics: %w", err)
		}
		currMetrics, err := e.db.GetAggregateMetrics(snapshotID)
		if err != nil {
			return fmt.Errorf("loading current metrics: %w", err)
		}
		diff = &store.SnapshotDiff{
			Previous: prev,
			Current:  current,
			Deltas:   computeDeltas(prevMetrics, currMetrics),
		}
	}
	e.logger.Debug("snapshot stored", "id", snapshotID, "metrics", len(metrics), "compared", prev != nil)

	if flagJSON {
		return writeJSON(e.out, trackResult{Snapshot: current, Metrics: metrics, Diff: diff})
	}
	renderTrackOutput(e.out, current, diff)
	return nil
}

// buildAggregateMetrics flattens the dashboard into the numbers tracked
// across snapshots. Criterion averages are only present when the trend has
// data.
func buildAggregateMetrics(d analyzer.Dashboard, recs []session.Record, now time.Time, opts analyzer.Options) map[string]float64 {
	all := analyzer.SummarizeProgress(recs, analyzer.Filter{}, now, opts)
	week := analyzer.SummarizeProgress(recs, analyzer.Filter{Period: analyzer.PeriodWeek}, now, opts)

	frequent := 0
	for _, re := range d.Errors.Errors {
		if re.IsFrequent {
			frequent++
		}
	}

	m := map[string]float64{
		"total_sessions":    float64(d.TotalSessions),
		"sessions_last_7d":  float64(week.Count),
		"average_score":     float64(all.AverageScore),
		"best_score":        float64(all.BestScore),
		"frequent_errors":   float64(frequent),
		"objections_alerts": 0,
	}
	if d.Trend.Status == analyzer.StatusOK {
		m["last_score"] = float64(d.Trend.LastScore)
		if d.Trend.ObjectionsWarning {
			m["objections_alerts"] = 1
		}
	}
	if d.Criteria.Status == analyzer.StatusOK {
		for _, b := range d.Criteria.Bars {
			m[criterionMetric(b.Criterion)] = float64(b.Value)
		}
	}
	return m
}

func criterionMetric(c session.Criterion) string {
	return "criterion_" + string(c)
}

// metricDirection maps metric names to whether higher values are better.
// Unknown names default to higher is better.
var metricDirection = map[string]bool{
	"total_sessions":    true,
	"sessions_last_7d":  true,
	"average_score":     true,
	"best_score":        true,
	"last_score":        true,
	"frequent_errors":   false,
	"objections_alerts": false,
}

// metricDisplayOrder defines the order metrics are stored and shown.
var metricDisplayOrder = func() []string {
	order := []string{"total_sessions", "sessions_last_7d", "average_score", "best_score", "last_score"}
	for _, c := range session.AllCriteria {
		order = append(order, criterionMetric(c))
	}
	return append(order, "frequent_errors", "objections_alerts")
}()

func higherIsBetter(name string) bool {
	v, known := metricDirection[name]
	return !known || v
}

// metricShortName returns a compact label for display.
func metricShortName(name string) string {
	short := map[string]string{
		"total_sessions":    "Sessions",
		"sessions_last_7d":  "Sessions (7 j)",
		"average_score":     "Score moyen",
		"best_score":        "Meilleur score",
		"last_score":        "Dernier score",
		"frequent_errors":   "Erreurs fréquentes",
		"objections_alerts": "Alerte objections",
	}
	if s, ok := short[name]; ok {
		return s
	}
	for _, c := range session.AllCriteria {
		if name == criterionMetric(c) {
			return c.Label()
		}
	}
	return name
}

// computeDeltas compares two sets of aggregate metrics and returns MetricDelta entries.
func computeDeltas(prev, curr []store.AggregateMetric) []store.MetricDelta {
	prevMap := make(map[string]float64)
	for _, m := range prev {
		prevMap[m.MetricName] = m.MetricValue
	}

	deltas := make([]store.MetricDelta, 0, len(curr))
	for _, m := range curr {
		prevVal := prevMap[m.MetricName]
		delta := m.MetricValue - prevVal

		direction := "unchanged"
		if delta != 0 {
			if (delta > 0) == higherIsBetter(m.MetricName) {
				direction = "improved"
			} else {
				direction = "regressed"
			}
		}

		deltas = append(deltas, store.MetricDelta{
			Name:      m.MetricName,
			Previous:  prevVal,
			Current:   m.MetricValue,
			Delta:     delta,
			Direction: direction,
		})
	}
	return deltas
}

func renderTrackOutput(w io.Writer, current *store.Snapshot, diff *store.SnapshotDiff) {
	fmt.Fprintln(w, output.Section("Track: Snapshot Comparison"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " Snapshot #%d taken at %s\n\n", current.ID, current.TakenAt.Local().Format("2006-01-02 15:04:05"))

	if diff == nil {
		fmt.Fprintln(w, " First snapshot recorded. Run 'pitchlab track' again later to see trends.")
		return
	}

	fmt.Fprintf(w, " Comparing against snapshot #%d (%s)\n\n",
		diff.Previous.ID, diff.Previous.TakenAt.Local().Format("2006-01-02 15:04:05"))

	tbl := output.NewTable("Metric", "Previous", "Current", "Delta", "Trend")
	for _, d := range diff.Deltas {
		tbl.AddRow(
			metricShortName(d.Name),
			fmt.Sprintf("%.0f", d.Previous),
			fmt.Sprintf("%.0f", d.Current),
			fmt.Sprintf("%+.0f", d.Delta),
			output.TrendArrow(d.Delta, higherIsBetter(d.Name)),
		)
	}
	fmt.Fprint(w, tbl.Render())
}

type snapshotEntry struct {
	Snapshot store.Snapshot          `json:"snapshot"`
	Metrics  []store.AggregateMetric `json:"metrics"`
}

// loadHistory returns up to n snapshots with their metrics, oldest first.
func loadHistory(e *env, n int) ([]snapshotEntry, error) {
	snapshots, err := e.db.GetRecentSnapshots(e.scope, n)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}

	entries := make([]snapshotEntry, 0, len(snapshots))
	for i := len(snapshots) - 1; i >= 0; i-- {
		s := snapshots[i]
		metrics, err := e.db.GetAggregateMetrics(s.ID)
		if err != nil {
			return nil, fmt.Errorf("loading metrics for snapshot #%d: %w", s.ID, err)
		}
		entries = append(entries, snapshotEntry{Snapshot: s, Metrics: metrics})
	}
	return entries, nil
}

func renderHistory(e *env, n int) error {
	timeline, err := loadHistory(e, n)
	if err != nil {
		return err
	}
	w := e.out

	if len(timeline) == 0 {
		fmt.Fprintln(w, " No snapshots found. Run 'pitchlab track' to create one.")
		return nil
	}

	fmt.Fprintln(w, output.Section("Track: Metric History"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " Showing %d most recent snapshots\n\n", len(timeline))

	values := make([]map[string]float64, len(timeline))
	headers := []string{"Metric"}
	for i, entry := range timeline {
		values[i] = make(map[string]float64, len(entry.Metrics))
		for _, m := range entry.Metrics {
			values[i][m.MetricName] = m.MetricValue
		}
		headers = append(headers, fmt.Sprintf("#%d %s", entry.Snapshot.ID, entry.Snapshot.TakenAt.Local().Format("Jan 02")))
	}
	headers = append(headers, "Trend")
	tbl := output.NewTable(headers...)

	for _, name := range metricDisplayOrder {
		row := []string{metricShortName(name)}
		var first, last float64
		seen := 0
		for i := range timeline {
			v, ok := values[i][name]
			if !ok {
				row = append(row, "-")
				continue
			}
			if seen == 0 {
				first = v
			}
			last = v
			seen++
			row = append(row, fmt.Sprintf("%.0f", v))
		}
		trend := ""
		if seen >= 2 {
			trend = output.TrendArrow(last-first, higherIsBetter(name))
		}
		tbl.AddRow(append(row, trend)...)
	}

	fmt.Fprint(w, tbl.Render())
	return nil
}

func outputHistoryJSON(e *env, n int) error {
	entries, err := loadHistory(e, n)
	if err != nil {
		return err
	}
	return writeJSON(e.out, map[string]any{"history": entries})
}
