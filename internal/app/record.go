package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/output"
	"github.com/pitchlab/pitchlab/internal/session"
)

var (
	recordID         string
	recordScore      int
	recordCriteria   = map[session.Criterion]*int{}
	recordErrors     []string
	recordDifficulty string
	recordScenario   string
	recordDuration   time.Duration
	recordAt         string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record one scored practice session",
	Long: `Store a single practice session. Criteria scores are optional but must be
given all together.

Examples:
  pitchlab record --score 72 --difficulty medium
  pitchlab record --score 64 --accroche 70 --ecoute 60 --objections 45 \
      --clarte 75 --conclusion 70 --error monologue --error "pas de closing"
  pitchlab record --score 80 --at 2026-03-02T18:30:00+01:00 --scenario "SaaS CFO"`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	f := recordCmd.Flags()
	f.StringVar(&recordID, "id", "", "Session ID (default: random UUID)")
	f.IntVar(&recordScore, "score", 0, "Global score 0-100 (required)")
	for _, c := range session.AllCriteria {
		v := new(int)
		recordCriteria[c] = v
		f.IntVar(v, string(c), 0, fmt.Sprintf("%s score 0-100", c.Label()))
	}
	f.StringArrayVar(&recordErrors, "error", nil, "Error tag observed in the session (repeatable)")
	f.StringVar(&recordDifficulty, "difficulty", string(session.DifficultyMedium), "Scenario difficulty: easy, medium or hard")
	f.StringVar(&recordScenario, "scenario", "", "Scenario name")
	f.DurationVar(&recordDuration, "duration", 0, "Call duration (e.g. 6m30s)")
	f.StringVar(&recordAt, "at", "", "Session time as RFC3339 (default: now)")
	_ = recordCmd.MarkFlagRequired("score")
	rootCmd.AddCommand(recordCmd)
}

// recordFromFlags assembles a record from the command line and validates it
// through the same schema as imported documents.
func recordFromFlags(cmd *cobra.Command, user string) (session.Record, error) {
	rec := session.Record{
		ID:              recordID,
		UserID:          user,
		Score:           recordScore,
		RecurrentErrors: recordErrors,
		Difficulty:      session.Difficulty(strings.ToLower(recordDifficulty)),
		Scenario:        recordScenario,
		DurationSeconds: int(recordDuration / time.Second),
		CreatedAt:       nowFunc(),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if recordAt != "" {
		t, err := time.Parse(time.RFC3339, recordAt)
		if err != nil {
			return session.Record{}, fmt.Errorf("invalid --at %q: %w", recordAt, err)
		}
		rec.CreatedAt = t
	}

	var set []string
	for _, c := range session.AllCriteria {
		if cmd.Flags().Changed(string(c)) {
			set = append(set, string(c))
		}
	}
	switch len(set) {
	case 0:
	case len(session.AllCriteria):
		rec.Criteria = &session.CriteriaScores{}
		for _, c := range session.AllCriteria {
			rec.Criteria.Set(c, *recordCriteria[c])
		}
	default:
		return session.Record{}, fmt.Errorf("criteria scores must be given together; only got %s", strings.Join(set, ", "))
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return session.Record{}, err
	}
	recs, err := session.Decode(raw, session.FormatJSON)
	if err != nil {
		return session.Record{}, err
	}
	return recs[0], nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	rec, err := recordFromFlags(cmd, e.scope.UserID)
	if err != nil {
		return err
	}
	if err := e.db.InsertSession(cmd.Context(), rec); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	e.logger.Debug("session recorded", "id", rec.ID, "score", rec.Score)

	if flagJSON {
		return writeJSON(e.out, rec)
	}
	fmt.Fprintf(e.out, " %s session %s  %s\n", output.StyleSuccess.Render("✓"), rec.ID, output.ScoreBar(rec.Score, barWidth))
	return nil
}
