package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/config"
	"github.com/pitchlab/pitchlab/internal/output"
	"github.com/pitchlab/pitchlab/internal/session"
	"github.com/pitchlab/pitchlab/internal/store"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

// env bundles what every data command needs: configuration, an open
// database and the trainee scope.
type env struct {
	cfg    *config.Config
	db     *store.DB
	scope  store.Scope
	opts   analyzer.Options
	logger *slog.Logger
	out    io.Writer
}

// newLogger returns a text logger on w, at debug level when --verbose is set.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadEnv loads the configuration, applies the global flags and opens the
// database. Callers must Close the returned env.
func loadEnv(cmd *cobra.Command) (*env, error) {
	logger := newLogger(cmd.ErrOrStderr())

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	output.ConfigureColor(cfg.Output.Color && !flagNoColor)

	user := cfg.User
	if flagUser != "" {
		user = flagUser
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("database opened", "path", cfg.DBPath, "user", user)

	return &env{
		cfg:    cfg,
		db:     db,
		scope:  store.Scope{UserID: user},
		opts:   cfg.AnalyzerOptions().WithDefaults(),
		logger: logger,
		out:    cmd.OutOrStdout(),
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}

func (e *env) sessions(ctx context.Context) ([]session.Record, error) {
	recs, err := e.db.ListSessions(ctx, e.scope)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	e.logger.Debug("sessions loaded", "count", len(recs))
	return recs, nil
}

// writeJSON encodes v as indented JSON on w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
