package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pitchlab/pitchlab/internal/analyzer"
	"github.com/pitchlab/pitchlab/internal/session"
	"github.com/pitchlab/pitchlab/internal/suggest"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

// RecentSessionsResult holds the newest sessions, most recent first.
type RecentSessionsResult struct {
	Total    int             `json:"total"`
	Sessions []RecentSession `json:"sessions"`
}

// RecentSession is the summary view of one stored session.
type RecentSession struct {
	ID               string             `json:"id"`
	Score            int                `json:"score"`
	Difficulty       session.Difficulty `json:"difficulty"`
	Scenario         string             `json:"scenario,omitempty"`
	CreatedAt        string             `json:"created_at"`
	WeakestCriterion string             `json:"weakest_criterion,omitempty"`
	Errors           []string           `json:"errors"`
}

// SuggestionsResult holds ranked coaching suggestions.
type SuggestionsResult struct {
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

var (
	noArgsSchema   = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	progressSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"period":{"type":"string","enum":["all","7","7d","30","30d"],"description":"Look-back window (default all)"},` +
		`"difficulty":{"type":"string","enum":["all","easy","medium","hard"],"description":"Difficulty filter (default all)"}` +
		`},"additionalProperties":false}`)
	recentSchema = json.RawMessage(`{"type":"object","properties":{"limit":{"type":"integer","description":"Number of sessions to return (default 5, max 50)"}},"additionalProperties":false}`)
)

func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "get_trend_summary",
		Description: "Weakest and strongest criterion, improvement direction and coaching message over the last sessions with criteria scores.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetTrendSummary,
	})
	s.registerTool(toolDef{
		Name:        "get_criteria_averages",
		Description: "Per-criterion average score over the last sessions with criteria scores.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetCriteriaAverages,
	})
	s.registerTool(toolDef{
		Name:        "get_recurring_errors",
		Description: "Most frequent error tags across the last sessions that reported errors.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetRecurringErrors,
	})
	s.registerTool(toolDef{
		Name:        "get_progress",
		Description: "Score series (S1..Sn) for sessions matching a period and difficulty filter.",
		InputSchema: progressSchema,
		Handler:     s.handleGetProgress,
	})
	s.registerTool(toolDef{
		Name:        "get_recent_sessions",
		Description: "Last N sessions with score, difficulty and errors, newest first.",
		InputSchema: recentSchema,
		Handler:     s.handleGetRecentSessions,
	})
	s.registerTool(toolDef{
		Name:        "get_suggestions",
		Description: "Ranked practice suggestions derived from the dashboard.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetSuggestions,
	})
}

func (s *Server) sessions(ctx context.Context) ([]session.Record, error) {
	recs, err := s.source.ListSessions(ctx, s.scope)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	return analyzer.SortChronological(recs), nil
}

func (s *Server) handleGetTrendSummary(ctx context.Context, _ json.RawMessage) (any, error) {
	recs, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	return analyzer.DeriveTrend(recs, s.opts), nil
}

func (s *Server) handleGetCriteriaAverages(ctx context.Context, _ json.RawMessage) (any, error) {
	recs, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	return analyzer.AverageCriteria(recs, s.opts), nil
}

func (s *Server) handleGetRecurringErrors(ctx context.Context, _ json.RawMessage) (any, error) {
	recs, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	return analyzer.RankRecurringErrors(recs, s.opts), nil
}

func (s *Server) handleGetProgress(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Period     string `json:"period"`
		Difficulty string `json:"difficulty"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	period, err := analyzer.ParsePeriod(params.Period)
	if err != nil {
		return nil, err
	}
	difficulty, err := analyzer.ParseDifficultyFilter(params.Difficulty)
	if err != nil {
		return nil, err
	}

	recs, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	filter := analyzer.Filter{Period: period, Difficulty: difficulty}
	return analyzer.SummarizeProgress(recs, filter, s.now(), s.opts), nil
}

func (s *Server) handleGetRecentSessions(ctx context.Context, args json.RawMessage) (any, error) {
	n := defaultRecentLimit
	var params struct {
		Limit *int `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err == nil && params.Limit != nil {
		n = *params.Limit
	}
	if n <= 0 {
		n = defaultRecentLimit
	}
	if n > maxRecentLimit {
		n = maxRecentLimit
	}

	recs, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}

	result := RecentSessionsResult{Total: len(recs), Sessions: []RecentSession{}}
	for i := len(recs) - 1; i >= 0 && len(result.Sessions) < n; i-- {
		result.Sessions = append(result.Sessions, toRecent(recs[i]))
	}
	return result, nil
}

func toRecent(r session.Record) RecentSession {
	rs := RecentSession{
		ID:         r.ID,
		Score:      r.Score,
		Difficulty: r.Difficulty,
		Scenario:   r.Scenario,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		Errors:     r.RecurrentErrors,
	}
	if rs.Errors == nil {
		rs.Errors = []string{}
	}
	if r.Criteria != nil {
		weakest := session.AllCriteria[0]
		for _, c := range session.AllCriteria[1:] {
			if r.Criteria.Get(c) < r.Criteria.Get(weakest) {
				weakest = c
			}
		}
		rs.WeakestCriterion = string(weakest)
	}
	return rs
}

func (s *Server) handleGetSuggestions(ctx context.Context, _ json.RawMessage) (any, error) {
	recs, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	d := analyzer.BuildDashboard(recs, analyzer.Filter{}, s.now(), s.opts)
	out := suggest.NewEngine().Run(suggest.NewContext(d, recs, s.opts))
	if out == nil {
		out = []suggest.Suggestion{}
	}
	return SuggestionsResult{Suggestions: out}, nil
}
