package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server over the session analytics",
	Long: `Start a Model Context Protocol stdio server so an assistant can query the
trainee's progress. The server exposes these tools:

  get_trend_summary      Weakest/strongest criterion, trend and message
  get_criteria_averages  Per-criterion averages
  get_recurring_errors   Most frequent mistakes
  get_progress           Filtered score series (period, difficulty)
  get_recent_sessions    Last N sessions
  get_suggestions        Ranked practice suggestions

Example MCP client configuration:
  {"mcpServers":{"pitchlab":{"command":"pitchlab","args":["mcp"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	srv := mcp.NewServer(e.db, e.scope, e.opts, appVersion)
	srv.SetLogger(e.logger)
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}
