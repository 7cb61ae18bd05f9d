package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/session"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored sessions as JSON or YAML",
	Long: `Write every session of the current trainee, oldest first, in a format that
'pitchlab import' reads back.

Examples:
  pitchlab export > sessions.json
  pitchlab export --format yaml --output sessions.yaml`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := session.ParseFormat(exportFormat)
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
	data, err := session.Encode(recs, format)
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}

	if exportOutput == "" {
		_, err = e.out.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	e.logger.Debug("export written", "path", exportOutput, "sessions", len(recs))
	return nil
}
