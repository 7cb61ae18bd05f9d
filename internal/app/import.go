package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitchlab/pitchlab/internal/output"
	"github.com/pitchlab/pitchlab/internal/session"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import sessions from JSON or YAML files",
	Long: `Validate and store sessions from one or more documents. Each file holds a
single session object or a list of them; .yaml/.yml files are read as YAML,
everything else as JSON. Sessions whose ID already exists are replaced, so
importing the same file twice changes nothing.

Examples:
  pitchlab import export.json
  pitchlab import week1.yaml week2.yaml --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the files without writing to the database")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	recs, err := session.LoadFiles(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("loading files: %w", err)
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	for i := range recs {
		if recs[i].UserID == "" {
			recs[i].UserID = e.scope.UserID
		}
	}

	if importDryRun {
		fmt.Fprintf(e.out, " %d sessions valid in %d files (dry run, nothing written)\n", len(recs), len(args))
		return nil
	}

	res, err := e.db.UpsertSessions(cmd.Context(), recs)
	if err != nil {
		return fmt.Errorf("importing sessions: %w", err)
	}
	e.logger.Debug("import done", "files", len(args), "inserted", res.Inserted, "updated", res.Updated)

	if flagJSON {
		return writeJSON(e.out, res)
	}
	fmt.Fprintf(e.out, " %s %d new, %d updated\n", output.StyleSuccess.Render("✓"), res.Inserted, res.Updated)
	return nil
}
