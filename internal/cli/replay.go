package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <templates-dir>",
		Short: "Regenerate archived instances and verify determinism",
		Long: `Regenerate every archived instance from its template and seed and
compare fingerprints with the archive.

Records whose template has changed since archiving, or is no longer
present, are reported but do not fail the replay.

Exit codes:
  0 - Every instance with an unchanged template was reproduced
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  exgen replay ./templates --db ./exgen.db
  exgen replay ./templates --db ./exgen.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Database); errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "database not found: "+opts.Database, nil)
	}

	res, loadErr := loadCatalog(dir)
	if loadErr != nil {
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Error(), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	eng := engine.New(engine.WithLogger(newLogger(cmd.ErrOrStderr(), opts.Verbose)))
	report, err := st.Replay(cmd.Context(), res.Catalog, eng)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "replay failed", err)
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, report)
	}
	return outputReplayText(formatter, report)
}

// outputReplayJSON outputs the replay report as JSON.
func outputReplayJSON(formatter *OutputFormatter, report store.ReplayReport) error {
	response := CLIResponse{Status: "ok", Data: report}
	if !report.OK() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayMismatch,
			Message: "determinism verification failed",
		}
	}

	if err := formatter.Response(response); err != nil {
		return err
	}
	if !report.OK() {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay report as text.
func outputReplayText(formatter *OutputFormatter, report store.ReplayReport) error {
	w := formatter.Writer

	if len(report.Outcomes) == 0 {
		fmt.Fprintln(w, "No instances found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d instance(s)\n", len(report.Outcomes))
	fmt.Fprintln(w)

	for _, o := range report.Outcomes {
		switch o.Status {
		case store.ReplayMatch:
			if formatter.Verbose {
				fmt.Fprintf(w, "✓ #%d %s seed %d\n", o.Seq, o.TemplateID, o.Seed)
			}
		case store.ReplayTemplateChanged, store.ReplayMissingTemplate:
			fmt.Fprintf(w, "~ #%d %s seed %d: %s\n", o.Seq, o.TemplateID, o.Seed, o.Message)
		default:
			fmt.Fprintf(w, "✗ #%d %s seed %d: %s\n", o.Seq, o.TemplateID, o.Seed, o.Message)
			if o.Got != "" {
				fmt.Fprintf(w, "  Expected: %s\n  Got:      %s\n", o.Expected, o.Got)
			}
		}
	}

	fmt.Fprintf(w, "\n%d matched, %d mismatched, %d template changed, %d missing template, %d failed\n",
		report.Matched, report.Mismatched, report.TemplateChanged, report.MissingTemplate, report.Failed)

	if report.OK() {
		fmt.Fprintln(w, "✓ All instances verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
