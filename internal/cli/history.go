package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/exgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Template string // optional - one template only
	Batch    string // optional - one generate call only
}

// HistoryEntry is one archived instance without its rendered text.
type HistoryEntry struct {
	Seq           int64  `json:"seq"`
	TemplateID    string `json:"template_id"`
	LessonID      string `json:"lesson_id"`
	Seed          int64  `json:"seed"`
	Fingerprint   string `json:"fingerprint"`
	TemplateHash  string `json:"template_hash"`
	EngineVersion string `json:"engine_version"`
	BatchID       string `json:"batch_id"`
	FinalAnswer   string `json:"final_answer"`
}

// HistoryResult holds the listed entries.
type HistoryResult struct {
	Entries []HistoryEntry `json:"entries"`
	Total   int            `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived instances",
		Long: `List the instances archived by 'generate --db', oldest first.

Each entry shows the seed and fingerprint needed to reproduce and verify
the instance.

Examples:
  exgen history --db ./exgen.db
  exgen history --db ./exgen.db --template weight-force
  exgen history --db ./exgen.db --batch 0192f1c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Template, "template", "", "filter to one template id")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "filter to one batch id")
	cmd.MarkFlagsMutuallyExclusive("template", "batch")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Database); errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "database not found: "+opts.Database, nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	var records []store.Record
	switch {
	case opts.Template != "":
		records, err = st.ReadTemplate(ctx, opts.Template)
	case opts.Batch != "":
		records, err = st.ReadBatch(ctx, opts.Batch)
	default:
		records, err = st.ReadAll(ctx)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read archive", err)
	}

	result := HistoryResult{Entries: make([]HistoryEntry, 0, len(records)), Total: len(records)}
	for _, rec := range records {
		result.Entries = append(result.Entries, toHistoryEntry(rec))
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputHistoryText(formatter, result)
}

func toHistoryEntry(rec store.Record) HistoryEntry {
	entry := HistoryEntry{
		Seq:           rec.Seq,
		TemplateID:    rec.TemplateID,
		LessonID:      rec.LessonID,
		Seed:          rec.Seed,
		Fingerprint:   rec.Fingerprint,
		TemplateHash:  rec.TemplateHash,
		EngineVersion: rec.EngineVersion,
		BatchID:       rec.BatchID,
	}
	if rec.Instance != nil {
		entry.FinalAnswer = rec.Instance.FinalAnswer
	}
	return entry
}

func outputHistoryText(formatter *OutputFormatter, result HistoryResult) error {
	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No instances found.")
		return nil
	}

	fmt.Fprintf(w, "History: %d instance(s)\n\n", result.Total)
	batch := ""
	for _, e := range result.Entries {
		if e.BatchID != batch {
			batch = e.BatchID
			fmt.Fprintf(w, "Batch %s:\n", batch)
		}
		fmt.Fprintf(w, "  #%d %s seed %d [%s] %s\n", e.Seq, e.TemplateID, e.Seed, shortHash(e.Fingerprint), e.FinalAnswer)
		if formatter.Verbose {
			fmt.Fprintf(w, "     template %s, engine %s\n", shortHash(e.TemplateHash), e.EngineVersion)
		}
	}
	return nil
}
