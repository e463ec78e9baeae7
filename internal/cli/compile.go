package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/exgen/internal/catalog"
	"github.com/roach88/exgen/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compiled catalog: every template in catalog
// order with its content hash.
type CompilationResult struct {
	EngineVersion string             `json:"engine_version"`
	FormatVersion string             `json:"format_version"`
	Templates     []CompiledTemplate `json:"templates"`
}

// CompiledTemplate pairs a template with its hash.
type CompiledTemplate struct {
	Hash     string       `json:"hash"`
	Template *ir.Template `json:"template"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	TemplateCount int
	LessonCount   int
	TotalSteps    int
	TotalFormulas int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <templates-dir>",
		Short: "Compile templates to canonical JSON",
		Long: `Compile CUE, YAML and JSON exercise templates to canonical JSON.

Every template is decoded, validated and hashed. The output lists the
templates in catalog order (lesson, then id) and is byte-stable for
unchanged input.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	res, errs := catalog.Load(dir, catalog.LoadModeCollectAll)
	if res == nil {
		loadErr := asLoadError(errs[0])
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}

	formatter.VerboseLog("Found %d template file(s) in %s", res.FileCount, dir)
	for _, t := range res.Catalog.List() {
		formatter.VerboseLog("Compiling template: %s", t.ID)
	}

	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	result := buildCompilation(res.Catalog)
	stats := calculateStats(res.Catalog)

	if opts.Output != "" {
		if err := writeCompilation(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

func buildCompilation(cat *catalog.Catalog) *CompilationResult {
	result := &CompilationResult{
		EngineVersion: ir.EngineVersion,
		FormatVersion: ir.FormatVersion,
		Templates:     make([]CompiledTemplate, 0, cat.Len()),
	}
	for _, t := range cat.List() {
		hash, _ := cat.Hash(t.ID)
		result.Templates = append(result.Templates, CompiledTemplate{Hash: hash, Template: t})
	}
	return result
}

// calculateStats computes summary statistics for a catalog.
func calculateStats(cat *catalog.Catalog) CompilationStats {
	stats := CompilationStats{
		TemplateCount: cat.Len(),
		LessonCount:   len(cat.Lessons()),
	}
	for _, t := range cat.List() {
		stats.TotalSteps += len(t.SolutionSteps)
		for _, step := range t.SolutionSteps {
			stats.TotalFormulas += len(step.Compute)
		}
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d template(s) in %d lesson(s)\n\n", stats.TemplateCount, stats.LessonCount)

	fmt.Fprintln(w, "Templates:")
	for _, ct := range result.Templates {
		t := ct.Template
		fmt.Fprintf(w, "  %s/%s: %d variable(s), %d step(s) [%s]\n",
			t.LessonID, t.ID, len(t.Variables), len(t.SolutionSteps), shortHash(ct.Hash))
	}
	fmt.Fprintln(w)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote canonical JSON to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	issues := make([]ValidationIssue, len(errs))
	for i, err := range errs {
		issues[i] = toIssue(asLoadError(err))
	}
	exitErr := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   issues,
			Error:  &CLIError{Code: issues[0].Code, Message: issues[0].Message},
		}); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Compilation failed")
	fmt.Fprintln(w)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(w, "%s:%d\n", issue.File, issue.Line)
		} else if issue.File != "" {
			fmt.Fprintln(w, issue.File)
		}
		fmt.Fprintf(w, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return exitErr
}

// writeCompilation writes the compilation result to a file in canonical JSON format.
func writeCompilation(result *CompilationResult, filename string) error {
	data, err := ir.MarshalCanonical(result)
	if err != nil {
		return fmt.Errorf("marshaling templates: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// shortHash trims a hash for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
