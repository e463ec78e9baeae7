package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exgen/internal/catalog"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Templates int               `json:"templates"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
	Warnings  []catalog.Warning `json:"warnings,omitempty"`
}

// ValidationIssue is one load or validation error, located as precisely
// as the loader could.
type ValidationIssue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Template string `json:"template,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <templates-dir>",
		Short: "Validate templates without generating",
		Long: `Validate every exercise template in a directory.

Reports all decode and validation errors instead of stopping at the
first, plus warnings for placeholders no variable defines and for
circular formulas.

Exit codes:
  0 - All templates valid
  1 - One or more templates invalid
  2 - Command error (directory not found, no template files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	res, errs := catalog.Load(dir, catalog.LoadModeCollectAll)
	if res == nil {
		loadErr := asLoadError(errs[0])
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}

	formatter.VerboseLog("Found %d template file(s) in %s", res.FileCount, dir)
	for _, t := range res.Catalog.List() {
		formatter.VerboseLog("Validated template: %s", t.ID)
	}

	result := ValidationResult{
		Valid:     len(errs) == 0,
		Templates: res.Catalog.Len(),
		Warnings:  res.Warnings,
	}
	for _, err := range errs {
		result.Errors = append(result.Errors, toIssue(asLoadError(err)))
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

func toIssue(e *catalog.LoadError) ValidationIssue {
	issue := ValidationIssue{
		Code:     e.Code,
		Message:  e.Message,
		File:     e.File,
		Template: e.Template,
	}
	if e.Pos.IsValid() {
		issue.File = e.Pos.Filename()
		issue.Line = e.Pos.Line()
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d template(s) valid\n", result.Templates)
	printWarnings(formatter, result.Warnings)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.JSON() {
		first := result.Errors[0]
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)

	for _, issue := range result.Errors {
		switch {
		case issue.File != "" && issue.Line > 0:
			fmt.Fprintf(w, "%s:%d\n", issue.File, issue.Line)
		case issue.File != "":
			fmt.Fprintln(w, issue.File)
		}
		if issue.Template != "" {
			fmt.Fprintf(w, "  %s: template %q: %s\n\n", issue.Code, issue.Template, issue.Message)
		} else {
			fmt.Fprintf(w, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}
	printWarnings(formatter, result.Warnings)

	return exitErr
}

func printWarnings(formatter *OutputFormatter, warnings []catalog.Warning) {
	if len(warnings) == 0 {
		return
	}
	w := formatter.Writer
	fmt.Fprintf(w, "\n%d warning(s):\n", len(warnings))
	for _, warn := range warnings {
		if warn.Field != "" {
			fmt.Fprintf(w, "  %s: %s: %s\n", warn.Template, warn.Field, warn.Message)
		} else {
			fmt.Fprintf(w, "  %s: %s\n", warn.Template, warn.Message)
		}
	}
}
