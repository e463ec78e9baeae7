package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exgen/internal/service"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Lesson string // optional - one lesson only
}

// ListResult holds the listed templates.
type ListResult struct {
	Templates []service.Summary `json:"templates"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <templates-dir>",
		Short: "List templates",
		Long: `List the templates in a directory, ordered by lesson then id.

Examples:
  exgen list ./templates
  exgen list ./templates --lesson dynamics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Lesson, "lesson", "", "list one lesson's templates only")

	return cmd
}

func runList(opts *ListOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, err := openSession(formatter, newLogger(cmd.ErrOrStderr(), opts.Verbose), dir, "", nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	var result ListResult
	if opts.Lesson != "" {
		result.Templates = sess.service.TemplatesForLesson(opts.Lesson)
	} else {
		result.Templates = sess.service.ListTemplates()
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Templates) == 0 {
		fmt.Fprintln(w, "No templates found.")
		return nil
	}

	lesson := ""
	for _, s := range result.Templates {
		if s.LessonID != lesson {
			lesson = s.LessonID
			fmt.Fprintf(w, "%s:\n", lesson)
		}
		difficulty := ""
		if s.Difficulty != "" {
			difficulty = fmt.Sprintf(" [%s]", s.Difficulty)
		}
		fmt.Fprintf(w, "  %s: %s%s (%d variable(s), %d step(s))\n",
			s.ID, s.Title, difficulty, len(s.Variables), s.Steps)
	}
	return nil
}
