package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/service"
)

// GenerateOptions holds flags for the generate and regenerate commands.
type GenerateOptions struct {
	*RootOptions
	Seed     int64
	Count    int
	Key      string
	Database string

	// SeedSource allows overriding where fresh seeds come from (for testing).
	// If nil, seeds are derived from the clock.
	SeedSource engine.SeedSource
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <templates-dir> <template-id>",
		Short: "Generate exercise instances",
		Long: `Generate instances of one template.

With --seed the instance is fully reproducible; without it a fresh seed
is drawn and printed with the instance. --count generates consecutive
seeds starting at --seed (or fresh seeds). --key derives a stable seed
from an opaque key such as a learner id.

With --db every generated instance is archived for later replay.

Examples:
  exgen generate ./templates weight-force --seed 42
  exgen generate ./templates weight-force --count 10 --db ./exgen.db
  exgen generate ./templates weight-force --key learner-17 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed to generate from (default: fresh seed)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of instances to generate")
	cmd.Flags().StringVar(&opts.Key, "key", "", "derive the seed from this key and the template id")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive instances in this SQLite database")
	cmd.MarkFlagsMutuallyExclusive("seed", "key")

	return cmd
}

// NewRegenerateCommand creates the regenerate command.
func NewRegenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newRegenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newRegenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate <templates-dir> <template-id>",
		Short: "Generate an instance from a fresh seed",
		Long: `Generate one instance of a template from a fresh seed.

The chosen seed is part of the output, so 'exgen generate --seed' can
reproduce the instance later.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegenerate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the instance in this SQLite database")

	return cmd
}

func runGenerate(opts *GenerateOptions, dir, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Count < 1 || opts.Count > service.MaxBatch {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag,
			fmt.Sprintf("--count must be between 1 and %d", service.MaxBatch), nil)
	}

	sess, err := openSession(formatter, newLogger(cmd.ErrOrStderr(), opts.Verbose), dir, opts.Database, opts.SeedSource)
	if err != nil {
		return err
	}
	defer sess.Close()

	var first *int64
	switch {
	case cmd.Flags().Changed("seed"):
		first = &opts.Seed
	case opts.Key != "":
		seed := engine.DeriveSeed(opts.Key, id)
		formatter.VerboseLog("Derived seed %d from key %q", seed, opts.Key)
		first = &seed
	}

	ctx := cmd.Context()
	var instances []*ir.ExerciseInstance
	if opts.Count == 1 {
		inst, err := sess.service.Generate(ctx, id, first)
		if err != nil {
			return generationFailure(formatter, id, err)
		}
		instances = []*ir.ExerciseInstance{inst}
	} else {
		instances, err = sess.service.GenerateBatch(ctx, id, sess.service.Seeds(first, opts.Count))
		if err != nil {
			return generationFailure(formatter, id, err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(instances)
	}
	for i, inst := range instances {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		printInstance(formatter.Writer, inst)
	}
	return nil
}

func runRegenerate(opts *GenerateOptions, dir, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, err := openSession(formatter, newLogger(cmd.ErrOrStderr(), opts.Verbose), dir, opts.Database, opts.SeedSource)
	if err != nil {
		return err
	}
	defer sess.Close()

	inst, err := sess.service.Regenerate(cmd.Context(), id)
	if err != nil {
		return generationFailure(formatter, id, err)
	}

	if formatter.JSON() {
		return formatter.Success(inst)
	}
	printInstance(formatter.Writer, inst)
	return nil
}

// printInstance writes an instance as a readable worked exercise.
func printInstance(w io.Writer, inst *ir.ExerciseInstance) {
	fmt.Fprintf(w, "%s (seed %d) [%s]\n", inst.TemplateID, inst.Seed, shortHash(inst.Fingerprint))
	fmt.Fprintln(w, inst.Statement)

	if len(inst.SolutionSteps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Solution:")
		for _, s := range inst.SolutionSteps {
			fmt.Fprintf(w, "  %d. %s\n", s.Step, s.Title)
			if s.Content != "" {
				fmt.Fprintf(w, "     %s\n", s.Content)
			}
			if s.Explanation != "" {
				fmt.Fprintf(w, "     %s\n", s.Explanation)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Answer: %s\n", inst.FinalAnswer)

	if len(inst.Hints) > 0 {
		fmt.Fprintln(w, "Hints:")
		for _, h := range inst.Hints {
			fmt.Fprintf(w, "  - %s\n", h)
		}
	}
	if inst.Method != "" {
		fmt.Fprintf(w, "Method: %s\n", inst.Method)
	}
	for _, d := range inst.Diagnostics {
		where := d.Name
		if d.Field != "" {
			where = d.Field + " " + d.Name
		}
		fmt.Fprintf(w, "! %s %s: %s\n", d.Kind, where, d.Message)
	}
}
