package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/exgen/internal/expr"
	"github.com/roach88/exgen/internal/format"
	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/render"
	"github.com/roach88/exgen/internal/rng"
	"github.com/roach88/exgen/internal/sampler"
)

// fallbackValue is bound to a compute entry whose formula fails.
var fallbackValue ir.Value = ir.Number(0)

// Engine generates exercise instances.
//
// Thread-safety: Engine holds only configuration set at construction and is
// safe for concurrent use.
type Engine struct {
	logger      *slog.Logger
	seeds       SeedSource
	maxDecimals int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger for evaluation and rendering warnings.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSeedSource sets where Regenerate takes fresh seeds from.
// Default: a ClockSeedSource.
func WithSeedSource(src SeedSource) EngineOption {
	return func(e *Engine) {
		e.seeds = src
	}
}

// WithMaxDecimals sets the default rendering precision for tokens without
// a precision suffix.
// Default: 3 (format.DefaultMaxDecimals)
func WithMaxDecimals(n int) EngineOption {
	return func(e *Engine) {
		e.maxDecimals = n
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:      slog.Default(),
		maxDecimals: format.DefaultMaxDecimals,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seeds == nil {
		e.seeds = NewClockSeedSource()
	}
	return e
}

// Regenerate generates an instance of t from a fresh seed. The chosen seed
// is recorded in the instance, so Generate(t, inst.Seed) reproduces it.
func (e *Engine) Regenerate(t *ir.Template) (*ir.ExerciseInstance, error) {
	return e.Generate(t, e.seeds.NextSeed())
}

// NextSeed draws a seed from the engine's seed source.
func (e *Engine) NextSeed() int64 {
	return e.seeds.NextSeed()
}

// Generate produces the instance of t selected by seed.
// Identical (t, seed) pairs yield identical instances.
func (e *Engine) Generate(t *ir.Template, seed int64) (*ir.ExerciseInstance, error) {
	if t == nil {
		return nil, &GenerationError{Code: ErrCodeNilTemplate, Seed: seed, Message: "template is nil"}
	}

	values, err := sampler.Sample(t.Variables, rng.New(seed))
	if err != nil {
		return nil, &GenerationError{
			Code:       ErrCodeConfiguration,
			TemplateID: t.ID,
			Seed:       seed,
			Message:    "cannot sample variables",
			Err:        err,
		}
	}

	g := &generation{engine: e, template: t, seed: seed, values: values, computed: make(ir.Bindings)}
	g.compute()
	inst := g.render()

	fp, err := ir.InstanceFingerprint(inst)
	if err != nil {
		return nil, &GenerationError{
			Code:       ErrCodeFingerprint,
			TemplateID: t.ID,
			Seed:       seed,
			Message:    "cannot fingerprint instance",
			Err:        err,
		}
	}
	inst.Fingerprint = fp
	return inst, nil
}

// generation is the state of one Generate call.
type generation struct {
	engine      *Engine
	template    *ir.Template
	seed        int64
	values      ir.Bindings
	computed    ir.Bindings
	diagnostics []ir.Diagnostic
}

func (g *generation) env() ir.Layered {
	return ir.Layered{g.values, g.computed}
}

// compute walks steps in declaration order, folding each result into the
// environment before the next entry is evaluated.
func (g *generation) compute() {
	for _, step := range g.template.SolutionSteps {
		for _, a := range step.Compute {
			v, err := g.evaluate(a)
			if err != nil {
				g.evaluationFailed(step.Step, a, err)
				v = fallbackValue
			}
			g.computed[a.Name] = v
		}
	}
}

func (g *generation) evaluate(a ir.Assignment) (ir.Value, error) {
	f, err := expr.ParseFor(a.Name, a.Formula)
	if err != nil {
		return nil, err
	}
	return f.Eval(g.env())
}

func (g *generation) evaluationFailed(step int, a ir.Assignment, err error) {
	code := string(expr.CodeOf(err))
	g.engine.logger.Warn("compute failed, using fallback",
		"template", g.template.ID,
		"seed", g.seed,
		"step", step,
		"name", a.Name,
		"formula", a.Formula,
		"code", code,
		"error", err,
		"bindings", g.env().Flatten(),
	)
	g.diagnostics = append(g.diagnostics, ir.Diagnostic{
		Kind:    ir.DiagnosticEvaluation,
		Name:    a.Name,
		Formula: a.Formula,
		Code:    code,
		Message: err.Error(),
	})
}

func (g *generation) render() *ir.ExerciseInstance {
	t := g.template
	inst := &ir.ExerciseInstance{
		TemplateID:    t.ID,
		LessonID:      t.LessonID,
		Title:         t.Title,
		Difficulty:    t.Difficulty,
		Seed:          g.seed,
		Values:        g.values,
		Computed:      g.computed,
		Statement:     g.text("statement", t.Statement),
		SolutionSteps: make([]ir.RenderedStep, 0, len(t.SolutionSteps)),
		Hints:         make([]string, 0, len(t.Hints)),
	}

	for i, step := range t.SolutionSteps {
		field := fmt.Sprintf("solutionSteps[%d]", i)
		inst.SolutionSteps = append(inst.SolutionSteps, ir.RenderedStep{
			Step:        step.Step,
			Title:       g.text(field+".title", step.Title),
			Content:     g.text(field+".content", step.Content),
			Explanation: g.text(field+".explanation", step.Explanation),
		})
	}
	inst.FinalAnswer = g.text("finalAnswer", t.FinalAnswer)
	for i, hint := range t.Hints {
		inst.Hints = append(inst.Hints, g.text(fmt.Sprintf("hints[%d]", i), hint))
	}
	inst.Method = g.text("method", t.Method)
	inst.Diagnostics = g.diagnostics
	return inst
}

// text renders one field, recording unresolved tokens.
func (g *generation) text(field, s string) string {
	if s == "" {
		return ""
	}
	res := render.String(s, g.env(), g.engine.maxDecimals)
	for _, name := range res.Unresolved {
		g.engine.logger.Warn("unresolved token left in output",
			"template", g.template.ID,
			"seed", g.seed,
			"field", field,
			"name", name,
		)
		g.diagnostics = append(g.diagnostics, ir.Diagnostic{
			Kind:    ir.DiagnosticRender,
			Name:    name,
			Field:   field,
			Message: fmt.Sprintf("no value named %q", name),
		})
	}
	return res.Text
}
