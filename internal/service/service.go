// Package service is the query surface over a template source and the
// engine: list templates, list a lesson's templates, generate and
// regenerate instances by template id.
//
// It is the only place that joins templates, the engine and the optional
// instance archive; the CLI and HTTP layers call it and nothing else.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/store"
)

// ErrTemplateNotFound is returned for an unknown template id.
var ErrTemplateNotFound = errors.New("template not found")

// MaxBatch bounds the number of instances one GenerateBatch call produces.
const MaxBatch = 1000

// TemplateSource supplies validated templates.
// *catalog.Catalog implements it.
type TemplateSource interface {
	List() []*ir.Template
	ForLesson(lessonID string) []*ir.Template
	Get(id string) (*ir.Template, bool)
}

// Archive stores generated instances.
// *store.Store implements it.
type Archive interface {
	WriteBatch(ctx context.Context, recs []store.Record) (int, error)
}

// Summary describes a template without its bodies.
type Summary struct {
	ID         string        `json:"id"`
	LessonID   string        `json:"lessonId"`
	Title      string        `json:"title"`
	Difficulty ir.Difficulty `json:"difficulty,omitempty"`
	Variables  []string      `json:"variables"`
	Steps      int           `json:"steps"`
}

// Service answers template queries and generation requests.
// Safe for concurrent use when its source and archive are.
type Service struct {
	source  TemplateSource
	engine  *engine.Engine
	archive Archive
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithArchive records every generated instance in a.
func WithArchive(a Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithLogger sets the logger.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service. A nil engine gets engine.New().
func New(source TemplateSource, eng *engine.Engine, opts ...Option) *Service {
	s := &Service{source: source, engine: eng, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = engine.New(engine.WithLogger(s.logger))
	}
	return s
}

// ListTemplates returns every template, ordered as the source orders them.
func (s *Service) ListTemplates() []Summary {
	return summarize(s.source.List())
}

// TemplatesForLesson returns the templates of one lesson.
// An unknown lesson yields an empty list.
func (s *Service) TemplatesForLesson(lessonID string) []Summary {
	return summarize(s.source.ForLesson(lessonID))
}

// Template returns the full template with the given id.
func (s *Service) Template(id string) (*ir.Template, error) {
	t, ok := s.source.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}
	return t, nil
}

// Generate produces the instance of template id for seed, or for a fresh
// seed when seed is nil.
func (s *Service) Generate(ctx context.Context, id string, seed *int64) (*ir.ExerciseInstance, error) {
	t, err := s.Template(id)
	if err != nil {
		return nil, err
	}

	var inst *ir.ExerciseInstance
	if seed != nil {
		inst, err = s.engine.Generate(t, *seed)
	} else {
		inst, err = s.engine.Regenerate(t)
	}
	if err != nil {
		return nil, err
	}

	if err := s.record(ctx, t, []*ir.ExerciseInstance{inst}); err != nil {
		return nil, err
	}
	return inst, nil
}

// Regenerate produces an instance of template id from a fresh seed.
func (s *Service) Regenerate(ctx context.Context, id string) (*ir.ExerciseInstance, error) {
	return s.Generate(ctx, id, nil)
}

// GenerateBatch produces one instance per seed concurrently. Results are
// in seed order. The first failure cancels the rest.
func (s *Service) GenerateBatch(ctx context.Context, id string, seeds []int64) ([]*ir.ExerciseInstance, error) {
	if len(seeds) > MaxBatch {
		return nil, fmt.Errorf("batch of %d exceeds limit %d", len(seeds), MaxBatch)
	}
	t, err := s.Template(id)
	if err != nil {
		return nil, err
	}

	out := make([]*ir.ExerciseInstance, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			inst, err := s.engine.Generate(t, seed)
			if err != nil {
				return err
			}
			out[i] = inst
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.record(ctx, t, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Seeds returns n consecutive seeds starting at first, or n fresh seeds
// when first is nil.
func (s *Service) Seeds(first *int64, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		if first != nil {
			seeds[i] = *first + int64(i)
		} else {
			seeds[i] = s.engine.NextSeed()
		}
	}
	return seeds
}

// record archives instances of t under one batch id.
func (s *Service) record(ctx context.Context, t *ir.Template, insts []*ir.ExerciseInstance) error {
	if s.archive == nil || len(insts) == 0 {
		return nil
	}

	hash, err := ir.TemplateHash(t)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	batchID, err := store.NewBatchID()
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	recs := make([]store.Record, 0, len(insts))
	for _, inst := range insts {
		rec, err := store.NewRecord(inst, hash, batchID)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		recs = append(recs, rec)
	}

	inserted, err := s.archive.WriteBatch(ctx, recs)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	s.logger.Debug("archived instances",
		"template", t.ID,
		"batch", batchID,
		"count", len(recs),
		"new", inserted,
	)
	return nil
}

func summarize(templates []*ir.Template) []Summary {
	out := make([]Summary, 0, len(templates))
	for _, t := range templates {
		out = append(out, Summary{
			ID:         t.ID,
			LessonID:   t.LessonID,
			Title:      t.Title,
			Difficulty: t.Difficulty,
			Variables:  append([]string{}, t.Variables.Names()...),
			Steps:      len(t.SolutionSteps),
		})
	}
	return out
}
