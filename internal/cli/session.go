package cli

import (
	"errors"
	"log/slog"

	"github.com/roach88/exgen/internal/catalog"
	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/service"
	"github.com/roach88/exgen/internal/store"
)

// session is a loaded catalog with a service over it and, when a database
// path was given, the archive the service records into.
type session struct {
	catalog *catalog.Catalog
	engine  *engine.Engine
	service *service.Service
	store   *store.Store
}

// openSession loads dir and wires the service. seeds may be nil for the
// clock-backed default. A non-empty db opens (or creates) the archive.
// Returned errors are already formatted for the user.
func openSession(formatter *OutputFormatter, logger *slog.Logger, dir, db string, seeds engine.SeedSource) (*session, error) {
	res, loadErr := loadCatalog(dir)
	if loadErr != nil {
		return nil, formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Error(), nil)
	}
	for _, w := range res.Warnings {
		logger.Warn("unresolved placeholder", "template", w.Template, "field", w.Field, "detail", w.Message)
	}
	logger.Debug("templates loaded", "dir", dir, "files", res.FileCount, "templates", res.Catalog.Len())

	engineOpts := []engine.EngineOption{engine.WithLogger(logger)}
	if seeds != nil {
		engineOpts = append(engineOpts, engine.WithSeedSource(seeds))
	}
	eng := engine.New(engineOpts...)

	s := &session{catalog: res.Catalog, engine: eng}
	svcOpts := []service.Option{service.WithLogger(logger)}
	if db != "" {
		st, err := store.Open(db)
		if err != nil {
			return nil, formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		logger.Debug("archive open", "path", db)
		s.store = st
		svcOpts = append(svcOpts, service.WithArchive(st))
	}
	s.service = service.New(res.Catalog, eng, svcOpts...)
	return s, nil
}

// Close releases the archive, if any.
func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// generationFailure maps a service error to the command's exit error.
func generationFailure(formatter *OutputFormatter, id string, err error) error {
	if errors.Is(err, service.ErrTemplateNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeTemplateNotFound, "template \""+id+"\" not found", nil)
	}
	return formatter.Fail(ExitFailure, ErrCodeGeneration, "generation failed", err)
}
