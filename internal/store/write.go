package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/exgen/internal/ir"
)

// Record is one archived instance with its provenance.
type Record struct {
	Seq           int64 // assigned by the store
	Fingerprint   string
	TemplateID    string
	LessonID      string
	Seed          int64
	TemplateHash  string
	EngineVersion string
	FormatVersion string
	BatchID       string
	Instance      *ir.ExerciseInstance
}

// NewBatchID returns a time-ordered id grouping the instances of one
// generate call.
func NewBatchID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new batch id: %w", err)
	}
	return id.String(), nil
}

// NewRecord builds a Record for inst. The fingerprint is taken from the
// instance, or computed when the instance carries none.
func NewRecord(inst *ir.ExerciseInstance, templateHash, batchID string) (Record, error) {
	fp := inst.Fingerprint
	if fp == "" {
		var err error
		if fp, err = ir.InstanceFingerprint(inst); err != nil {
			return Record{}, fmt.Errorf("new record: %w", err)
		}
	}
	return Record{
		Fingerprint:   fp,
		TemplateID:    inst.TemplateID,
		LessonID:      inst.LessonID,
		Seed:          inst.Seed,
		TemplateHash:  templateHash,
		EngineVersion: ir.EngineVersion,
		FormatVersion: ir.FormatVersion,
		BatchID:       batchID,
		Instance:      inst,
	}, nil
}

// WriteInstance inserts a record into the archive.
// Uses ON CONFLICT(fingerprint) DO NOTHING for idempotency: an instance
// already archived is silently kept and inserted reports false.
func (s *Store) WriteInstance(ctx context.Context, rec Record) (inserted bool, err error) {
	if rec.Instance == nil {
		return false, fmt.Errorf("write instance: nil instance")
	}
	if rec.Fingerprint == "" {
		return false, fmt.Errorf("write instance: empty fingerprint")
	}

	body, err := marshalInstance(rec.Instance)
	if err != nil {
		return false, fmt.Errorf("write instance: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO instances
		(fingerprint, template_id, lesson_id, seed, template_hash, engine_version, format_version, batch_id, instance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		rec.Fingerprint,
		rec.TemplateID,
		rec.LessonID,
		rec.Seed,
		rec.TemplateHash,
		rec.EngineVersion,
		rec.FormatVersion,
		rec.BatchID,
		body,
	)
	if err != nil {
		return false, fmt.Errorf("write instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write instance: rows affected: %w", err)
	}
	return rows > 0, nil
}

// WriteBatch inserts records in one transaction, in order.
// Returns how many were new.
func (s *Store) WriteBatch(ctx context.Context, recs []Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instances
		(fingerprint, template_id, lesson_id, seed, template_hash, engine_version, format_version, batch_id, instance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("write batch: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, rec := range recs {
		if rec.Instance == nil || rec.Fingerprint == "" {
			return 0, fmt.Errorf("write batch: record %d: missing instance or fingerprint", i)
		}
		body, err := marshalInstance(rec.Instance)
		if err != nil {
			return 0, fmt.Errorf("write batch: record %d: %w", i, err)
		}
		result, err := stmt.ExecContext(ctx,
			rec.Fingerprint, rec.TemplateID, rec.LessonID, rec.Seed, rec.TemplateHash,
			rec.EngineVersion, rec.FormatVersion, rec.BatchID, body)
		if err != nil {
			return 0, fmt.Errorf("write batch: record %d: %w", i, err)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write batch: commit: %w", err)
	}
	return inserted, nil
}
