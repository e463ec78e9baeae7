package store

import (
	"context"
	"database/sql"
	"fmt"
)

const selectRecord = `
	SELECT seq, fingerprint, template_id, lesson_id, seed, template_hash,
	       engine_version, format_version, batch_id, instance
	FROM instances
`

// ReadInstance retrieves a single record by fingerprint.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadInstance(ctx context.Context, fingerprint string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE fingerprint = ?`, fingerprint)
	return scanRecord(row)
}

// ReadAll returns every record in archive order (seq ASC).
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ReadAll(ctx context.Context) ([]Record, error) {
	return s.query(ctx, selectRecord+` ORDER BY seq ASC`)
}

// ReadTemplate returns the records of one template in archive order.
func (s *Store) ReadTemplate(ctx context.Context, templateID string) ([]Record, error) {
	return s.query(ctx, selectRecord+` WHERE template_id = ? ORDER BY seq ASC`, templateID)
}

// ReadBatch returns the records written by one generate call.
func (s *Store) ReadBatch(ctx context.Context, batchID string) ([]Record, error) {
	return s.query(ctx, selectRecord+` WHERE batch_id = ? ORDER BY seq ASC`, batchID)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return records, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec  Record
		body string
	)
	err := row.Scan(
		&rec.Seq,
		&rec.Fingerprint,
		&rec.TemplateID,
		&rec.LessonID,
		&rec.Seed,
		&rec.TemplateHash,
		&rec.EngineVersion,
		&rec.FormatVersion,
		&rec.BatchID,
		&body,
	)
	if err == sql.ErrNoRows {
		return Record{}, err
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan instance: %w", err)
	}

	inst, err := unmarshalInstance(body)
	if err != nil {
		return Record{}, err
	}
	rec.Instance = inst
	return rec, nil
}
