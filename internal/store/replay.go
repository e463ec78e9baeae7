package store

import (
	"context"
	"fmt"

	"github.com/roach88/exgen/internal/ir"
)

// ReplayStatus classifies one replayed record.
type ReplayStatus string

const (
	// ReplayMatch means regeneration reproduced the archived fingerprint.
	ReplayMatch ReplayStatus = "match"
	// ReplayMismatch means the template is unchanged but the output differs.
	ReplayMismatch ReplayStatus = "mismatch"
	// ReplayTemplateChanged means the template hash differs from the archived one.
	ReplayTemplateChanged ReplayStatus = "template_changed"
	// ReplayMissingTemplate means no loaded template has the archived id.
	ReplayMissingTemplate ReplayStatus = "missing_template"
	// ReplayFailed means generation returned an error.
	ReplayFailed ReplayStatus = "failed"
)

// TemplateLookup resolves archived template ids against loaded templates.
type TemplateLookup interface {
	Get(id string) (*ir.Template, bool)
	Hash(id string) (string, bool)
}

// Generator produces an instance from a template and seed.
type Generator interface {
	Generate(t *ir.Template, seed int64) (*ir.ExerciseInstance, error)
}

// ReplayOutcome is the result of regenerating one archived record.
type ReplayOutcome struct {
	Seq        int64        `json:"seq"`
	TemplateID string       `json:"templateId"`
	Seed       int64        `json:"seed"`
	Status     ReplayStatus `json:"status"`
	Expected   string       `json:"expected"`
	Got        string       `json:"got,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// ReplayReport summarizes a replay run.
type ReplayReport struct {
	Outcomes        []ReplayOutcome `json:"outcomes"`
	Matched         int             `json:"matched"`
	Mismatched      int             `json:"mismatched"`
	TemplateChanged int             `json:"templateChanged"`
	MissingTemplate int             `json:"missingTemplate"`
	Failed          int             `json:"failed"`
}

// OK reports whether no record with an unchanged template diverged.
// Template drift and missing templates are reported but do not fail.
func (r ReplayReport) OK() bool {
	return r.Mismatched == 0 && r.Failed == 0
}

// Replay regenerates every archived record from its seed in seq order and
// compares fingerprints.
//
// A changed template hash is reported as ReplayTemplateChanged even when the
// output happens to match, so drift stays visible.
func (s *Store) Replay(ctx context.Context, templates TemplateLookup, gen Generator) (ReplayReport, error) {
	records, err := s.ReadAll(ctx)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}

	report := ReplayReport{Outcomes: make([]ReplayOutcome, 0, len(records))}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("replay: %w", err)
		}
		outcome := replayRecord(rec, templates, gen)
		switch outcome.Status {
		case ReplayMatch:
			report.Matched++
		case ReplayMismatch:
			report.Mismatched++
		case ReplayTemplateChanged:
			report.TemplateChanged++
		case ReplayMissingTemplate:
			report.MissingTemplate++
		case ReplayFailed:
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

func replayRecord(rec Record, templates TemplateLookup, gen Generator) ReplayOutcome {
	outcome := ReplayOutcome{
		Seq:        rec.Seq,
		TemplateID: rec.TemplateID,
		Seed:       rec.Seed,
		Expected:   rec.Fingerprint,
	}

	t, ok := templates.Get(rec.TemplateID)
	if !ok {
		outcome.Status = ReplayMissingTemplate
		outcome.Message = fmt.Sprintf("template %q is not loaded", rec.TemplateID)
		return outcome
	}

	inst, err := gen.Generate(t, rec.Seed)
	if err != nil {
		outcome.Status = ReplayFailed
		outcome.Message = err.Error()
		return outcome
	}
	outcome.Got = inst.Fingerprint

	if hash, ok := templates.Hash(rec.TemplateID); ok && hash != rec.TemplateHash {
		outcome.Status = ReplayTemplateChanged
		outcome.Message = fmt.Sprintf("template hash %s, archived %s", hash, rec.TemplateHash)
		return outcome
	}

	if inst.Fingerprint != rec.Fingerprint {
		outcome.Status = ReplayMismatch
		outcome.Message = "regenerated instance differs from archive"
		return outcome
	}
	outcome.Status = ReplayMatch
	return outcome
}
