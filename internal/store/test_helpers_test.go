package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/testutil"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEngine() *engine.Engine {
	return engine.New(engine.WithLogger(testutil.DiscardLogger()))
}

// createTestRecord generates an instance of tmpl and wraps it in a record.
func createTestRecord(t *testing.T, tmpl *ir.Template, seed int64, batchID string) Record {
	t.Helper()
	inst, err := testEngine().Generate(tmpl, seed)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	rec, err := NewRecord(inst, ir.MustTemplateHash(tmpl), batchID)
	if err != nil {
		t.Fatalf("NewRecord() failed: %v", err)
	}
	return rec
}

// lookup is a TemplateLookup over a fixed set of templates.
type lookup map[string]*ir.Template

func (l lookup) Get(id string) (*ir.Template, bool) {
	t, ok := l[id]
	return t, ok
}

func (l lookup) Hash(id string) (string, bool) {
	t, ok := l[id]
	if !ok {
		return "", false
	}
	return ir.MustTemplateHash(t), true
}
