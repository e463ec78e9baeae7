// Package catalog loads exercise templates from disk and serves them by id
// and by lesson.
//
// A Catalog is built once by Load and never changes afterwards, so it can be
// shared between goroutines without locking.
package catalog

import (
	"slices"
	"strings"

	"github.com/roach88/exgen/internal/ir"
)

// Catalog is an immutable, validated set of templates.
type Catalog struct {
	templates []*ir.Template // sorted by (lessonId, id)
	byID      map[string]*ir.Template
	hashes    map[string]string
}

// New builds a catalog from already-validated templates.
// Returns a LoadError with ErrCodeDuplicateID if two templates share an id.
func New(templates []*ir.Template) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[string]*ir.Template, len(templates)),
		hashes: make(map[string]string, len(templates)),
	}
	for _, t := range templates {
		if _, dup := c.byID[t.ID]; dup {
			return nil, &LoadError{Code: ErrCodeDuplicateID, Message: "duplicate template id " + quote(t.ID)}
		}
		hash, err := ir.TemplateHash(t)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: "hashing template " + quote(t.ID) + ": " + err.Error()}
		}
		c.byID[t.ID] = t
		c.hashes[t.ID] = hash
		c.templates = append(c.templates, t)
	}
	slices.SortFunc(c.templates, compareTemplates)
	return c, nil
}

func compareTemplates(a, b *ir.Template) int {
	if c := strings.Compare(a.LessonID, b.LessonID); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

// List returns every template ordered by lesson then id.
// The returned slice is a copy; the templates themselves must not be modified.
func (c *Catalog) List() []*ir.Template {
	return slices.Clone(c.templates)
}

// ForLesson returns the templates of one lesson ordered by id.
// An unknown lesson yields an empty, non-nil slice.
func (c *Catalog) ForLesson(lessonID string) []*ir.Template {
	out := []*ir.Template{}
	for _, t := range c.templates {
		if t.LessonID == lessonID {
			out = append(out, t)
		}
	}
	return out
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (*ir.Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Hash returns the template hash recorded at load time.
func (c *Catalog) Hash(id string) (string, bool) {
	h, ok := c.hashes[id]
	return h, ok
}

// Lessons returns the distinct lesson ids in sorted order.
func (c *Catalog) Lessons() []string {
	var lessons []string
	for _, t := range c.templates {
		if n := len(lessons); n == 0 || lessons[n-1] != t.LessonID {
			lessons = append(lessons, t.LessonID)
		}
	}
	return lessons
}

func quote(s string) string { return `"` + s + `"` }
