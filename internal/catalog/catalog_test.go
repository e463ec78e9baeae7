package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/testutil"
)

func ids(templates []*ir.Template) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = t.ID
	}
	return out
}

func TestNewSortsByLessonThenID(t *testing.T) {
	cat, err := New([]*ir.Template{
		testutil.RandomTemplate(),
		testutil.LabelTemplate(),
		testutil.ForceTemplate(),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{"mass-label", "weight-force", "kinetic-energy"}, ids(cat.List()))
	assert.Equal(t, []string{"dynamics", "energy"}, cat.Lessons())
}

func TestNewRejectsDuplicateID(t *testing.T) {
	_, err := New([]*ir.Template{testutil.ForceTemplate(), testutil.ForceTemplate()})
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeDuplicateID, loadErr.Code)
}

func TestForLesson(t *testing.T) {
	cat, err := New([]*ir.Template{testutil.ForceTemplate(), testutil.RandomTemplate(), testutil.LabelTemplate()})
	require.NoError(t, err)

	assert.Equal(t, []string{"mass-label", "weight-force"}, ids(cat.ForLesson("dynamics")))
	assert.Equal(t, []string{"kinetic-energy"}, ids(cat.ForLesson("energy")))

	none := cat.ForLesson("optics")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetAndHash(t *testing.T) {
	force := testutil.ForceTemplate()
	cat, err := New([]*ir.Template{force})
	require.NoError(t, err)

	got, ok := cat.Get("weight-force")
	require.True(t, ok)
	assert.Same(t, force, got)

	_, ok = cat.Get("missing")
	assert.False(t, ok)

	hash, ok := cat.Hash("weight-force")
	require.True(t, ok)
	assert.Equal(t, ir.MustTemplateHash(force), hash)
}

func TestListReturnsCopy(t *testing.T) {
	cat, err := New([]*ir.Template{testutil.ForceTemplate(), testutil.RandomTemplate()})
	require.NoError(t, err)

	list := cat.List()
	list[0] = nil
	assert.NotNil(t, cat.List()[0])
}
