package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exgen/internal/catalog"
	"github.com/roach88/exgen/internal/ir"
)

func TestCompileValidTemplates(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), templatesDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 2 template(s) in 1 lesson(s)")
	assert.Contains(t, out, "dynamics/mass-label: 1 variable(s), 1 step(s)")
	assert.Contains(t, out, "dynamics/weight-force: 1 variable(s), 1 step(s)")
}

func TestCompileValidTemplatesJSON(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), templatesDir)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ir.EngineVersion, resp.Data.EngineVersion)
	require.Len(t, resp.Data.Templates, 2)
	assert.Equal(t, "mass-label", resp.Data.Templates[0].Template.ID)
	assert.Equal(t, ir.MustTemplateHash(resp.Data.Templates[0].Template), resp.Data.Templates[0].Hash)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), templatesDir, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical JSON to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	res, errs := catalog.Load(templatesDir, catalog.LoadModeFailFast)
	require.Empty(t, errs)
	want, err := ir.MarshalCanonical(buildCompilation(res.Catalog))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))
}

func TestCompileIsByteStable(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")

	_, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), templatesDir, "-o", first)
	require.NoError(t, err)
	_, err = execute(NewCompileCommand(&RootOptions{Format: "text"}), templatesDir, "-o", second)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompileErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"loop.yaml": loopTemplate})

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "E109")
}

func TestCompileErrorsJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"loop.yaml": loopTemplate})

	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E109", resp.Error.Code)
}

func TestCompileNonExistentDirectory(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/templates")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestCompileWriteFailure(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "missing", "compiled.json")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), templatesDir, "-o", outputFile)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E009]")
}
