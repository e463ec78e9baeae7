package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/exgen/internal/compiler"
	"github.com/roach88/exgen/internal/ir"
)

// LoadMode controls how errors are handled during template loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes (E001-E099). Validation errors keep their E1xx code.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No template files found
	ErrCodeDecode      = "E004" // YAML or JSON decode failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeDuplicateID = "E007" // Two templates share an id
	ErrCodeNoTemplates = "E008" // Files found but none defines a template
)

// LoadError represents an error that occurred during template loading.
type LoadError struct {
	Code     string
	Message  string
	File     string    // source file, if known
	Template string    // template id, if known
	Pos      token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	var b strings.Builder
	switch {
	case e.Pos.IsValid():
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	case e.File != "":
		fmt.Fprintf(&b, "%s: ", e.File)
	}
	b.WriteString(e.Code)
	b.WriteString(": ")
	if e.Template != "" {
		fmt.Fprintf(&b, "template %q: ", e.Template)
	}
	b.WriteString(e.Message)
	return b.String()
}

// Result contains the loaded catalog and the files it came from.
type Result struct {
	Catalog   *Catalog
	FileCount int
	Warnings  []Warning
}

// Warning is a non-fatal finding about one template. Token warnings are
// raised for loaded templates; cycle warnings accompany the E109 errors of
// a rejected one.
type Warning struct {
	Template string   `json:"template"`
	File     string   `json:"file"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Cycle    []string `json:"cycle,omitempty"`
}

func tokenWarnings(t *ir.Template, file string) []Warning {
	var out []Warning
	for _, tw := range compiler.AnalyzeTokens(t) {
		out = append(out, Warning{Template: t.ID, File: file, Field: tw.Field, Message: tw.Token + ": " + tw.Message})
	}
	return out
}

func cycleWarnings(t *ir.Template, file string) []Warning {
	var out []Warning
	for _, cw := range compiler.AnalyzeCycles(t) {
		out = append(out, Warning{Template: t.ID, File: file, Message: cw.Message, Cycle: cw.Path})
	}
	return out
}

func hasCode(verrs []compiler.ValidationError, code string) bool {
	for _, v := range verrs {
		if v.Code == code {
			return true
		}
	}
	return false
}

// templateFileExts are the extensions Load decodes.
var templateFileExts = []string{".cue", ".yaml", ".yml", ".json"}

// Load reads every template file under dir, validates each template and
// builds a Catalog from the ones that pass.
//
// In LoadModeFailFast the first error ends loading and the result is nil.
// In LoadModeCollectAll all errors are returned alongside a catalog of the
// valid templates.
func Load(dir string, mode LoadMode) (*Result, []error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("templates directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing templates directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindTemplateFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no template files found in %s", dir)}}
	}

	var (
		errs      []error
		templates []*ir.Template
		warnings  []Warning
		seen      = make(map[string]string) // id -> file
		ctx       = cuecontext.New()
	)
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	for _, file := range files {
		decoded, fileErrs := decodeFile(ctx, file)
		for _, err := range fileErrs {
			if fail(err) {
				return nil, errs
			}
		}

		for _, t := range decoded {
			verrs := compiler.Validate(t)
			for _, verr := range verrs {
				if fail(&LoadError{Code: verr.Code, Message: verr.Field + ": " + verr.Message, File: file, Template: t.ID}) {
					return nil, errs
				}
			}
			if len(verrs) > 0 {
				if hasCode(verrs, compiler.ErrUnboundReference) {
					warnings = append(warnings, cycleWarnings(t, file)...)
				}
				continue
			}
			if prev, dup := seen[t.ID]; dup {
				err := &LoadError{
					Code:     ErrCodeDuplicateID,
					Message:  fmt.Sprintf("duplicate template id (first defined in %s)", prev),
					File:     file,
					Template: t.ID,
				}
				if fail(err) {
					return nil, errs
				}
				continue
			}
			seen[t.ID] = file
			warnings = append(warnings, tokenWarnings(t, file)...)
			templates = append(templates, t)
		}
	}

	if len(templates) == 0 && len(errs) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoTemplates, Message: fmt.Sprintf("no templates defined in %s", dir)}}
	}

	cat, err := New(templates)
	if err != nil {
		return nil, append(errs, err)
	}
	return &Result{Catalog: cat, FileCount: len(files), Warnings: warnings}, errs
}

// FindTemplateFiles walks the directory and returns all template file
// paths in lexical order.
func FindTemplateFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(templateFileExts, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// decodeFile decodes all templates defined in one file.
func decodeFile(ctx *cue.Context, file string) ([]*ir.Template, []error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: err.Error(), File: file}}
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".cue":
		return decodeCUE(ctx, file, data)
	case ".yaml", ".yml":
		t, err := DecodeYAML(data)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeDecode, Message: err.Error(), File: file}}
		}
		return []*ir.Template{t}, nil
	default:
		t, err := DecodeJSON(data)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeDecode, Message: err.Error(), File: file}}
		}
		return []*ir.Template{t}, nil
	}
}

// decodeCUE compiles a CUE file and extracts every struct under its
// top-level "template" field, in declaration order.
func decodeCUE(ctx *cue.Context, file string, data []byte) ([]*ir.Template, []error) {
	value := ctx.CompileBytes(data, cue.Filename(file))
	if err := value.Err(); err != nil {
		return nil, []error{convertCompileError(compiler.FormatCUEError(err), file, "")}
	}

	templatesVal := value.LookupPath(cue.ParsePath("template"))
	if !templatesVal.Exists() {
		return nil, nil
	}

	iter, err := templatesVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("iterating templates: %v", err), File: file}}
	}

	var (
		out  []*ir.Template
		errs []error
	)
	for iter.Next() {
		t, err := compiler.CompileTemplate(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, file, compiler.LabelName(iter.Selector())))
			continue
		}
		out = append(out, t)
	}
	return out, errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, file, template string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:     ErrCodeBuildFailed,
			Message:  compileErr.Field + ": " + compileErr.Message,
			File:     file,
			Template: template,
			Pos:      compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error(), File: file, Template: template}
}

// DecodeYAML decodes a single YAML template document. Unknown fields are
// rejected and mapping order is kept for variables and compute blocks.
func DecodeYAML(data []byte) (*ir.Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t ir.Template
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	return &t, nil
}

// DecodeJSON decodes a single JSON template. Unknown fields are rejected
// and object order is kept for variables and compute blocks.
func DecodeJSON(data []byte) (*ir.Template, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var t ir.Template
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding JSON: trailing data after template")
	}
	return &t, nil
}
