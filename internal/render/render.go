// Package render substitutes {{name}} tokens in template text.
//
// A token is a name between double braces, with optional surrounding
// whitespace and an optional numeric precision suffix: {{ v }}, {{v:2}}.
// Numbers are formatted with the format package, strings are inserted
// verbatim and booleans render as true/false.
//
// Unresolved tokens are left in the output exactly as written and reported
// to the caller, which decides how to surface them.
package render

import (
	"regexp"
	"strconv"

	"github.com/roach88/exgen/internal/format"
	"github.com/roach88/exgen/internal/ir"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?::\s*(\d{1,2})\s*)?\}\}`)

// Lookup resolves token names.
type Lookup interface {
	Lookup(name string) (ir.Value, bool)
}

// Token is one placeholder occurrence.
type Token struct {
	Raw       string // exact source text, braces included
	Name      string
	Precision int // -1 when no suffix was written
}

// Tokens lists the placeholders in text in order of appearance.
func Tokens(text string) []Token {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	out := make([]Token, 0, len(matches))
	for _, m := range matches {
		out = append(out, newToken(m))
	}
	return out
}

func newToken(m []string) Token {
	tok := Token{Raw: m[0], Name: m[1], Precision: -1}
	if m[2] != "" {
		if p, err := strconv.Atoi(m[2]); err == nil {
			tok.Precision = p
		}
	}
	return tok
}

// Result is rendered text plus the names that could not be resolved.
type Result struct {
	Text       string
	Unresolved []string // in order of first appearance, without duplicates
}

// String renders text against env. maxDecimals is the default precision
// for tokens without a suffix.
func String(text string, env Lookup, maxDecimals int) Result {
	var unresolved []string
	seen := make(map[string]bool)

	out := tokenPattern.ReplaceAllStringFunc(text, func(raw string) string {
		tok := newToken(tokenPattern.FindStringSubmatch(raw))
		v, ok := env.Lookup(tok.Name)
		if !ok {
			if !seen[tok.Name] {
				seen[tok.Name] = true
				unresolved = append(unresolved, tok.Name)
			}
			return raw
		}
		precision := maxDecimals
		if tok.Precision >= 0 {
			precision = tok.Precision
		}
		return Value(v, precision)
	})
	return Result{Text: out, Unresolved: unresolved}
}

// Value renders a single value.
func Value(v ir.Value, maxDecimals int) string {
	switch val := v.(type) {
	case ir.Number:
		return format.Number(float64(val), maxDecimals)
	case ir.String:
		return string(val)
	case ir.Bool:
		return strconv.FormatBool(bool(val))
	default:
		return ""
	}
}
