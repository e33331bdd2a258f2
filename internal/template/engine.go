// Package template expands the two placeholder styles found in commoners
// configuration: ${name} macros in installer settings and Go templates in
// service commands.
package template

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine expands ${var} macros.
type Engine struct {
	// Pattern to match macros like ${name}
	macroPattern *regexp.Regexp
}

// New creates a new template engine
func New() *Engine {
	return &Engine{
		macroPattern: regexp.MustCompile(`\$\{\s*([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}`),
	}
}

// Expand replaces ${var} macros with values from vars. Macros without a
// value are left in place because downstream tools (the desktop packager)
// resolve their own, such as ${arch} or ${ext}.
func (e *Engine) Expand(s string, vars map[string]string) string {
	return e.macroPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := e.macroPattern.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// Variables returns the macro names used in s, in order of appearance and
// without duplicates.
func (e *Engine) Variables(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range e.macroPattern.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Render executes a Go template with the sprig function set. Strings
// without {{ are returned unchanged. Missing keys are an error.
func Render(name, text string, data any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.String(), nil
}
