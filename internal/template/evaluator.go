// Package template implements the Template/Expression Evaluator (spec
// §4.1): recursive template expansion against a context, backed by
// github.com/expr-lang/expr, and the Rule DSL interpreter used by
// setState and dynamic edges.
package template

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/graflow/graflow/internal/domain/errs"
)

// fullMatch recognizes a string whose entire content is one {{expr}}.
var fullMatch = regexp.MustCompile(`^\s*\{\{\s*(.+?)\s*\}\}\s*$`)

// partialMatch finds every {{expr}} occurrence for in-place substitution.
var partialMatch = regexp.MustCompile(`\{\{(.+?)\}\}`)

// Evaluator compiles and runs expr-lang programs against a context
// mapping, caching compiled programs by source text. Safe for concurrent
// use: the teacher's conditions.go guards its cache the same way.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEvaluator constructs an Evaluator with an empty compile cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

func (e *Evaluator) compile(source string) (*vm.Program, error) {
	e.mu.RLock()
	if p, ok := e.cache[source]; ok {
		e.mu.RUnlock()
		return p, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(source, expr.AllowUndefinedVariables(), expr.AsAny())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[source] = program
	e.mu.Unlock()
	return program, nil
}

// Eval evaluates a bare expression string (no {{ }} wrapper) against env,
// to which it adds the getPath/parse/eval builtins itself via
// withBuiltins. Undefined lookups yield null, never an error.
func (e *Evaluator) Eval(source string, env map[string]any) (any, error) {
	program, err := e.compile(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	full := e.withBuiltins(env)
	out, err := expr.Run(program, full)
	if err != nil {
		return nil, fmt.Errorf("evaluation error: %w", err)
	}
	return out, nil
}

// withBuiltins returns env augmented with getPath, parse, and eval,
// each bound to this Evaluator instance and reentrant against env.
func (e *Evaluator) withBuiltins(env map[string]any) map[string]any {
	full := make(map[string]any, len(env)+3)
	for k, v := range env {
		full[k] = v
	}
	full["getPath"] = func(obj any, path string) any {
		v, ok := getPath(obj, path)
		if !ok {
			return nil
		}
		return v
	}
	full["parse"] = func(tmpl any) any {
		v, _ := e.Parse(tmpl, env)
		return v
	}
	full["eval"] = func(src string) any {
		v, _ := e.Eval(src, env)
		return v
	}
	return full
}

// Parse recursively expands a template tree (strings, arrays, mappings,
// scalars) against env per spec §4.1's string rules.
func (e *Evaluator) Parse(tmpl any, env map[string]any) (any, error) {
	switch v := tmpl.(type) {
	case string:
		return e.parseString(v, env)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			expanded, err := e.Parse(item, env)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			expanded, err := e.Parse(item, env)
			if err != nil {
				return nil, err
			}
			out[k] = expanded
		}
		return out, nil
	default:
		return tmpl, nil
	}
}

func (e *Evaluator) parseString(s string, env map[string]any) (any, error) {
	if m := fullMatch.FindStringSubmatch(s); m != nil {
		v, err := e.Eval(m[1], env)
		if err != nil {
			return nil, errs.NewTemplateError(m[1], err)
		}
		return v, nil
	}

	if !strings.Contains(s, "{{") {
		return s, nil
	}

	var evalErr error
	result := partialMatch.ReplaceAllStringFunc(s, func(match string) string {
		inner := partialMatch.FindStringSubmatch(match)[1]
		v, err := e.Eval(strings.TrimSpace(inner), env)
		if err != nil {
			evalErr = errs.NewTemplateError(inner, err)
			return match
		}
		if v == nil {
			return match
		}
		return fmt.Sprint(v)
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return result, nil
}

// getPath resolves a dotted/bracketed path string against obj, returning
// (nil, false) if any intermediate segment is absent.
func getPath(obj any, path string) (any, bool) {
	segments := splitPath(path)
	current := obj
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		v, exists := m[seg]
		if !exists {
			return nil, false
		}
		current = v
	}
	return current, true
}

// splitPath turns "a.b[0][\"k\"]" into ["a","b","0","k"].
func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "[\"", ".")
	path = strings.ReplaceAll(path, "['", ".")
	path = strings.ReplaceAll(path, "\"]", "")
	path = strings.ReplaceAll(path, "']", "")
	path = strings.ReplaceAll(path, "[", ".")
	path = strings.ReplaceAll(path, "]", "")
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
