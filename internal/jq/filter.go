package jq

import (
	"context"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/procwise/flowschema/pkg/schema"
)

// Filter evaluates boolean expr-lang expressions against dataset records to
// decide which records a batch run should process. Record fields (file_index,
// procedure_text, node and edge counts) are exposed as top-level variables.
// Thread-safe: compiled *vm.Program objects are cached and reused across
// goroutines.
type Filter struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewFilter creates a new record filter with an empty compile cache.
func NewFilter() *Filter {
	return &Filter{
		cache: make(map[string]*vm.Program),
	}
}

// Match compiles (or retrieves from cache) the expression and evaluates it
// against the record environment. A non-boolean result is a validation error.
func (f *Filter) Match(ctx context.Context, expression string, env map[string]any) (bool, error) {
	if expression == "" {
		return false, schema.NewError(schema.ErrCodeValidation, "empty filter expression")
	}

	prg, err := f.getOrCompile(expression, env)
	if err != nil {
		return false, err
	}

	if env == nil {
		env = map[string]any{}
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		return false, schema.NewErrorf(schema.ErrCodeExecution,
			"filter evaluation failed for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	matched, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeValidation,
			"filter %q must evaluate to a boolean, got %T", expression, out)
	}
	return matched, nil
}

// RecordEnv builds the expression environment for a dataset record.
func RecordEnv(rec *schema.Record) map[string]any {
	return map[string]any{
		"file_index":     rec.FileIndex,
		"procedure_text": rec.ProcedureText,
		"node_count":     len(rec.StepNodes),
		"edge_count":     len(rec.SequenceFlow),
	}
}

func (f *Filter) getOrCompile(expression string, env map[string]any) (*vm.Program, error) {
	f.mu.RLock()
	if prg, ok := f.cache[expression]; ok {
		f.mu.RUnlock()
		return prg, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := f.cache[expression]; ok {
		return prg, nil
	}

	if env == nil {
		env = map[string]any{}
	}

	prg, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"filter compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	f.cache[expression] = prg
	return prg, nil
}
