package jq

import (
	"context"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/procwise/flowschema/pkg/schema"
)

// Selector evaluates jq expressions against extracted workflow documents,
// used to reshape or project output before it is written.
// Thread-safe: compiled *Code objects are cached and reused across goroutines.
type Selector struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewSelector creates a new jq selector with an empty compile cache.
func NewSelector() *Selector {
	return &Selector{
		cache: make(map[string]*gojq.Code),
	}
}

// Select compiles (or retrieves from cache) a jq expression and evaluates it
// against the provided document. The document map is used as the input JSON
// object.
//
// jq expressions can produce multiple outputs. When there is exactly one
// output, it is returned directly. When there are multiple outputs, they are
// collected into a slice and returned as []any.
func (s *Selector) Select(ctx context.Context, expression string, doc map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty jq expression")
	}

	code, err := s.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, doc)

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeExecution,
				"jq evaluation failed for %q: %s", expression, err.Error()).
				WithCause(err).
				WithDetails(map[string]any{"expression": expression})
		}
		results = append(results, val)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// getOrCompile returns a cached compiled code or compiles and caches a new one.
func (s *Selector) getOrCompile(expression string) (*gojq.Code, error) {
	s.mu.RLock()
	if code, ok := s.cache[expression]; ok {
		s.mu.RUnlock()
		return code, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock.
	if code, ok := s.cache[expression]; ok {
		return code, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq parse error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	code, err := gojq.Compile(query,
		// Sandbox: return empty env to block $ENV and env access.
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	s.cache[expression] = code
	return code, nil
}
