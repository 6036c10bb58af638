package graph

import (
	"fmt"
	"reflect"
)

// Reducer merges a field's existing value with a node's new value for that
// field. Reducers must be pure: same inputs, same output, no side effects.
//
// old is nil on the field's first write; reducers treat nil as the field
// type's empty value (empty sequence, false, "").
type Reducer func(old, new any) (any, error)

// Reducers maps each state field to its merge function. Every field a node
// may write must be registered before the first run; an update touching an
// unregistered field aborts the superstep with ErrCodeUnknownField.
type Reducers map[string]Reducer

// Overwrite replaces the old value with the new one.
func Overwrite(_, new any) (any, error) {
	return new, nil
}

// AppendSequence concatenates the new sequence onto the old one, preserving
// order and keeping duplicates. A nil old value is treated as an empty
// sequence. Both values must be sequences (slices); anything else is an
// error, since silently wrapping a scalar would hide a node bug.
func AppendSequence(old, new any) (any, error) {
	prev, err := toSequence(old)
	if err != nil {
		return nil, fmt.Errorf("append reducer: old value: %w", err)
	}
	next, err := toSequence(new)
	if err != nil {
		return nil, fmt.Errorf("append reducer: new value: %w", err)
	}

	merged := make([]any, 0, len(prev)+len(next))
	merged = append(merged, prev...)
	merged = append(merged, next...)
	return merged, nil
}

// toSequence normalizes a value to []any. Accepts nil and any slice kind,
// since values arrive both freshly typed (e.g. []string from a node) and
// JSON-normalized ([]any from a checkpoint).
func toSequence(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.([]any); ok {
		return s, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected sequence, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// Apply merges a partial update into prev through the registered reducers
// and returns the merged state. prev is not modified.
//
// Returns an EngineError with ErrCodeUnknownField if the update names a
// field with no registered reducer. That is a configuration error: register
// the field's reducer before the first run.
func (r Reducers) Apply(prev, update State) (State, error) {
	merged := make(State, len(prev)+len(update))
	for k, v := range prev {
		merged[k] = v
	}

	for field, value := range update {
		reducer, ok := r[field]
		if !ok {
			return nil, &EngineError{
				Message: fmt.Sprintf("no reducer registered for field %q", field),
				Code:    ErrCodeUnknownField,
			}
		}

		out, err := reducer(prev[field], value)
		if err != nil {
			return nil, &EngineError{
				Message: fmt.Sprintf("reducer for field %q failed", field),
				Code:    ErrCodeReducerFailed,
				Cause:   err,
			}
		}
		merged[field] = out
	}
	return merged, nil
}
