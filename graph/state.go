package graph

import "encoding/json"

// State is a session's shared state: a mapping from field name to value.
//
// Field semantics are defined entirely by the Reducers registry the engine
// is built with. Nodes receive a deep copy of the current state and return
// partial updates (a State touching a subset of fields); the engine merges
// each update through the field's registered reducer.
//
// Values must be JSON-serializable, since checkpointing and deep copying
// both round-trip through JSON. After a round trip, nested values normalize
// to the JSON shapes (map[string]any, []any, float64, string, bool, nil);
// code reading typed values back out should decode rather than type-assert
// concrete struct types.
type State map[string]any

// Clone returns a deep copy of the state via a JSON round trip.
//
// This guarantees the copy shares no mutable references with the original,
// so a node mutating its input cannot corrupt the engine's authoritative
// state.
func (s State) Clone() (State, error) {
	if s == nil {
		return State{}, nil
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var out State
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = State{}
	}
	return out, nil
}
