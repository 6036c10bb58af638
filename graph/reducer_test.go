package graph

import (
	"errors"
	"reflect"
	"testing"
)

func TestOverwrite(t *testing.T) {
	got, err := Overwrite("old", "new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "new" {
		t.Errorf("expected new value, got %v", got)
	}

	got, err = Overwrite(nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != true {
		t.Errorf("expected true, got %v", got)
	}
}

func TestAppendSequence(t *testing.T) {
	t.Run("nil old treated as empty", func(t *testing.T) {
		got, err := AppendSequence(nil, []string{"a", "b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []any{"a", "b"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("preserves order and duplicates", func(t *testing.T) {
		got, err := AppendSequence([]any{"a", "b"}, []any{"b", "c"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []any{"a", "b", "b", "c"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("associativity", func(t *testing.T) {
		a := []any{"1"}
		b := []any{"2", "3"}
		c := []any{"4"}

		ab, _ := AppendSequence(a, b)
		left, _ := AppendSequence(ab, c)

		bc, _ := AppendSequence(b, c)
		right, _ := AppendSequence(a, bc)

		if !reflect.DeepEqual(left, right) {
			t.Errorf("append not associative: %v vs %v", left, right)
		}
	})

	t.Run("rejects non-sequence", func(t *testing.T) {
		if _, err := AppendSequence([]any{"a"}, 42); err == nil {
			t.Error("expected error for scalar new value")
		}
		if _, err := AppendSequence("nope", []any{"a"}); err == nil {
			t.Error("expected error for scalar old value")
		}
	})
}

func TestReducersApply(t *testing.T) {
	reducers := Reducers{
		"log":  AppendSequence,
		"name": Overwrite,
	}

	t.Run("merges registered fields", func(t *testing.T) {
		prev := State{"log": []any{"first"}, "name": "a"}
		merged, err := reducers.Apply(prev, State{"log": []string{"second"}, "name": "b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if merged["name"] != "b" {
			t.Errorf("expected overwritten name, got %v", merged["name"])
		}
		if got := merged["log"].([]any); len(got) != 2 || got[1] != "second" {
			t.Errorf("unexpected log merge: %v", got)
		}
		// prev must not be modified
		if prev["name"] != "a" {
			t.Errorf("prev state mutated: %v", prev["name"])
		}
	})

	t.Run("unknown field is fatal", func(t *testing.T) {
		_, err := reducers.Apply(State{}, State{"bogus": 1})
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != ErrCodeUnknownField {
			t.Fatalf("expected %s, got %v", ErrCodeUnknownField, err)
		}
		if ee.Message == "" {
			t.Error("error should name the offending field")
		}
	})

	t.Run("first write with absent old value", func(t *testing.T) {
		merged, err := reducers.Apply(State{}, State{"log": []string{"x"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := merged["log"].([]any); len(got) != 1 || got[0] != "x" {
			t.Errorf("unexpected first write: %v", got)
		}
	})
}
