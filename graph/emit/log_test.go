package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitterText(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)

	e.Emit(Event{
		ThreadID: "t1",
		Seq:      3,
		NodeID:   "tools",
		Msg:      "step_complete",
		Meta:     map[string]any{"next": "agent"},
	})

	line := buf.String()
	for _, want := range []string{"[step_complete]", "thread=t1", "seq=3", "node=tools", "next=agent"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %s", want, line)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("expected newline-terminated line")
	}
}

func TestLogEmitterJSON(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)

	e.Emit(Event{ThreadID: "t1", Seq: 1, Msg: "run_suspended"})

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded["msg"] != "run_suspended" || decoded["thread_id"] != "t1" {
		t.Errorf("unexpected fields: %v", decoded)
	}
	if _, present := decoded["node_id"]; present {
		t.Error("empty node_id should be omitted")
	}
}
