package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// LogEmitter writes events to an io.Writer, one line per event, either as
// human-readable text or as JSONL for machine consumption.
type LogEmitter struct {
	mu     sync.Mutex
	w      io.Writer
	asJSON bool
}

// NewLogEmitter creates a line-oriented emitter. With asJSON false the
// format is:
//
//	[step_complete] thread=research-1 seq=3 node=tools
func NewLogEmitter(w io.Writer, asJSON bool) *LogEmitter {
	return &LogEmitter{w: w, asJSON: asJSON}
}

// Emit implements Emitter.
func (l *LogEmitter) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.asJSON {
		raw, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(l.w, "{\"msg\":\"emit_marshal_error\",\"error\":%q}\n", err.Error())
			return
		}
		l.w.Write(raw)
		io.WriteString(l.w, "\n")
		return
	}

	line := fmt.Sprintf("[%s] thread=%s seq=%d", e.Msg, e.ThreadID, e.Seq)
	if e.NodeID != "" {
		line += " node=" + e.NodeID
	}
	for k, v := range e.Meta {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	io.WriteString(l.w, line+"\n")
}
