package emit

import "github.com/rs/zerolog"

// ZerologEmitter bridges execution events into a zerolog logger, so workflow
// activity lands in the same structured log stream as the rest of an
// application.
type ZerologEmitter struct {
	logger zerolog.Logger
}

// NewZerologEmitter wraps the given logger. Events log at info level except
// run failures, which log at error level.
func NewZerologEmitter(logger zerolog.Logger) *ZerologEmitter {
	return &ZerologEmitter{logger: logger}
}

// Emit implements Emitter.
func (z *ZerologEmitter) Emit(e Event) {
	ev := z.logger.Info()
	if e.Msg == "run_failed" {
		ev = z.logger.Error()
	}

	ev = ev.
		Str("thread_id", e.ThreadID).
		Int("seq", e.Seq)
	if e.NodeID != "" {
		ev = ev.Str("node_id", e.NodeID)
	}
	if len(e.Meta) > 0 {
		ev = ev.Fields(e.Meta)
	}
	ev.Msg(e.Msg)
}
