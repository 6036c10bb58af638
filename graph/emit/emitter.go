package emit

// Emitter receives execution events. Implementations must be safe for
// concurrent use, since independent threads emit from their own goroutines.
//
// Emit must not block the superstep loop for long; emitters doing slow I/O
// should buffer (see BufferedEmitter).
type Emitter interface {
	Emit(e Event)
}

// Flusher is implemented by emitters that buffer. Callers that need
// delivery guarantees (CLI exit, test teardown) should flush when the
// emitter supports it:
//
//	if f, ok := emitter.(emit.Flusher); ok {
//	    f.Flush()
//	}
type Flusher interface {
	Flush()
}
