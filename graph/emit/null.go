package emit

// NullEmitter discards all events. Useful as a default when observability
// is not wired up, and in benchmarks.
type NullEmitter struct{}

// NewNullEmitter creates an emitter that drops everything.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit implements Emitter.
func (*NullEmitter) Emit(Event) {}
