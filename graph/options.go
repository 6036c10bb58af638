package graph

// Option is a functional option for configuring an Engine.
//
//	engine, err := graph.New(
//	    g, reducers, st, emitter,
//	    graph.WithMaxSteps(50),
//	    graph.WithMetrics(metrics),
//	)
type Option func(*engineConfig) error

type engineConfig struct {
	maxSteps int
	metrics  *Metrics
}

// WithMaxSteps caps the number of supersteps a single Run or Resume call may
// execute, guarding against routing cycles with no exit.
//
// Default: 100. Loops are legal (agent -> tools -> agent), so size the cap
// to graph depth times the expected iteration count. Exceeding it fails the
// run with ErrCodeMaxStepsExceeded.
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		if n <= 0 {
			return &EngineError{
				Message: "max steps must be positive",
				Code:    ErrCodeInvalidGraph,
			}
		}
		cfg.maxSteps = n
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection (see Metrics).
func WithMetrics(m *Metrics) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = m
		return nil
	}
}
