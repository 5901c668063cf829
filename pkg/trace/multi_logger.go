package trace

// MultiLogger fans events out to several sinks: typically a FileLogger for
// the session file next to an in-memory recorder or an slog bridge. Nil
// entries are skipped, so optional sinks can be wired unconditionally.
type MultiLogger struct {
	sinks []Logger
}

var _ Logger = (*MultiLogger)(nil)

// NewMultiLogger combines the given loggers into one.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

// Log forwards the event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		if s != nil {
			s.Log(event)
		}
	}
}
