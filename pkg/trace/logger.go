package trace

// Logger receives driver trace events. The driver treats a nil Logger as
// disabled, so implementations never see nil events.
type Logger interface {
	// Log records one event. Implementations must be safe for concurrent
	// use; events can arrive from the interrupt path and must not block it.
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
