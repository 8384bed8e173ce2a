package log

// Logger is the interface the framework uses to emit flight-recorder
// events. Pass nil or NoopLogger to disable recording.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent
	// use and should return quickly; blocking stalls the calling task.
	Log(event Event)
}

// NoopLogger discards all events. Use when recording is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
