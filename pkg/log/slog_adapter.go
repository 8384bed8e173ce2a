package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes flight-recorder events to an slog.Logger.
// Useful during development to see policy activity in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given
// slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("device", event.DeviceID.String()),
		slog.String("category", event.Category.String()),
	}

	if event.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", event.TraceID))
	}

	switch {
	case event.Command != nil:
		attrs = append(attrs, slog.String("command", event.Command.Command))
	case event.Response != nil:
		if event.Response.Err != "" {
			attrs = append(attrs, slog.String("error", event.Response.Err))
		} else {
			attrs = append(attrs, slog.String("response", event.Response.Response))
		}
		if event.Response.Elapsed > 0 {
			attrs = append(attrs, slog.Duration("elapsed", event.Response.Elapsed))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("from", event.StateChange.From.String()),
			slog.String("to", event.StateChange.To.String()),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "power-policy", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
