// Package log implements the power-policy event flight recorder.
//
// Every command exchange, state transition and error in the framework
// can be captured as an Event and handed to a Logger. Events are
// CBOR-encoded with integer keys so that an append-only on-target log
// stays compact; Reader replays recorded logs with optional filtering.
//
// This is diagnostic recording, not console logging: applications that
// want human-readable output attach a SlogAdapter or their own Logger.
package log
