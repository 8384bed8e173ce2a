package log

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecfw-services/ecfw-go/pkg/policy"
)

// Event is one record in the power-policy flight recorder.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// TraceID correlates the events of one command exchange (UUID).
	TraceID string `cbor:"2,keyasint,omitempty"`

	// DeviceID is the power device the event concerns.
	DeviceID policy.DeviceID `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (exactly one is set).
	Command     *CommandEvent     `cbor:"10,keyasint,omitempty"`
	Response    *ResponseEvent    `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates a command issued to a device.
	CategoryCommand Category = 0
	// CategoryResponse indicates a device's answer to a command.
	CategoryResponse Category = 1
	// CategoryState indicates a device state transition.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryResponse:
		return "RESPONSE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CommandEvent records a command issued to a device.
type CommandEvent struct {
	// Command is the command in display form, e.g. "DISCONNECT".
	Command string `cbor:"1,keyasint"`
}

// ResponseEvent records the outcome of a command exchange.
type ResponseEvent struct {
	// Response is the response in display form, empty on error.
	Response string `cbor:"1,keyasint,omitempty"`

	// Err is the error message, empty on success.
	Err string `cbor:"2,keyasint,omitempty"`

	// Elapsed is the round-trip time of the exchange.
	Elapsed time.Duration `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent records a device state transition.
type StateChangeEvent struct {
	// From is the previous state kind.
	From policy.Kind `cbor:"1,keyasint"`

	// To is the new state kind.
	To policy.Kind `cbor:"2,keyasint"`

	// Reason describes what drove the transition, e.g. "plug removed".
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData records an error at any layer.
type ErrorEventData struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`

	// Context describes what was being attempted.
	Context string `cbor:"2,keyasint,omitempty"`
}

// NewTraceID returns a fresh trace ID for one command exchange.
func NewTraceID() string {
	return uuid.NewString()
}

// CommandIssued builds a command event.
func CommandIssued(traceID string, id policy.DeviceID, data policy.CommandData) Event {
	return Event{
		Timestamp: time.Now(),
		TraceID:   traceID,
		DeviceID:  id,
		Category:  CategoryCommand,
		Command:   &CommandEvent{Command: data.String()},
	}
}

// CommandCompleted builds a response event. err may be nil.
func CommandCompleted(traceID string, id policy.DeviceID, resp policy.ResponseData, err error, elapsed time.Duration) Event {
	re := &ResponseEvent{Elapsed: elapsed}
	if err != nil {
		re.Err = err.Error()
	} else {
		re.Response = resp.String()
	}
	return Event{
		Timestamp: time.Now(),
		TraceID:   traceID,
		DeviceID:  id,
		Category:  CategoryResponse,
		Response:  re,
	}
}

// StateChanged builds a state transition event.
func StateChanged(id policy.DeviceID, from, to policy.Kind, reason string) Event {
	return Event{
		Timestamp:   time.Now(),
		DeviceID:    id,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{From: from, To: to, Reason: reason},
	}
}

// ErrorEvent builds an error event.
func ErrorEvent(id policy.DeviceID, err error, context string) Event {
	return Event{
		Timestamp: time.Now(),
		DeviceID:  id,
		Category:  CategoryError,
		Error:     &ErrorEventData{Message: err.Error(), Context: context},
	}
}
