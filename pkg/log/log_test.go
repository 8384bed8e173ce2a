package log

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ecfw-services/ecfw-go/pkg/policy"
)

func TestEncodeDecodeEvent(t *testing.T) {
	trace := NewTraceID()
	event := CommandIssued(trace, 3, policy.DisconnectCommand{})

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.TraceID != trace {
		t.Errorf("expected trace %q, got %q", trace, decoded.TraceID)
	}
	if decoded.DeviceID != 3 {
		t.Errorf("expected device 3, got %d", decoded.DeviceID)
	}
	if decoded.Category != CategoryCommand {
		t.Errorf("expected COMMAND, got %s", decoded.Category)
	}
	if decoded.Command == nil || decoded.Command.Command != "DISCONNECT" {
		t.Errorf("unexpected command payload: %+v", decoded.Command)
	}
	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("timestamp drift: %v vs %v", decoded.Timestamp, event.Timestamp)
	}
}

func TestCommandCompletedCarriesError(t *testing.T) {
	event := CommandCompleted("t", 1, policy.ResponseComplete, errors.New("boom"), time.Millisecond)
	if event.Response == nil {
		t.Fatal("expected response payload")
	}
	if event.Response.Err != "boom" {
		t.Errorf("expected error text, got %q", event.Response.Err)
	}
	if event.Response.Response != "" {
		t.Errorf("response must be empty on error, got %q", event.Response.Response)
	}

	ok := CommandCompleted("t", 1, policy.ResponseComplete, nil, time.Millisecond)
	if ok.Response.Response != "COMPLETE" || ok.Response.Err != "" {
		t.Errorf("unexpected success payload: %+v", ok.Response)
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(StateChanged(0, policy.KindDetached, policy.KindIdle, "plug inserted"))
	logger.Log(StateChanged(1, policy.KindDetached, policy.KindIdle, "plug inserted"))
	logger.Log(CommandIssued("trace-1", 0, policy.ConnectAsConsumerCommand{}))
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	// Close twice is safe, logging after close is ignored.
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	logger.Log(StateChanged(2, policy.KindDetached, policy.KindIdle, "dropped"))

	reader, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	var count int
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 events, got %d", count)
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(StateChanged(0, policy.KindDetached, policy.KindIdle, ""))
	logger.Log(StateChanged(1, policy.KindIdle, policy.KindConnectedConsumer, ""))
	logger.Log(CommandIssued("trace-1", 1, policy.DisconnectCommand{}))
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	device := policy.DeviceID(1)
	category := CategoryState
	reader, err := NewFilteredReader(path, Filter{DeviceID: &device, Category: &category})
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if event.DeviceID != 1 || event.StateChange == nil {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.StateChange.To != policy.KindConnectedConsumer {
		t.Errorf("expected CONNECTED_CONSUMER, got %s", event.StateChange.To)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

// recordingLogger captures events for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (l *recordingLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func TestMultiLogger(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	multi := NewMultiLogger(a, b, NoopLogger{})

	multi.Log(StateChanged(0, policy.KindDetached, policy.KindIdle, ""))

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("expected both loggers to record, got %d and %d", len(a.events), len(b.events))
	}
}
