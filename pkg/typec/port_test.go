package typec

import (
	"context"
	"errors"
	"testing"

	"github.com/ecfw-services/ecfw-go/pkg/policy"
)

func startPort(t *testing.T, id policy.DeviceID) (*SimulatedPort, context.Context) {
	t.Helper()
	port := NewSimulatedPort(policy.NewDevice(id), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = port.Serve(ctx) }()
	return port, ctx
}

func TestPlugLifecycle(t *testing.T) {
	port, ctx := startPort(t, 0)

	if port.Plugged() {
		t.Fatal("fresh port should have no plug")
	}
	if err := port.PlugInsert(ctx); err != nil {
		t.Fatalf("plug insert: %v", err)
	}
	if port.Device().State().Kind() != policy.KindIdle {
		t.Errorf("expected Idle after insert, got %s", port.Device().State().Kind())
	}

	// Inserting again without removal is invalid.
	var ise *policy.InvalidStateError
	if err := port.PlugInsert(ctx); !errors.As(err, &ise) {
		t.Errorf("expected InvalidStateError on double insert, got %v", err)
	}

	if err := port.PlugRemove(ctx); err != nil {
		t.Fatalf("plug remove: %v", err)
	}
	if port.Device().State().Kind() != policy.KindDetached {
		t.Errorf("expected Detached after remove, got %s", port.Device().State().Kind())
	}
	// Removing an absent plug is a no-op.
	if err := port.PlugRemove(ctx); err != nil {
		t.Errorf("second remove: %v", err)
	}
}

func TestServeAppliesCommands(t *testing.T) {
	port, ctx := startPort(t, 0)
	if err := port.PlugInsert(ctx); err != nil {
		t.Fatal(err)
	}

	cap := policy.ConsumerPowerCapability{Capability: policy.PowerCapability{VoltageMV: 5000, CurrentMA: 3000}}
	idle, err := port.Device().TryIdlePolicy()
	if err != nil {
		t.Fatal(err)
	}
	consumer, err := idle.ConnectAsConsumer(ctx, cap)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !port.SinkEnabled() {
		t.Error("expected sink path enabled")
	}
	if port.SourceEnabled() {
		t.Error("source path must stay off")
	}

	if _, err := consumer.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if port.SinkEnabled() {
		t.Error("expected sink path disabled after disconnect")
	}
}

func TestServeRejectsCommandsWithoutPlug(t *testing.T) {
	port, ctx := startPort(t, 0)

	// Force an Idle state without marking the simulated plug present,
	// as a driver bug would.
	detached, err := port.Device().TryDetachedDevice()
	if err != nil {
		t.Fatal(err)
	}
	detached.Attach()

	idle, err := port.Device().TryIdlePolicy()
	if err != nil {
		t.Fatal(err)
	}
	cap := policy.ConsumerPowerCapability{Capability: policy.PowerCapability{VoltageMV: 5000, CurrentMA: 1500}}
	if _, err := idle.ConnectAsConsumer(ctx, cap); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}
}

func TestAdvertiseRequiresAttached(t *testing.T) {
	port, ctx := startPort(t, 0)

	cap := policy.ConsumerPowerCapability{Capability: policy.PowerCapability{VoltageMV: 5000, CurrentMA: 1500}}
	var ise *policy.InvalidStateError
	if err := port.AdvertiseConsumerCapability(ctx, cap); !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	if err := port.PlugInsert(ctx); err != nil {
		t.Fatal(err)
	}
	if err := port.AdvertiseConsumerCapability(ctx, cap); err != nil {
		t.Fatalf("advertise: %v", err)
	}
	if got, ok := port.Device().ConsumerCapability(); !ok || got != cap {
		t.Errorf("expected advertised capability %v, got %v (ok=%v)", cap, got, ok)
	}
}

func TestCloseFailsPolicyCommands(t *testing.T) {
	port, ctx := startPort(t, 0)
	if err := port.PlugInsert(ctx); err != nil {
		t.Fatal(err)
	}
	port.Close()

	idle, err := port.Device().TryIdlePolicy()
	if err != nil {
		t.Fatal(err)
	}
	cap := policy.ConsumerPowerCapability{Capability: policy.PowerCapability{VoltageMV: 5000, CurrentMA: 1500}}
	if _, err := idle.ConnectAsConsumer(ctx, cap); err == nil {
		t.Fatal("expected error after driver close")
	}
}
