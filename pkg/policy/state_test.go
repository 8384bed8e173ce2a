package policy

import "testing"

func TestStateKindMatchesPayload(t *testing.T) {
	provCap := ProviderPowerCapability{Capability: PowerCapability{VoltageMV: 5000, CurrentMA: 1000}}
	consCap := ConsumerPowerCapability{Capability: PowerCapability{VoltageMV: 20000, CurrentMA: 3000}}

	tests := []struct {
		name         string
		state        State
		kind         Kind
		wantProvider bool
		wantConsumer bool
	}{
		{"detached", Detached(), KindDetached, false, false},
		{"idle", Idle(), KindIdle, false, false},
		{"provider", ConnectedProvider(provCap), KindConnectedProvider, true, false},
		{"consumer", ConnectedConsumer(consCap), KindConnectedConsumer, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.state.Kind() != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, tt.state.Kind())
			}
			if _, ok := tt.state.ProviderCapability(); ok != tt.wantProvider {
				t.Errorf("ProviderCapability ok = %v, want %v", ok, tt.wantProvider)
			}
			if _, ok := tt.state.ConsumerCapability(); ok != tt.wantConsumer {
				t.Errorf("ConsumerCapability ok = %v, want %v", ok, tt.wantConsumer)
			}
		})
	}
}

func TestStatePayloadRoundTrip(t *testing.T) {
	cap := ProviderPowerCapability{Capability: PowerCapability{VoltageMV: 5000, CurrentMA: 1000}}
	s := ConnectedProvider(cap)

	got, ok := s.ProviderCapability()
	if !ok {
		t.Fatal("expected provider capability")
	}
	if got != cap {
		t.Errorf("expected %v, got %v", cap, got)
	}
}

func TestPowerCapabilityMilliWatts(t *testing.T) {
	tests := []struct {
		cap  PowerCapability
		want uint32
	}{
		{PowerCapability{VoltageMV: 5000, CurrentMA: 1000}, 5000},
		{PowerCapability{VoltageMV: 20000, CurrentMA: 5000}, 100000},
		{PowerCapability{}, 0},
	}
	for _, tt := range tests {
		if got := tt.cap.MilliWatts(); got != tt.want {
			t.Errorf("%v: expected %dmW, got %dmW", tt.cap, tt.want, got)
		}
	}
}

func TestConsumerFlags(t *testing.T) {
	c := ConsumerPowerCapability{Flags: FlagUnconstrainedPower}
	if !c.UnconstrainedPower() {
		t.Error("expected unconstrained power flag to be set")
	}
	if (ConsumerPowerCapability{}).UnconstrainedPower() {
		t.Error("expected zero-value flags to be constrained")
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindDetached:          "DETACHED",
		KindIdle:              "IDLE",
		KindConnectedProvider: "CONNECTED_PROVIDER",
		KindConnectedConsumer: "CONNECTED_CONSUMER",
		Kind(99):              "UNKNOWN",
	}
	for k, want := range tests {
		if k.String() != want {
			t.Errorf("expected %q, got %q", want, k.String())
		}
	}
}
