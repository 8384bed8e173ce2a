package policy

import "fmt"

// DeviceID identifies one power port/device. It is assigned at
// construction and immutable for the device's lifetime.
type DeviceID uint8

// String returns the ID in "power-N" form.
func (id DeviceID) String() string {
	return fmt.Sprintf("power-%d", uint8(id))
}

// Kind is the tag portion of a device State.
type Kind uint8

const (
	// KindDetached means no device is attached.
	KindDetached Kind = iota
	// KindIdle means a device is attached but neither providing nor
	// consuming power.
	KindIdle
	// KindConnectedProvider means the port is providing power, USB PD
	// source mode.
	KindConnectedProvider
	// KindConnectedConsumer means the port is consuming power, USB PD
	// sink mode.
	KindConnectedConsumer
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDetached:
		return "DETACHED"
	case KindIdle:
		return "IDLE"
	case KindConnectedProvider:
		return "CONNECTED_PROVIDER"
	case KindConnectedConsumer:
		return "CONNECTED_CONSUMER"
	default:
		return "UNKNOWN"
	}
}

// State is the current state of a power device: a closed tagged value
// whose kind always matches its payload. States are only built through
// the constructors below, so no State can carry a payload that
// disagrees with its tag.
type State struct {
	kind     Kind
	provider ProviderPowerCapability
	consumer ConsumerPowerCapability
}

// Detached returns the state with no device attached.
func Detached() State {
	return State{kind: KindDetached}
}

// Idle returns the state for an attached device that is neither
// providing nor consuming power.
func Idle() State {
	return State{kind: KindIdle}
}

// ConnectedProvider returns the state for a device actively providing
// power under the given capability.
func ConnectedProvider(cap ProviderPowerCapability) State {
	return State{kind: KindConnectedProvider, provider: cap}
}

// ConnectedConsumer returns the state for a device actively consuming
// power under the given capability.
func ConnectedConsumer(cap ConsumerPowerCapability) State {
	return State{kind: KindConnectedConsumer, consumer: cap}
}

// Kind returns the state's tag.
func (s State) Kind() Kind {
	return s.kind
}

// ProviderCapability returns the active provider capability. The second
// return value is false unless the state is ConnectedProvider.
func (s State) ProviderCapability() (ProviderPowerCapability, bool) {
	if s.kind != KindConnectedProvider {
		return ProviderPowerCapability{}, false
	}
	return s.provider, true
}

// ConsumerCapability returns the active consumer capability. The second
// return value is false unless the state is ConnectedConsumer.
func (s State) ConsumerCapability() (ConsumerPowerCapability, bool) {
	if s.kind != KindConnectedConsumer {
		return ConsumerPowerCapability{}, false
	}
	return s.consumer, true
}

// String returns the kind name plus the active capability, if any.
func (s State) String() string {
	switch s.kind {
	case KindConnectedProvider:
		return fmt.Sprintf("%s %s", s.kind, s.provider)
	case KindConnectedConsumer:
		return fmt.Sprintf("%s %s", s.kind, s.consumer)
	default:
		return s.kind.String()
	}
}
