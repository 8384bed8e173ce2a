package policy

import (
	"context"
	"sync"

	"github.com/ecfw-services/ecfw-go/pkg/ipc"
	"github.com/ecfw-services/ecfw-go/pkg/registry"
)

// internalState is the single mutable record per device, held behind
// the device mutex. consumerCapability and requestedProviderCapability
// are independently settable and may be stale relative to state.Kind();
// callers that need them consistent with the state must update them
// through the action layer.
type internalState struct {
	state                       State
	consumerCapability          *ConsumerPowerCapability
	requestedProviderCapability *ProviderPowerCapability
}

// Device is the sole owner of one power port's state and command
// channel. It is constructed once at system init, registered by
// reference and never destroyed.
type Device struct {
	node registry.Node
	id   DeviceID

	mu       sync.Mutex
	internal internalState

	command *ipc.Channel[CommandData, ResponseData]
}

// NewDevice creates a device with the given ID in the Detached state.
func NewDevice(id DeviceID) *Device {
	return &Device{
		id: id,
		internal: internalState{
			state: Detached(),
		},
		command: ipc.NewChannel[CommandData, ResponseData](),
	}
}

// ID returns the device ID.
func (d *Device) ID() DeviceID {
	return d.id
}

// State returns the current state of the device.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.internal.state
}

// ConsumerCapability returns the consumer capability most recently
// advertised by the port partner, if any.
func (d *Device) ConsumerCapability() (ConsumerPowerCapability, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.internal.consumerCapability == nil {
		return ConsumerPowerCapability{}, false
	}
	return *d.internal.consumerCapability, true
}

// ProviderCapability returns the capability the device is actively
// providing. It reports false unless the live state is
// ConnectedProvider, regardless of any stale stored value.
func (d *Device) ProviderCapability() (ProviderPowerCapability, bool) {
	return d.State().ProviderCapability()
}

// RequestedProviderCapability returns the provider capability the port
// partner has requested, if any.
func (d *Device) RequestedProviderCapability() (ProviderPowerCapability, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.internal.requestedProviderCapability == nil {
		return ProviderPowerCapability{}, false
	}
	return *d.internal.requestedProviderCapability, true
}

// IsConsumer returns true if the device is currently consuming power.
func (d *Device) IsConsumer() bool {
	return d.State().Kind() == KindConnectedConsumer
}

// IsProvider returns true if the device is currently providing power.
func (d *Device) IsProvider() bool {
	return d.State().Kind() == KindConnectedProvider
}

// ExecuteCommand submits a command on the device's channel and blocks
// until the driver task answers. Intended for the policy side; drivers
// never call it.
func (d *Device) ExecuteCommand(ctx context.Context, data CommandData) (ResponseData, error) {
	return d.command.Execute(ctx, data)
}

// Receive claims the next pending command on the device's channel.
// Intended for the driver task that owns the port hardware.
func (d *Device) Receive(ctx context.Context) (*ipc.Request[CommandData, ResponseData], error) {
	return d.command.Receive(ctx)
}

// CloseCommandChannel marks the driver side as permanently gone.
// Pending and future ExecuteCommand calls fail with ipc.ErrChannelClosed.
func (d *Device) CloseCommandChannel() {
	d.command.Close()
}

// setState replaces the device state. Each setter acquires the guard
// independently; there is no cross-field atomicity.
func (d *Device) setState(newState State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.internal.state = newState
}

// updateConsumerCapability replaces the advertised consumer capability.
// A nil capability clears it.
func (d *Device) updateConsumerCapability(capability *ConsumerPowerCapability) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if capability == nil {
		d.internal.consumerCapability = nil
		return
	}
	c := *capability
	d.internal.consumerCapability = &c
}

// updateRequestedProviderCapability replaces the requested provider
// capability. A nil capability clears it.
func (d *Device) updateRequestedProviderCapability(capability *ProviderPowerCapability) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if capability == nil {
		d.internal.requestedProviderCapability = nil
		return
	}
	c := *capability
	d.internal.requestedProviderCapability = &c
}

// requireKind fails with an InvalidStateError unless the live state
// kind matches the one an operation set is bound to.
func (d *Device) requireKind(expected Kind) error {
	if actual := d.State().Kind(); actual != expected {
		return &InvalidStateError{Expected: expected, Actual: actual}
	}
	return nil
}

// RegistryNode returns the embedded registry link record.
func (d *Device) RegistryNode() *registry.Node {
	return &d.node
}

// DeviceContainer is implemented by any object that wraps a power
// policy device, letting composite drivers register the device they
// embed.
type DeviceContainer interface {
	// PowerPolicyDevice returns the underlying device.
	PowerPolicyDevice() *Device
}

// PowerPolicyDevice returns the device itself.
func (d *Device) PowerPolicyDevice() *Device {
	return d
}

// Compile-time interface satisfaction checks.
var (
	_ registry.NodeContainer = (*Device)(nil)
	_ DeviceContainer        = (*Device)(nil)
)
