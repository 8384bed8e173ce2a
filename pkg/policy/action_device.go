package policy

// DeviceState is the tagged union over the four driver-facing handles,
// for callers that branch on the current state rather than assert a
// specific one.
type DeviceState interface {
	// Kind returns the state the handle is bound to.
	Kind() Kind
	isDeviceState()
}

// detach collapses any state to Detached and clears both capability
// fields. Field updates acquire the guard independently.
func detach(d *Device) *DetachedDevice {
	d.setState(Detached())
	d.updateConsumerCapability(nil)
	d.updateRequestedProviderCapability(nil)
	return &DetachedDevice{d: d}
}

// DetachedDevice is the driver-facing view of a detached port.
type DetachedDevice struct {
	d *Device
}

// Kind returns KindDetached.
func (*DetachedDevice) Kind() Kind { return KindDetached }

func (*DetachedDevice) isDeviceState() {}

// Attach reports a hardware-observed plug insertion.
func (h *DetachedDevice) Attach() *IdleDevice {
	h.d.setState(Idle())
	return &IdleDevice{d: h.d}
}

// IdleDevice is the driver-facing view of an attached port that is
// neither providing nor consuming power.
type IdleDevice struct {
	d *Device
}

// Kind returns KindIdle.
func (*IdleDevice) Kind() Kind { return KindIdle }

func (*IdleDevice) isDeviceState() {}

// Detach reports a hardware-observed plug removal.
func (h *IdleDevice) Detach() *DetachedDevice {
	return detach(h.d)
}

// NotifyConsumerCapability records the consumer capability the port
// partner advertises. A nil capability clears a previous advertisement.
func (h *IdleDevice) NotifyConsumerCapability(capability *ConsumerPowerCapability) {
	h.d.updateConsumerCapability(capability)
}

// RequestProviderCapability records a provider capability requested by
// the port partner, for the arbiter to grant or deny.
func (h *IdleDevice) RequestProviderCapability(capability ProviderPowerCapability) {
	h.d.updateRequestedProviderCapability(&capability)
}

// ProviderDevice is the driver-facing view of a port actively providing
// power.
type ProviderDevice struct {
	d *Device
}

// Kind returns KindConnectedProvider.
func (*ProviderDevice) Kind() Kind { return KindConnectedProvider }

func (*ProviderDevice) isDeviceState() {}

// Disconnect reports a hardware-observed loss of the power contract
// while the plug remains inserted.
func (h *ProviderDevice) Disconnect() *IdleDevice {
	h.d.setState(Idle())
	return &IdleDevice{d: h.d}
}

// Detach reports a hardware-observed plug removal.
func (h *ProviderDevice) Detach() *DetachedDevice {
	return detach(h.d)
}

// ConsumerDevice is the driver-facing view of a port actively consuming
// power.
type ConsumerDevice struct {
	d *Device
}

// Kind returns KindConnectedConsumer.
func (*ConsumerDevice) Kind() Kind { return KindConnectedConsumer }

func (*ConsumerDevice) isDeviceState() {}

// Disconnect reports a hardware-observed loss of the power contract
// while the plug remains inserted.
func (h *ConsumerDevice) Disconnect() *IdleDevice {
	h.d.setState(Idle())
	return &IdleDevice{d: h.d}
}

// NotifyConsumerCapability records a renegotiated consumer capability
// advertised by the port partner. A nil capability clears it.
func (h *ConsumerDevice) NotifyConsumerCapability(capability *ConsumerPowerCapability) {
	h.d.updateConsumerCapability(capability)
}

// Detach reports a hardware-observed plug removal.
func (h *ConsumerDevice) Detach() *DetachedDevice {
	return detach(h.d)
}

// TryDetachedDevice returns the driver-facing Detached handle, failing
// with an InvalidStateError if the live state is anything else.
func (d *Device) TryDetachedDevice() (*DetachedDevice, error) {
	if err := d.requireKind(KindDetached); err != nil {
		return nil, err
	}
	return &DetachedDevice{d: d}, nil
}

// TryIdleDevice returns the driver-facing Idle handle, failing with an
// InvalidStateError if the live state is anything else.
func (d *Device) TryIdleDevice() (*IdleDevice, error) {
	if err := d.requireKind(KindIdle); err != nil {
		return nil, err
	}
	return &IdleDevice{d: d}, nil
}

// TryProviderDevice returns the driver-facing ConnectedProvider handle,
// failing with an InvalidStateError if the live state is anything else.
func (d *Device) TryProviderDevice() (*ProviderDevice, error) {
	if err := d.requireKind(KindConnectedProvider); err != nil {
		return nil, err
	}
	return &ProviderDevice{d: d}, nil
}

// TryConsumerDevice returns the driver-facing ConnectedConsumer handle,
// failing with an InvalidStateError if the live state is anything else.
func (d *Device) TryConsumerDevice() (*ConsumerDevice, error) {
	if err := d.requireKind(KindConnectedConsumer); err != nil {
		return nil, err
	}
	return &ConsumerDevice{d: d}, nil
}

// DeviceAction returns the driver-facing handle matching the device's
// live state, for callers that branch rather than assert.
func (d *Device) DeviceAction() DeviceState {
	switch d.State().Kind() {
	case KindIdle:
		return &IdleDevice{d: d}
	case KindConnectedProvider:
		return &ProviderDevice{d: d}
	case KindConnectedConsumer:
		return &ConsumerDevice{d: d}
	default:
		return &DetachedDevice{d: d}
	}
}

// Detach collapses any state to Detached. Valid from every state and
// idempotent: detaching an already detached device returns immediately.
func (d *Device) Detach() *DetachedDevice {
	switch action := d.DeviceAction().(type) {
	case *IdleDevice:
		return action.Detach()
	case *ProviderDevice:
		return action.Detach()
	case *ConsumerDevice:
		return action.Detach()
	case *DetachedDevice:
		return action
	default:
		return detach(d)
	}
}
