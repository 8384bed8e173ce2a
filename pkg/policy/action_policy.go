package policy

import "context"

// PolicyState is the tagged union over the four policy-facing handles.
type PolicyState interface {
	// Kind returns the state the handle is bound to.
	Kind() Kind
	isPolicyState()
}

// DetachedPolicy is the policy-facing view of a detached port. No
// commands are legal until the driver reports an attach.
type DetachedPolicy struct {
	d *Device
}

// Kind returns KindDetached.
func (*DetachedPolicy) Kind() Kind { return KindDetached }

func (*DetachedPolicy) isPolicyState() {}

// IdlePolicy is the policy-facing view of an attached port that is
// neither providing nor consuming power.
type IdlePolicy struct {
	d *Device
}

// Kind returns KindIdle.
func (*IdlePolicy) Kind() Kind { return KindIdle }

func (*IdlePolicy) isPolicyState() {}

// ConnectAsConsumer commands the device to start consuming power under
// the given capability. On success the device state becomes
// ConnectedConsumer with that capability.
func (h *IdlePolicy) ConnectAsConsumer(ctx context.Context, capability ConsumerPowerCapability) (*ConsumerPolicy, error) {
	if _, err := h.d.ExecuteCommand(ctx, ConnectAsConsumerCommand{Capability: capability}); err != nil {
		return nil, err
	}
	h.d.setState(ConnectedConsumer(capability))
	return &ConsumerPolicy{d: h.d}, nil
}

// ConnectAsProvider commands the device to start providing power under
// the given capability. On success the device state becomes
// ConnectedProvider with that capability and any pending provider
// request is considered granted.
func (h *IdlePolicy) ConnectAsProvider(ctx context.Context, capability ProviderPowerCapability) (*ProviderPolicy, error) {
	if _, err := h.d.ExecuteCommand(ctx, ConnectAsProviderCommand{Capability: capability}); err != nil {
		return nil, err
	}
	// Two independent guard acquisitions: the state and the request
	// field are not updated atomically.
	h.d.setState(ConnectedProvider(capability))
	h.d.updateRequestedProviderCapability(nil)
	return &ProviderPolicy{d: h.d}, nil
}

// ProviderPolicy is the policy-facing view of a port actively providing
// power.
type ProviderPolicy struct {
	d *Device
}

// Kind returns KindConnectedProvider.
func (*ProviderPolicy) Kind() Kind { return KindConnectedProvider }

func (*ProviderPolicy) isPolicyState() {}

// Disconnect commands the device to stop providing power. On success
// the device state becomes Detached and both capability fields are
// cleared; the device rejoins the candidate pool when the driver next
// reports an attach.
func (h *ProviderPolicy) Disconnect(ctx context.Context) (*DetachedPolicy, error) {
	if _, err := h.d.ExecuteCommand(ctx, DisconnectCommand{}); err != nil {
		return nil, err
	}
	h.d.setState(Detached())
	h.d.updateConsumerCapability(nil)
	h.d.updateRequestedProviderCapability(nil)
	return &DetachedPolicy{d: h.d}, nil
}

// ConsumerPolicy is the policy-facing view of a port actively consuming
// power.
type ConsumerPolicy struct {
	d *Device
}

// Kind returns KindConnectedConsumer.
func (*ConsumerPolicy) Kind() Kind { return KindConnectedConsumer }

func (*ConsumerPolicy) isPolicyState() {}

// Disconnect commands the device to stop consuming power. On success
// the device state becomes Detached and both capability fields are
// cleared.
func (h *ConsumerPolicy) Disconnect(ctx context.Context) (*DetachedPolicy, error) {
	if _, err := h.d.ExecuteCommand(ctx, DisconnectCommand{}); err != nil {
		return nil, err
	}
	h.d.setState(Detached())
	h.d.updateConsumerCapability(nil)
	h.d.updateRequestedProviderCapability(nil)
	return &DetachedPolicy{d: h.d}, nil
}

// TryDetachedPolicy returns the policy-facing Detached handle, failing
// with an InvalidStateError if the live state is anything else.
func (d *Device) TryDetachedPolicy() (*DetachedPolicy, error) {
	if err := d.requireKind(KindDetached); err != nil {
		return nil, err
	}
	return &DetachedPolicy{d: d}, nil
}

// TryIdlePolicy returns the policy-facing Idle handle, failing with an
// InvalidStateError if the live state is anything else.
func (d *Device) TryIdlePolicy() (*IdlePolicy, error) {
	if err := d.requireKind(KindIdle); err != nil {
		return nil, err
	}
	return &IdlePolicy{d: d}, nil
}

// TryProviderPolicy returns the policy-facing ConnectedProvider handle,
// failing with an InvalidStateError if the live state is anything else.
func (d *Device) TryProviderPolicy() (*ProviderPolicy, error) {
	if err := d.requireKind(KindConnectedProvider); err != nil {
		return nil, err
	}
	return &ProviderPolicy{d: d}, nil
}

// TryConsumerPolicy returns the policy-facing ConnectedConsumer handle,
// failing with an InvalidStateError if the live state is anything else.
func (d *Device) TryConsumerPolicy() (*ConsumerPolicy, error) {
	if err := d.requireKind(KindConnectedConsumer); err != nil {
		return nil, err
	}
	return &ConsumerPolicy{d: d}, nil
}

// PolicyAction returns the policy-facing handle matching the device's
// live state.
func (d *Device) PolicyAction() PolicyState {
	switch d.State().Kind() {
	case KindIdle:
		return &IdlePolicy{d: d}
	case KindConnectedProvider:
		return &ProviderPolicy{d: d}
	case KindConnectedConsumer:
		return &ConsumerPolicy{d: d}
	default:
		return &DetachedPolicy{d: d}
	}
}
