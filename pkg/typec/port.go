package typec

import (
	"context"
	"errors"
	"sync"

	"github.com/ecfw-services/ecfw-go/pkg/log"
	"github.com/ecfw-services/ecfw-go/pkg/policy"
)

// Port errors.
var (
	ErrNotAttached = errors.New("no plug attached to port")
)

// Notifier receives the hardware event notifications a driver reports
// to the power-policy arbiter.
type Notifier interface {
	NotifyAttach(ctx context.Context, id policy.DeviceID) error
	NotifyDetach(ctx context.Context, id policy.DeviceID) error
	NotifyConsumerCapability(ctx context.Context, id policy.DeviceID) error
}

// SimulatedPort simulates the hardware-owning driver task for one port.
type SimulatedPort struct {
	device   *policy.Device
	notifier Notifier
	logger   log.Logger

	mu            sync.Mutex
	plugged       bool
	sinkEnabled   bool
	sourceEnabled bool
}

// NewSimulatedPort creates a simulated port driving the given device.
// notifier may be nil when no arbiter is attached; logger may be nil.
func NewSimulatedPort(device *policy.Device, notifier Notifier, logger log.Logger) *SimulatedPort {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &SimulatedPort{
		device:   device,
		notifier: notifier,
		logger:   logger,
	}
}

// Device returns the underlying power-policy device.
func (p *SimulatedPort) Device() *policy.Device {
	return p.device
}

// PowerPolicyDevice implements policy.DeviceContainer.
func (p *SimulatedPort) PowerPolicyDevice() *policy.Device {
	return p.device
}

// Serve runs the driver task: it claims commands from the device's
// channel, applies them to the simulated hardware and answers each one
// exactly once. It returns when ctx is cancelled.
func (p *SimulatedPort) Serve(ctx context.Context) error {
	for {
		req, err := p.device.Receive(ctx)
		if err != nil {
			return err
		}

		if err := p.apply(req.Command()); err != nil {
			p.logger.Log(log.ErrorEvent(p.device.ID(), err, "apply command"))
			req.Fail(err)
			continue
		}
		req.Complete(policy.ResponseComplete)
	}
}

// Close marks the driver side as gone, failing pending and future
// commands with ipc.ErrChannelClosed.
func (p *SimulatedPort) Close() {
	p.device.CloseCommandChannel()
}

// apply performs the simulated hardware action for one command.
func (p *SimulatedPort) apply(cmd policy.CommandData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.plugged {
		return ErrNotAttached
	}

	switch cmd.(type) {
	case policy.ConnectAsConsumerCommand:
		p.sinkEnabled = true
		p.sourceEnabled = false
	case policy.ConnectAsProviderCommand:
		p.sourceEnabled = true
		p.sinkEnabled = false
	case policy.DisconnectCommand:
		p.sinkEnabled = false
		p.sourceEnabled = false
	}
	return nil
}

// SinkEnabled returns true if the simulated sink path is on.
func (p *SimulatedPort) SinkEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sinkEnabled
}

// SourceEnabled returns true if the simulated source path is on.
func (p *SimulatedPort) SourceEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sourceEnabled
}

// Plugged returns true if a plug is currently inserted.
func (p *SimulatedPort) Plugged() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plugged
}

// PlugInsert simulates a plug insertion. The device must be detached.
func (p *SimulatedPort) PlugInsert(ctx context.Context) error {
	detached, err := p.device.TryDetachedDevice()
	if err != nil {
		return err
	}
	detached.Attach()

	p.mu.Lock()
	p.plugged = true
	p.mu.Unlock()

	p.logger.Log(log.StateChanged(p.device.ID(), policy.KindDetached, policy.KindIdle, "plug inserted"))

	if p.notifier != nil {
		return p.notifier.NotifyAttach(ctx, p.device.ID())
	}
	return nil
}

// PlugRemove simulates a plug removal from any state. Removing an
// already absent plug is a no-op.
func (p *SimulatedPort) PlugRemove(ctx context.Context) error {
	from := p.device.State().Kind()
	p.device.Detach()

	p.mu.Lock()
	wasPlugged := p.plugged
	p.plugged = false
	p.sinkEnabled = false
	p.sourceEnabled = false
	p.mu.Unlock()

	if !wasPlugged {
		return nil
	}

	p.logger.Log(log.StateChanged(p.device.ID(), from, policy.KindDetached, "plug removed"))

	if p.notifier != nil {
		return p.notifier.NotifyDetach(ctx, p.device.ID())
	}
	return nil
}

// AdvertiseConsumerCapability simulates the port partner advertising a
// consumer capability. Valid while attached (idle or already consuming).
func (p *SimulatedPort) AdvertiseConsumerCapability(ctx context.Context, capability policy.ConsumerPowerCapability) error {
	switch action := p.device.DeviceAction().(type) {
	case *policy.IdleDevice:
		action.NotifyConsumerCapability(&capability)
	case *policy.ConsumerDevice:
		action.NotifyConsumerCapability(&capability)
	default:
		return &policy.InvalidStateError{
			Expected: policy.KindIdle,
			Actual:   action.Kind(),
		}
	}

	if p.notifier != nil {
		return p.notifier.NotifyConsumerCapability(ctx, p.device.ID())
	}
	return nil
}

// RequestProviderCapability simulates the port partner requesting power.
// Valid while idle; the arbiter grants or denies the request.
func (p *SimulatedPort) RequestProviderCapability(capability policy.ProviderPowerCapability) error {
	idle, err := p.device.TryIdleDevice()
	if err != nil {
		return err
	}
	idle.RequestProviderCapability(capability)
	return nil
}

// Compile-time interface satisfaction check.
var _ policy.DeviceContainer = (*SimulatedPort)(nil)
