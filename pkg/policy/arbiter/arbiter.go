package arbiter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ecfw-services/ecfw-go/pkg/log"
	"github.com/ecfw-services/ecfw-go/pkg/policy"
	"github.com/ecfw-services/ecfw-go/pkg/registry"
)

// Arbiter errors.
var (
	ErrUnknownDevice     = errors.New("device is not registered")
	ErrNoRequestPending  = errors.New("device has no pending provider request")
	ErrOverConsumerLimit = errors.New("capability exceeds the consumer power budget")
)

// Config configures an Arbiter.
type Config struct {
	// ConsumerBudgetMW caps the power a connected consumer may draw,
	// 0 for no cap.
	ConsumerBudgetMW uint32

	// Logger receives flight-recorder events. Nil disables recording.
	Logger log.Logger

	// CommandRetries bounds the retry attempts for a failed device
	// command. 0 uses the default of 3.
	CommandRetries uint64
}

// Arbiter is the central power-policy service. It owns the device
// registry and serializes all registry access behind its own mutex;
// the registry itself performs no locking.
type Arbiter struct {
	mu      sync.Mutex
	devices registry.List

	budgetMW uint32
	retries  uint64
	logger   log.Logger
}

// New creates an arbiter with no registered devices.
func New(cfg Config) *Arbiter {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	retries := cfg.CommandRetries
	if retries == 0 {
		retries = 3
	}
	return &Arbiter{
		budgetMW: cfg.ConsumerBudgetMW,
		retries:  retries,
		logger:   logger,
	}
}

// Register adds a device to the registry. The container's storage must
// outlive the arbiter. Registering the same device twice fails with
// registry.ErrAlreadyLinked.
func (a *Arbiter) Register(dc policy.DeviceContainer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.devices.Append(dc.PowerPolicyDevice())
}

// Device looks up a registered device by ID.
func (a *Arbiter) Device(id policy.DeviceID) (*policy.Device, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for c := range a.devices.All() {
		d := c.(*policy.Device)
		if d.ID() == id {
			return d, true
		}
	}
	return nil, false
}

// Devices returns a snapshot of the registered devices in registration
// order.
func (a *Arbiter) Devices() []*policy.Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*policy.Device, 0, a.devices.Len())
	for c := range a.devices.All() {
		out = append(out, c.(*policy.Device))
	}
	return out
}

// NotifyAttach is called by a port driver after it reports a plug
// insertion. It re-evaluates the consumer policy.
func (a *Arbiter) NotifyAttach(ctx context.Context, id policy.DeviceID) error {
	if _, ok := a.Device(id); !ok {
		return ErrUnknownDevice
	}
	a.logger.Log(log.StateChanged(id, policy.KindDetached, policy.KindIdle, "plug inserted"))
	return a.UpdateConsumerPolicy(ctx)
}

// NotifyDetach is called by a port driver after it reports a plug
// removal. It re-evaluates the consumer policy.
func (a *Arbiter) NotifyDetach(ctx context.Context, id policy.DeviceID) error {
	d, ok := a.Device(id)
	if !ok {
		return ErrUnknownDevice
	}
	a.logger.Log(log.StateChanged(id, d.State().Kind(), policy.KindDetached, "plug removed"))
	return a.UpdateConsumerPolicy(ctx)
}

// NotifyConsumerCapability is called by a port driver after the port
// partner advertises a new consumer capability. It re-evaluates the
// consumer policy.
func (a *Arbiter) NotifyConsumerCapability(ctx context.Context, id policy.DeviceID) error {
	if _, ok := a.Device(id); !ok {
		return ErrUnknownDevice
	}
	return a.UpdateConsumerPolicy(ctx)
}

// consumerPreferred returns true if capability a is a better consumer
// choice than b. Constrained partners outrank unconstrained ones, then
// higher power wins.
func consumerPreferred(a, b policy.ConsumerPowerCapability) bool {
	if a.UnconstrainedPower() != b.UnconstrainedPower() {
		return !a.UnconstrainedPower()
	}
	return a.Capability.MilliWatts() > b.Capability.MilliWatts()
}

// UpdateConsumerPolicy selects the attached device advertising the
// best consumer capability within the power budget and makes it the
// single connected consumer, disconnecting a previously connected one
// first. It is a no-op when the best choice is already connected.
func (a *Arbiter) UpdateConsumerPolicy(ctx context.Context) error {
	var (
		current    *policy.Device
		currentCap policy.ConsumerPowerCapability
		best       *policy.Device
		bestCap    policy.ConsumerPowerCapability
	)

	for _, d := range a.Devices() {
		if cap, ok := d.State().ConsumerCapability(); ok {
			current = d
			currentCap = cap
			continue
		}
		if d.State().Kind() != policy.KindIdle {
			continue
		}
		cap, ok := d.ConsumerCapability()
		if !ok {
			continue
		}
		if a.budgetMW > 0 && cap.Capability.MilliWatts() > a.budgetMW {
			continue
		}
		if best == nil || consumerPreferred(cap, bestCap) {
			best = d
			bestCap = cap
		}
	}

	if best == nil {
		return nil
	}
	if current != nil && !consumerPreferred(bestCap, currentCap) {
		return nil
	}

	if current != nil {
		if err := a.disconnectConsumer(ctx, current); err != nil {
			return err
		}
	}
	return a.connectConsumer(ctx, best, bestCap)
}

// GrantProviderRequest connects a device as provider under the
// capability its port partner requested.
func (a *Arbiter) GrantProviderRequest(ctx context.Context, id policy.DeviceID) error {
	d, ok := a.Device(id)
	if !ok {
		return ErrUnknownDevice
	}
	cap, ok := d.RequestedProviderCapability()
	if !ok {
		return ErrNoRequestPending
	}
	return a.ConnectAsProvider(ctx, id, cap)
}

// ConnectAsProvider connects a device as provider under the given
// capability.
func (a *Arbiter) ConnectAsProvider(ctx context.Context, id policy.DeviceID, cap policy.ProviderPowerCapability) error {
	d, ok := a.Device(id)
	if !ok {
		return ErrUnknownDevice
	}

	trace := log.NewTraceID()
	a.logger.Log(log.CommandIssued(trace, d.ID(), policy.ConnectAsProviderCommand{Capability: cap}))

	start := time.Now()
	err := a.retry(ctx, func() error {
		idle, err := d.TryIdlePolicy()
		if err != nil {
			return backoff.Permanent(err)
		}
		_, err = idle.ConnectAsProvider(ctx, cap)
		return err
	})
	a.logger.Log(log.CommandCompleted(trace, d.ID(), policy.ResponseComplete, err, time.Since(start)))
	return err
}

// ConnectAsConsumer connects a device as consumer under the given
// capability, enforcing the consumer power budget.
func (a *Arbiter) ConnectAsConsumer(ctx context.Context, id policy.DeviceID, cap policy.ConsumerPowerCapability) error {
	d, ok := a.Device(id)
	if !ok {
		return ErrUnknownDevice
	}
	if a.budgetMW > 0 && cap.Capability.MilliWatts() > a.budgetMW {
		return ErrOverConsumerLimit
	}
	return a.connectConsumer(ctx, d, cap)
}

// Disconnect disconnects a device from whichever connected state it is
// in. Disconnecting a device that is not connected fails with an
// InvalidStateError.
func (a *Arbiter) Disconnect(ctx context.Context, id policy.DeviceID) error {
	d, ok := a.Device(id)
	if !ok {
		return ErrUnknownDevice
	}

	switch action := d.PolicyAction().(type) {
	case *policy.ProviderPolicy:
		return a.disconnect(ctx, d, func(ctx context.Context) error {
			_, err := action.Disconnect(ctx)
			return err
		})
	case *policy.ConsumerPolicy:
		return a.disconnect(ctx, d, func(ctx context.Context) error {
			_, err := action.Disconnect(ctx)
			return err
		})
	default:
		return &policy.InvalidStateError{
			Expected: policy.KindConnectedConsumer,
			Actual:   d.State().Kind(),
		}
	}
}

func (a *Arbiter) connectConsumer(ctx context.Context, d *policy.Device, cap policy.ConsumerPowerCapability) error {
	trace := log.NewTraceID()
	a.logger.Log(log.CommandIssued(trace, d.ID(), policy.ConnectAsConsumerCommand{Capability: cap}))

	start := time.Now()
	err := a.retry(ctx, func() error {
		idle, err := d.TryIdlePolicy()
		if err != nil {
			return backoff.Permanent(err)
		}
		_, err = idle.ConnectAsConsumer(ctx, cap)
		return err
	})
	a.logger.Log(log.CommandCompleted(trace, d.ID(), policy.ResponseComplete, err, time.Since(start)))
	return err
}

func (a *Arbiter) disconnectConsumer(ctx context.Context, d *policy.Device) error {
	return a.disconnect(ctx, d, func(ctx context.Context) error {
		consumer, err := d.TryConsumerPolicy()
		if err != nil {
			return backoff.Permanent(err)
		}
		_, err = consumer.Disconnect(ctx)
		return err
	})
}

func (a *Arbiter) disconnect(ctx context.Context, d *policy.Device, op func(context.Context) error) error {
	trace := log.NewTraceID()
	a.logger.Log(log.CommandIssued(trace, d.ID(), policy.DisconnectCommand{}))

	start := time.Now()
	err := a.retry(ctx, func() error { return op(ctx) })
	a.logger.Log(log.CommandCompleted(trace, d.ID(), policy.ResponseComplete, err, time.Since(start)))
	return err
}

// retry runs op with bounded exponential backoff. InvalidStateError and
// closed-channel failures inside op are marked permanent by the
// operation itself via backoff.Permanent.
func (a *Arbiter) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, a.retries), ctx))
}
