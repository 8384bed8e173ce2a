package policy

import "fmt"

// PowerCapability describes one negotiable power level.
type PowerCapability struct {
	// VoltageMV is the negotiated voltage in millivolts.
	VoltageMV uint16

	// CurrentMA is the negotiated current in milliamps.
	CurrentMA uint16
}

// MilliWatts returns the power this capability represents.
func (c PowerCapability) MilliWatts() uint32 {
	return uint32(uint64(c.VoltageMV) * uint64(c.CurrentMA) / 1000)
}

// String returns a human-readable form, e.g. "5000mV/1000mA (5000mW)".
func (c PowerCapability) String() string {
	return fmt.Sprintf("%dmV/%dmA (%dmW)", c.VoltageMV, c.CurrentMA, c.MilliWatts())
}

// ConsumerFlags carries additional properties of a consumer capability.
type ConsumerFlags uint8

const (
	// FlagUnconstrainedPower indicates the port partner has access to an
	// external power source beyond what it draws from this port.
	FlagUnconstrainedPower ConsumerFlags = 1 << 0
)

// ConsumerPowerCapability is a power profile a port can draw, USB PD
// sink mode.
type ConsumerPowerCapability struct {
	Capability PowerCapability
	Flags      ConsumerFlags
}

// UnconstrainedPower returns true if the port partner reports an
// unconstrained external power source.
func (c ConsumerPowerCapability) UnconstrainedPower() bool {
	return c.Flags&FlagUnconstrainedPower != 0
}

// String returns a human-readable form.
func (c ConsumerPowerCapability) String() string {
	return c.Capability.String()
}

// ProviderPowerCapability is a power profile a port can offer, USB PD
// source mode.
type ProviderPowerCapability struct {
	Capability PowerCapability
}

// String returns a human-readable form.
func (c ProviderPowerCapability) String() string {
	return c.Capability.String()
}
