package policy

// CommandData is an instruction from the policy arbiter to a device.
// It is a closed set: ConnectAsConsumerCommand, ConnectAsProviderCommand
// or DisconnectCommand.
type CommandData interface {
	isCommandData()
	String() string
}

// ConnectAsConsumerCommand instructs the device to start consuming
// power under the given capability.
type ConnectAsConsumerCommand struct {
	Capability ConsumerPowerCapability
}

func (ConnectAsConsumerCommand) isCommandData() {}

// String returns the command name and capability.
func (c ConnectAsConsumerCommand) String() string {
	return "CONNECT_AS_CONSUMER " + c.Capability.String()
}

// ConnectAsProviderCommand instructs the device to start providing
// power to the port partner under the given capability.
type ConnectAsProviderCommand struct {
	Capability ProviderPowerCapability
}

func (ConnectAsProviderCommand) isCommandData() {}

// String returns the command name and capability.
func (c ConnectAsProviderCommand) String() string {
	return "CONNECT_AS_PROVIDER " + c.Capability.String()
}

// DisconnectCommand instructs the device to stop providing or consuming.
type DisconnectCommand struct{}

func (DisconnectCommand) isCommandData() {}

// String returns the command name.
func (DisconnectCommand) String() string {
	return "DISCONNECT"
}

// Command is a request from the power-policy arbiter to a device.
type Command struct {
	// ID is the target device.
	ID DeviceID
	// Data is the instruction.
	Data CommandData
}

// ResponseData is the outcome a device reports for a command. Failures
// surface as errors, not as response variants.
type ResponseData uint8

const (
	// ResponseComplete means the command was carried out.
	ResponseComplete ResponseData = 0
)

// String returns the response name.
func (r ResponseData) String() string {
	switch r {
	case ResponseComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Response is a device's answer to a Command.
type Response struct {
	// ID is the responding device.
	ID DeviceID
	// Data is the outcome.
	Data ResponseData
}
