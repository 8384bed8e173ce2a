// Package typec provides a host-side simulated Type-C port driver.
//
// SimulatedPort stands in for the task that owns one port's hardware:
// it runs the command receive loop, applies commands to simulated sink
// and source paths, and injects plug events through the driver-facing
// action layer, notifying the arbiter the way a real controller driver
// would.
package typec
