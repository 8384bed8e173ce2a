// Package policy implements the per-port power-policy device model.
//
// A Device owns the authoritative state of one power port behind an
// exclusive-access guard, plus one rendezvous command channel. Two
// capability views expose state-restricted operation sets over it: the
// driver-facing view (DetachedDevice, IdleDevice, ProviderDevice,
// ConsumerDevice) reports hardware-observed events, and the
// policy-facing view (DetachedPolicy, IdlePolicy, ProviderPolicy,
// ConsumerPolicy) issues commands through the channel. Handles are
// validated against the live state at acquisition and must not be held
// across blocking operations that could let the state change.
package policy
