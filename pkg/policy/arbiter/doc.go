// Package arbiter implements the central power-policy service.
//
// The arbiter owns the device registry, reacts to attach/detach and
// capability notifications from port drivers, and decides which device
// should consume or provide power. It drives transitions through the
// policy-facing action handles; command failures are retried with
// bounded exponential backoff and surfaced to the caller when retries
// are exhausted. The core performs no retries of its own.
package arbiter
