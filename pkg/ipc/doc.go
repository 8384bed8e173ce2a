// Package ipc provides the rendezvous command channel used to hand
// commands from one task to another.
//
// A Channel carries at most one in-flight request: the issuing side
// blocks in Execute until the fulfilling side claims the request via
// Receive and completes it. Concurrent issuers queue in call order, so
// the N-th receive/complete pair always resolves the N-th Execute call.
package ipc
