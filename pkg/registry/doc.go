// Package registry provides an allocation-free, insertion-ordered
// registry for externally-owned objects.
//
// Containers embed a Node and implement NodeContainer; appending a
// container threads its node into the list without the list ever owning
// the container's storage. The list performs no locking: owners that
// mutate and iterate concurrently must serialize access externally.
package registry
