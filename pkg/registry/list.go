package registry

import (
	"errors"
	"iter"
)

// Registry errors.
var (
	ErrAlreadyLinked = errors.New("node is already linked into a list")
)

// Node is the link record a container embeds to participate in a List.
// The zero value is an unlinked node, ready for use.
type Node struct {
	list      *List
	next      *Node
	container NodeContainer
}

// Linked returns true if the node is currently part of a list.
func (n *Node) Linked() bool {
	return n.list != nil
}

// NodeContainer is implemented by any object that embeds a Node and can
// be registered in a List.
type NodeContainer interface {
	// RegistryNode returns the embedded link record. It must return the
	// same *Node for the lifetime of the container.
	RegistryNode() *Node
}

// List is an insertion-ordered collection of NodeContainers.
// The zero value is an empty list, ready for use.
type List struct {
	head *Node
	tail *Node
	size int
}

// Append inserts the container at the tail of the list in O(1).
// It returns ErrAlreadyLinked if the container's node is already part
// of any list; the existing list is left untouched.
func (l *List) Append(c NodeContainer) error {
	n := c.RegistryNode()
	if n.list != nil {
		return ErrAlreadyLinked
	}

	n.list = l
	n.next = nil
	n.container = c

	if l.tail == nil {
		l.head = n
	} else {
		l.tail.next = n
	}
	l.tail = n
	l.size++
	return nil
}

// Len returns the number of registered containers.
func (l *List) Len() int {
	return l.size
}

// All returns an iterator over the registered containers in insertion
// order. The list must not be mutated while an iteration is in progress.
func (l *List) All() iter.Seq[NodeContainer] {
	return func(yield func(NodeContainer) bool) {
		for n := l.head; n != nil; n = n.next {
			if !yield(n.container) {
				return
			}
		}
	}
}
