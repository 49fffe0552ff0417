package profile

import (
	"github.com/1ureka/rtno/internal/protocol"

	errs "github.com/1ureka/rtno/internal/errors"
)

// DefaultMaxConnections is the number of remote endpoints a port accepts
// unless configured otherwise.
const DefaultMaxConnections = 8

// Connection is a remote endpoint registered on a port.
type Connection struct {
	Address protocol.Address
	Port    uint8
}

// ConnectionList is the per-port set of registered remote endpoints, kept in
// insertion order. Capacity is fixed at construction.
type ConnectionList struct {
	items []Connection
}

// NewConnectionList creates an empty list holding at most capacity entries.
func NewConnectionList(capacity int) *ConnectionList {
	if capacity <= 0 {
		capacity = DefaultMaxConnections
	}
	return &ConnectionList{items: make([]Connection, 0, capacity)}
}

// Search returns the first connection equal to (addr, port).
func (l *ConnectionList) Search(addr protocol.Address, port uint8) (Connection, bool) {
	for _, c := range l.items {
		if c.Address == addr && c.Port == port {
			return c, true
		}
	}
	return Connection{}, false
}

// Add registers (addr, port). Adding an existing pair succeeds without
// duplicating it.
func (l *ConnectionList) Add(addr protocol.Address, port uint8) error {
	if _, ok := l.Search(addr, port); ok {
		return nil
	}
	if len(l.items) == cap(l.items) {
		return errs.WrapCapacity(errs.ErrRegistryFull, "ConnectionList", "Add")
	}
	l.items = append(l.items, Connection{Address: addr, Port: port})
	return nil
}

// Remove deletes the first entry equal to c. Removing an absent connection
// is a no-op.
func (l *ConnectionList) Remove(c Connection) {
	for i := range l.items {
		if l.items[i] == c {
			copy(l.items[i:], l.items[i+1:])
			l.items = l.items[:len(l.items)-1]
			return
		}
	}
}

// Size returns the number of registered connections.
func (l *ConnectionList) Size() int { return len(l.items) }

// Capacity returns the maximum number of connections.
func (l *ConnectionList) Capacity() int { return cap(l.items) }

// Item returns the i-th connection. Indices are not stable across Remove.
func (l *ConnectionList) Item(i int) Connection { return l.items[i] }
