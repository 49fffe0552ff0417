// Package profile holds the declared ports of a component: their FIFOs,
// their connection lists, and the lookups the dispatcher needs.
package profile

import (
	"fmt"

	"github.com/1ureka/rtno/internal/protocol"

	errs "github.com/1ureka/rtno/internal/errors"
)

// maxPorts keeps every port index below protocol.ControlPortIndex.
const maxPorts = int(protocol.ControlPortIndex)

// Profile is the ordered set of input and output ports. Ports are added
// during registration only; Freeze closes registration.
type Profile struct {
	inPorts  []*Port
	outPorts []*Port
	frozen   bool
}

// New creates an empty profile open for registration.
func New() *Profile {
	return &Profile{}
}

// AddInPort appends an input port.
func (p *Profile) AddInPort(port *Port) error {
	if err := p.checkNew(port, p.inPorts); err != nil {
		return err
	}
	port.direction = In
	p.inPorts = append(p.inPorts, port)
	return nil
}

// AddOutPort appends an output port.
func (p *Profile) AddOutPort(port *Port) error {
	if err := p.checkNew(port, p.outPorts); err != nil {
		return err
	}
	port.direction = Out
	p.outPorts = append(p.outPorts, port)
	return nil
}

func (p *Profile) checkNew(port *Port, existing []*Port) error {
	if p.frozen {
		return errs.ErrRegistrationClosed
	}
	if port == nil || port.name == "" {
		return fmt.Errorf("%w: empty name", errs.ErrInvalidPort)
	}
	// One byte of the profile reply carries the type code.
	if len(port.name) > protocol.MaxCapacity-protocol.HeaderSize-1 {
		return fmt.Errorf("%w: name %q too long", errs.ErrInvalidPort, port.name)
	}
	if len(existing) >= maxPorts {
		return fmt.Errorf("%w: too many ports", errs.ErrInvalidPort)
	}
	for _, q := range existing {
		if q.name == port.name {
			return fmt.Errorf("%w: duplicate name %q", errs.ErrInvalidPort, port.name)
		}
	}
	return nil
}

// Freeze closes registration. It is idempotent.
func (p *Profile) Freeze() { p.frozen = true }

// Frozen reports whether registration is closed.
func (p *Profile) Frozen() bool { return p.frozen }

// InPort returns the input port at index i.
func (p *Profile) InPort(i int) (*Port, error) {
	if i < 0 || i >= len(p.inPorts) {
		return nil, errs.WrapRouting(
			fmt.Errorf("%w: in port %d of %d", errs.ErrNoSuchPort, i, len(p.inPorts)),
			"Profile", "InPort")
	}
	return p.inPorts[i], nil
}

// OutPort returns the output port at index i.
func (p *Profile) OutPort(i int) (*Port, error) {
	if i < 0 || i >= len(p.outPorts) {
		return nil, errs.WrapRouting(
			fmt.Errorf("%w: out port %d of %d", errs.ErrNoSuchPort, i, len(p.outPorts)),
			"Profile", "OutPort")
	}
	return p.outPorts[i], nil
}

// InPortByName returns the index and the input port declared as name. It is
// a lookup on the local declaration table used while wiring an application;
// ports of a remote component are addressed by index on the wire.
func (p *Profile) InPortByName(name []byte) (int, *Port, bool) {
	return byName(p.inPorts, name)
}

// OutPortByName is the output side of InPortByName.
func (p *Profile) OutPortByName(name []byte) (int, *Port, bool) {
	return byName(p.outPorts, name)
}

func byName(ports []*Port, name []byte) (int, *Port, bool) {
	for i, port := range ports {
		if port.name == string(name) {
			return i, port, true
		}
	}
	return -1, nil, false
}

// NumInPorts returns the number of input ports.
func (p *Profile) NumInPorts() int { return len(p.inPorts) }

// NumOutPorts returns the number of output ports.
func (p *Profile) NumOutPorts() int { return len(p.outPorts) }
