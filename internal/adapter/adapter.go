// Package adapter runs the dispatch loop of a component. Given a Transport,
// it receives one packet per tick, routes it to the control plane or to an
// input port, and flushes pending output port data to every connected
// remote endpoint.
package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/1ureka/rtno/internal/ec"
	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/lifecycle"
	"github.com/1ureka/rtno/internal/profile"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/transport"
	"github.com/1ureka/rtno/internal/util"
)

// Options configures an Adapter.
type Options struct {
	// Address is the source address stamped on every packet sent.
	Address protocol.Address
	// PacketCapacity sizes the packet buffers; 0 selects
	// protocol.DefaultCapacity.
	PacketCapacity int
	// Context drives periodic execution; nil selects ProxySynchronous.
	Context *ec.Context
}

// Adapter owns the component state: its profile, its lifecycle machine and
// its execution context. Everything the dispatch loop shares with the
// execution context or the application is taken under one guard.
type Adapter struct {
	address protocol.Address
	tr      transport.Transport
	ec      *ec.Context

	mu      sync.Mutex // guards profile FIFOs, connection lists and machine
	profile *profile.Profile
	machine *lifecycle.Machine

	// Used by the dispatch goroutine only.
	raw        []byte
	rx         *protocol.Buffer
	tx         *protocol.Buffer
	item       []byte
	conns      []profile.Connection
	lastSender protocol.Address
}

// New creates an adapter in the registration phase. Ports are added with
// AddInPort and AddOutPort before Initialize or Run.
func New(tr transport.Transport, cb lifecycle.Callbacks, opts Options) *Adapter {
	capacity := opts.PacketCapacity
	if capacity <= 0 {
		capacity = protocol.DefaultCapacity
	}
	ctx := opts.Context
	if ctx == nil {
		ctx, _ = ec.New(ec.ProxySynchronous, 0)
	}

	rx := protocol.NewBuffer(capacity)
	return &Adapter{
		address: opts.Address,
		tr:      tr,
		ec:      ctx,
		profile: profile.New(),
		machine: lifecycle.NewMachine(cb),
		raw:     make([]byte, rx.Capacity()),
		rx:      rx,
		tx:      protocol.NewBuffer(capacity),
	}
}

// AddInPort registers an input port. It fails once the adapter is initialized
// or when the port name does not fit a profile packet.
func (a *Adapter) AddInPort(p *profile.Port) error {
	if err := a.fits(p, false); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile.AddInPort(p)
}

// AddOutPort registers an output port. Besides the name, its item size must
// fit the payload of one data packet.
func (a *Adapter) AddOutPort(p *profile.Port) error {
	if err := a.fits(p, true); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile.AddOutPort(p)
}

// fits checks a port against the packet capacity: the profile packet carries
// [type code][name] and a data packet carries one output item.
func (a *Adapter) fits(p *profile.Port, output bool) error {
	if p == nil {
		return nil // rejected by the profile
	}
	payload := a.tx.MaxPayload()
	if len(p.Name())+1 > payload {
		return fmt.Errorf("%w: name %q exceeds %d bytes", errs.ErrInvalidPort, p.Name(), payload-1)
	}
	if output && p.Fifo().MaxItemSize() > payload {
		return fmt.Errorf("%w: item size %d of %s exceeds payload %d",
			errs.ErrInvalidPort, p.Fifo().MaxItemSize(), p.Name(), payload)
	}
	return nil
}

// Address returns the own address.
func (a *Adapter) Address() protocol.Address { return a.address }

// Context returns the execution context.
func (a *Adapter) Context() *ec.Context { return a.ec }

// State returns the lifecycle state.
func (a *Adapter) State() lifecycle.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.machine.State()
}

// Locked runs fn under the adapter guard. Application code that writes to
// output ports outside a lifecycle callback goes through it.
func (a *Adapter) Locked(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

// PortStat is a snapshot of one port.
type PortStat struct {
	Name        string
	Direction   profile.Direction
	Overflow    profile.OverflowPolicy
	Queued      int
	Drops       uint64
	Connections int
}

// PortStats snapshots every registered port, inputs first.
func (a *Adapter) PortStats() []PortStat {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := make([]PortStat, 0, a.profile.NumInPorts()+a.profile.NumOutPorts())
	add := func(p *profile.Port) {
		stats = append(stats, PortStat{
			Name:        p.Name(),
			Direction:   p.Direction(),
			Overflow:    p.Fifo().Policy(),
			Queued:      p.Fifo().Size(),
			Drops:       p.Fifo().Drops(),
			Connections: p.Connections().Size(),
		})
	}
	for i := 0; i < a.profile.NumInPorts(); i++ {
		p, _ := a.profile.InPort(i)
		add(p)
	}
	for i := 0; i < a.profile.NumOutPorts(); i++ {
		p, _ := a.profile.OutPort(i)
		add(p)
	}
	return stats
}

// Initialize closes port registration and runs OnInitialize. A failed
// initialization leaves the component in None; the adapter still answers
// status queries.
func (a *Adapter) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.profile.Freeze()

	maxItem, maxConns := 0, 0
	for i := 0; i < a.profile.NumOutPorts(); i++ {
		p, _ := a.profile.OutPort(i)
		maxItem = max(maxItem, p.Fifo().MaxItemSize())
		maxConns = max(maxConns, p.Connections().Capacity())
	}
	a.item = make([]byte, maxItem)
	a.conns = make([]profile.Connection, 0, maxConns)

	if err := a.machine.Initialize(); err != nil {
		util.LogError("[adapter] initialization failed: %v", err)
		return err
	}
	util.LogInfo("[adapter] %s ready: %d in ports, %d out ports, context %s",
		a.address, a.profile.NumInPorts(), a.profile.NumOutPorts(), a.ec.Kind())
	return nil
}

// ExecuteCycle runs one execution cycle under the guard. It implements
// ec.Executor.
func (a *Adapter) ExecuteCycle() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.machine.Execute()
}

// Run initializes the component if needed, starts the execution context and
// ticks until ctx is cancelled or the transport is closed.
func (a *Adapter) Run(ctx context.Context) error {
	if a.State() == lifecycle.Created {
		// Failure is logged and leaves the component in None.
		_ = a.Initialize()
	}
	if a.State() != lifecycle.None {
		a.ec.Start(ctx, a)
		defer a.ec.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := a.Tick(); err != nil {
			return fmt.Errorf("dispatch loop stopped: %w", err)
		}
	}
}

// Tick receives at most one packet, handles it and flushes one item from
// every output port that has data. Only a closed transport is returned as
// an error; every other failure is answered on the link.
func (a *Adapter) Tick() error {
	n, err := a.tr.Receive(a.raw)
	switch {
	case err != nil:
		if transport.Fatal(err) {
			return err
		}
		a.replyFault(err)
	case n > 0:
		a.handle(a.raw[:n])
	}

	a.flush()
	return nil
}

func (a *Adapter) handle(raw []byte) {
	if err := a.rx.Load(raw); err != nil {
		a.replyFault(err)
		return
	}
	a.lastSender = a.rx.Address()

	if a.rx.TargetPortIndex() == protocol.ControlPortIndex {
		a.control()
		return
	}
	a.data()
}

// send transmits the sealed tx buffer to addr.
func (a *Adapter) send(addr protocol.Address) {
	raw, err := a.tx.Bytes()
	if err == nil {
		err = a.tr.Send(addr, raw)
	}
	if err != nil {
		util.LogWarning("[adapter] send %s to %s failed: %v", a.tx.Interface(), addr, err)
	}
}

// build fills the tx buffer and seals it.
func (a *Adapter) build(code protocol.Interface, src, dst uint8, payload ...[]byte) error {
	a.tx.Clear()
	if err := a.tx.SetInterface(code); err != nil {
		return err
	}
	if err := a.tx.SetAddress(a.address); err != nil {
		return err
	}
	if err := a.tx.SetSourcePortIndex(src); err != nil {
		return err
	}
	if err := a.tx.SetTargetPortIndex(dst); err != nil {
		return err
	}
	for _, p := range payload {
		if err := a.tx.Push(p); err != nil {
			return err
		}
	}
	return a.tx.Seal()
}
