// Package host drives a component from the controlling side of a link.
package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/1ureka/rtno/internal/ec"
	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/lifecycle"
	"github.com/1ureka/rtno/internal/profile"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/transport"
)

// ErrRejected is returned when the device answers a request with ERROR.
var ErrRejected = errors.New("device rejected the request")

// FaultError is a packet-error reply: the device failed to receive the
// previous packet.
type FaultError struct {
	Code int8
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("device reported receive fault %d", e.Code)
}

// PortInfo describes one declared port.
type PortInfo struct {
	Name string
	Type profile.TypeCode
}

// Profile is the declared port set of a device.
type Profile struct {
	In  []PortInfo
	Out []PortInfo
}

// Client sends requests over a Transport and waits for their replies.
// Data packets that arrive meanwhile are kept for Read. A Client is not safe
// for concurrent use.
type Client struct {
	tr      transport.Transport
	address protocol.Address
	device  protocol.Address
	timeout time.Duration

	buf     []byte
	pending []*protocol.Packet
}

// NewClient creates a client that stamps address on its packets and gives
// up on a reply after timeout.
func NewClient(tr transport.Transport, address protocol.Address, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Client{
		tr:      tr,
		address: address,
		timeout: timeout,
		buf:     make([]byte, protocol.MaxCapacity),
	}
}

// Address returns the client's own address.
func (c *Client) Address() protocol.Address { return c.address }

// Device returns the address the device last replied from.
func (c *Client) Device() protocol.Address { return c.device }

// Close closes the transport.
func (c *Client) Close() error { return c.tr.Close() }

// Status returns the device lifecycle state.
func (c *Client) Status(ctx context.Context) (lifecycle.State, error) {
	b, err := c.query(ctx, protocol.GetStatus)
	return lifecycle.State(b), err
}

// Context returns the device execution context kind.
func (c *Client) Context(ctx context.Context) (ec.Kind, error) {
	b, err := c.query(ctx, protocol.GetContext)
	return ec.Kind(b), err
}

func (c *Client) Activate(ctx context.Context) error   { return c.command(ctx, protocol.Activate) }
func (c *Client) Deactivate(ctx context.Context) error { return c.command(ctx, protocol.Deactivate) }
func (c *Client) Execute(ctx context.Context) error    { return c.command(ctx, protocol.Execute) }
func (c *Client) Reset(ctx context.Context) error      { return c.command(ctx, protocol.Reset) }

// ConnectInPort lets remote:remotePort feed input port local.
func (c *Client) ConnectInPort(ctx context.Context, local uint8, remote protocol.Address, remotePort uint8) error {
	return c.command(ctx, protocol.ConnectInPort, connectPayload(local, remote, remotePort)...)
}

// ConnectOutPort sends output port local to remote:remotePort.
func (c *Client) ConnectOutPort(ctx context.Context, local uint8, remote protocol.Address, remotePort uint8) error {
	return c.command(ctx, protocol.ConnectOutPort, connectPayload(local, remote, remotePort)...)
}

// DisconnectInPort removes remote:remotePort from input port local.
func (c *Client) DisconnectInPort(ctx context.Context, local uint8, remote protocol.Address, remotePort uint8) error {
	return c.command(ctx, protocol.DisconnectInPort, connectPayload(local, remote, remotePort)...)
}

// DisconnectOutPort removes remote:remotePort from output port local.
func (c *Client) DisconnectOutPort(ctx context.Context, local uint8, remote protocol.Address, remotePort uint8) error {
	return c.command(ctx, protocol.DisconnectOutPort, connectPayload(local, remote, remotePort)...)
}

func connectPayload(local uint8, remote protocol.Address, remotePort uint8) []byte {
	p := make([]byte, 0, 2+protocol.AddressSize)
	p = append(p, local)
	p = append(p, remote[:]...)
	return append(p, remotePort)
}

// Profile fetches the declared ports.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	prof := &Profile{}
	reply, err := c.request(ctx, protocol.GetProfile, nil, func(pkt *protocol.Packet) {
		if len(pkt.Payload) == 0 {
			return
		}
		info := PortInfo{Type: profile.TypeCode(pkt.Payload[0]), Name: string(pkt.Payload[1:])}
		if pkt.Interface == protocol.ProfileInPort {
			prof.In = append(prof.In, info)
		} else {
			prof.Out = append(prof.Out, info)
		}
	})
	if err != nil {
		return nil, err
	}
	if err := result(reply); err != nil {
		return nil, err
	}
	return prof, nil
}

// Write sends data to input port inPort as if produced by the client's
// port srcPort. The device keeps it only if that pair is connected.
func (c *Client) Write(inPort, srcPort uint8, data []byte) error {
	raw, err := protocol.Encode(&protocol.Packet{
		Interface:  protocol.PortData,
		Address:    c.address,
		SourcePort: srcPort,
		TargetPort: inPort,
		Payload:    data,
	})
	if err != nil {
		return err
	}
	return c.tr.Send(c.device, raw)
}

// Read waits for the next data packet addressed to the client.
func (c *Client) Read(ctx context.Context) (*protocol.Packet, error) {
	if len(c.pending) > 0 {
		pkt := c.pending[0]
		c.pending = c.pending[1:]
		return pkt, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	for {
		pkt, err := c.receive(ctx)
		if err != nil {
			return nil, err
		}
		if pkt.Interface == protocol.PortData {
			return pkt, nil
		}
	}
}

func (c *Client) query(ctx context.Context, code protocol.Interface) (uint8, error) {
	reply, err := c.request(ctx, code, nil, nil)
	if err != nil {
		return 0, err
	}
	if len(reply.Payload) != 1 {
		return 0, errs.WrapProtocol(errs.ErrMalformed, "Client", code.String())
	}
	return reply.Payload[0], nil
}

func (c *Client) command(ctx context.Context, code protocol.Interface, payload ...byte) error {
	reply, err := c.request(ctx, code, payload, nil)
	if err != nil {
		return err
	}
	return result(reply)
}

func result(reply *protocol.Packet) error {
	if len(reply.Payload) != 1 {
		return errs.WrapProtocol(errs.ErrMalformed, "Client", reply.Interface.String())
	}
	if reply.Payload[0] != protocol.ResultOK {
		return fmt.Errorf("%s: %w", reply.Interface, ErrRejected)
	}
	return nil
}

// request sends a control packet and waits for the reply carrying the same
// code. Profile packets go to onProfile; data packets are queued for Read.
func (c *Client) request(ctx context.Context, code protocol.Interface, payload []byte, onProfile func(*protocol.Packet)) (*protocol.Packet, error) {
	raw, err := protocol.Encode(&protocol.Packet{
		Interface:  code,
		Address:    c.address,
		SourcePort: protocol.ControlPortIndex,
		TargetPort: protocol.ControlPortIndex,
		Payload:    payload,
	})
	if err != nil {
		return nil, err
	}
	if err := c.tr.Send(c.device, raw); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	for {
		pkt, err := c.receive(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", code, err)
		}

		switch pkt.Interface {
		case code:
			return pkt, nil
		case protocol.UnknownInterface:
			return nil, errs.WrapProtocol(errs.ErrUnknownInterface, "Client", code.String())
		case protocol.PacketError:
			fault := &FaultError{Code: transport.CodeLink}
			if len(pkt.Payload) > 0 {
				fault.Code = int8(pkt.Payload[0])
			}
			return nil, fault
		case protocol.ProfileInPort, protocol.ProfileOutPort:
			if onProfile != nil {
				onProfile(pkt)
			}
		case protocol.PortData:
			c.pending = append(c.pending, pkt)
		}
	}
}

// receive polls the transport until a packet arrives or ctx is done.
func (c *Client) receive(ctx context.Context) (*protocol.Packet, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, errs.WrapTransport(errs.ErrTimeout, "Client", "Receive")
		default:
		}

		n, err := c.tr.Receive(c.buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}

		pkt, err := protocol.Decode(c.buf[:n])
		if err != nil {
			return nil, err
		}
		if pkt.IsControl() {
			c.device = pkt.Address
		}
		return pkt, nil
	}
}
