package adapter

import (
	"fmt"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/lifecycle"
	"github.com/1ureka/rtno/internal/profile"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/transport"
	"github.com/1ureka/rtno/internal/util"
)

// connectPayloadSize is [local port][remote address][remote port].
const connectPayloadSize = 1 + protocol.AddressSize + 1

var lifecycleOps = map[protocol.Interface]lifecycle.Op{
	protocol.Activate:   lifecycle.OpActivate,
	protocol.Deactivate: lifecycle.OpDeactivate,
	protocol.Execute:    lifecycle.OpExecute,
	protocol.Reset:      lifecycle.OpReset,
}

// control handles a packet addressed to the control plane and answers it
// with [code][result].
func (a *Adapter) control() {
	code := a.rx.Interface()
	util.LogDebug("[adapter] %s from %s", code, a.lastSender)

	var result uint8
	switch code {
	case protocol.ConnectInPort, protocol.ConnectOutPort,
		protocol.DisconnectInPort, protocol.DisconnectOutPort:
		result = a.connection(code)

	case protocol.GetProfile:
		result = protocol.ResultOK
		if err := a.sendProfile(); err != nil {
			util.LogWarning("[adapter] profile incomplete: %v", err)
			result = protocol.ResultError
		}

	case protocol.GetStatus:
		result = uint8(a.State())

	case protocol.GetContext:
		result = uint8(a.ec.Kind())

	case protocol.Activate, protocol.Deactivate, protocol.Execute, protocol.Reset:
		result = a.transition(lifecycleOps[code])

	default:
		util.LogDebug("[adapter] unknown interface 0x%02x", uint8(code))
		result = uint8(code)
		code = protocol.UnknownInterface
	}

	a.reply(code, result)
}

func (a *Adapter) transition(op lifecycle.Op) uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.machine.Do(op); err != nil {
		if errs.Is(err, errs.CallbackFailure) {
			util.LogWarning("[adapter] %v", err)
		} else {
			util.LogDebug("[adapter] %v", err)
		}
		return protocol.ResultError
	}
	return protocol.ResultOK
}

// connection adds or removes a connection on the port named by the payload.
func (a *Adapter) connection(code protocol.Interface) uint8 {
	data := a.rx.Data()
	if len(data) < connectPayloadSize {
		util.LogWarning("[adapter] %s: payload of %d bytes", code, len(data))
		return protocol.ResultError
	}
	index := int(data[0])
	var remote protocol.Address
	copy(remote[:], data[1:1+protocol.AddressSize])
	remotePort := data[1+protocol.AddressSize]

	a.mu.Lock()
	defer a.mu.Unlock()

	var port *profile.Port
	var err error
	if code == protocol.ConnectInPort || code == protocol.DisconnectInPort {
		port, err = a.profile.InPort(index)
	} else {
		port, err = a.profile.OutPort(index)
	}
	if err != nil {
		util.LogWarning("[adapter] %s: %v", code, err)
		return protocol.ResultError
	}

	switch code {
	case protocol.ConnectInPort, protocol.ConnectOutPort:
		if err := port.Connections().Add(remote, remotePort); err != nil {
			util.LogWarning("[adapter] %s %s: %v", code, port.Name(), err)
			return protocol.ResultError
		}
		util.LogInfo("[adapter] %s %s <-> %s:%d", code, port.Name(), remote, remotePort)
	default:
		port.Connections().Remove(profile.Connection{Address: remote, Port: remotePort})
		util.LogInfo("[adapter] %s %s -/- %s:%d", code, port.Name(), remote, remotePort)
	}
	return protocol.ResultOK
}

// sendProfile sends one packet per declared port. Ports are immutable once
// registration is closed, so no guard is needed. Every port is attempted;
// the first failure is returned.
func (a *Adapter) sendProfile() error {
	var first error
	keep := func(err error) {
		if first == nil {
			first = err
		}
	}
	for i := 0; i < a.profile.NumInPorts(); i++ {
		p, _ := a.profile.InPort(i)
		keep(a.sendPortProfile(protocol.ProfileInPort, p))
	}
	for i := 0; i < a.profile.NumOutPorts(); i++ {
		p, _ := a.profile.OutPort(i)
		keep(a.sendPortProfile(protocol.ProfileOutPort, p))
	}
	return first
}

func (a *Adapter) sendPortProfile(code protocol.Interface, p *profile.Port) error {
	err := a.build(code, protocol.ControlPortIndex, protocol.ControlPortIndex,
		[]byte{byte(p.TypeCode())}, []byte(p.Name()))
	if err != nil {
		return errs.WrapCapacity(fmt.Errorf("profile of %s: %w", p.Name(), err), "Adapter", "GetProfile")
	}
	raw, err := a.tx.Bytes()
	if err == nil {
		err = a.tr.Send(a.lastSender, raw)
	}
	return err
}

// reply answers the last sender with [code][result].
func (a *Adapter) reply(code protocol.Interface, result uint8) {
	err := a.build(code, protocol.ControlPortIndex, protocol.ControlPortIndex, []byte{result})
	if err != nil {
		util.LogWarning("[adapter] reply %s: %v", code, err)
		return
	}
	a.send(a.lastSender)
}

// replyFault reports a receive or decode failure to the last known sender.
func (a *Adapter) replyFault(err error) {
	code := transport.Code(err)
	util.Stats.AddFault()
	util.LogWarning("[adapter] receive fault %d: %v", code, err)
	a.reply(protocol.PacketError, uint8(code))
}
