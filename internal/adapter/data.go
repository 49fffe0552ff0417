package adapter

import (
	"github.com/1ureka/rtno/internal/profile"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/util"
)

// data appends a port-data payload to its target input port when the sender
// is a registered connection of that port. Anything else is dropped.
func (a *Adapter) data() {
	if a.rx.Interface() != protocol.PortData {
		util.LogDebug("[adapter] dropped %s on data plane", a.rx.Interface())
		util.Stats.AddDropped()
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	port, err := a.profile.InPort(int(a.rx.TargetPortIndex()))
	if err != nil {
		util.LogDebug("[adapter] dropped data: %v", err)
		util.Stats.AddDropped()
		return
	}
	if _, ok := port.Connections().Search(a.rx.Address(), a.rx.SourcePortIndex()); !ok {
		util.LogDebug("[adapter] dropped data for %s from unconnected %s:%d",
			port.Name(), a.rx.Address(), a.rx.SourcePortIndex())
		util.Stats.AddDropped()
		return
	}
	if err := port.Write(a.rx.Data()); err != nil {
		util.LogWarning("[adapter] %s: %v", port.Name(), err)
		util.Stats.AddDropped()
		return
	}
	if util.DebugEnabled() {
		util.LogDebug("[adapter] %s <- %s:%d % x",
			port.Name(), a.rx.Address(), a.rx.SourcePortIndex(), a.rx.Data())
	}
}

// flush drains at most one item from every output port.
func (a *Adapter) flush() {
	for i := 0; i < a.profile.NumOutPorts(); i++ {
		a.flushPort(i)
	}
}

func (a *Adapter) flushPort(i int) {
	n, conns, ok := a.takeOutput(i)
	if !ok {
		return
	}
	util.Stats.AddFlushed()

	for _, c := range conns {
		if err := a.build(protocol.PortData, uint8(i), c.Port, a.item[:n]); err != nil {
			util.LogWarning("[adapter] out port %d: %v", i, err)
			return
		}
		a.send(c.Address)
	}
}

// takeOutput pops the head item of output port i into a.item and snapshots
// its connections. The item is consumed even when nothing is connected.
func (a *Adapter) takeOutput(i int) (int, []profile.Connection, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	port, err := a.profile.OutPort(i)
	if err != nil || !port.IsNew() {
		return 0, nil, false
	}

	n, err := port.Read(a.item)
	if err != nil {
		util.LogWarning("[adapter] %s: %v", port.Name(), err)
		return 0, nil, false
	}

	a.conns = a.conns[:0]
	for j := 0; j < port.Connections().Size(); j++ {
		a.conns = append(a.conns, port.Connections().Item(j))
	}
	return n, a.conns, true
}
