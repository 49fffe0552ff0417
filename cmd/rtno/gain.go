package main

import (
	"encoding/binary"
	"fmt"

	"github.com/1ureka/rtno/internal/lifecycle"
	"github.com/1ureka/rtno/internal/profile"
	"github.com/1ureka/rtno/internal/util"
)

// gain is the demo component: every TimedLong read from "in" is multiplied
// by a constant and written to "out". An item that is not a 4-byte long
// puts the component in Error until the host resets it.
type gain struct {
	factor int32
	in     *profile.Port
	out    *profile.Port
	item   []byte
}

var _ lifecycle.Callbacks = (*gain)(nil)

func newGain(factor int32, opts profile.PortOptions) *gain {
	return &gain{
		factor: factor,
		in:     profile.NewPort("in", profile.TypeLong, opts),
		out:    profile.NewPort("out", profile.TypeLong, opts),
		item:   make([]byte, opts.MaxItemSize),
	}
}

func (g *gain) OnInitialize() error {
	util.LogInfo("[gain] factor %d", g.factor)
	return nil
}

func (g *gain) OnActivated() error { return nil }
func (g *gain) OnDeactivated()     {}

func (g *gain) OnExecute() error {
	for g.in.IsNew() {
		n, err := g.in.Read(g.item)
		if err != nil {
			return err
		}
		if n != 4 {
			return fmt.Errorf("in: expected a 4 byte long, got %d bytes", n)
		}
		v := int32(binary.LittleEndian.Uint32(g.item[:4])) * g.factor
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		if err := g.out.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// OnError discards input until the host resets the component.
func (g *gain) OnError() error {
	g.in.Fifo().Clear()
	return nil
}

func (g *gain) OnReset() error {
	g.in.Fifo().Clear()
	g.out.Fifo().Clear()
	return nil
}
