package lifecycle

import (
	"fmt"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/util"
)

// Machine validates control operations against the current state and runs
// the matching callback. It does no locking; the adapter guard serializes
// every call.
type Machine struct {
	state State
	cb    Callbacks
}

// NewMachine returns a machine in Created. A nil cb behaves like Funcs{}.
func NewMachine(cb Callbacks) *Machine {
	if cb == nil {
		cb = Funcs{}
	}
	return &Machine{state: Created, cb: cb}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Initialize runs OnInitialize and leaves Created for Inactive, or None when
// the callback fails.
func (m *Machine) Initialize() error {
	if m.state != Created {
		return m.wrongState("Initialize")
	}
	if err := m.cb.OnInitialize(); err != nil {
		m.set(None)
		return errs.WrapCallback(err, "Machine", "Initialize")
	}
	m.set(Inactive)
	return nil
}

// Do applies op. Illegal (state, op) pairs return ErrWrongState without
// running a callback or changing state. A failing callback moves the
// machine to Error and its error is returned.
func (m *Machine) Do(op Op) error {
	switch {
	case op == OpActivate && m.state == Inactive:
		return m.run(op, m.cb.OnActivated, Active)
	case op == OpDeactivate && m.state == Active:
		m.cb.OnDeactivated()
		m.set(Inactive)
		return nil
	case op == OpExecute && m.state == Active:
		return m.run(op, m.cb.OnExecute, Active)
	case op == OpExecute && m.state == Error:
		return m.run(op, m.cb.OnError, Error)
	case op == OpReset && m.state == Error:
		return m.run(op, m.cb.OnReset, Inactive)
	}
	return m.wrongState(op.String())
}

func (m *Machine) Activate() error   { return m.Do(OpActivate) }
func (m *Machine) Deactivate() error { return m.Do(OpDeactivate) }
func (m *Machine) Execute() error    { return m.Do(OpExecute) }
func (m *Machine) Reset() error      { return m.Do(OpReset) }

func (m *Machine) run(op Op, f func() error, next State) error {
	if err := f(); err != nil {
		m.set(Error)
		return errs.WrapCallback(err, "Machine", op.String())
	}
	m.set(next)
	return nil
}

func (m *Machine) set(s State) {
	if s != m.state {
		util.LogInfo("[lifecycle] %s -> %s", m.state, s)
	}
	m.state = s
}

func (m *Machine) wrongState(op string) error {
	return errs.WrapProtocol(
		fmt.Errorf("%w: %s in %s", errs.ErrWrongState, op, m.state),
		"Machine", op)
}
