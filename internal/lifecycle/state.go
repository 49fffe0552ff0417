// Package lifecycle tracks the component state and runs the application
// callbacks that move it between states.
package lifecycle

import "fmt"

// State is the component state. Its value is the byte sent in a status reply.
type State uint8

const (
	Created  State = 'C'
	Inactive State = 'I'
	Active   State = 'A'
	Error    State = 'E'
	// None is entered when initialization fails. Nothing leaves it.
	None State = 'N'
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Inactive:
		return "Inactive"
	case Active:
		return "Active"
	case Error:
		return "Error"
	case None:
		return "None"
	default:
		return fmt.Sprintf("State(0x%02x)", uint8(s))
	}
}

// Op is a control operation that may change the state.
type Op uint8

const (
	OpActivate Op = iota
	OpDeactivate
	OpExecute
	OpReset
)

// Ops lists every state-changing operation.
var Ops = []Op{OpActivate, OpDeactivate, OpExecute, OpReset}

// States lists every state.
var States = []State{Created, Inactive, Active, Error, None}

func (o Op) String() string {
	switch o {
	case OpActivate:
		return "Activate"
	case OpDeactivate:
		return "Deactivate"
	case OpExecute:
		return "Execute"
	case OpReset:
		return "Reset"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}
