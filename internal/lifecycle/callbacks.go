package lifecycle

// Callbacks is implemented by the application that owns the ports.
//
//go:generate go run go.uber.org/mock/mockgen -destination mock_callbacks_test.go -package $GOPACKAGE -write_package_comment=false github.com/1ureka/rtno/internal/lifecycle Callbacks
type Callbacks interface {
	// OnInitialize runs once before the dispatch loop starts.
	OnInitialize() error
	OnActivated() error
	OnDeactivated()
	// OnExecute runs once per execution cycle while Active.
	OnExecute() error
	// OnError runs once per execution cycle while in Error.
	OnError() error
	OnReset() error
}

// Funcs adapts plain functions to Callbacks. A nil function succeeds.
type Funcs struct {
	Initialize  func() error
	Activated   func() error
	Deactivated func()
	Execute     func() error
	Error       func() error
	Reset       func() error
}

var _ Callbacks = Funcs{}

func call(f func() error) error {
	if f == nil {
		return nil
	}
	return f()
}

func (f Funcs) OnInitialize() error { return call(f.Initialize) }
func (f Funcs) OnActivated() error  { return call(f.Activated) }
func (f Funcs) OnExecute() error    { return call(f.Execute) }
func (f Funcs) OnError() error      { return call(f.Error) }
func (f Funcs) OnReset() error      { return call(f.Reset) }

func (f Funcs) OnDeactivated() {
	if f.Deactivated != nil {
		f.Deactivated()
	}
}
