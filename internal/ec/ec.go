// Package ec drives the periodic execution of a component.
//
// With ProxySynchronous the host sends Execute packets and nothing runs
// here. The timer kinds call Executor.ExecuteCycle from their own goroutine
// at the configured rate.
package ec

import (
	"context"
	"fmt"
	"sync"
	"time"

	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/util"
)

// Kind is the execution context type. Its value is the byte sent in a
// GetContext reply.
type Kind uint8

const (
	ProxySynchronous Kind = 0x21
	// Timer1 fires at a fixed rate; slow cycles cause missed ticks.
	Timer1 Kind = 0x22
	// Timer2 waits one period after each cycle completes.
	Timer2 Kind = 0x23
)

func (k Kind) String() string {
	switch k {
	case ProxySynchronous:
		return "proxy"
	case Timer1:
		return "timer1"
	case Timer2:
		return "timer2"
	default:
		return fmt.Sprintf("Kind(0x%02x)", uint8(k))
	}
}

// ParseKind parses the config name of a kind. An empty string selects
// ProxySynchronous.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "proxy":
		return ProxySynchronous, nil
	case "timer1":
		return Timer1, nil
	case "timer2":
		return Timer2, nil
	default:
		return 0, fmt.Errorf("%w: execution context %q", errs.ErrInvalidConfig, s)
	}
}

// Executor runs one execution cycle.
type Executor interface {
	ExecuteCycle() error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func() error

func (f ExecutorFunc) ExecuteCycle() error { return f() }

// Context is an execution context of a given kind and rate.
type Context struct {
	kind   Kind
	period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	cycles uint64
}

// New creates an execution context. rate is in Hz and ignored for
// ProxySynchronous.
func New(kind Kind, rate float64) (*Context, error) {
	c := &Context{kind: kind}
	switch kind {
	case ProxySynchronous:
	case Timer1, Timer2:
		if rate <= 0 {
			return nil, fmt.Errorf("%w: rate %v Hz", errs.ErrInvalidConfig, rate)
		}
		c.period = time.Duration(float64(time.Second) / rate)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidConfig, kind)
	}
	return c, nil
}

// Kind returns the context kind.
func (c *Context) Kind() Kind { return c.kind }

// Period returns the cycle period, zero for ProxySynchronous.
func (c *Context) Period() time.Duration { return c.period }

// Periodic reports whether the context runs cycles on its own.
func (c *Context) Periodic() bool { return c.kind != ProxySynchronous }

// Cycles returns how many cycles have run.
func (c *Context) Cycles() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

// Start launches the cycle goroutine. It is a no-op for ProxySynchronous
// and when already started. The goroutine stops when ctx is cancelled or
// Stop is called.
func (c *Context) Start(ctx context.Context, exec Executor) {
	if !c.Periodic() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	util.LogInfo("[ec] %s started, period %v", c.kind, c.period)
	go c.loop(ctx, exec, c.done)
}

// Stop cancels the cycle goroutine and waits for it to return.
func (c *Context) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	util.LogInfo("[ec] %s stopped", c.kind)
}

func (c *Context) loop(ctx context.Context, exec Executor, done chan struct{}) {
	defer close(done)

	if c.kind == Timer1 {
		ticker := time.NewTicker(c.period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.cycle(exec)
			case <-ctx.Done():
				return
			}
		}
	}

	timer := time.NewTimer(c.period)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			c.cycle(exec)
			timer.Reset(c.period)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Context) cycle(exec Executor) {
	c.mu.Lock()
	c.cycles++
	c.mu.Unlock()

	// Wrong-state errors are expected while Inactive.
	if err := exec.ExecuteCycle(); err != nil && !errs.Is(err, errs.ProtocolViolation) {
		util.LogWarning("[ec] cycle failed: %v", err)
	}
}
