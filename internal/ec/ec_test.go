package ec

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/1ureka/rtno/internal/errors"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{"": ProxySynchronous, "proxy": ProxySynchronous, "timer1": Timer1, "timer2": Timer2}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseKind("interrupt")
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestNewRejectsBadRate(t *testing.T) {
	_, err := New(Timer1, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)

	c, err := New(ProxySynchronous, 0)
	require.NoError(t, err)
	assert.False(t, c.Periodic())
	assert.Zero(t, c.Period())
}

func TestTimerContextsRunCycles(t *testing.T) {
	for _, kind := range []Kind{Timer1, Timer2} {
		t.Run(kind.String(), func(t *testing.T) {
			c, err := New(kind, 1000)
			require.NoError(t, err)
			assert.Equal(t, time.Millisecond, c.Period())

			var n atomic.Int32
			c.Start(context.Background(), ExecutorFunc(func() error {
				n.Add(1)
				return nil
			}))

			assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
			c.Stop()

			stopped := n.Load()
			time.Sleep(10 * time.Millisecond)
			assert.Equal(t, stopped, n.Load())
			assert.EqualValues(t, stopped, c.Cycles())
		})
	}
}

func TestProxyContextDoesNotRun(t *testing.T) {
	c, err := New(ProxySynchronous, 0)
	require.NoError(t, err)

	c.Start(context.Background(), ExecutorFunc(func() error {
		t.Fatal("proxy context must not execute")
		return nil
	}))
	time.Sleep(5 * time.Millisecond)
	c.Stop()
	assert.Zero(t, c.Cycles())
}

func TestContextStopsWithParent(t *testing.T) {
	c, err := New(Timer2, 500)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	c.Start(ctx, ExecutorFunc(func() error {
		n.Add(1)
		return nil
	}))
	assert.Eventually(t, func() bool { return n.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	c.Stop()
}
