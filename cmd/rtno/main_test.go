package main

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/rtno/internal/config"
	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/profile"
)

func long(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func TestFlagsOverrideConfig(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--link", "tcp", "--listen", "127.0.0.1:0", "--context", "timer1", "--rate", "5", "-a", "DEV1",
	}))

	opts := &options{}
	// Read back through the flag set the command registered.
	opts.link, _ = cmd.Flags().GetString("link")
	opts.listen, _ = cmd.Flags().GetString("listen")
	opts.context, _ = cmd.Flags().GetString("context")
	opts.rate, _ = cmd.Flags().GetFloat64("rate")
	opts.address, _ = cmd.Flags().GetString("address")

	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, config.LinkTCP, cfg.Link.Type)
	assert.Equal(t, "127.0.0.1:0", cfg.Link.TCP.Listen)
	assert.Equal(t, "timer1", cfg.Context.Type)
	assert.Equal(t, 5.0, cfg.Context.Rate)
	assert.Equal(t, "DEV1", cfg.Address)
	assert.Equal(t, 19200, cfg.Link.Serial.Baud)
}

func TestInvalidFlagIsRejected(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--link", "tcp"}))
	opts := &options{link: "tcp", context: "interrupt"}
	require.NoError(t, cmd.Flags().Set("context", "interrupt"))

	_, err := loadConfig(cmd, opts)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestGainScalesInput(t *testing.T) {
	g := newGain(3, profile.DefaultPortOptions())
	require.NoError(t, g.in.Write(long(7)))
	require.NoError(t, g.in.Write(long(-2)))
	require.NoError(t, g.OnExecute())

	buf := make([]byte, 8)
	for _, want := range []int32{21, -6} {
		n, err := g.out.Read(buf)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		assert.Equal(t, want, int32(binary.LittleEndian.Uint32(buf)))
	}
	assert.False(t, g.out.IsNew())
}

func TestGainRejectsShortItem(t *testing.T) {
	g := newGain(2, profile.DefaultPortOptions())
	require.NoError(t, g.in.Write([]byte{1, 2}))
	require.NoError(t, g.in.Write(long(1)))

	assert.Error(t, g.OnExecute())
	require.NoError(t, g.OnError())
	assert.False(t, g.in.IsNew())
	require.NoError(t, g.OnReset())
}
