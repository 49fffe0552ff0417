package util

import (
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"

	"github.com/1ureka/rtno/internal/protocol"
)

func TestAddressFromName(t *testing.T) {
	assert.Equal(t, protocol.AddressFromString("UART"), AddressFromName("UART"))
	assert.Equal(t, AddressFromName("workstation-7"), AddressFromName("workstation-7"))
	assert.NotEqual(t, AddressFromName("workstation-7"), AddressFromName("workstation-8"))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "99.0   B", formatBytes(99))
	assert.Equal(t, " 1.5 KiB", formatBytes(1536))
	assert.Len(t, formatBytes(5e9), 8)
}

func TestStatsCounters(t *testing.T) {
	Stats.Reset()
	defer Stats.Reset()

	Stats.AddRecv(10)
	Stats.AddSent(12)
	Stats.AddSent(3)
	Stats.AddFault()

	assert.EqualValues(t, 1, Stats.PacketsRecv.Load())
	assert.EqualValues(t, 2, Stats.PacketsSent.Load())
	assert.EqualValues(t, 15, Stats.BytesSent.Load())
	assert.EqualValues(t, 1, Stats.Faults.Load())
}

func TestDebugLevel(t *testing.T) {
	saved := pterm.DefaultLogger.Level
	defer func() { pterm.DefaultLogger.Level = saved }()

	pterm.DefaultLogger.Level = pterm.LogLevelInfo
	assert.False(t, DebugEnabled())
	EnableDebug()
	assert.True(t, DebugEnabled())
	Quiet()
	assert.False(t, DebugEnabled())
}
