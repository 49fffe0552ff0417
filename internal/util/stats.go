package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// Stats is the process-wide packet counter.
var Stats = &stats{}

type stats struct {
	PacketsRecv atomic.Int64 // packets decoded from the link
	PacketsSent atomic.Int64 // packets handed to the link
	BytesRecv   atomic.Int64
	BytesSent   atomic.Int64
	Faults      atomic.Int64 // timeouts, checksum and oversize frames
	Dropped     atomic.Int64 // data from unregistered senders, FIFO overflow
	Flushed     atomic.Int64 // output items drained from port FIFOs
}

func (s *stats) AddRecv(n int) {
	s.PacketsRecv.Add(1)
	s.BytesRecv.Add(int64(n))
}

func (s *stats) AddSent(n int) {
	s.PacketsSent.Add(1)
	s.BytesSent.Add(int64(n))
}

func (s *stats) AddFault()   { s.Faults.Add(1) }
func (s *stats) AddDropped() { s.Dropped.Add(1) }
func (s *stats) AddFlushed() { s.Flushed.Add(1) }

// Reset zeroes every counter.
func (s *stats) Reset() {
	s.PacketsRecv.Store(0)
	s.PacketsSent.Store(0)
	s.BytesRecv.Store(0)
	s.BytesSent.Store(0)
	s.Faults.Store(0)
	s.Dropped.Store(0)
	s.Flushed.Store(0)
}

// StartStatsReporter launches a goroutine that logs link statistics every
// interval while there is traffic. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		secs := interval.Seconds()
		var prevSent, prevRecv, prevPkts, prevFaults int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.BytesSent.Load()
				recv := Stats.BytesRecv.Load()
				pkts := Stats.PacketsRecv.Load() + Stats.PacketsSent.Load()
				faults := Stats.Faults.Load()

				if pkts != prevPkts || faults != prevFaults {
					pterm.DefaultLogger.Info(formatStats(
						float64(recv-prevRecv)/secs,
						float64(sent-prevSent)/secs,
						pkts-prevPkts,
						faults-prevFaults,
					))
				}

				prevSent = sent
				prevRecv = recv
				prevPkts = pkts
				prevFaults = faults

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a fixed width string (8 chars),
// e.g. "99.0   B", " 1.5 KiB".
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < len(byteUnits)-1 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

func formatStats(inS, outS float64, pkts, faults int64) string {
	return fmt.Sprintf("In: %s/s | Out: %s/s | Packets: %4d | Faults: %2d",
		formatBytes(inS),
		formatBytes(outS),
		pkts,
		faults,
	)
}
