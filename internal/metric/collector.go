// Package metric exports link counters, lifecycle state and port queues in
// the Prometheus text format.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/1ureka/rtno/internal/adapter"
	"github.com/1ureka/rtno/internal/lifecycle"
	"github.com/1ureka/rtno/internal/util"
)

const namespace = "rtno"

// Source is the component being observed. *adapter.Adapter implements it.
type Source interface {
	State() lifecycle.State
	PortStats() []adapter.PortStat
}

// Collector reads util.Stats and the Source on every scrape.
type Collector struct {
	src Source

	packets *prometheus.Desc
	bytes   *prometheus.Desc
	faults  *prometheus.Desc
	dropped *prometheus.Desc
	flushed *prometheus.Desc
	state   *prometheus.Desc

	queued      *prometheus.Desc
	portDrops   *prometheus.Desc
	connections *prometheus.Desc
}

func NewCollector(src Source) *Collector {
	portLabels := []string{"port", "direction"}
	return &Collector{
		src: src,
		packets: prometheus.NewDesc(prometheus.BuildFQName(namespace, "link", "packets_total"),
			"Packets carried by the link.", []string{"direction"}, nil),
		bytes: prometheus.NewDesc(prometheus.BuildFQName(namespace, "link", "bytes_total"),
			"Packet bytes carried by the link.", []string{"direction"}, nil),
		faults: prometheus.NewDesc(prometheus.BuildFQName(namespace, "link", "faults_total"),
			"Receive faults and undecodable packets.", nil, nil),
		dropped: prometheus.NewDesc(prometheus.BuildFQName(namespace, "dispatch", "dropped_total"),
			"Port data that was not delivered.", nil, nil),
		flushed: prometheus.NewDesc(prometheus.BuildFQName(namespace, "dispatch", "flushed_total"),
			"Output items drained from port FIFOs.", nil, nil),
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, "component", "state"),
			"Lifecycle state; 1 for the current one.", []string{"state"}, nil),
		queued: prometheus.NewDesc(prometheus.BuildFQName(namespace, "port", "queued"),
			"Items waiting in the port FIFO.", portLabels, nil),
		portDrops: prometheus.NewDesc(prometheus.BuildFQName(namespace, "port", "overflow_total"),
			"Items lost to FIFO overflow.", append(portLabels, "policy"), nil),
		connections: prometheus.NewDesc(prometheus.BuildFQName(namespace, "port", "connections"),
			"Registered connections of the port.", portLabels, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.packets
	ch <- c.bytes
	ch <- c.faults
	ch <- c.dropped
	ch <- c.flushed
	ch <- c.state
	ch <- c.queued
	ch <- c.portDrops
	ch <- c.connections
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := util.Stats
	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	counter(c.packets, s.PacketsRecv.Load(), "recv")
	counter(c.packets, s.PacketsSent.Load(), "sent")
	counter(c.bytes, s.BytesRecv.Load(), "recv")
	counter(c.bytes, s.BytesSent.Load(), "sent")
	counter(c.faults, s.Faults.Load())
	counter(c.dropped, s.Dropped.Load())
	counter(c.flushed, s.Flushed.Load())

	current := c.src.State()
	for _, st := range lifecycle.States {
		v := 0.0
		if st == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, st.String())
	}

	for _, p := range c.src.PortStats() {
		dir := p.Direction.String()
		ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(p.Queued), p.Name, dir)
		ch <- prometheus.MustNewConstMetric(c.portDrops, prometheus.CounterValue, float64(p.Drops), p.Name, dir,
			p.Overflow.String())
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(p.Connections), p.Name, dir)
	}
}

// NewRegistry returns a registry holding a Collector for src and the Go
// runtime collectors.
func NewRegistry(src Source) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
