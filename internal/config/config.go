// Package config holds the device configuration: which link to serve, how
// the component executes and how its ports are sized.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1ureka/rtno/internal/ec"
	errs "github.com/1ureka/rtno/internal/errors"
	"github.com/1ureka/rtno/internal/profile"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/transport"
)

// LinkType selects the transport a device serves.
type LinkType string

const (
	LinkSerial    LinkType = "serial"
	LinkTCP       LinkType = "tcp"
	LinkWebSocket LinkType = "websocket"
	LinkWebRTC    LinkType = "webrtc"
)

// Config is the device configuration.
type Config struct {
	// Address is the own address: up to four ASCII characters ("UART") or
	// a dotted quad ("10.0.0.5").
	Address string        `yaml:"address"`
	Link    LinkConfig    `yaml:"link"`
	Context ContextConfig `yaml:"context"`
	Packet  PacketConfig  `yaml:"packet"`
	Ports   PortsConfig   `yaml:"ports"`
	Metrics MetricsConfig `yaml:"metrics"`
	Debug   bool          `yaml:"debug"`
}

type LinkConfig struct {
	Type         LinkType `yaml:"type"`
	PollTimeout  Duration `yaml:"poll_timeout"`
	FrameTimeout Duration `yaml:"frame_timeout"`
	Serial       struct {
		Device string `yaml:"device"`
		Baud   int    `yaml:"baud"`
	} `yaml:"serial"`
	TCP struct {
		Listen string `yaml:"listen"`
	} `yaml:"tcp"`
	WebSocket struct {
		Listen string `yaml:"listen"`
		Path   string `yaml:"path"`
	} `yaml:"websocket"`
	WebRTC struct {
		// Signaling is the listen address of the signaling server.
		Signaling string `yaml:"signaling"`
		// PIN is generated when empty.
		PIN string `yaml:"pin"`
		// STUN lists the ICE servers; empty means host candidates only.
		STUN []string `yaml:"stun"`
	} `yaml:"webrtc"`
}

type ContextConfig struct {
	Type string  `yaml:"type"` // proxy/timer1/timer2
	Rate float64 `yaml:"rate"` // Hz
}

type PacketConfig struct {
	Capacity int `yaml:"capacity"`
}

type PortsConfig struct {
	FifoCapacity   int    `yaml:"fifo_capacity"`
	MaxItemSize    int    `yaml:"max_item_size"`
	MaxConnections int    `yaml:"max_connections"`
	Overflow       string `yaml:"overflow"` // drop-oldest/drop-newest
}

type MetricsConfig struct {
	Listen        string   `yaml:"listen"`
	StatsInterval Duration `yaml:"stats_interval"`
}

// Duration is a time.Duration written as a string such as "20ms".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Default returns the configuration of a serial device named "UART" driven
// by its host.
func Default() *Config {
	cfg := &Config{Address: "UART"}
	cfg.Link.Type = LinkSerial
	cfg.Link.PollTimeout = Duration{20 * time.Millisecond}
	cfg.Link.FrameTimeout = Duration{200 * time.Millisecond}
	cfg.Link.Serial.Device = "/dev/ttyUSB0"
	cfg.Link.Serial.Baud = 19200
	cfg.Link.TCP.Listen = ":7300"
	cfg.Link.WebSocket.Listen = ":7301"
	cfg.Link.WebSocket.Path = "/rtno"
	cfg.Link.WebRTC.Signaling = ":7302"
	cfg.Link.WebRTC.STUN = transport.DefaultDataChannelOptions().STUNServers
	cfg.Context.Type = "proxy"
	cfg.Context.Rate = 10
	cfg.Packet.Capacity = protocol.DefaultCapacity

	opts := profile.DefaultPortOptions()
	cfg.Ports.FifoCapacity = opts.FifoCapacity
	cfg.Ports.MaxItemSize = opts.MaxItemSize
	cfg.Ports.MaxConnections = opts.MaxConnections
	cfg.Ports.Overflow = opts.Overflow.String()
	cfg.Metrics.StatsInterval = Duration{10 * time.Second}
	return cfg
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	if _, err := c.OwnAddress(); err != nil {
		return err
	}

	switch c.Link.Type {
	case LinkSerial:
		if c.Link.Serial.Device == "" || c.Link.Serial.Baud <= 0 {
			return invalid("serial link needs a device and a positive baud rate")
		}
	case LinkTCP:
		if c.Link.TCP.Listen == "" {
			return invalid("tcp link needs a listen address")
		}
	case LinkWebSocket:
		if c.Link.WebSocket.Listen == "" {
			return invalid("websocket link needs a listen address")
		}
	case LinkWebRTC:
	default:
		return invalid("unknown link type %q", c.Link.Type)
	}

	if c.Link.PollTimeout.Duration <= 0 || c.Link.FrameTimeout.Duration <= 0 {
		return invalid("link timeouts must be positive")
	}
	if c.Packet.Capacity <= protocol.HeaderSize || c.Packet.Capacity > protocol.MaxCapacity {
		return invalid("packet capacity must be in (%d, %d]", protocol.HeaderSize, protocol.MaxCapacity)
	}
	if c.Ports.FifoCapacity <= 0 || c.Ports.MaxItemSize <= 0 || c.Ports.MaxConnections <= 0 {
		return invalid("port sizes must be positive")
	}
	if c.Ports.MaxItemSize > c.Packet.Capacity-protocol.HeaderSize {
		return invalid("max item size %d does not fit a %d byte packet", c.Ports.MaxItemSize, c.Packet.Capacity)
	}
	if _, err := c.PortOptions(); err != nil {
		return err
	}
	if _, err := c.ExecutionContext(); err != nil {
		return err
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errs.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// OwnAddress parses Address.
func (c *Config) OwnAddress() (protocol.Address, error) {
	return ParseAddress(c.Address)
}

// ParseAddress accepts a dotted quad or up to four ASCII characters.
func ParseAddress(s string) (protocol.Address, error) {
	if ip := net.ParseIP(s); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return protocol.Address{v4[0], v4[1], v4[2], v4[3]}, nil
		}
	}
	if s == "" || len(s) > protocol.AddressSize {
		return protocol.Address{}, invalid("address %q must be a dotted quad or 1-4 characters", s)
	}
	return protocol.AddressFromString(s), nil
}

// PortOptions returns the sizes applied to every declared port.
func (c *Config) PortOptions() (profile.PortOptions, error) {
	policy, err := profile.ParseOverflowPolicy(c.Ports.Overflow)
	if err != nil {
		return profile.PortOptions{}, err
	}
	return profile.PortOptions{
		FifoCapacity:   c.Ports.FifoCapacity,
		MaxItemSize:    c.Ports.MaxItemSize,
		MaxConnections: c.Ports.MaxConnections,
		Overflow:       policy,
	}, nil
}

// StreamOptions returns the timeouts of framed links.
func (c *Config) StreamOptions() transport.StreamOptions {
	return transport.StreamOptions{
		PollTimeout:  c.Link.PollTimeout.Duration,
		FrameTimeout: c.Link.FrameTimeout.Duration,
	}
}

// DataChannelOptions derives the WebRTC link options.
func (c *Config) DataChannelOptions() transport.DataChannelOptions {
	return transport.DataChannelOptions{
		PollTimeout: c.Link.PollTimeout.Duration,
		STUNServers: c.Link.WebRTC.STUN,
	}
}

// ExecutionContext builds the configured execution context.
func (c *Config) ExecutionContext() (*ec.Context, error) {
	kind, err := ec.ParseKind(c.Context.Type)
	if err != nil {
		return nil, err
	}
	return ec.New(kind, c.Context.Rate)
}
