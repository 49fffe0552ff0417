// rtnoctl drives an rtno device from the host side: it reads the status and
// profile, switches the lifecycle, connects ports and exchanges port data.
//
//	rtnoctl -l tcp --addr 192.168.1.20:7300 profile
//	rtnoctl -l webrtc --addr 'ws://192.168.1.20:7302/ws?pin=123456' activate
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/1ureka/rtno/internal/config"
	"github.com/1ureka/rtno/internal/host"
	"github.com/1ureka/rtno/internal/protocol"
	"github.com/1ureka/rtno/internal/signaling"
	"github.com/1ureka/rtno/internal/transport"
	"github.com/1ureka/rtno/internal/util"
)

var version = "dev"

type linkFlags struct {
	link    string
	device  string
	baud    int
	addr    string
	address string
	timeout time.Duration
	debug   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	lf := &linkFlags{}
	cmd := &cobra.Command{
		Use:          "rtnoctl",
		Short:        "Control an rtno device",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if lf.debug {
				util.EnableDebug()
			} else {
				util.Quiet()
			}
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&lf.link, "link", "l", string(config.LinkSerial), "link type: serial, tcp, websocket or webrtc")
	f.StringVar(&lf.device, "device", "", "serial device; prompted when empty")
	f.IntVar(&lf.baud, "baud", 19200, "serial baud rate")
	f.StringVar(&lf.addr, "addr", "", "device host:port (tcp) or URL (websocket, webrtc signaling)")
	f.StringVarP(&lf.address, "address", "a", "", "own address; derived from the host name when empty")
	f.DurationVarP(&lf.timeout, "timeout", "t", 2*time.Second, "reply timeout")
	f.BoolVar(&lf.debug, "debug", false, "enable debug logging")

	addCommands(cmd, lf)
	return cmd
}

// withClient opens the link, runs fn with a client and closes the link.
func withClient(lf *linkFlags, fn func(ctx context.Context, c *host.Client) error) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		own, err := lf.ownAddress()
		if err != nil {
			return err
		}
		tr, err := lf.open(ctx)
		if err != nil {
			return fmt.Errorf("failed to open %s link: %w", lf.link, err)
		}
		c := host.NewClient(tr, own, lf.timeout)
		defer c.Close()
		return fn(ctx, c)
	}
}

func (lf *linkFlags) ownAddress() (protocol.Address, error) {
	if lf.address != "" {
		return config.ParseAddress(lf.address)
	}
	name, err := os.Hostname()
	if err != nil {
		name = "HOST"
	}
	return util.AddressFromName(name), nil
}

func (lf *linkFlags) open(ctx context.Context) (transport.Transport, error) {
	opts := transport.DefaultStreamOptions()
	switch config.LinkType(lf.link) {
	case config.LinkSerial:
		device := lf.device
		if device == "" {
			var err error
			if device, err = askDevice(); err != nil {
				return nil, err
			}
		}
		return transport.OpenSerial(device, lf.baud, opts)
	case config.LinkTCP:
		if lf.addr == "" {
			return nil, fmt.Errorf("missing --addr for tcp link")
		}
		return transport.DialTCP(ctx, lf.addr, opts)
	case config.LinkWebSocket:
		u, err := normalizeWSURL(lf.addr, "/rtno")
		if err != nil {
			return nil, err
		}
		return transport.DialWebSocket(ctx, u, opts.PollTimeout)
	case config.LinkWebRTC:
		u, err := normalizeWSURL(lf.addr, signaling.Path)
		if err != nil {
			return nil, err
		}
		dco := transport.DefaultDataChannelOptions()
		dco.PollTimeout = opts.PollTimeout
		return signaling.EstablishAsHost(ctx, u, dco)
	default:
		return nil, fmt.Errorf("unknown link type %q", lf.link)
	}
}

// normalizeWSURL validates a WebSocket URL, defaulting the scheme to ws and
// the path to defaultPath. The query, which carries the signaling PIN, is
// kept.
func normalizeWSURL(raw, defaultPath string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid WebSocket URL scheme: %s", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = defaultPath
	}
	return u.String(), nil
}

// askDevice lets the user pick one of the serial ports found.
func askDevice() (string, error) {
	ports, err := transport.SerialPorts()
	if err != nil {
		return "", err
	}
	switch len(ports) {
	case 0:
		return "", fmt.Errorf("no serial ports found; use --device")
	case 1:
		return ports[0], nil
	}
	device, err := pterm.DefaultInteractiveSelect.
		WithOptions(ports).
		WithDefaultText("Select the serial port").
		Show()
	pterm.Println()
	return device, err
}
