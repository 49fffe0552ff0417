// rtno runs a data-port component on a byte link. A host drives it with
// rtnoctl: it queries the profile, connects ports, switches the lifecycle
// and exchanges port data.
//
// Settings come from an optional YAML file (-c) and are overridden by flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/1ureka/rtno/internal/adapter"
	"github.com/1ureka/rtno/internal/config"
	"github.com/1ureka/rtno/internal/metric"
	"github.com/1ureka/rtno/internal/signaling"
	"github.com/1ureka/rtno/internal/transport"
	"github.com/1ureka/rtno/internal/util"
)

var version = "dev"

type options struct {
	configPath string
	address    string
	link       string
	device     string
	baud       int
	listen     string
	pin        string
	context    string
	rate       float64
	metrics    string
	gain       int32
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "rtno",
		Short:        "Run a data-port component on a serial, TCP, WebSocket or WebRTC link",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			// Root context, cancelled on Ctrl+C.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, opts.gain)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	f.StringVarP(&opts.address, "address", "a", "", "own address: dotted quad or up to 4 characters")
	f.StringVarP(&opts.link, "link", "l", "", "link type: serial, tcp, websocket or webrtc")
	f.StringVar(&opts.device, "device", "", "serial device")
	f.IntVar(&opts.baud, "baud", 0, "serial baud rate")
	f.StringVar(&opts.listen, "listen", "", "listen address of the tcp, websocket or webrtc signaling link")
	f.StringVar(&opts.pin, "pin", "", "signaling PIN (webrtc); generated when empty")
	f.StringVar(&opts.context, "context", "", "execution context: proxy, timer1 or timer2")
	f.Float64Var(&opts.rate, "rate", 0, "execution rate in Hz for timer contexts")
	f.StringVar(&opts.metrics, "metrics", "", "serve Prometheus metrics on this address")
	f.Int32Var(&opts.gain, "gain", 2, "factor applied by the demo component")
	f.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newPortsCmd())
	return cmd
}

// loadConfig reads the config file, if any, and applies the flags that were
// set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("address") {
		cfg.Address = opts.address
	}
	if f.Changed("link") {
		cfg.Link.Type = config.LinkType(opts.link)
	}
	if f.Changed("device") {
		cfg.Link.Serial.Device = opts.device
	}
	if f.Changed("baud") {
		cfg.Link.Serial.Baud = opts.baud
	}
	if f.Changed("listen") {
		cfg.Link.TCP.Listen = opts.listen
		cfg.Link.WebSocket.Listen = opts.listen
		cfg.Link.WebRTC.Signaling = opts.listen
	}
	if f.Changed("pin") {
		cfg.Link.WebRTC.PIN = opts.pin
	}
	if f.Changed("context") {
		cfg.Context.Type = opts.context
	}
	if f.Changed("rate") {
		cfg.Context.Rate = opts.rate
	}
	if f.Changed("metrics") {
		cfg.Metrics.Listen = opts.metrics
	}
	if f.Changed("debug") {
		cfg.Debug = opts.debug
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, factor int32) error {
	if cfg.Debug {
		util.EnableDebug()
	}
	pterm.Info.Println(fmt.Sprintf("RTno device v%s", version))
	pterm.Println()

	addr, err := cfg.OwnAddress()
	if err != nil {
		return err
	}
	execCtx, err := cfg.ExecutionContext()
	if err != nil {
		return err
	}
	portOpts, err := cfg.PortOptions()
	if err != nil {
		return err
	}

	tr, err := openLink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s link: %w", cfg.Link.Type, err)
	}
	defer tr.Close()

	comp := newGain(factor, portOpts)
	a := adapter.New(tr, comp, adapter.Options{
		Address:        addr,
		PacketCapacity: cfg.Packet.Capacity,
		Context:        execCtx,
	})
	if err := a.AddInPort(comp.in); err != nil {
		return err
	}
	if err := a.AddOutPort(comp.out); err != nil {
		return err
	}

	if cfg.Metrics.Listen != "" {
		srv, err := metric.Listen(cfg.Metrics.Listen, metric.NewRegistry(a))
		if err != nil {
			return fmt.Errorf("failed to serve metrics: %w", err)
		}
		defer srv.Close()
	}
	util.StartStatsReporter(ctx, cfg.Metrics.StatsInterval.Duration)

	if err := a.Run(ctx); err != nil {
		util.LogError("%v", err)
		return err
	}
	util.LogInfo("device %s stopped", addr)
	return nil
}

// openLink opens the device side of the configured link. For WebRTC it
// blocks until a host has completed signaling.
func openLink(ctx context.Context, cfg *config.Config) (transport.Transport, error) {
	l := cfg.Link
	switch l.Type {
	case config.LinkSerial:
		return transport.OpenSerial(l.Serial.Device, l.Serial.Baud, cfg.StreamOptions())
	case config.LinkTCP:
		return transport.ListenTCP(l.TCP.Listen, cfg.StreamOptions())
	case config.LinkWebSocket:
		return transport.ListenWebSocket(l.WebSocket.Listen, l.WebSocket.Path, l.PollTimeout.Duration)
	case config.LinkWebRTC:
		pin := l.WebRTC.PIN
		if pin == "" {
			pin = signaling.GeneratePIN(6)
		}
		srv := signaling.NewServer(pin)
		if _, err := srv.Start(l.WebRTC.Signaling); err != nil {
			return nil, err
		}
		defer srv.Close()

		pterm.Info.Printfln("Signaling URL: %s", srv.URL())
		pterm.Info.Printfln("PIN: %s", pin)
		return signaling.EstablishAsDevice(ctx, srv, cfg.DataChannelOptions())
	default:
		return nil, fmt.Errorf("unknown link type %q", l.Type)
	}
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ports, err := transport.SerialPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				pterm.Warning.Println("no serial ports found")
				return nil
			}
			items := make([]pterm.BulletListItem, 0, len(ports))
			for _, p := range ports {
				items = append(items, pterm.BulletListItem{Level: 0, Text: p})
			}
			return pterm.DefaultBulletList.WithItems(items).Render()
		},
	}
}
