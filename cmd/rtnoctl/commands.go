package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/1ureka/rtno/internal/config"
	"github.com/1ureka/rtno/internal/host"
	"github.com/1ureka/rtno/internal/protocol"
)

func addCommands(root *cobra.Command, lf *linkFlags) {
	root.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Print the lifecycle state",
			Args:  cobra.NoArgs,
			RunE: withClient(lf, func(ctx context.Context, c *host.Client) error {
				state, err := c.Status(ctx)
				if err != nil {
					return err
				}
				pterm.Info.Printfln("%s: %s", c.Device(), state)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "context",
			Short: "Print the execution context kind",
			Args:  cobra.NoArgs,
			RunE: withClient(lf, func(ctx context.Context, c *host.Client) error {
				kind, err := c.Context(ctx)
				if err != nil {
					return err
				}
				pterm.Info.Printfln("%s: %s", c.Device(), kind)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "profile",
			Short: "List the declared ports",
			Args:  cobra.NoArgs,
			RunE: withClient(lf, func(ctx context.Context, c *host.Client) error {
				prof, err := c.Profile(ctx)
				if err != nil {
					return err
				}
				return renderProfile(prof)
			}),
		},
		lifecycleCmd(lf, "activate", "Activate the component", (*host.Client).Activate),
		lifecycleCmd(lf, "deactivate", "Deactivate the component", (*host.Client).Deactivate),
		lifecycleCmd(lf, "execute", "Run one execution cycle", (*host.Client).Execute),
		lifecycleCmd(lf, "reset", "Reset the component from the error state", (*host.Client).Reset),
		connectionCmd(lf, "connect", "Register a connection on a port",
			(*host.Client).ConnectInPort, (*host.Client).ConnectOutPort),
		connectionCmd(lf, "disconnect", "Remove a connection from a port",
			(*host.Client).DisconnectInPort, (*host.Client).DisconnectOutPort),
		writeCmd(lf),
		readCmd(lf),
	)
}

func renderProfile(prof *host.Profile) error {
	data := pterm.TableData{{"Index", "Direction", "Name", "Type"}}
	for i, p := range prof.In {
		data = append(data, []string{strconv.Itoa(i), "in", p.Name, p.Type.String()})
	}
	for i, p := range prof.Out {
		data = append(data, []string{strconv.Itoa(i), "out", p.Name, p.Type.String()})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func lifecycleCmd(lf *linkFlags, use, short string, op func(*host.Client, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withClient(lf, func(ctx context.Context, c *host.Client) error {
			if err := op(c, ctx); err != nil {
				return err
			}
			pterm.Success.Printfln("%s: %s", c.Device(), use)
			return nil
		}),
	}
}

type connectionOp func(*host.Client, context.Context, uint8, protocol.Address, uint8) error

func connectionCmd(lf *linkFlags, use, short string, in, out connectionOp) *cobra.Command {
	return &cobra.Command{
		Use:       use + " in|out LOCAL_PORT REMOTE_ADDRESS REMOTE_PORT",
		Short:     short,
		Args:      cobra.ExactArgs(4),
		ValidArgs: []string{"in", "out"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var op connectionOp
			switch args[0] {
			case "in":
				op = in
			case "out":
				op = out
			default:
				return fmt.Errorf("direction must be in or out, got %q", args[0])
			}
			local, err := parsePort(args[1])
			if err != nil {
				return err
			}
			remote, err := config.ParseAddress(args[2])
			if err != nil {
				return err
			}
			remotePort, err := parsePort(args[3])
			if err != nil {
				return err
			}

			return withClient(lf, func(ctx context.Context, c *host.Client) error {
				if err := op(c, ctx, local, remote, remotePort); err != nil {
					return err
				}
				pterm.Success.Printfln("%s: %s %s port %d <-> %s:%d",
					c.Device(), use, args[0], local, remote, remotePort)
				return nil
			})(cmd, args)
		},
	}
}

func writeCmd(lf *linkFlags) *cobra.Command {
	var src uint8
	var isHex bool
	cmd := &cobra.Command{
		Use:   "write IN_PORT DATA",
		Short: "Send data to an input port",
		Long: "Send data to an input port. The device keeps it only if the port has a " +
			"connection from this host's address and --src port.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[0])
			if err != nil {
				return err
			}
			data := []byte(args[1])
			if isHex {
				if data, err = hex.DecodeString(args[1]); err != nil {
					return err
				}
			}
			return withClient(lf, func(_ context.Context, c *host.Client) error {
				return c.Write(port, src, data)
			})(cmd, args)
		},
	}
	cmd.Flags().Uint8Var(&src, "src", 0, "source port index stamped on the packet")
	cmd.Flags().BoolVar(&isHex, "hex", false, "DATA is hex encoded")
	return cmd
}

func readCmd(lf *linkFlags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print data packets sent to this host",
		Args:  cobra.NoArgs,
		RunE: withClient(lf, func(ctx context.Context, c *host.Client) error {
			for i := 0; count <= 0 || i < count; i++ {
				pkt, err := c.Read(ctx)
				if err != nil {
					return err
				}
				pterm.Printfln("%s:%d -> %d  %s", pkt.Address, pkt.SourcePort, pkt.TargetPort,
					hex.EncodeToString(pkt.Payload))
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "packets to read; 0 reads until interrupted or timed out")
	return cmd
}

func parsePort(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil || v >= uint64(protocol.ControlPortIndex) {
		return 0, fmt.Errorf("invalid port index %q", s)
	}
	return uint8(v), nil
}
