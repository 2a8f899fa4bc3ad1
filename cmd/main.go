package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samaelod/usmu/config"
	"github.com/samaelod/usmu/engine"
	"github.com/samaelod/usmu/lua"
	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/pcapreader"
	"github.com/samaelod/usmu/sessionlog"
	"github.com/samaelod/usmu/tui"
	"github.com/samaelod/usmu/types"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "usmu",
		Short:         "Interactive TCP/UDP packet sender with session logging and replay",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only create debug log in dev builds
			if version == "dev" {
				f, err := os.OpenFile("debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
				if err == nil {
					log.SetOutput(f)
				}
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return tui.Run(cfg, version)
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	root.AddCommand(newReplayCmd(&cfgPath))
	root.AddCommand(newSendCmd(&cfgPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("usmu %s\n", version)
		},
	}
}

func newReplayCmd(cfgPath *string) *cobra.Command {
	var (
		protoFlag string
		interval  time.Duration
		linger    time.Duration
		keep      bool
	)

	cmd := &cobra.Command{
		Use:   "replay <script> [host:port]",
		Short: "Replay a recorded script against an endpoint, headlessly",
		Long: "Replay reads a script (JSON replay export, Lua script, or pcap/pcapng\n" +
			"capture), connects a fresh session, and issues the recorded sends in\n" +
			"order with their recorded delays.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			script, capturedEP, err := loadScript(args[0])
			if err != nil {
				return err
			}

			ep, err := resolveEndpoint(cfg, capturedEP, argOrEmpty(args, 1), protoFlag)
			if err != nil {
				return err
			}

			if keep {
				saved, err := lua.SaveToRecent(script, args[0])
				if err != nil {
					fmt.Fprintf(os.Stderr, "warning: could not save script: %v\n", err)
				} else {
					fmt.Printf("saved editable copy to %s\n", saved)
				}
			}

			e := engine.New("", cfg.LogLines)
			defer e.Shutdown()

			fmt.Printf("replaying %d entries to %s\n", len(script.Records), ep)
			if _, err := e.StartReplay(script, ep, interval); err != nil {
				return err
			}
			return drainReplay(e, linger)
		},
	}

	cmd.Flags().StringVar(&protoFlag, "protocol", "", "override protocol (tcp|udp)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "fixed gap between sends, overriding recorded delays")
	cmd.Flags().DurationVar(&linger, "linger", 2*time.Second, "how long to keep listening after the last send")
	cmd.Flags().BoolVar(&keep, "keep", false, "save an editable Lua copy of the script to the recent directory")
	return cmd
}

func newSendCmd(cfgPath *string) *cobra.Command {
	var (
		encFlag   string
		toFlag    string
		protoFlag string
		linger    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <payload>",
		Short: "Connect, send one payload, print responses, disconnect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			enc, err := types.ParseEncoding(firstNonEmpty(encFlag, cfg.InitialPayloadEncoding))
			if err != nil {
				return err
			}
			p, err := payload.Encode(args[0], enc)
			if err != nil {
				return err
			}

			ep, err := resolveEndpoint(cfg, types.Endpoint{}, toFlag, protoFlag)
			if err != nil {
				return err
			}

			e := engine.New("", cfg.LogLines)
			defer e.Shutdown()

			id, err := e.NewSession(ep, nil)
			if err != nil {
				return err
			}
			if err := e.Send(id, p); err != nil {
				return err
			}

			deadline := time.After(linger)
			for {
				select {
				case ev := <-e.Events():
					if pr, ok := ev.(engine.PacketReceived); ok {
						fmt.Println(sessionlog.FormatEntry(pr.Entry))
					}
				case <-deadline:
					return e.CloseSession(id)
				}
			}
		},
	}

	cmd.Flags().StringVar(&encFlag, "encoding", "", "payload encoding (hex|ascii)")
	cmd.Flags().StringVar(&toFlag, "to", "", "target host:port (default from config)")
	cmd.Flags().StringVar(&protoFlag, "protocol", "", "protocol (tcp|udp)")
	cmd.Flags().DurationVar(&linger, "linger", 2*time.Second, "how long to wait for responses")
	return cmd
}

// drainReplay consumes engine events until the replay finishes, then
// keeps printing whatever still arrives for the linger window.
func drainReplay(e *engine.Engine, linger time.Duration) error {
	var finished *engine.ReplayFinished
	for finished == nil {
		ev := <-e.Events()
		switch ev := ev.(type) {
		case engine.ReplayProgress:
			fmt.Printf("sent %d/%d\n", ev.Sent, ev.Total)
		case engine.PacketReceived:
			fmt.Println(sessionlog.FormatEntry(ev.Entry))
		case engine.SessionStateChanged:
			if ev.State == types.Failed {
				fmt.Printf("session %d failed: %v\n", ev.SessionID, ev.Cause)
			}
		case engine.ReplayFinished:
			finished = &ev
		}
	}

	deadline := time.After(linger)
	for {
		select {
		case ev := <-e.Events():
			if pr, ok := ev.(engine.PacketReceived); ok {
				fmt.Println(sessionlog.FormatEntry(pr.Entry))
			}
		case <-deadline:
			if finished.Outcome == engine.ReplayAborted {
				if finished.Cause != nil {
					return fmt.Errorf("replay aborted at entry %d: %w", finished.FailedIndex, finished.Cause)
				}
				return fmt.Errorf("replay aborted at entry %d", finished.FailedIndex)
			}
			fmt.Println("replay completed")
			return nil
		}
	}
}

// loadScript dispatches on the file extension: Lua scripts and captures
// carry their own loaders, anything else is the JSON replay export.
func loadScript(path string) (types.ReplayScript, types.Endpoint, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		script, err := lua.ReadScript(path)
		return script, types.Endpoint{}, err
	case ".pcap", ".pcapng", ".cap":
		return pcapreader.ReadScript(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return types.ReplayScript{}, types.Endpoint{}, err
		}
		defer f.Close()
		script, err := sessionlog.ReadReplay(f)
		return script, types.Endpoint{}, err
	}
}

// resolveEndpoint picks the replay/send target: an explicit host:port
// beats the capture's recorded endpoint, which beats the config default.
func resolveEndpoint(cfg *config.Config, captured types.Endpoint, hostPort, protoFlag string) (types.Endpoint, error) {
	ep, err := cfg.Endpoint()
	if err != nil {
		return types.Endpoint{}, err
	}
	if captured.Host != "" {
		ep = captured
	}
	if hostPort != "" {
		host, portStr, err := net.SplitHostPort(hostPort)
		if err != nil {
			return types.Endpoint{}, fmt.Errorf("invalid target %q: %w", hostPort, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return types.Endpoint{}, fmt.Errorf("invalid port %q", portStr)
		}
		ep.Host, ep.Port = host, port
	}
	if protoFlag != "" {
		proto, err := types.ParseProtocol(protoFlag)
		if err != nil {
			return types.Endpoint{}, err
		}
		ep.Protocol = proto
	}
	if err := ep.Validate(); err != nil {
		return types.Endpoint{}, err
	}
	return ep, nil
}

func argOrEmpty(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
