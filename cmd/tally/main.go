package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tallyhq/tally/internal/bridge"
	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/counter"
	"github.com/tallyhq/tally/internal/transport"
	"github.com/tallyhq/tally/internal/view"
	"github.com/tallyhq/tally/pkg/logger"
)

const version = "tally v1.0.0"

func main() {
	if err := run(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	args, err := parseFlags(cfg, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage()
			return nil
		}
		return err
	}

	if cfg.LogLevel != "" {
		lvl, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(lvl)
	}

	if len(args) > 0 {
		switch args[0] {
		case "run":
			// Fall through to the default command.
		case "auth":
			return authCommand(cfg)
		case "pair":
			return cli.PairCommand(cfg)
		case "help", "--help", "-h":
			printUsage()
			return nil
		case "version", "--version", "-v":
			fmt.Println(version)
			return nil
		default:
			return fmt.Errorf("unknown command %q; run `tally help`", args[0])
		}
	}

	return runCounter(cfg)
}

// authCommand discards any cached token and authenticates from scratch.
func authCommand(cfg *config.Config) error {
	if err := os.Remove(cfg.AccessKey); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cached token: %w", err)
	}
	if _, err := cli.EnsureAccessToken(cfg); err != nil {
		return err
	}
	logger.Infof("Authenticated; token cached at %s", cfg.AccessKey)
	return nil
}

// runCounter wires the configured collaborators together and runs the
// counter program until interrupted.
func runCounter(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		br     *bridge.Client
		sender counter.ControlSender
	)
	if cfg.Bridge {
		token, err := cli.EnsureAccessToken(cfg)
		if err != nil {
			return err
		}
		br = bridge.NewClient(cfg.ServerURL, token)
		defer br.Close()
		sender = br
	}

	var src counter.InitialSource
	switch cfg.Transport {
	case config.TransportRPC:
		src = transport.NewRPCSource(br)
	default:
		src = transport.NewHTTPSource(cfg.ServerURL)
	}

	renderer := view.NewRenderer(os.Stdout)
	defer renderer.Close()

	prog := counter.NewProgram(src, sender, counter.Options{
		Reactive: cfg.Reactive,
		OnRender: renderer.Render,
	})

	if br != nil {
		counter.WireClockTicks(prog, br)
		if err := br.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		if !br.WaitForConnect(5 * time.Second) {
			return fmt.Errorf("timeout connecting to server bridge")
		}
	}

	prog.Start()
	defer prog.Stop()

	logger.Debugf("Counter running (server %s, transport %s, bridge %t, reactive %t)",
		cfg.ServerURL, cfg.Transport, cfg.Bridge, cfg.Reactive)

	if err := view.Run(ctx, os.Stdin, prog, renderer); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

func parseFlags(cfg *config.Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("tally", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	server := fs.String("server", "", "Server base URL")
	transportFlag := fs.String("transport", "", "Initial value transport (fetch|rpc)")
	bridgeFlag := fs.Bool("bridge", false, "Enable the server push channel")
	reactive := fs.Bool("reactive", false, "Run on the stream scheduler")
	logLevel := fs.String("log-level", "", "Log level (trace|debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *server != "" {
		cfg.ServerURL = *server
	}
	if *transportFlag != "" {
		switch config.Transport(*transportFlag) {
		case config.TransportFetch, config.TransportRPC:
			cfg.Transport = config.Transport(*transportFlag)
		default:
			return nil, fmt.Errorf("invalid --transport %q (expected fetch or rpc)", *transportFlag)
		}
	}
	if *bridgeFlag {
		cfg.Bridge = true
	}
	if *reactive {
		cfg.Reactive = true
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if cfg.Transport == config.TransportRPC && !cfg.Bridge {
		return nil, fmt.Errorf("transport rpc requires the bridge (--bridge)")
	}

	return fs.Args(), nil
}

func printUsage() {
	fmt.Println(`tally - live counter client

Usage:
  tally              Run the counter (same as "tally run")
  tally run          Run the counter
  tally auth         Authenticate and cache a fresh access token
  tally pair         Print a QR code that points another client at this server
  tally help         Show this help message
  tally version      Show version information

Commands while running:
  +, inc             Increment the counter
  -, dec             Decrement the counter
  start, pause       Control the server clock (bridge only)
  q, quit            Exit

Environment Variables:
  TALLY_SERVER_URL   Server URL (default: http://localhost:8080)
  TALLY_HOME_DIR     Config directory (default: ~/.tally)
  TALLY_TRANSPORT    Initial value transport: fetch or rpc (default: fetch)
  TALLY_BRIDGE       Enable the push channel (true/1)
  TALLY_REACTIVE     Run on the stream scheduler (true/1)
  TALLY_LOG_LEVEL    Log level (trace|debug|info|warn|error)
  DEBUG              Shorthand for TALLY_LOG_LEVEL=debug (true/1)

Flags:
  --server           Server base URL
  --transport        Initial value transport (fetch|rpc)
  --bridge           Enable the push channel
  --reactive         Run on the stream scheduler
  --log-level        Log level

Examples:
  # Plain counter against a local server
  tally

  # Full setup: push channel, typed RPC load, stream scheduler
  tally --bridge --transport rpc --reactive

  # Counter with live clock against a remote server
  TALLY_SERVER_URL=http://tally.example:8080 tally --bridge`)
}
