package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hostbridge/pkg/bridge"
	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	"github.com/DeBrosOfficial/hostbridge/pkg/inspector"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
)

// Options holds the global flags shared by every command.
type Options struct {
	ConfigPath string
	Format     string
	Timeout    time.Duration
}

// ParsePayload parses an optional JSON object argument. An empty string
// means no payload, which sends the bare correlation id.
func ParsePayload(raw string) (bridge.Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var p bridge.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("payload must be a JSON object, got null")
	}
	return p, nil
}

// RunRequest sends one request and waits for its result or ctx.
func RunRequest(ctx context.Context, c *bridge.Client, channel string, payload bridge.Payload) (json.RawMessage, error) {
	call, err := c.Request(ctx, channel, payload)
	if err != nil {
		return nil, err
	}
	return call.Wait(ctx)
}

// RunObserve prints every push on channel to out until ctx ends, then
// unsubscribes. It returns the number of pushes seen.
func RunObserve(ctx context.Context, c *bridge.Client, channel string, payload bridge.Payload, out io.Writer, format string) (int, error) {
	pushes := make(chan json.RawMessage, 64)
	unsubscribe, err := c.Observe(channel, func(data json.RawMessage) {
		select {
		case pushes <- append(json.RawMessage(nil), data...):
		default:
		}
	}, payload)
	if err != nil {
		return 0, err
	}
	defer unsubscribe()

	n := 0
	for {
		select {
		case data := <-pushes:
			n++
			printPush(out, channel, data, format)
		case <-ctx.Done():
			return n, nil
		}
	}
}

func withSession(opts Options, fn func(s *Session, cfg *config.Config) error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Host.HandshakeTimeout)
	s, err := Connect(ctx, cfg, logger)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to host: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if err := fn(s, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		s.Close()
		os.Exit(1)
	}
}

// HandleRequestCommand implements `bridgectl request <channel> [json]`.
func HandleRequestCommand(args []string, opts Options) {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: bridgectl request <channel> [json-payload]\n")
		os.Exit(1)
	}
	payload, err := ParsePayload(argAt(args, 1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		os.Exit(1)
	}

	withSession(opts, func(s *Session, cfg *config.Config) error {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()

		result, err := RunRequest(ctx, s.Client, args[0], payload)
		if err != nil {
			return fmt.Errorf("request to %s failed: %w", args[0], err)
		}
		printResult(os.Stdout, args[0], result, opts.Format)
		return nil
	})
}

// HandleObserveCommand implements `bridgectl observe <channel> [json]`.
// It runs for the timeout or until interrupted.
func HandleObserveCommand(args []string, opts Options) {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: bridgectl observe <channel> [json-payload]\n")
		os.Exit(1)
	}
	payload, err := ParsePayload(argAt(args, 1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		os.Exit(1)
	}

	withSession(opts, func(s *Session, cfg *config.Config) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		fmt.Printf("🔔 Observing '%s' for %v...\n", args[0], opts.Timeout)
		n, err := RunObserve(ctx, s.Client, args[0], payload, os.Stdout, opts.Format)
		if err != nil {
			return fmt.Errorf("observe %s failed: %w", args[0], err)
		}
		fmt.Printf("✅ Observation ended after %d pushes\n", n)
		return nil
	})
}

// HandleChannelsCommand implements `bridgectl channels`.
func HandleChannelsCommand(opts Options) {
	withSession(opts, func(s *Session, cfg *config.Config) error {
		printChannels(os.Stdout, s.Conn.Channels(), opts.Format)
		return nil
	})
}

// HandleServeCommand implements `bridgectl serve`: it keeps the host
// connection open and serves the inspector until interrupted.
func HandleServeCommand(opts Options) {
	withSession(opts, func(s *Session, cfg *config.Config) error {
		icfg := cfg.Inspector
		icfg.Enabled = true

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		go func() {
			select {
			case err := <-s.Done():
				s.Logger.ComponentWarn(logging.ComponentCLI, "host connection ended", zap.Error(err))
				cancel()
			case <-ctx.Done():
			}
		}()

		ins := inspector.New(s.Logger, icfg, s.Client)
		fmt.Printf("🔎 Inspector on http://%s (Ctrl+C to stop)\n", icfg.ListenAddr)
		return ins.Start(ctx)
	})
}

// ValidateConfigCommand implements `bridgectl config validate`.
func ValidateConfigCommand(opts Options) {
	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultPath("bridge.yaml")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		path = p
	}
	if _, err := config.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ %s is valid\n", path)
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
