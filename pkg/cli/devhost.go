package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	"github.com/DeBrosOfficial/hostbridge/pkg/devhost"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
)

// DevHostListen derives the listen address and websocket path from the
// configured host address.
func DevHostListen(cfg config.HostConfig) (addr, path string, err error) {
	raw, err := cfg.HostURL()
	if err != nil {
		return "", "", err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}

// RunDevHost serves a development host until ctx ends. When tick is
// positive a calendar change is pushed to subscribers every tick.
func RunDevHost(ctx context.Context, cfg *config.Config, fx *devhost.Fixture, tick time.Duration, logger *logging.ColoredLogger) error {
	addr, path, err := DevHostListen(cfg.Host)
	if err != nil {
		return err
	}

	h := devhost.New(logger)
	changes, _ := devhost.Install(h, fx)

	if tick > 0 {
		go func() {
			ticker := time.NewTicker(tick)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					n, err := changes.Publish(map[string]string{"changedAt": now.UTC().Format(time.RFC3339)})
					if err != nil {
						logger.ComponentWarn(logging.ComponentCLI, "failed to publish calendar change", zap.Error(err))
						continue
					}
					logger.ComponentDebug(logging.ComponentCLI, "published calendar change", zap.Int("subscribers", n))
				}
			}
		}()
	}

	return devhost.NewServer(h, path).Start(ctx, addr)
}

// HandleDevHostCommand implements `bridgectl devhost [fixture.yaml]`.
func HandleDevHostCommand(args []string, opts Options) {
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

	fx := devhost.DefaultFixture()
	if path := argAt(args, 0); path != "" {
		if fx, err = devhost.LoadFixture(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load fixture: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, path, _ := DevHostListen(cfg.Host)
	fmt.Printf("🧪 Development host on ws://%s%s (Ctrl+C to stop)\n", addr, path)
	if err := RunDevHost(ctx, cfg, fx, opts.Timeout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Development host failed: %v\n", err)
		os.Exit(1)
	}
}
