//go:build e2e

package e2e

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DeBrosOfficial/hostbridge/pkg/cli"
	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
)

var (
	configCache *config.Config
	cacheMutex  sync.Mutex
)

// LoadBridgeConfig loads ~/.hostbridge/bridge.yaml, or HOSTBRIDGE_CONFIG when set.
func LoadBridgeConfig(t *testing.T) *config.Config {
	t.Helper()
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	if configCache != nil {
		return configCache
	}

	cfg, err := cli.LoadConfig(os.Getenv("HOSTBRIDGE_CONFIG"))
	if err != nil {
		t.Fatalf("failed to load bridge config: %v", err)
	}
	configCache = cfg
	return cfg
}

// ConnectHost opens a session to the configured host, skipping the test
// when nothing is listening.
func ConnectHost(t *testing.T) *cli.Session {
	t.Helper()
	cfg := LoadBridgeConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger, _ := logging.NewLeveledLogger(cfg.Logging.Level, false)
	s, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		t.Skipf("host not reachable at %s (start one with `bridgectl devhost`): %v", cfg.Host.Address, err)
	}
	t.Cleanup(s.Close)
	return s
}

// InspectorURL returns the inspector base URL, skipping when it is not up.
func InspectorURL(t *testing.T) string {
	t.Helper()
	cfg := LoadBridgeConfig(t)
	base := "http://" + cfg.Inspector.ListenAddr

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(base + "/health")
	if err != nil {
		t.Skipf("inspector not reachable at %s (start one with `bridgectl serve`): %v", base, err)
	}
	resp.Body.Close()
	return base
}

// AuthToken returns the inspector bearer token from the config.
func AuthToken(t *testing.T) string {
	return LoadBridgeConfig(t).Inspector.AuthToken
}
