package config

import (
	"time"
)

// Config represents the configuration of a bridge client process
type Config struct {
	Host      HostConfig      `yaml:"host"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Logging   LoggingConfig   `yaml:"logging"`
	Inspector InspectorConfig `yaml:"inspector"`
}

// HostConfig describes how to reach the host application
type HostConfig struct {
	Address          string        `yaml:"address"`           // ws:// URL or multiaddr ending in /ws or /wss
	Path             string        `yaml:"path"`              // URL path used with multiaddr addresses
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"` // Dial plus first channel manifest
	WriteTimeout     time.Duration `yaml:"write_timeout"`     // Per-frame write deadline
	ReadLimit        int64         `yaml:"read_limit"`        // Max inbound frame size in bytes
}

// BridgeConfig contains correlation settings
type BridgeConfig struct {
	IDScheme string `yaml:"id_scheme"` // base36, uuid
	IDLength int    `yaml:"id_length"` // base36 only

	// RequestTimeout bounds Client.Do. Zero waits indefinitely.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// InspectorConfig contains the optional HTTP inspection surface
type InspectorConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"` // e.g. "127.0.0.1:7801"
	AuthToken  string `yaml:"auth_token"`  // Bearer token; empty disables auth
}

// Supported correlation id schemes.
const (
	IDSchemeBase36 = "base36"
	IDSchemeUUID   = "uuid"
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Host: HostConfig{
			Address:          "ws://127.0.0.1:7800/bridge",
			Path:             "/bridge",
			HandshakeTimeout: 5 * time.Second,
			WriteTimeout:     10 * time.Second,
			ReadLimit:        1 << 20,
		},
		Bridge: BridgeConfig{
			IDScheme:       IDSchemeBase36,
			IDLength:       9,
			RequestTimeout: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Colors: true,
		},
		Inspector: InspectorConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:7801",
		},
	}
}
