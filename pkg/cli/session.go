// Package cli implements the bridgectl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hostbridge/pkg/bridge"
	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"github.com/DeBrosOfficial/hostbridge/pkg/transport"
)

// LoadConfig reads path, or ~/.hostbridge/bridge.yaml when path is empty.
// A missing default file yields DefaultConfig.
func LoadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := config.DefaultPath("bridge.yaml")
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return config.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config.Load(path)
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg config.LoggingConfig) (*logging.ColoredLogger, error) {
	if cfg.OutputFile != "" {
		return logging.NewFileLogger(logging.ComponentCLI, cfg.OutputFile, cfg.Colors)
	}
	return logging.NewLeveledLogger(cfg.Level, cfg.Colors)
}

// Session is a live bridge client connected to the host over websocket.
type Session struct {
	Client *bridge.Client
	Conn   *transport.WebSocket
	Logger *logging.ColoredLogger

	cancel context.CancelFunc
	served chan error
}

// Connect dials the configured host and starts the read loop.
func Connect(ctx context.Context, cfg *config.Config, logger *logging.ColoredLogger) (*Session, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	url, err := cfg.Host.HostURL()
	if err != nil {
		return nil, err
	}

	conn, err := transport.DialWebSocket(ctx, transport.WebSocketOptions{
		URL:              url,
		HandshakeTimeout: cfg.Host.HandshakeTimeout,
		WriteTimeout:     cfg.Host.WriteTimeout,
		ReadLimit:        cfg.Host.ReadLimit,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	client, err := bridge.NewFromConfig(conn, cfg.Bridge, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	serveCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		Client: client,
		Conn:   conn,
		Logger: logger,
		cancel: cancel,
		served: make(chan error, 1),
	}
	go func() {
		err := conn.Serve(serveCtx, client)
		if err != nil {
			logger.ComponentError(logging.ComponentCLI, "host connection lost", zap.Error(err))
		}
		client.Close()
		s.served <- err
	}()
	return s, nil
}

// Done receives the read loop result once the connection ends.
func (s *Session) Done() <-chan error {
	return s.served
}

// Close rejects outstanding calls and closes the connection.
func (s *Session) Close() {
	s.Client.Close()
	s.cancel()
	_ = s.Conn.Close()
}
