package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "host.address"
	Message string // e.g., "invalid multiaddr"
	Hint    string // e.g., "expected ws://host:port/path"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// InvalidConfigError aggregates every validation failure of a config file.
type InvalidConfigError struct {
	Path   string
	Errors []error
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config %s: %s", e.Path, strings.Join(msgs, "; "))
}

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateHost()...)
	errs = append(errs, c.validateBridge()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateInspector()...)

	return errs
}

func (c *Config) validateHost() []error {
	var errs []error
	hc := c.Host

	if _, err := hc.HostURL(); err != nil {
		errs = append(errs, ValidationError{
			Path:    "host.address",
			Message: err.Error(),
			Hint:    "expected ws://host:port/path or /ip4/<ip>/tcp/<port>/ws",
		})
	}

	if hc.HandshakeTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "host.handshake_timeout",
			Message: fmt.Sprintf("must be > 0; got %v", hc.HandshakeTimeout),
		})
	}

	if hc.WriteTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "host.write_timeout",
			Message: fmt.Sprintf("must be > 0; got %v", hc.WriteTimeout),
		})
	}

	if hc.ReadLimit < 1024 {
		errs = append(errs, ValidationError{
			Path:    "host.read_limit",
			Message: fmt.Sprintf("must be >= 1024; got %d", hc.ReadLimit),
		})
	}

	return errs
}

func (c *Config) validateBridge() []error {
	var errs []error
	bc := c.Bridge

	switch bc.IDScheme {
	case IDSchemeBase36:
		// ids shorter than 6 symbols collide within a long session
		if bc.IDLength < 6 || bc.IDLength > 32 {
			errs = append(errs, ValidationError{
				Path:    "bridge.id_length",
				Message: fmt.Sprintf("must be between 6 and 32; got %d", bc.IDLength),
				Hint:    "recommended: 9",
			})
		}
	case IDSchemeUUID:
	default:
		errs = append(errs, ValidationError{
			Path:    "bridge.id_scheme",
			Message: fmt.Sprintf("invalid value %q", bc.IDScheme),
			Hint:    "allowed values: base36, uuid",
		})
	}

	if bc.RequestTimeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "bridge.request_timeout",
			Message: fmt.Sprintf("must be >= 0; got %v", bc.RequestTimeout),
			Hint:    "0 waits indefinitely",
		})
	} else if bc.RequestTimeout > 0 && bc.RequestTimeout < 100*time.Millisecond {
		errs = append(errs, ValidationError{
			Path:    "bridge.request_timeout",
			Message: fmt.Sprintf("must be >= 100ms or 0; got %v", bc.RequestTimeout),
		})
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	log := c.Logging

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[log.Level] {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("invalid value %q", log.Level),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	if log.OutputFile != "" {
		dir := filepath.Dir(log.OutputFile)
		if dir != "" && dir != "." {
			if err := validateDirWritable(dir); err != nil {
				errs = append(errs, ValidationError{
					Path:    "logging.output_file",
					Message: fmt.Sprintf("parent directory not writable: %v", err),
				})
			}
		}
	}

	return errs
}

func (c *Config) validateInspector() []error {
	var errs []error
	ic := c.Inspector

	if !ic.Enabled {
		return errs
	}

	if err := validateHostPort(ic.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Path:    "inspector.listen_addr",
			Message: err.Error(),
			Hint:    "expected format: host:port",
		})
	}

	return errs
}

// Helper validation functions

func validateDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access directory: %v", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte(""), 0644); err != nil {
		return fmt.Errorf("directory not writable: %v", err)
	}
	os.Remove(testFile)

	return nil
}

func validateHostPort(hostPort string) error {
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return fmt.Errorf("expected format host:port")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("port must be a number between 0 and 65535; got %q", port)
	}
	_ = host

	return nil
}
