package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/multiformats/go-multiaddr"
)

// HostURL resolves the configured host address to a websocket URL.
//
// Accepted forms:
//   - ws://host:port/path or wss://host:port/path
//   - /ip4/127.0.0.1/tcp/7800/ws (also /ip6, /dns, /dns4, /dns6 and /wss)
func (h HostConfig) HostURL() (string, error) {
	addr := strings.TrimSpace(h.Address)
	if addr == "" {
		return "", fmt.Errorf("host address must not be empty")
	}
	if strings.HasPrefix(addr, "/") {
		return multiaddrToURL(addr, h.Path)
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("invalid host URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("unsupported host URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("host URL missing host")
	}
	return u.String(), nil
}

func multiaddrToURL(addr, path string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return "", fmt.Errorf("invalid multiaddr: %w", err)
	}

	var host string
	for _, code := range []int{multiaddr.P_IP4, multiaddr.P_IP6, multiaddr.P_DNS, multiaddr.P_DNS4, multiaddr.P_DNS6} {
		if v, err := ma.ValueForProtocol(code); err == nil {
			host = v
			break
		}
	}
	if host == "" {
		return "", fmt.Errorf("multiaddr %s has no ip or dns component", addr)
	}

	port, err := ma.ValueForProtocol(multiaddr.P_TCP)
	if err != nil {
		return "", fmt.Errorf("multiaddr %s has no tcp component", addr)
	}

	scheme := ""
	if _, err := ma.ValueForProtocol(multiaddr.P_WS); err == nil {
		scheme = "ws"
	}
	if _, err := ma.ValueForProtocol(multiaddr.P_WSS); err == nil {
		scheme = "wss"
	}
	if scheme == "" {
		return "", fmt.Errorf("multiaddr %s must end in /ws or /wss", addr)
	}

	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := url.URL{Scheme: scheme, Host: net.JoinHostPort(host, port), Path: path}
	return u.String(), nil
}
