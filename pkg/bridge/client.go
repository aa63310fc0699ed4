// Package bridge correlates one-way messages between a sandboxed UI surface
// and its host application.
//
// Requests post to a host channel and settle once when the host calls back
// with the same id. Observers register on a channel and receive any number
// of data pushes until they unsubscribe.
package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"github.com/DeBrosOfficial/hostbridge/pkg/transport"
	"go.uber.org/zap"
)

// Client owns the request and observer registries for one transport.
// It is safe for concurrent use.
type Client struct {
	transport transport.Transport
	logger    *logging.ColoredLogger
	ids       IDGenerator

	requestTimeout time.Duration

	requests  *RequestRegistry
	observers *ObserverRegistry

	closeOnce sync.Once
	startedAt time.Time
}

var _ transport.Inbound = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *logging.ColoredLogger) Option {
	return func(c *Client) { c.logger = l }
}

// WithIDGenerator replaces the default base36 id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Client) { c.ids = g }
}

// WithRequestTimeout bounds Do. Zero, the default, waits indefinitely.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// New creates a client sending over t.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		logger:    logging.NewNopLogger(),
		ids:       Base36Generator{Length: DefaultIDLength},
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.requests = NewRequestRegistry(t, c.ids, c.logger)
	c.observers = NewObserverRegistry(t, c.ids, c.logger)
	return c
}

// NewFromConfig creates a client using the bridge section of a config file.
func NewFromConfig(t transport.Transport, cfg config.BridgeConfig, logger *logging.ColoredLogger) (*Client, error) {
	ids, err := NewIDGenerator(cfg.IDScheme, cfg.IDLength)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithIDGenerator(ids), WithRequestTimeout(cfg.RequestTimeout)}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return New(t, opts...), nil
}

// Request posts payload to channel and returns the pending call.
// A nil payload sends the bare correlation id.
func (c *Client) Request(ctx context.Context, channel string, payload Payload) (*Call, error) {
	return c.requests.Request(ctx, channel, payload)
}

// Do sends a request and waits for its result, applying the configured
// request timeout when one is set.
func (c *Client) Do(ctx context.Context, channel string, payload Payload) (json.RawMessage, error) {
	call, err := c.Request(ctx, channel, payload)
	if err != nil {
		return nil, err
	}
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	return call.Wait(ctx)
}

// Observe registers callback for data pushes on channel.
func (c *Client) Observe(channel string, callback ObserverFunc, payload Payload, opts ...ObserveOption) (Unsubscribe, error) {
	return c.observers.Observe(channel, callback, payload, opts...)
}

// Post sends a fire-and-forget message. Raw JSON is sent as-is; any other
// value is JSON encoded.
func (c *Client) Post(channel string, message any) error {
	if !c.transport.Has(channel) {
		return bridgeerrors.NewTransportUnavailableError(channel)
	}

	var raw json.RawMessage
	switch m := message.(type) {
	case json.RawMessage:
		raw = m
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return bridgeerrors.NewInvalidArgumentError("message", err.Error())
		}
		raw = b
	}

	if err := c.transport.Send(channel, raw); err != nil {
		return bridgeerrors.Wrapf(err, "post to %s", channel)
	}
	return nil
}

// Has reports whether channel is reachable on the underlying transport.
func (c *Client) Has(channel string) bool {
	return c.transport.Has(channel)
}

// DeliverRequestResult implements transport.Inbound.
func (c *Client) DeliverRequestResult(callbackID string, result, errPayload json.RawMessage) {
	c.requests.Deliver(callbackID, result, errPayload)
}

// DeliverObserverData implements transport.Inbound.
func (c *Client) DeliverObserverData(observerID string, data json.RawMessage) {
	c.observers.Deliver(observerID, data)
}

// Stats is a point-in-time view of the client registries.
type Stats struct {
	UptimeMS       int64          `json:"uptime_ms"`
	Requests       RequestStats   `json:"requests"`
	Pending        []PendingInfo  `json:"pending"`
	Observers      []ObserverInfo `json:"observers"`
	ObserverPanics uint64         `json:"observer_panics"`
}

// Stats returns a snapshot of outstanding requests and registered observers.
func (c *Client) Stats() Stats {
	return Stats{
		UptimeMS:       time.Since(c.startedAt).Milliseconds(),
		Requests:       c.requests.Stats(),
		Pending:        c.requests.Pending(),
		Observers:      c.observers.Observers(),
		ObserverPanics: c.observers.Panics(),
	}
}

// Channels lists reachable host channels when the transport can enumerate them.
func (c *Client) Channels() ([]string, bool) {
	lister, ok := c.transport.(transport.ChannelLister)
	if !ok {
		return nil, false
	}
	return lister.Channels(), true
}

// Close rejects outstanding calls with a ClosedError and drops all observers.
// New requests and observers are refused afterwards.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		rejected := c.requests.close()
		dropped := c.observers.close()
		c.logger.ComponentInfo(logging.ComponentBridge, "bridge client closed",
			zap.Int("rejected_requests", rejected),
			zap.Int("dropped_observers", dropped))
	})
}
