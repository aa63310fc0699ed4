package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"github.com/DeBrosOfficial/hostbridge/pkg/transport"
	"go.uber.org/zap"
)

// Call is an outstanding request. It settles exactly once, either with the
// host's result or with an error.
type Call struct {
	id        string
	channel   string
	createdAt time.Time

	once   sync.Once
	done   chan struct{}
	result json.RawMessage
	err    error

	abandon func(id string, err error) bool
}

func newCall(id, channel string, abandon func(string, error) bool) *Call {
	return &Call{
		id:        id,
		channel:   channel,
		createdAt: time.Now(),
		done:      make(chan struct{}),
		abandon:   abandon,
	}
}

func (c *Call) settle(result json.RawMessage, err error) bool {
	settled := false
	c.once.Do(func() {
		c.result = result
		c.err = err
		settled = true
		close(c.done)
	})
	return settled
}

// Channel returns the host channel the request was sent to.
func (c *Call) Channel() string {
	return c.channel
}

// Done is closed once the call has settled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call settles or ctx ends. When ctx ends first the
// pending entry is dropped, so a late host delivery becomes a no-op, and a
// TimeoutError (deadline) or a wrapped context.Canceled is returned. If a
// delivery already claimed the entry, Wait returns that delivery's outcome.
func (c *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
	}

	var err error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = bridgeerrors.NewTimeoutError("request "+c.channel,
			time.Since(c.createdAt).Round(time.Millisecond).String())
	} else {
		err = fmt.Errorf("request %s abandoned: %w", c.channel, ctx.Err())
	}
	// A delivery that already claimed the entry settles the call itself.
	if c.abandon != nil {
		c.abandon(c.id, err)
	} else {
		c.settle(nil, err)
	}

	<-c.done
	return c.result, c.err
}

// Decode waits for the result and unmarshals it into out. An absent result
// leaves out untouched.
func (c *Call) Decode(ctx context.Context, out any) error {
	raw, err := c.Wait(ctx)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return bridgeerrors.NewValidationError("result", fmt.Sprintf("decode %s result: %v", c.channel, err), string(raw))
	}
	return nil
}

type pendingRequest struct {
	call *Call
}

// PendingInfo describes an outstanding request.
type PendingInfo struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	AgeMS   int64  `json:"age_ms"`
}

// RequestStats counts request outcomes since the registry was created.
type RequestStats struct {
	Sent      uint64 `json:"sent"`
	Fulfilled uint64 `json:"fulfilled"`
	Rejected  uint64 `json:"rejected"`
	Abandoned uint64 `json:"abandoned"`
	Unknown   uint64 `json:"unknown_deliveries"`
}

// RequestRegistry correlates host callbacks with outstanding calls.
type RequestRegistry struct {
	transport transport.Transport
	ids       IDGenerator
	logger    *logging.ColoredLogger

	mu      sync.Mutex
	pending map[string]*pendingRequest
	closed  bool

	sent, fulfilled, rejected, abandoned, unknown atomic.Uint64
}

// NewRequestRegistry creates a registry sending over t.
func NewRequestRegistry(t transport.Transport, ids IDGenerator, logger *logging.ColoredLogger) *RequestRegistry {
	if ids == nil {
		ids = Base36Generator{Length: DefaultIDLength}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RequestRegistry{
		transport: t,
		ids:       ids,
		logger:    logger,
		pending:   make(map[string]*pendingRequest),
	}
}

// Request posts payload to channel and returns the pending call.
//
// An unreachable channel fails synchronously with a TransportUnavailableError
// and registers nothing. The entry is recorded before sending, so a host
// that delivers from inside Send settles the call.
func (r *RequestRegistry) Request(ctx context.Context, channel string, payload Payload) (*Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.transport.Has(channel) {
		return nil, bridgeerrors.NewTransportUnavailableError(channel)
	}
	if err := checkReservedKey(payload, CallbackKey); err != nil {
		return nil, err
	}

	id := r.ids.NewID()
	msg, err := requestMessage(id, payload)
	if err != nil {
		return nil, bridgeerrors.NewInvalidArgumentError("payload", err.Error())
	}

	call := newCall(id, channel, r.abandon)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, bridgeerrors.NewClosedError(channel)
	}
	r.pending[id] = &pendingRequest{call: call}
	r.mu.Unlock()

	if err := r.transport.Send(channel, msg); err != nil {
		r.remove(id)
		return nil, bridgeerrors.Wrapf(err, "send request to %s", channel)
	}
	r.sent.Add(1)

	r.logger.ComponentDebug(logging.ComponentBridge, "request sent",
		zap.String("channel", channel),
		zap.String("callback_id", id))
	return call, nil
}

// Deliver settles the call registered under id. Unknown ids are ignored.
func (r *RequestRegistry) Deliver(id string, result, errPayload json.RawMessage) {
	entry := r.remove(id)
	if entry == nil {
		r.unknown.Add(1)
		r.logger.ComponentDebug(logging.ComponentBridge, "callback for unknown request",
			zap.String("callback_id", id))
		return
	}

	if bridgeerrors.HostErrorPresent(errPayload) {
		hostErr := bridgeerrors.ParseHostError(errPayload)
		if entry.call.settle(nil, hostErr) {
			r.rejected.Add(1)
		}
		r.logger.ComponentDebug(logging.ComponentBridge, "request rejected by host",
			zap.String("channel", entry.call.channel),
			zap.String("callback_id", id),
			zap.String("type", hostErr.Type),
			zap.String("code", hostErr.Code))
		return
	}

	if entry.call.settle(result, nil) {
		r.fulfilled.Add(1)
	}
}

func (r *RequestRegistry) remove(id string) *pendingRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.pending[id]
	if !ok {
		return nil
	}
	delete(r.pending, id)
	return entry
}

// abandon settles the call under id with err. It reports false when the
// entry was already claimed by a delivery or by close.
func (r *RequestRegistry) abandon(id string, err error) bool {
	entry := r.remove(id)
	if entry == nil {
		return false
	}
	if entry.call.settle(nil, err) {
		r.abandoned.Add(1)
	}
	r.logger.ComponentDebug(logging.ComponentBridge, "request abandoned",
		zap.String("channel", entry.call.channel),
		zap.String("callback_id", id),
		zap.Error(err))
	return true
}

// Len returns the number of outstanding requests.
func (r *RequestRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Pending returns a snapshot of outstanding requests, oldest first.
func (r *RequestRegistry) Pending() []PendingInfo {
	r.mu.Lock()
	out := make([]PendingInfo, 0, len(r.pending))
	now := time.Now()
	for id, entry := range r.pending {
		out = append(out, PendingInfo{
			ID:      id,
			Channel: entry.call.channel,
			AgeMS:   now.Sub(entry.call.createdAt).Milliseconds(),
		})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AgeMS != out[j].AgeMS {
			return out[i].AgeMS > out[j].AgeMS
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stats returns outcome counters.
func (r *RequestRegistry) Stats() RequestStats {
	return RequestStats{
		Sent:      r.sent.Load(),
		Fulfilled: r.fulfilled.Load(),
		Rejected:  r.rejected.Load(),
		Abandoned: r.abandoned.Load(),
		Unknown:   r.unknown.Load(),
	}
}

// close rejects every outstanding call with a ClosedError and refuses new ones.
func (r *RequestRegistry) close() int {
	r.mu.Lock()
	r.closed = true
	pending := r.pending
	r.pending = make(map[string]*pendingRequest)
	r.mu.Unlock()

	for _, entry := range pending {
		entry.call.settle(nil, bridgeerrors.NewClosedError(entry.call.channel))
	}
	return len(pending)
}
