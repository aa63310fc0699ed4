package bridge

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"github.com/DeBrosOfficial/hostbridge/pkg/transport"
	"go.uber.org/zap"
)

// ObserverFunc receives every data push for a registered observer.
type ObserverFunc func(data json.RawMessage)

// Unsubscribe tears an observer down. Calling it more than once is a no-op.
type Unsubscribe func()

type observeOptions struct {
	stopChannel    string
	hasStopChannel bool
}

// ObserveOption customizes Observe.
type ObserveOption func(*observeOptions)

// WithStopChannel overrides the channel that receives the observer id on
// unsubscribe. An empty name disables the stop message.
func WithStopChannel(name string) ObserveOption {
	return func(o *observeOptions) {
		o.stopChannel = name
		o.hasStopChannel = true
	}
}

// StopChannelFor derives the paired stop channel by replacing the first
// "register" with "unregister". Channels without "register" have none, so
// unsubscribing sends nothing. Hosts that expect the stop id on the
// registration channel itself should be observed with WithStopChannel(channel).
func StopChannelFor(channel string) string {
	if !strings.Contains(channel, "register") {
		return ""
	}
	return strings.Replace(channel, "register", "unregister", 1)
}

type observerEntry struct {
	id          string
	channel     string
	stopChannel string
	callback    ObserverFunc
	createdAt   time.Time
	deliveries  atomic.Uint64
}

// ObserverInfo describes a registered observer.
type ObserverInfo struct {
	ID          string `json:"id"`
	Channel     string `json:"channel"`
	StopChannel string `json:"stop_channel,omitempty"`
	Deliveries  uint64 `json:"deliveries"`
	AgeMS       int64  `json:"age_ms"`
}

// ObserverRegistry routes host data pushes to long-lived observers.
type ObserverRegistry struct {
	transport transport.Transport
	ids       IDGenerator
	logger    *logging.ColoredLogger

	mu        sync.Mutex
	observers map[string]*observerEntry
	closed    bool

	panics atomic.Uint64
}

// NewObserverRegistry creates a registry sending over t.
func NewObserverRegistry(t transport.Transport, ids IDGenerator, logger *logging.ColoredLogger) *ObserverRegistry {
	if ids == nil {
		ids = Base36Generator{Length: DefaultIDLength}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ObserverRegistry{
		transport: t,
		ids:       ids,
		logger:    logger,
		observers: make(map[string]*observerEntry),
	}
}

// Observe registers callback and announces it on channel.
//
// A missing channel or a failed send is logged, not returned: the observer
// stays registered and the returned Unsubscribe is valid either way.
func (r *ObserverRegistry) Observe(channel string, callback ObserverFunc, payload Payload, opts ...ObserveOption) (Unsubscribe, error) {
	if callback == nil {
		return nil, bridgeerrors.NewInvalidArgumentError("callback", "must not be nil")
	}
	if err := checkReservedKey(payload, ObserverKey); err != nil {
		return nil, err
	}

	var o observeOptions
	for _, opt := range opts {
		opt(&o)
	}
	stop := StopChannelFor(channel)
	if o.hasStopChannel {
		stop = o.stopChannel
	}

	id := r.ids.NewID()
	msg, err := observerMessage(id, payload)
	if err != nil {
		return nil, bridgeerrors.NewInvalidArgumentError("payload", err.Error())
	}

	entry := &observerEntry{
		id:          id,
		channel:     channel,
		stopChannel: stop,
		callback:    callback,
		createdAt:   time.Now(),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, bridgeerrors.NewClosedError(channel)
	}
	r.observers[id] = entry
	r.mu.Unlock()

	unsubscribe := func() { r.Unregister(id) }

	if !r.transport.Has(channel) {
		r.logger.ComponentWarn(logging.ComponentBridge, "observer channel not available",
			zap.String("channel", channel),
			zap.String("observer_id", id))
		return unsubscribe, nil
	}
	if err := r.transport.Send(channel, msg); err != nil {
		r.logger.ComponentWarn(logging.ComponentBridge, "observer registration send failed",
			zap.String("channel", channel),
			zap.String("observer_id", id),
			zap.Error(err))
		return unsubscribe, nil
	}

	r.logger.ComponentDebug(logging.ComponentBridge, "observer registered",
		zap.String("channel", channel),
		zap.String("observer_id", id))
	return unsubscribe, nil
}

// Deliver invokes the observer registered under id. Unknown ids are ignored.
// The entry stays registered after delivery.
func (r *ObserverRegistry) Deliver(id string, data json.RawMessage) {
	r.mu.Lock()
	entry, ok := r.observers[id]
	r.mu.Unlock()
	if !ok {
		r.logger.ComponentDebug(logging.ComponentBridge, "data for unknown observer",
			zap.String("observer_id", id))
		return
	}

	entry.deliveries.Add(1)
	r.invoke(entry, data)
}

func (r *ObserverRegistry) invoke(entry *observerEntry, data json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panics.Add(1)
			r.logger.ComponentError(logging.ComponentBridge, "observer callback panicked",
				zap.String("channel", entry.channel),
				zap.String("observer_id", entry.id),
				zap.String("panic", fmt.Sprint(rec)))
		}
	}()
	entry.callback(data)
}

// Unregister removes the observer and sends its id to the paired stop
// channel when that channel is reachable. It is idempotent.
func (r *ObserverRegistry) Unregister(id string) {
	r.mu.Lock()
	entry, ok := r.observers[id]
	if ok {
		delete(r.observers, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if entry.stopChannel == "" || !r.transport.Has(entry.stopChannel) {
		r.logger.ComponentDebug(logging.ComponentBridge, "no stop channel for observer",
			zap.String("channel", entry.channel),
			zap.String("stop_channel", entry.stopChannel),
			zap.String("observer_id", id))
		return
	}

	msg, _ := json.Marshal(id)
	if err := r.transport.Send(entry.stopChannel, msg); err != nil {
		r.logger.ComponentWarn(logging.ComponentBridge, "observer stop send failed",
			zap.String("stop_channel", entry.stopChannel),
			zap.String("observer_id", id),
			zap.Error(err))
	}
}

// Len returns the number of registered observers.
func (r *ObserverRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}

// Observers returns a snapshot of registered observers, sorted by channel.
func (r *ObserverRegistry) Observers() []ObserverInfo {
	r.mu.Lock()
	out := make([]ObserverInfo, 0, len(r.observers))
	now := time.Now()
	for _, e := range r.observers {
		out = append(out, ObserverInfo{
			ID:          e.id,
			Channel:     e.channel,
			StopChannel: e.stopChannel,
			Deliveries:  e.deliveries.Load(),
			AgeMS:       now.Sub(e.createdAt).Milliseconds(),
		})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Panics returns how many observer callbacks have panicked.
func (r *ObserverRegistry) Panics() uint64 {
	return r.panics.Load()
}

// close drops every observer without sending stop messages.
func (r *ObserverRegistry) close() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	n := len(r.observers)
	r.observers = make(map[string]*observerEntry)
	return n
}
