// Package devhost is a local stand-in for the native host. It speaks the
// websocket frame protocol of pkg/transport so widgets and bridgectl can be
// exercised without the desktop app.
package devhost

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"github.com/DeBrosOfficial/hostbridge/pkg/transport"
)

// RequestHandler answers one request. A returned *errors.HostError is sent
// to the client verbatim; any other error becomes a HANDLER_FAILED host error.
type RequestHandler func(ctx context.Context, payload json.RawMessage) (any, error)

// PostHandler consumes a fire-and-forget message.
type PostHandler func(message json.RawMessage)

// Host serves the bridge protocol to any number of websocket clients.
type Host struct {
	logger   *logging.ColoredLogger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	requests map[string]RequestHandler
	posts    map[string]PostHandler
	topics   map[string]*Topic // keyed by register and unregister channel
	conns    map[*conn]struct{}
}

// New creates an empty host.
func New(logger *logging.ColoredLogger) *Host {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Host{
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		requests: make(map[string]RequestHandler),
		posts:    make(map[string]PostHandler),
		topics:   make(map[string]*Topic),
		conns:    make(map[*conn]struct{}),
	}
}

// HandleRequest installs a request channel.
func (h *Host) HandleRequest(channel string, fn RequestHandler) {
	h.mu.Lock()
	h.requests[channel] = fn
	h.mu.Unlock()
	h.announce()
}

// HandlePost installs a fire-and-forget channel.
func (h *Host) HandlePost(channel string, fn PostHandler) {
	h.mu.Lock()
	h.posts[channel] = fn
	h.mu.Unlock()
	h.announce()
}

// Topic installs a register/unregister channel pair and returns the topic
// used to push data to its subscribers.
func (h *Host) Topic(register, unregister string) *Topic {
	t := &Topic{host: h, register: register, unregister: unregister, subs: make(map[string]*conn)}
	h.mu.Lock()
	h.topics[register] = t
	if unregister != "" {
		h.topics[unregister] = t
	}
	h.mu.Unlock()
	h.announce()
	return t
}

// Channels returns every installed channel name, sorted.
func (h *Host) Channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.channelsLocked()
}

func (h *Host) channelsLocked() []string {
	names := make([]string, 0, len(h.requests)+len(h.posts)+len(h.topics))
	for name := range h.requests {
		names = append(names, name)
	}
	for name := range h.posts {
		names = append(names, name)
	}
	for name := range h.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clients reports the number of connected websocket clients.
func (h *Host) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// announce resends the channel manifest to every connected client.
func (h *Host) announce() {
	h.mu.RLock()
	frame := transport.Frame{Type: transport.FrameChannels, Channels: h.channelsLocked()}
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.write(frame)
	}
}

// ServeHTTP upgrades the request and serves frames until the client leaves.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ComponentWarn(logging.ComponentDevHost, "websocket upgrade failed", zap.Error(err))
		return
	}
	c := &conn{id: uuid.NewString(), ws: ws}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	manifest := transport.Frame{Type: transport.FrameChannels, Channels: h.channelsLocked()}
	h.mu.Unlock()

	h.logger.ComponentInfo(logging.ComponentDevHost, "client connected",
		zap.String("conn_id", c.id), zap.String("remote", r.RemoteAddr))

	defer func() {
		h.drop(c)
		_ = ws.Close()
		h.logger.ComponentInfo(logging.ComponentDevHost, "client disconnected", zap.String("conn_id", c.id))
	}()

	if err := c.write(manifest); err != nil {
		return
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		f, err := transport.DecodeFrame(data)
		if err != nil {
			h.logger.ComponentWarn(logging.ComponentDevHost, "dropping malformed frame", zap.Error(err))
			continue
		}
		if f.Type != transport.FramePost {
			h.logger.ComponentDebug(logging.ComponentDevHost, "ignoring frame", zap.String("type", f.Type))
			continue
		}
		h.dispatch(r.Context(), c, f.Channel, f.Message)
	}
}

func (h *Host) drop(c *conn) {
	h.mu.Lock()
	delete(h.conns, c)
	topics := make(map[*Topic]struct{})
	for _, t := range h.topics {
		topics[t] = struct{}{}
	}
	h.mu.Unlock()

	for t := range topics {
		t.dropConn(c)
	}
}

func (h *Host) dispatch(ctx context.Context, c *conn, channel string, message json.RawMessage) {
	h.mu.RLock()
	req, isReq := h.requests[channel]
	post, isPost := h.posts[channel]
	topic, isTopic := h.topics[channel]
	h.mu.RUnlock()

	switch {
	case isReq:
		go h.answer(ctx, c, channel, req, message)
	case isTopic && channel == topic.register:
		id, _ := correlationID(message, "observerId")
		if id == "" {
			h.logger.ComponentWarn(logging.ComponentDevHost, "subscription without observer id", zap.String("channel", channel))
			return
		}
		topic.subscribe(id, c)
	case isTopic:
		id, _ := correlationID(message, "observerId")
		topic.unsubscribe(id)
	case isPost:
		post(message)
	default:
		h.logger.ComponentWarn(logging.ComponentDevHost, "post to unknown channel", zap.String("channel", channel))
	}
}

func (h *Host) answer(ctx context.Context, c *conn, channel string, fn RequestHandler, message json.RawMessage) {
	id, payload := correlationID(message, "callbackId")
	if id == "" {
		h.logger.ComponentWarn(logging.ComponentDevHost, "request without callback id", zap.String("channel", channel))
		return
	}

	frame := transport.Frame{Type: transport.FrameCallback, CallbackID: id}
	value, err := fn(ctx, payload)
	if err != nil {
		frame.Error = encodeHostError(err)
		h.logger.ComponentDebug(logging.ComponentDevHost, "request failed",
			zap.String("channel", channel), zap.Error(err))
	} else if frame.Result, err = json.Marshal(value); err != nil {
		frame.Result = nil
		frame.Error = encodeHostError(err)
	}
	if err := c.write(frame); err != nil {
		h.logger.ComponentWarn(logging.ComponentDevHost, "failed to write callback",
			zap.String("conn_id", c.id), zap.Error(err))
	}
}

// correlationID extracts key from message. A bare JSON string is itself the
// id. The returned payload is the message with nothing removed.
func correlationID(message json.RawMessage, key string) (string, json.RawMessage) {
	var id string
	if err := json.Unmarshal(message, &id); err == nil {
		return id, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(message, &obj); err != nil {
		return "", nil
	}
	if raw, ok := obj[key]; ok {
		_ = json.Unmarshal(raw, &id)
	}
	return id, message
}

func encodeHostError(err error) json.RawMessage {
	var hostErr *bridgeerrors.HostError
	if !errors.As(err, &hostErr) {
		hostErr = bridgeerrors.NewHostError("devhost", "HANDLER_FAILED", err.Error())
	}
	b, _ := json.Marshal(hostErr)
	return b
}

type conn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *conn) write(f transport.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(f)
}

// Close disconnects every client.
func (h *Host) Close() {
	h.mu.RLock()
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "host shutting down"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.ws.Close()
	}
}
