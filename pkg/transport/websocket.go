package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketOptions configures DialWebSocket.
type WebSocketOptions struct {
	URL              string
	Header           http.Header
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
	Logger           *logging.ColoredLogger
}

func (o *WebSocketOptions) setDefaults() {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 5 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
}

// WebSocket is a Transport over a single gorilla/websocket connection to the host.
type WebSocket struct {
	id     string
	conn   *websocket.Conn
	opts   WebSocketOptions
	logger *logging.ColoredLogger

	mu       sync.RWMutex
	channels map[string]struct{}

	writeMu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
}

// DialWebSocket connects to the host and waits for its first channel manifest.
func DialWebSocket(ctx context.Context, opts WebSocketOptions) (*WebSocket, error) {
	opts.setDefaults()

	dialCtx, cancel := context.WithTimeout(ctx, opts.HandshakeTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(dialCtx, opts.URL, opts.Header)
	if err != nil {
		return nil, fmt.Errorf("dial host %s: %w", opts.URL, err)
	}
	conn.SetReadLimit(opts.ReadLimit)

	w := &WebSocket{
		id:       uuid.NewString(),
		conn:     conn,
		opts:     opts,
		logger:   opts.Logger,
		channels: make(map[string]struct{}),
		closed:   make(chan struct{}),
	}

	if err := w.handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	w.logger.ComponentInfo(logging.ComponentTransport, "connected to host",
		zap.String("conn_id", w.id),
		zap.String("url", opts.URL),
		zap.Int("channels", len(w.channels)))
	return w, nil
}

func (w *WebSocket) handshake() error {
	_ = w.conn.SetReadDeadline(time.Now().Add(w.opts.HandshakeTimeout))
	defer w.conn.SetReadDeadline(time.Time{})

	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	frame, err := DecodeFrame(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if frame.Type != FrameChannels {
		return fmt.Errorf("%w: expected %q frame, got %q", ErrHandshake, FrameChannels, frame.Type)
	}
	w.setChannels(frame.Channels)
	return nil
}

// ID returns the connection id used in logs.
func (w *WebSocket) ID() string {
	return w.id
}

// Has implements Transport.
func (w *WebSocket) Has(channel string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.channels[channel]
	return ok
}

// Channels implements ChannelLister.
func (w *WebSocket) Channels() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.channels))
	for name := range w.channels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (w *WebSocket) setChannels(names []string) {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	w.mu.Lock()
	w.channels = set
	w.mu.Unlock()
}

// Send implements Transport by writing a post frame.
func (w *WebSocket) Send(channel string, message json.RawMessage) error {
	select {
	case <-w.closed:
		return ErrClosed
	default:
	}
	if !w.Has(channel) {
		return bridgeerrors.NewTransportUnavailableError(channel)
	}
	return w.writeFrame(&Frame{Type: FramePost, Channel: channel, Message: message})
}

func (w *WebSocket) writeFrame(f *Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.opts.WriteTimeout))
	if err := w.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Serve runs the read loop, delivering host frames to in until ctx is done,
// the host closes the connection, or Close is called.
//
// Callback frames settle on the calling goroutine. Observer frames are
// delivered in frame order on a separate goroutine, so an observer callback
// may issue a request and wait for it. Serve does not wait for queued
// observer deliveries before returning.
func (w *WebSocket) Serve(ctx context.Context, in Inbound) error {
	observers := newObserverQueue()
	go observers.run(in)
	defer observers.close()

	go func() {
		select {
		case <-ctx.Done():
			_ = w.Close()
		case <-w.closed:
		}
	}()

	for {
		mt, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.closed:
				return nil
			default:
			}
			_ = w.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.ComponentInfo(logging.ComponentTransport, "host closed connection",
					zap.String("conn_id", w.id))
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			w.logger.ComponentWarn(logging.ComponentTransport, "dropping malformed frame",
				zap.String("conn_id", w.id),
				zap.Error(err))
			continue
		}

		if frame.Type == FrameChannels {
			w.setChannels(frame.Channels)
			w.logger.ComponentDebug(logging.ComponentTransport, "channel manifest updated",
				zap.String("conn_id", w.id),
				zap.Int("channels", len(frame.Channels)))
			continue
		}

		if frame.Type == FrameObserver {
			observers.push(frame)
			continue
		}
		if !frame.Dispatch(in) {
			w.logger.ComponentWarn(logging.ComponentTransport, "skipping unknown frame type",
				zap.String("conn_id", w.id),
				zap.String("type", frame.Type))
		}
	}
}

// Close sends a close frame and tears the connection down. It is safe to
// call more than once.
func (w *WebSocket) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		w.writeMu.Lock()
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		w.writeMu.Unlock()
		err = w.conn.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	})
	return err
}
