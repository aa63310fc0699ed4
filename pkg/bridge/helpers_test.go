package bridge

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"github.com/DeBrosOfficial/hostbridge/pkg/transport"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// seqIDs hands out id1, id2, ... so tests can predict the next id.
type seqIDs struct {
	n atomic.Int64
}

func (s *seqIDs) NewID() string {
	return fmt.Sprintf("id%d", s.n.Add(1))
}

// recordingHost wires recording handlers into a Table transport.
type recordingHost struct {
	table *transport.Table

	mu   sync.Mutex
	sent map[string][]json.RawMessage
}

func newRecordingHost(channels ...string) *recordingHost {
	h := &recordingHost{
		table: transport.NewTable(),
		sent:  make(map[string][]json.RawMessage),
	}
	for _, ch := range channels {
		h.listen(ch)
	}
	return h
}

func (h *recordingHost) listen(channel string) {
	h.table.Handle(channel, func(msg json.RawMessage) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.sent[channel] = append(h.sent[channel], append(json.RawMessage(nil), msg...))
		return nil
	})
}

func (h *recordingHost) messages(channel string) []json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]json.RawMessage(nil), h.sent[channel]...)
}

// lastID extracts the correlation id from the last message on channel.
func (h *recordingHost) lastID(t *testing.T, channel, key string) string {
	t.Helper()
	msgs := h.messages(channel)
	if len(msgs) == 0 {
		t.Fatalf("no messages sent to %s", channel)
	}
	last := msgs[len(msgs)-1]

	var bare string
	if err := json.Unmarshal(last, &bare); err == nil {
		return bare
	}
	var obj map[string]any
	if err := json.Unmarshal(last, &obj); err != nil {
		t.Fatalf("undecodable message %s", last)
	}
	id, _ := obj[key].(string)
	if id == "" {
		t.Fatalf("message %s has no %s", last, key)
	}
	return id
}

func newTestClient(t transport.Transport, opts ...Option) (*Client, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	opts = append([]Option{WithLogger(logging.NewFromZap(zap.New(core)))}, opts...)
	return New(t, opts...), logs
}
