package devhost

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
	"github.com/DeBrosOfficial/hostbridge/pkg/transport"
)

// Topic is a push source behind a register/unregister channel pair.
type Topic struct {
	host       *Host
	register   string
	unregister string

	mu   sync.Mutex
	subs map[string]*conn // observer id -> connection
}

// Subscribers returns the observer ids currently subscribed, sorted.
func (t *Topic) Subscribers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Publish pushes data to every subscriber and returns how many received it.
func (t *Topic) Publish(data any) (int, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	targets := make(map[string]*conn, len(t.subs))
	for id, c := range t.subs {
		targets[id] = c
	}
	t.mu.Unlock()

	sent := 0
	for id, c := range targets {
		err := c.write(transport.Frame{Type: transport.FrameObserver, ObserverID: id, Data: raw})
		if err != nil {
			t.host.logger.ComponentWarn(logging.ComponentDevHost, "failed to push observer data",
				zap.String("observer_id", id), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

func (t *Topic) subscribe(id string, c *conn) {
	t.mu.Lock()
	t.subs[id] = c
	t.mu.Unlock()
	t.host.logger.ComponentDebug(logging.ComponentDevHost, "observer subscribed",
		zap.String("channel", t.register), zap.String("observer_id", id))
}

func (t *Topic) unsubscribe(id string) {
	t.mu.Lock()
	_, ok := t.subs[id]
	delete(t.subs, id)
	t.mu.Unlock()
	if ok {
		t.host.logger.ComponentDebug(logging.ComponentDevHost, "observer unsubscribed",
			zap.String("channel", t.register), zap.String("observer_id", id))
	}
}

func (t *Topic) dropConn(c *conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, sub := range t.subs {
		if sub == c {
			delete(t.subs, id)
		}
	}
}
