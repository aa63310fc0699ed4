package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

func TestNewFromConfig(t *testing.T) {
	host := newRecordingHost("getUserId")
	cfg := config.DefaultConfig().Bridge
	cfg.IDScheme = config.IDSchemeUUID
	cfg.RequestTimeout = 25 * time.Millisecond

	c, err := NewFromConfig(host.table, cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if _, ok := c.ids.(UUIDGenerator); !ok {
		t.Errorf("expected uuid generator, got %T", c.ids)
	}
	if _, err := c.Do(context.Background(), "getUserId", nil); !bridgeerrors.IsTimeout(err) {
		t.Errorf("expected configured timeout, got %v", err)
	}

	cfg.IDScheme = "snowflake"
	if _, err := NewFromConfig(host.table, cfg, nil); err == nil {
		t.Error("expected error for unknown scheme")
	}
}

func TestPost(t *testing.T) {
	host := newRecordingHost("openUrl", "saveWidgetData")
	c, _ := newTestClient(host.table)

	if err := c.Post("openUrl", "https://example.com"); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if err := c.Post("saveWidgetData", json.RawMessage(`"{\"a\":1}"`)); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got := host.messages("openUrl"); len(got) != 1 || string(got[0]) != `"https://example.com"` {
		t.Errorf("openUrl got %s", got)
	}
	if got := host.messages("saveWidgetData"); len(got) != 1 || string(got[0]) != `"{\"a\":1}"` {
		t.Errorf("saveWidgetData got %s", got)
	}

	if err := c.Post("openCosmoUrl", "/x"); !bridgeerrors.IsTransportUnavailable(err) {
		t.Errorf("expected transport unavailable, got %v", err)
	}
	if err := c.Post("openUrl", make(chan int)); !bridgeerrors.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument for unencodable message, got %v", err)
	}
}

func TestPostSendFailure(t *testing.T) {
	host := newRecordingHost()
	boom := errors.New("host gone")
	host.table.Handle("openUrl", func(json.RawMessage) error { return boom })
	c, _ := newTestClient(host.table)

	if err := c.Post("openUrl", "https://example.com"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped send error, got %v", err)
	}
}

func TestStats(t *testing.T) {
	host := newRecordingHost("getCalendars", "registerEventChangeObserver")
	c, _ := newTestClient(host.table)
	ctx := context.Background()

	if _, err := c.Request(ctx, "getCalendars", nil); err != nil {
		t.Fatalf("Request: %v", err)
	}
	done, _ := c.Request(ctx, "getCalendars", nil)
	c.DeliverRequestResult(host.lastID(t, "getCalendars", CallbackKey), json.RawMessage(`[]`), nil)
	<-done.Done()

	if _, err := c.Observe("registerEventChangeObserver", func(json.RawMessage) {}, nil); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	stats := c.Stats()
	if len(stats.Pending) != 1 || stats.Pending[0].Channel != "getCalendars" {
		t.Errorf("pending = %+v", stats.Pending)
	}
	if len(stats.Observers) != 1 {
		t.Fatalf("observers = %+v", stats.Observers)
	}
	if obs := stats.Observers[0]; obs.Channel != "registerEventChangeObserver" || obs.StopChannel != "unregisterEventChangeObserver" {
		t.Errorf("observer info = %+v", obs)
	}
	if stats.Requests.Sent != 2 || stats.Requests.Fulfilled != 1 {
		t.Errorf("request stats = %+v", stats.Requests)
	}
}

func TestChannels(t *testing.T) {
	host := newRecordingHost("b", "a")
	c, _ := newTestClient(host.table)

	names, ok := c.Channels()
	if !ok {
		t.Fatal("table transport should list channels")
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Channels() = %v", names)
	}
	if !c.Has("a") || c.Has("z") {
		t.Error("Has mismatch")
	}
}
