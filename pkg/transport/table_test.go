package transport

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

func TestTableSendRoutesToHandler(t *testing.T) {
	table := NewTable()
	var got json.RawMessage
	table.Handle("getUserId", func(msg json.RawMessage) error {
		got = msg
		return nil
	})

	if !table.Has("getUserId") {
		t.Fatal("expected channel to be reachable")
	}
	if err := table.Send("getUserId", json.RawMessage(`"abc123def"`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(got) != `"abc123def"` {
		t.Errorf("handler got %s", got)
	}
}

func TestTableMissingChannel(t *testing.T) {
	table := NewTable()
	err := table.Send("nope", json.RawMessage(`{}`))
	if !bridgeerrors.IsTransportUnavailable(err) {
		t.Fatalf("expected transport unavailable, got %v", err)
	}
	if !errors.Is(err, bridgeerrors.ErrTransportUnavailable) {
		t.Errorf("expected sentinel match")
	}
}

func TestTableHandlerError(t *testing.T) {
	table := NewTable()
	boom := errors.New("boom")
	table.Handle("saveWidgetData", func(json.RawMessage) error { return boom })
	if err := table.Send("saveWidgetData", nil); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestTableRemoveAndChannels(t *testing.T) {
	table := NewTable()
	noop := func(json.RawMessage) error { return nil }
	table.Handle("b", noop)
	table.Handle("a", noop)
	table.Handle("c", noop)
	table.Remove("b")

	if table.Has("b") {
		t.Error("removed channel still reachable")
	}
	if got := table.Channels(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Channels() = %v", got)
	}
}

func TestTableHandlerMaySendReentrantly(t *testing.T) {
	table := NewTable()
	var inner int
	table.Handle("inner", func(json.RawMessage) error {
		inner++
		return nil
	})
	table.Handle("outer", func(msg json.RawMessage) error {
		return table.Send("inner", msg)
	})
	if err := table.Send("outer", json.RawMessage(`1`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if inner != 1 {
		t.Errorf("inner handler ran %d times", inner)
	}
}
