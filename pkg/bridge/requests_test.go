package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

func TestRequestSettlesWithMatchingDelivery(t *testing.T) {
	host := newRecordingHost("getCalendars")
	c, _ := newTestClient(host.table)
	ctx := context.Background()

	first, err := c.Request(ctx, "getCalendars", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	firstID := host.lastID(t, "getCalendars", CallbackKey)

	second, err := c.Request(ctx, "getCalendars", Payload{"page": 2})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	secondID := host.lastID(t, "getCalendars", CallbackKey)

	c.DeliverRequestResult(secondID, json.RawMessage(`"second"`), nil)
	c.DeliverRequestResult(firstID, json.RawMessage(`"first"`), nil)

	got1, err := first.Wait(ctx)
	if err != nil || string(got1) != `"first"` {
		t.Errorf("first = %s, %v", got1, err)
	}
	got2, err := second.Wait(ctx)
	if err != nil || string(got2) != `"second"` {
		t.Errorf("second = %s, %v", got2, err)
	}
}

func TestRequestSettlesAtMostOnce(t *testing.T) {
	host := newRecordingHost("getUserId")
	c, _ := newTestClient(host.table)

	call, err := c.Request(context.Background(), "getUserId", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	id := host.lastID(t, "getUserId", CallbackKey)

	c.DeliverRequestResult(id, json.RawMessage(`"u-1"`), nil)
	c.DeliverRequestResult(id, json.RawMessage(`"u-2"`), nil)
	c.DeliverRequestResult(id, nil, json.RawMessage(`{"type":"t","code":"C"}`))

	got, err := call.Wait(context.Background())
	if err != nil || string(got) != `"u-1"` {
		t.Fatalf("got %s, %v", got, err)
	}
	if n := c.requests.Len(); n != 0 {
		t.Errorf("expected no pending requests, got %d", n)
	}
	stats := c.requests.Stats()
	if stats.Fulfilled != 1 || stats.Unknown != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDeliverUnknownIDIsNoop(t *testing.T) {
	host := newRecordingHost("getUserId")
	c, _ := newTestClient(host.table)

	call, err := c.Request(context.Background(), "getUserId", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	c.DeliverRequestResult("nonexistent", json.RawMessage(`1`), nil)
	c.DeliverRequestResult("", nil, json.RawMessage(`"boom"`))

	select {
	case <-call.Done():
		t.Fatal("unrelated delivery settled the call")
	default:
	}
	if n := c.requests.Len(); n != 1 {
		t.Errorf("expected 1 pending request, got %d", n)
	}
}

func TestRequestHostErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bridgeerrors.HostError
	}{
		{
			name:    "object",
			payload: `{"type":"t","code":"C","message":"m"}`,
			want:    bridgeerrors.HostError{Type: "t", Code: "C", Message: "m"},
		},
		{
			name:    "encoded object text",
			payload: `"{\"type\":\"t\",\"code\":\"C\",\"message\":\"m\"}"`,
			want:    bridgeerrors.HostError{Type: "t", Code: "C", Message: "m"},
		},
		{
			name:    "default message",
			payload: `{"type":"permission","code":"DENIED"}`,
			want:    bridgeerrors.HostError{Type: "permission", Code: "DENIED", Message: "permission: DENIED"},
		},
		{
			name:    "raw text",
			payload: `not json`,
			want:    bridgeerrors.HostError{Type: "unknown", Code: "UNKNOWN_ERROR", Message: "not json"},
		},
		{
			name:    "json string text",
			payload: `"not json"`,
			want:    bridgeerrors.HostError{Type: "unknown", Code: "UNKNOWN_ERROR", Message: "not json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newRecordingHost("x")
			c, _ := newTestClient(host.table)

			call, err := c.Request(context.Background(), "x", Payload{"a": 1})
			if err != nil {
				t.Fatalf("Request: %v", err)
			}
			c.DeliverRequestResult(host.lastID(t, "x", CallbackKey), nil, json.RawMessage(tt.payload))

			_, err = call.Wait(context.Background())
			hostErr, ok := bridgeerrors.AsHostError(err)
			if !ok {
				t.Fatalf("expected HostError, got %T (%v)", err, err)
			}
			if *hostErr != tt.want {
				t.Errorf("got %+v, want %+v", *hostErr, tt.want)
			}
		})
	}
}

func TestRequestFalsyErrorFulfils(t *testing.T) {
	for _, errPayload := range []string{"", "null", `""`, "false", "0"} {
		host := newRecordingHost("is24HourFormat")
		c, _ := newTestClient(host.table)

		call, err := c.Request(context.Background(), "is24HourFormat", nil)
		if err != nil {
			t.Fatalf("Request: %v", err)
		}
		c.DeliverRequestResult(host.lastID(t, "is24HourFormat", CallbackKey), json.RawMessage(`true`), json.RawMessage(errPayload))

		got, err := call.Wait(context.Background())
		if err != nil || string(got) != "true" {
			t.Errorf("error payload %q: got %s, %v", errPayload, got, err)
		}
	}
}

func TestRequestMissingChannel(t *testing.T) {
	host := newRecordingHost("getUserId")
	ids := &seqIDs{}
	c, _ := newTestClient(host.table, WithIDGenerator(ids))

	call, err := c.Request(context.Background(), "missingChannel", Payload{})
	if call != nil {
		t.Fatal("expected no call")
	}
	if !bridgeerrors.IsTransportUnavailable(err) {
		t.Fatalf("expected transport unavailable, got %v", err)
	}
	if n := c.requests.Len(); n != 0 {
		t.Fatalf("expected no pending entry, got %d", n)
	}

	// id1 is the id the failed request would have consumed.
	c.DeliverRequestResult("id1", json.RawMessage(`"stale"`), nil)

	next, err := c.Request(context.Background(), "getUserId", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if id := host.lastID(t, "getUserId", CallbackKey); id != "id1" {
		t.Fatalf("expected id1 to be unused, got %s", id)
	}
	select {
	case <-next.Done():
		t.Fatal("earlier delivery leaked into a new request")
	default:
	}
}

func TestRequestMessageShape(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    string
	}{
		{"nil payload sends bare id", nil, `"id1"`},
		{"empty payload sends object", Payload{}, `{"callbackId":"id1"}`},
		{"payload merged", Payload{"start": 1, "end": 2}, `{"callbackId":"id1","end":2,"start":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newRecordingHost("getCalendarEvents")
			c, _ := newTestClient(host.table, WithIDGenerator(&seqIDs{}))
			if _, err := c.Request(context.Background(), "getCalendarEvents", tt.payload); err != nil {
				t.Fatalf("Request: %v", err)
			}
			msgs := host.messages("getCalendarEvents")
			if len(msgs) != 1 || string(msgs[0]) != tt.want {
				t.Errorf("got %s, want %s", msgs, tt.want)
			}
		})
	}
}

func TestRequestRejectsReservedKey(t *testing.T) {
	host := newRecordingHost("getCalendarEvents")
	c, _ := newTestClient(host.table)

	_, err := c.Request(context.Background(), "getCalendarEvents", Payload{CallbackKey: "mine"})
	if !bridgeerrors.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if len(host.messages("getCalendarEvents")) != 0 {
		t.Error("nothing should be sent")
	}
}

func TestRequestSynchronousDelivery(t *testing.T) {
	table := newRecordingHost().table
	var c *Client
	table.Handle("getWidgetId", func(msg json.RawMessage) error {
		var id string
		if err := json.Unmarshal(msg, &id); err != nil {
			return err
		}
		c.DeliverRequestResult(id, json.RawMessage(`"w-42"`), nil)
		return nil
	})
	c, _ = newTestClient(table)

	call, err := c.Request(context.Background(), "getWidgetId", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	select {
	case <-call.Done():
	default:
		t.Fatal("call should already be settled")
	}
	got, err := call.Wait(context.Background())
	if err != nil || string(got) != `"w-42"` {
		t.Errorf("got %s, %v", got, err)
	}
}

func TestRequestSendFailureRemovesEntry(t *testing.T) {
	table := newRecordingHost().table
	boom := errors.New("pipe closed")
	table.Handle("getUserId", func(json.RawMessage) error { return boom })
	c, _ := newTestClient(table)

	_, err := c.Request(context.Background(), "getUserId", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
	if n := c.requests.Len(); n != 0 {
		t.Errorf("expected no pending entry, got %d", n)
	}
}

func TestWaitDeadlineAbandonsEntry(t *testing.T) {
	host := newRecordingHost("getSystemBattery")
	c, _ := newTestClient(host.table)

	call, err := c.Request(context.Background(), "getSystemBattery", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	id := host.lastID(t, "getSystemBattery", CallbackKey)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = call.Wait(ctx)
	if !bridgeerrors.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if n := c.requests.Len(); n != 0 {
		t.Fatalf("expected abandoned entry to be removed, got %d", n)
	}

	c.DeliverRequestResult(id, json.RawMessage(`80`), nil)
	if _, err := call.Wait(context.Background()); !bridgeerrors.IsTimeout(err) {
		t.Errorf("late delivery changed the outcome: %v", err)
	}
	if stats := c.requests.Stats(); stats.Abandoned != 1 || stats.Unknown != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestWaitCancel(t *testing.T) {
	host := newRecordingHost("getSystemCpu")
	c, _ := newTestClient(host.table)

	call, err := c.Request(context.Background(), "getSystemCpu", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := call.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitKeepsOutcomeOfClaimedDelivery(t *testing.T) {
	host := newRecordingHost("getUserId")
	c, _ := newTestClient(host.table)

	call, err := c.Request(context.Background(), "getUserId", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	id := host.lastID(t, "getUserId", CallbackKey)

	// A delivery has taken the entry but not yet settled the call.
	entry := c.requests.remove(id)
	if entry == nil {
		t.Fatal("entry missing before delivery")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	type outcome struct {
		raw json.RawMessage
		err error
	}
	waited := make(chan outcome, 1)
	go func() {
		raw, err := call.Wait(ctx)
		waited <- outcome{raw, err}
	}()

	select {
	case got := <-waited:
		t.Fatalf("Wait returned before the delivery settled: %s %v", got.raw, got.err)
	case <-time.After(50 * time.Millisecond):
	}

	entry.call.settle(json.RawMessage(`"u-1"`), nil)
	select {
	case got := <-waited:
		if got.err != nil || string(got.raw) != `"u-1"` {
			t.Fatalf("expected the delivered result, got %s %v", got.raw, got.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait never returned")
	}
	if stats := c.requests.Stats(); stats.Abandoned != 0 {
		t.Errorf("claimed entry counted as abandoned: %+v", stats)
	}
}

func TestDoAppliesRequestTimeout(t *testing.T) {
	host := newRecordingHost("getSystemMemory")
	c, _ := newTestClient(host.table, WithRequestTimeout(20*time.Millisecond))

	_, err := c.Do(context.Background(), "getSystemMemory", nil)
	if !bridgeerrors.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestDoWithoutTimeoutWaitsForHost(t *testing.T) {
	table := newRecordingHost().table
	var c *Client
	table.Handle("getSystemMemory", func(msg json.RawMessage) error {
		var id string
		if err := json.Unmarshal(msg, &id); err != nil {
			return err
		}
		go func() {
			time.Sleep(10 * time.Millisecond)
			c.DeliverRequestResult(id, json.RawMessage(`{"total":16}`), nil)
		}()
		return nil
	})
	c, _ = newTestClient(table)

	got, err := c.Do(context.Background(), "getSystemMemory", nil)
	if err != nil || string(got) != `{"total":16}` {
		t.Fatalf("got %s, %v", got, err)
	}
}

func TestCloseRejectsPending(t *testing.T) {
	host := newRecordingHost("getCalendars")
	c, _ := newTestClient(host.table)

	call, err := c.Request(context.Background(), "getCalendars", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	c.Close()
	c.Close()

	if _, err := call.Wait(context.Background()); !bridgeerrors.IsClosed(err) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if _, err := c.Request(context.Background(), "getCalendars", nil); !errors.Is(err, bridgeerrors.ErrClientClosed) {
		t.Fatalf("expected ErrClientClosed after close, got %v", err)
	}
}

func TestCallDecode(t *testing.T) {
	host := newRecordingHost("getCalendars")
	c, _ := newTestClient(host.table)
	ctx := context.Background()

	call, _ := c.Request(ctx, "getCalendars", nil)
	c.DeliverRequestResult(host.lastID(t, "getCalendars", CallbackKey), json.RawMessage(`[{"id":"c1"}]`), nil)

	var out []struct {
		ID string `json:"id"`
	}
	if err := call.Decode(ctx, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 1 || out[0].ID != "c1" {
		t.Errorf("decoded %+v", out)
	}

	bad, _ := c.Request(ctx, "getCalendars", nil)
	c.DeliverRequestResult(host.lastID(t, "getCalendars", CallbackKey), json.RawMessage(`"nope"`), nil)
	if err := bad.Decode(ctx, &out); !bridgeerrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestConcurrentRequests(t *testing.T) {
	table := newRecordingHost().table
	var c *Client
	table.Handle("echo", func(msg json.RawMessage) error {
		var env map[string]any
		if err := json.Unmarshal(msg, &env); err != nil {
			return err
		}
		id := env[CallbackKey].(string)
		n, _ := json.Marshal(env["n"])
		go c.DeliverRequestResult(id, n, nil)
		return nil
	})
	c, _ = newTestClient(table)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var got int
			call, err := c.Request(context.Background(), "echo", Payload{"n": i})
			if err != nil {
				t.Errorf("Request: %v", err)
				return
			}
			if err := call.Decode(context.Background(), &got); err != nil {
				t.Errorf("Decode: %v", err)
				return
			}
			if got != i {
				t.Errorf("request %d settled with %d", i, got)
			}
		}(i)
	}
	wg.Wait()

	if n := c.requests.Len(); n != 0 {
		t.Errorf("expected no pending requests, got %d", n)
	}
}
