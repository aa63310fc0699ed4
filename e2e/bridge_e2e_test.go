//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
	"github.com/DeBrosOfficial/hostbridge/pkg/features"
)

func TestE2E_HostAnnouncesChannels(t *testing.T) {
	s := ConnectHost(t)
	channels := s.Conn.Channels()
	require.NotEmpty(t, channels, "host should announce at least one channel")
	t.Logf("host channels: %v", channels)
}

func TestE2E_UserAndWidgetIDs(t *testing.T) {
	s := ConnectHost(t)
	f := features.New(s.Client, s.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !s.Client.Has(features.ChannelGetUserID) {
		t.Skip("host does not expose getUserId")
	}
	userID, err := f.GetUserID(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	if s.Client.Has(features.ChannelGetWidgetID) {
		widgetID, err := f.GetWidgetID(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, widgetID)
	}
}

func TestE2E_CalendarEvents(t *testing.T) {
	s := ConnectHost(t)
	if !s.Client.Has(features.ChannelGetCalendarEvents) {
		t.Skip("host does not expose getCalendarEvents")
	}
	f := features.New(s.Client, s.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	events, err := f.GetCalendarEvents(ctx, now.AddDate(0, 0, -7), now.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.NotNil(t, events)
}

func TestE2E_ConcurrentRequests(t *testing.T) {
	s := ConnectHost(t)
	if !s.Client.Has(features.ChannelIs24HourFormat) {
		t.Skip("host does not expose is24HourFormat")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	const n = 50
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := s.Client.Do(ctx, features.ChannelIs24HourFormat, nil)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
	require.Empty(t, s.Client.Stats().Pending)
}

func TestE2E_MissingChannel(t *testing.T) {
	s := ConnectHost(t)
	_, err := s.Client.Request(context.Background(), "definitelyNotAChannel", nil)
	require.True(t, bridgeerrors.IsTransportUnavailable(err), "got %v", err)
}

func TestE2E_InspectorRequest(t *testing.T) {
	base := InspectorURL(t)

	body, _ := json.Marshal(map[string]any{"channel": features.ChannelIs24HourFormat, "timeout_ms": 5000})
	req, err := http.NewRequest(http.MethodPost, base+"/v1/bridge/request", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token := AuthToken(t); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		t.Skip("host behind the inspector does not expose is24HourFormat")
	}
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Result)
}
