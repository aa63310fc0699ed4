package devhost

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
	"github.com/DeBrosOfficial/hostbridge/pkg/features"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
)

// Fixture is the canned data a development host answers with.
type Fixture struct {
	UserID       string            `yaml:"user_id"`
	WidgetID     string            `yaml:"widget_id"`
	Use24Hour    bool              `yaml:"use_24_hour"`
	CosmoBaseURL string            `yaml:"cosmo_base_url"`
	Calendars    []CalendarFixture `yaml:"calendars"`
	Events       []EventFixture    `yaml:"events"`
}

// CalendarFixture is one calendar in a fixture file.
type CalendarFixture struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Color string `yaml:"color"`
}

// EventFixture is one calendar event in a fixture file.
type EventFixture struct {
	ID         string    `yaml:"id"`
	CalendarID string    `yaml:"calendar_id"`
	Title      string    `yaml:"title"`
	Start      time.Time `yaml:"start"`
	End        time.Time `yaml:"end"`
	AllDay     bool      `yaml:"all_day"`
	Location   string    `yaml:"location"`
}

// DefaultFixture returns a small fixture with one calendar.
func DefaultFixture() *Fixture {
	return &Fixture{
		UserID:       "dev-user",
		WidgetID:     "dev-widget",
		Use24Hour:    true,
		CosmoBaseURL: "http://127.0.0.1:7800",
		Calendars:    []CalendarFixture{{ID: "work", Title: "Work", Color: "#00D4AA"}},
	}
}

// LoadFixture reads a YAML fixture over DefaultFixture. Unknown fields are rejected.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture %s: %w", path, err)
	}
	defer f.Close()

	fx := DefaultFixture()
	if err := config.DecodeStrict(f, fx); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return fx, nil
}

func (fx *Fixture) calendars() []features.CalendarInfo {
	out := make([]features.CalendarInfo, 0, len(fx.Calendars))
	for _, c := range fx.Calendars {
		out = append(out, features.CalendarInfo{ID: c.ID, Title: c.Title, Color: c.Color})
	}
	return out
}

// Install registers every host channel the widget features use, answering
// from fx and from live system statistics. It returns the calendar change
// topic and the store behind saveWidgetData.
func Install(h *Host, fx *Fixture) (*Topic, *WidgetStore) {
	store := &WidgetStore{}

	h.HandleRequest(features.ChannelGetCalendars, func(context.Context, json.RawMessage) (any, error) {
		return fx.calendars(), nil
	})
	h.HandleRequest(features.ChannelGetCalendarEvents, func(_ context.Context, payload json.RawMessage) (any, error) {
		return eventsBetween(fx.Events, payload)
	})
	h.HandleRequest(features.ChannelGetSystemMemory, systemMemory)
	h.HandleRequest(features.ChannelGetSystemCPU, systemCPU)
	h.HandleRequest(features.ChannelGetSystemBattery, systemBattery)
	h.HandleRequest(features.ChannelIs24HourFormat, func(context.Context, json.RawMessage) (any, error) {
		return fx.Use24Hour, nil
	})
	h.HandleRequest(features.ChannelGetUserID, func(context.Context, json.RawMessage) (any, error) {
		return fx.UserID, nil
	})
	h.HandleRequest(features.ChannelGetWidgetID, func(context.Context, json.RawMessage) (any, error) {
		return fx.WidgetID, nil
	})
	h.HandleRequest(features.ChannelGetCosmoURL, func(_ context.Context, payload json.RawMessage) (any, error) {
		var req struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, bridgeerrors.NewHostError("url", "INVALID_PAYLOAD", "")
		}
		return strings.TrimRight(fx.CosmoBaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/"), nil
	})

	h.HandlePost(features.ChannelOpenURL, func(message json.RawMessage) {
		h.logger.ComponentInfo(logging.ComponentDevHost, "open url", zap.ByteString("url", message))
	})
	h.HandlePost(features.ChannelOpenCosmoURL, func(message json.RawMessage) {
		h.logger.ComponentInfo(logging.ComponentDevHost, "open cosmo url", zap.ByteString("path", message))
	})
	h.HandlePost(features.ChannelSaveWidgetData, store.save)

	topic := h.Topic(features.ChannelRegisterEventChangeObserver, "unregisterEventChangeObserver")
	return topic, store
}

func eventsBetween(events []EventFixture, payload json.RawMessage) (any, error) {
	var req struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, bridgeerrors.NewHostError("calendar", "INVALID_PAYLOAD", "")
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return nil, bridgeerrors.NewHostError("calendar", "INVALID_DATE", "start: "+err.Error())
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return nil, bridgeerrors.NewHostError("calendar", "INVALID_DATE", "end: "+err.Error())
	}

	out := []features.CalendarEvent{}
	for _, ev := range events {
		if ev.Start.Before(end) && ev.End.After(start) {
			out = append(out, features.CalendarEvent{
				ID:         ev.ID,
				CalendarID: ev.CalendarID,
				Title:      ev.Title,
				Start:      ev.Start.UTC().Format(time.RFC3339),
				End:        ev.End.UTC().Format(time.RFC3339),
				AllDay:     ev.AllDay,
				Location:   ev.Location,
			})
		}
	}
	return out, nil
}

// WidgetStore keeps the last payload posted to saveWidgetData.
type WidgetStore struct {
	mu    sync.Mutex
	last  string
	saves int
}

func (s *WidgetStore) save(message json.RawMessage) {
	var text string
	if err := json.Unmarshal(message, &text); err != nil {
		text = string(message)
	}
	s.mu.Lock()
	s.last = text
	s.saves++
	s.mu.Unlock()
}

// Last returns the most recent saved data and the number of saves.
func (s *WidgetStore) Last() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.saves
}
