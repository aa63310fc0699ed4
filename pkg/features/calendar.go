package features

import (
	"context"
	"time"

	"github.com/DeBrosOfficial/hostbridge/pkg/bridge"
)

// CalendarSource is the account a calendar belongs to.
type CalendarSource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

// CalendarInfo describes a host calendar. Unknown host fields are ignored.
type CalendarInfo struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Color               string          `json:"color,omitempty"`
	AllowsModifications bool            `json:"allowsModifications,omitempty"`
	Source              *CalendarSource `json:"source,omitempty"`
}

// CalendarEvent is a single event in a calendar.
type CalendarEvent struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendarId,omitempty"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	AllDay     bool   `json:"allDay,omitempty"`
	Location   string `json:"location,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// GetCalendars lists the host's calendars.
func (f *Features) GetCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var out []CalendarInfo
	if err := f.request(ctx, ChannelGetCalendars, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCalendarEvents lists events between start and end. Bounds are sent as
// RFC 3339 timestamps in UTC.
func (f *Features) GetCalendarEvents(ctx context.Context, start, end time.Time) ([]CalendarEvent, error) {
	payload := bridge.Payload{
		"start": start.UTC().Format(time.RFC3339),
		"end":   end.UTC().Format(time.RFC3339),
	}
	var out []CalendarEvent
	if err := f.request(ctx, ChannelGetCalendarEvents, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ObserveEventChanges calls cb whenever the host reports calendar changes.
func (f *Features) ObserveEventChanges(cb bridge.ObserverFunc) (bridge.Unsubscribe, error) {
	return f.bridge.Observe(ChannelRegisterEventChangeObserver, cb, nil)
}
