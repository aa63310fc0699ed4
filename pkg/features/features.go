// Package features wraps individual host capabilities on top of the bridge
// request and observe primitives.
package features

import (
	"context"
	"encoding/json"

	"github.com/DeBrosOfficial/hostbridge/pkg/bridge"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
)

// Host channel names.
const (
	ChannelGetCalendars                = "getCalendars"
	ChannelGetCalendarEvents           = "getCalendarEvents"
	ChannelRegisterEventChangeObserver = "registerEventChangeObserver"
	ChannelGetSystemMemory             = "getSystemMemory"
	ChannelGetSystemCPU                = "getSystemCpu"
	ChannelGetSystemBattery            = "getSystemBattery"
	ChannelIs24HourFormat              = "is24HourFormat"
	ChannelGetUserID                   = "getUserId"
	ChannelGetWidgetID                 = "getWidgetId"
	ChannelGetCosmoURL                 = "getCosmoUrl"
	ChannelOpenURL                     = "openUrl"
	ChannelOpenCosmoURL                = "openCosmoUrl"
	ChannelSaveWidgetData              = "saveWidgetData"
)

// Bridge is the part of *bridge.Client the feature wrappers use.
type Bridge interface {
	Request(ctx context.Context, channel string, payload bridge.Payload) (*bridge.Call, error)
	Observe(channel string, callback bridge.ObserverFunc, payload bridge.Payload, opts ...bridge.ObserveOption) (bridge.Unsubscribe, error)
	Post(channel string, message any) error
}

// Features exposes typed wrappers for host capabilities.
type Features struct {
	bridge Bridge
	logger *logging.ColoredLogger
}

// New creates the feature set over b.
func New(b Bridge, logger *logging.ColoredLogger) *Features {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Features{bridge: b, logger: logger}
}

// request sends a request and decodes the result into out.
func (f *Features) request(ctx context.Context, channel string, payload bridge.Payload, out any) error {
	call, err := f.bridge.Request(ctx, channel, payload)
	if err != nil {
		return err
	}
	return call.Decode(ctx, out)
}

// raw sends a request and returns the undecoded result.
func (f *Features) raw(ctx context.Context, channel string, payload bridge.Payload) (json.RawMessage, error) {
	call, err := f.bridge.Request(ctx, channel, payload)
	if err != nil {
		return nil, err
	}
	return call.Wait(ctx)
}
